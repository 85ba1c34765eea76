// Package handlers implements the HTTP API: workflow CRUD, synchronous
// runs, live event streaming, and health probes.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cozelabs/agentgraph/graph"
	"github.com/cozelabs/agentgraph/store"
	"github.com/cozelabs/agentgraph/types"
)

// Response is the uniform API response envelope.
type Response struct {
	Success   bool       `json:"success"`
	Data      any        `json:"data,omitempty"`
	Error     *ErrorInfo `json:"error,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// ErrorInfo describes an API error.
type ErrorInfo struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	NodeID    string `json:"node_id,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// WriteJSON writes data as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a success envelope.
func WriteSuccess(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Response{Success: true, Data: data, Timestamp: time.Now()})
}

// WriteError maps an error to an HTTP status and writes the error envelope.
func WriteError(w http.ResponseWriter, err error, logger *zap.Logger) {
	status, info := classifyError(err)
	if logger != nil {
		logger.Warn("API error",
			zap.String("code", info.Code),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	WriteJSON(w, status, Response{Success: false, Error: info, Timestamp: time.Now()})
}

// DecodeJSONBody decodes the request body into v, writing a 400 on failure.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, v any, logger *zap.Logger) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		WriteError(w, types.NewError(types.ErrValidation, "malformed JSON body").WithCause(err), logger)
		return false
	}
	return true
}

func classifyError(err error) (int, *ErrorInfo) {
	var verr *graph.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, &ErrorInfo{
			Code:    string(types.ErrValidation),
			Message: verr.Reason,
			NodeID:  verr.NodeID,
		}
	}
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound, &ErrorInfo{Code: "NOT_FOUND", Message: err.Error()}
	}

	var typed *types.Error
	if errors.As(err, &typed) {
		return statusForCode(typed.Code), &ErrorInfo{
			Code:      string(typed.Code),
			Message:   typed.Message,
			NodeID:    typed.NodeID,
			Retryable: typed.Retryable,
		}
	}
	return http.StatusInternalServerError, &ErrorInfo{Code: "INTERNAL", Message: err.Error()}
}

func statusForCode(code types.ErrorCode) int {
	switch code {
	case types.ErrValidation:
		return http.StatusBadRequest
	case types.ErrToolNotFound:
		return http.StatusNotFound
	case types.ErrLLMRateLimited:
		return http.StatusTooManyRequests
	case types.ErrToolTimeout, types.ErrLLMTimeout:
		return http.StatusGatewayTimeout
	case types.ErrRunAborted:
		return 499 // client closed request
	case types.ErrRetrievalUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
