package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cozelabs/agentgraph"
	"github.com/cozelabs/agentgraph/engine"
	"github.com/cozelabs/agentgraph/graph"
	"github.com/cozelabs/agentgraph/store"
	"github.com/cozelabs/agentgraph/types"
)

// WorkflowHandler serves workflow CRUD and execution endpoints.
type WorkflowHandler struct {
	store  *store.Store
	engine *agentgraph.Engine
	logger *zap.Logger
}

// NewWorkflowHandler creates the workflow handler.
func NewWorkflowHandler(st *store.Store, eng *agentgraph.Engine, logger *zap.Logger) *WorkflowHandler {
	return &WorkflowHandler{
		store:  st,
		engine: eng,
		logger: logger.With(zap.String("component", "workflow_handler")),
	}
}

// workflowSummary is the list/get representation of a saved workflow.
type workflowSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func summarize(w *store.Workflow) workflowSummary {
	return workflowSummary{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		Active:      w.Active,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

// HandleCreate saves a new workflow definition.
// POST /v1/workflows
func (h *WorkflowHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var def graph.Definition
	if !DecodeJSONBody(w, r, &def, h.logger) {
		return
	}
	record, err := h.store.Save(r.Context(), &def)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusCreated, Response{Success: true, Data: summarize(record), Timestamp: time.Now()})
}

// HandleList lists saved workflows.
// GET /v1/workflows
func (h *WorkflowHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.List(r.Context())
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	summaries := make([]workflowSummary, 0, len(records))
	for i := range records {
		summaries = append(summaries, summarize(&records[i]))
	}
	WriteSuccess(w, summaries)
}

// HandleGet returns one workflow with its full definition.
// GET /v1/workflows/{id}
func (h *WorkflowHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	record, err := h.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	def, err := record.Graph()
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, map[string]any{
		"workflow":   summarize(record),
		"definition": def,
	})
}

// HandleUpdate replaces a workflow definition.
// PUT /v1/workflows/{id}
func (h *WorkflowHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var def graph.Definition
	if !DecodeJSONBody(w, r, &def, h.logger) {
		return
	}
	if err := h.store.Update(r.Context(), r.PathValue("id"), &def); err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, map[string]any{"id": r.PathValue("id")})
}

// HandleDelete removes a workflow.
// DELETE /v1/workflows/{id}
func (h *WorkflowHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), r.PathValue("id")); err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, map[string]any{"id": r.PathValue("id")})
}

// RunRequest is the body of a synchronous run.
type RunRequest struct {
	Query   string          `json:"query"`
	History []types.Message `json:"history,omitempty"`
}

// RunResponse carries the outcome of a synchronous run.
type RunResponse struct {
	FinalAnswer string `json:"final_answer"`
	Plan        string `json:"plan,omitempty"`
	Steps       int    `json:"steps"`
}

// HandleRun executes a saved workflow to completion.
// POST /v1/workflows/{id}/run
func (h *WorkflowHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if !DecodeJSONBody(w, r, &req, h.logger) {
		return
	}

	def, _ := h.loadRunnable(w, r)
	if def == nil {
		return
	}

	ctx := types.WithRunID(r.Context(), uuid.NewString())
	start := time.Now()
	final, err := h.engine.Run(ctx, def, req.Query, req.History)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	steps, _ := final["step_count"].(int)
	h.logger.Info("workflow run finished",
		zap.String("workflow_id", r.PathValue("id")),
		zap.Duration("duration", time.Since(start)))

	plan, _ := final[engine.KeyPlan].(string)
	answer, _ := final[engine.KeyFinalAnswer].(string)
	WriteSuccess(w, RunResponse{FinalAnswer: answer, Plan: plan, Steps: steps})
}

// loadRunnable fetches a workflow and rejects inactive ones. Writes the
// error response itself and returns nil when the run must not proceed.
func (h *WorkflowHandler) loadRunnable(w http.ResponseWriter, r *http.Request) (*graph.Definition, error) {
	record, err := h.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, err, h.logger)
		return nil, err
	}
	if !record.Active {
		err := types.NewError(types.ErrValidation, "workflow is disabled")
		WriteError(w, err, h.logger)
		return nil, err
	}
	def, err := record.Graph()
	if err != nil {
		WriteError(w, err, h.logger)
		return nil, err
	}
	return def, nil
}
