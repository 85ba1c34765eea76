package handlers

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cozelabs/agentgraph/types"
)

// HandleStream executes a saved workflow and streams its execution events
// over a websocket. The stream ends with a content event carrying the final
// answer, or an error event. Closing the socket aborts the run.
// GET /v1/workflows/{id}/stream?query=...
func (h *WorkflowHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		WriteError(w, types.NewError(types.ErrValidation, "query parameter is required"), h.logger)
		return
	}
	def, _ := h.loadRunnable(w, r)
	if def == nil {
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	// The socket context ends when the client disconnects, aborting the run
	// at its next suspension point.
	runID := uuid.NewString()
	ctx := types.WithRunID(r.Context(), runID)

	sink, err := h.engine.Stream(ctx, def, query, nil)
	if err != nil {
		_ = wsjson.Write(ctx, conn, types.NewErrorEvent("", err.Error()))
		_ = conn.Close(websocket.StatusInternalError, "workflow failed to start")
		return
	}

	for ev := range sink.Events() {
		if err := wsjson.Write(ctx, conn, ev); err != nil {
			h.logger.Debug("stream consumer gone",
				zap.String("run_id", runID), zap.Error(err))
			return
		}
	}
	_ = conn.Close(websocket.StatusNormalClosure, "run finished")
}
