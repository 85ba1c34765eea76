package types

import "time"

// EventKind classifies execution events emitted while a workflow runs.
type EventKind string

const (
	// EventNodeStart is emitted before a node handler begins execution.
	EventNodeStart EventKind = "node_start"
	// EventNodeEnd is emitted after a node handler finishes.
	EventNodeEnd EventKind = "node_end"
	// EventContent carries the final answer content.
	EventContent EventKind = "content"
	// EventError is emitted when a run fails or a recoverable error is absorbed.
	EventError EventKind = "error"
)

// ExecutionEvent carries progress information about one workflow run.
// Events are produced by node handlers and the driver, and consumed by the
// per-run event sink feeding the chat UI.
type ExecutionEvent struct {
	Kind        EventKind `json:"kind"`
	NodeID      string    `json:"node_id,omitempty"`
	NodeType    string    `json:"node_type,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	Thought     string    `json:"thought,omitempty"`
	Observation string    `json:"observation,omitempty"`
	Status      string    `json:"status,omitempty"`
	Content     string    `json:"content,omitempty"`
	Timestamp   time.Time `json:"timestamp,omitempty"`
}

// NewNodeStartEvent creates a node_start event for the given node.
func NewNodeStartEvent(nodeID, nodeType, icon string) ExecutionEvent {
	return ExecutionEvent{
		Kind:      EventNodeStart,
		NodeID:    nodeID,
		NodeType:  nodeType,
		Icon:      icon,
		Status:    "running",
		Timestamp: time.Now(),
	}
}

// NewNodeEndEvent creates a node_end event for the given node.
func NewNodeEndEvent(nodeID, nodeType, status string) ExecutionEvent {
	return ExecutionEvent{
		Kind:      EventNodeEnd,
		NodeID:    nodeID,
		NodeType:  nodeType,
		Status:    status,
		Timestamp: time.Now(),
	}
}

// NewContentEvent creates the terminal content event carrying the final answer.
func NewContentEvent(content string) ExecutionEvent {
	return ExecutionEvent{
		Kind:      EventContent,
		Content:   content,
		Status:    "completed",
		Timestamp: time.Now(),
	}
}

// NewErrorEvent creates an error event.
func NewErrorEvent(nodeID, message string) ExecutionEvent {
	return ExecutionEvent{
		Kind:        EventError,
		NodeID:      nodeID,
		Observation: message,
		Status:      "failed",
		Timestamp:   time.Now(),
	}
}
