package model

import "time"

type GenerationKind string

const (
	GenerationVideo GenerationKind = "video"
	GenerationImage GenerationKind = "image"
)

type GenerationStatus string

const (
	GenerationQueued    GenerationStatus = "queued"
	GenerationRunning   GenerationStatus = "running"
	GenerationFailed    GenerationStatus = "failed"
	GenerationSucceeded GenerationStatus = "succeeded"
)

// Generation tracks one asynchronous generation request from submission to
// its terminal state. The produced artifact itself lands in the history
// ledger; HistoryID links to it once recorded.
type Generation struct {
	ID           string           `json:"id"`
	Kind         GenerationKind   `json:"kind"`
	Status       GenerationStatus `json:"status"`
	Progress     float64          `json:"progress"`
	SceneCount   int              `json:"scene_count,omitempty"`
	HistoryID    string           `json:"history_id,omitempty"`
	ResultText   string           `json:"result_text,omitempty"`
	ErrorCode    string           `json:"error_code,omitempty"`
	ErrorMessage string           `json:"error_message,omitempty"`
	TraceID      string           `json:"trace_id"`
	CreatedAt    time.Time        `json:"created_at"`
	StartedAt    time.Time        `json:"started_at,omitempty"`
	EndedAt      time.Time        `json:"ended_at,omitempty"`
}

type GenerationEventType string

const (
	EventGenerationQueued    GenerationEventType = "generation_queued"
	EventGenerationRunning   GenerationEventType = "generation_running"
	EventSceneStarted        GenerationEventType = "scene_started"
	EventSceneCompleted      GenerationEventType = "scene_completed"
	EventHistorySaved        GenerationEventType = "history_saved"
	EventHistorySaveFailed   GenerationEventType = "history_save_failed"
	EventGenerationSucceeded GenerationEventType = "generation_succeeded"
	EventGenerationFailed    GenerationEventType = "generation_failed"
)

// GenerationEvent is one entry of a generation's append-only event log,
// replayable over SSE via its per-generation sequence number.
type GenerationEvent struct {
	EventID      string              `json:"event_id"`
	Seq          int64               `json:"seq"`
	GenerationID string              `json:"generation_id"`
	Type         GenerationEventType `json:"type"`
	TS           time.Time           `json:"ts"`
	Payload      map[string]any      `json:"payload"`
}

func IsGenerationTerminal(status GenerationStatus) bool {
	return status == GenerationSucceeded || status == GenerationFailed
}

func IsGenerationTerminalEvent(t GenerationEventType) bool {
	return t == EventGenerationSucceeded || t == EventGenerationFailed
}
