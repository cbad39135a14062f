package service

import (
	"time"

	"github.com/wricardo/mcp-training/tileslide/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string           `json:"id"`
	Profile        string           `json:"profile"`
	CreatedAt      time.Time        `json:"created_at"`
	LastAccessedAt time.Time        `json:"last_accessed_at"`
	State          *engine.Snapshot `json:"state"`
}

// EventRecord is a simulation event stamped with wall time and sequence
type EventRecord struct {
	engine.Event
	Seq       int       `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
}

// MoveResult contains the result of a swipe or move
type MoveResult struct {
	Accepted  bool             `json:"accepted"`
	Direction string           `json:"direction,omitempty"`
	Message   string           `json:"message"`
	State     *engine.Snapshot `json:"state"`
	Events    []EventRecord    `json:"events,omitempty"`
}

// ActionResult contains the result of a control action
type ActionResult struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	State   *engine.Snapshot `json:"state"`
	Events  []EventRecord    `json:"events,omitempty"`
}

// AdvanceResult contains the result of advancing simulated time
type AdvanceResult struct {
	Steps   int              `json:"steps"`
	DT      float64          `json:"dt"`
	Elapsed float64          `json:"elapsed"`
	State   *engine.Snapshot `json:"state"`
	Events  []EventRecord    `json:"events,omitempty"`
}

// HistoryOptions configures event history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains the recorded stop positions and a page of recent
// events
type HistoryResponse struct {
	Stops       []engine.Vec2 `json:"stops"`
	Events      []EventRecord `json:"events"`
	TotalEvents int           `json:"total_events"`
	Page        int           `json:"page"`
	PageSize    int           `json:"page_size"`
	TotalPages  int           `json:"total_pages"`
	HasNext     bool          `json:"has_next"`
	HasPrevious bool          `json:"has_previous"`
}

// LevelInfo provides information about a level file
type LevelInfo struct {
	Filename    string `json:"filename"`
	LevelID     string `json:"level_id"` // The identifier to use with LoadLevel
	Name        string `json:"name"`
	Description string `json:"description"`
	Order       int    `json:"order"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Tiles       int    `json:"tiles"`
}
