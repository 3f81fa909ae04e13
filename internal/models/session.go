package models

import "time"

// Session is one continuous period of activity of a signed-in user on one
// client. It is closed at most once.
type Session struct {
	ID           string             `json:"id"`
	UserID       string             `json:"user_id"`
	StartTime    time.Time          `json:"start_time"`
	EndTime      *time.Time         `json:"end_time,omitempty"`
	Duration     time.Duration      `json:"-"`
	PageViews    []string           `json:"page_views"`
	Interactions []InteractionEvent `json:"interactions"`
	Device       DeviceInfo         `json:"device"`
}

// SessionRecord is the stored summary of a closed session.
type SessionRecord struct {
	ID           string             `json:"id"`
	UserID       string             `json:"user_id"`
	StartTime    time.Time          `json:"start_time"`
	EndTime      time.Time          `json:"end_time"`
	DurationMs   int64              `json:"duration_ms"`
	TimeSlot     string             `json:"time_slot"`
	PageViews    []string           `json:"page_views"`
	Interactions []InteractionEvent `json:"interactions"`
	Device       DeviceInfo         `json:"device"`
}
