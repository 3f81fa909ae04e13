package models

// WebSocket message types
type WSMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

const (
	WSSessionStarted   = "session_started"
	WSSessionEnded     = "session_ended"
	WSProgressUpdated  = "progress_updated"
	WSAnalyticsUpdated = "analytics_updated"
	WSError            = "error"
)

type SessionEvent struct {
	SessionID string `json:"session_id"`
	ClientID  string `json:"client_id"`
}

type UserUpdateEvent struct {
	UserID   string `json:"user_id"`
	CourseID string `json:"course_id,omitempty"`
	Reason   string `json:"reason"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
