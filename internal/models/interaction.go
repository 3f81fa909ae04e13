package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

type InteractionKind string

const (
	KindClick         InteractionKind = "click"
	KindScroll        InteractionKind = "scroll"
	KindVideoPlay     InteractionKind = "video_play"
	KindVideoPause    InteractionKind = "video_pause"
	KindQuizAttempt   InteractionKind = "quiz_attempt"
	KindNoteCreated   InteractionKind = "note_created"
	KindBookmarkAdded InteractionKind = "bookmark_added"
)

// InteractionData is the kind-specific payload of an InteractionEvent.
// Only the payload types in this file implement it.
type InteractionData interface {
	interactionData()
}

type ClickData struct {
	Action string `json:"action"`
}

type ScrollData struct {
	Depth float64 `json:"depth"`
}

type VideoData struct {
	ProgressPercentage float64 `json:"progress_percentage"`
	TimeSpentSeconds   float64 `json:"time_spent_seconds"`
	PositionSeconds    float64 `json:"position_seconds,omitempty"`
}

type QuizData struct {
	QuizID         string  `json:"quiz_id"`
	Score          float64 `json:"score"`
	TotalQuestions int     `json:"total_questions"`
	Percentage     float64 `json:"percentage"`
}

// NoteData carries the note's length only, never its content.
type NoteData struct {
	NoteID        string `json:"note_id"`
	ContentLength int    `json:"content_length"`
}

func (ClickData) interactionData()  {}
func (ScrollData) interactionData() {}
func (VideoData) interactionData()  {}
func (QuizData) interactionData()   {}
func (NoteData) interactionData()   {}

type InteractionEvent struct {
	Kind      InteractionKind `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	ElementID string          `json:"element_id,omitempty"`
	ModuleID  string          `json:"module_id,omitempty"`
	CourseID  string          `json:"course_id,omitempty"`
	Data      InteractionData `json:"data,omitempty"`
}

// Validate checks that the kind is known and that Data is the payload type
// that belongs to it.
func (e InteractionEvent) Validate() error {
	ok := false
	switch e.Kind {
	case KindClick:
		_, ok = e.Data.(ClickData)
	case KindScroll:
		_, ok = e.Data.(ScrollData)
	case KindVideoPlay, KindVideoPause:
		_, ok = e.Data.(VideoData)
	case KindQuizAttempt:
		_, ok = e.Data.(QuizData)
	case KindNoteCreated:
		_, ok = e.Data.(NoteData)
	case KindBookmarkAdded:
		ok = e.Data == nil
	default:
		return fmt.Errorf("unknown interaction type %q", e.Kind)
	}
	if !ok {
		return fmt.Errorf("payload %T does not belong to interaction type %q", e.Data, e.Kind)
	}
	return nil
}

type interactionWire struct {
	Kind      InteractionKind `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	ElementID string          `json:"element_id,omitempty"`
	ModuleID  string          `json:"module_id,omitempty"`
	CourseID  string          `json:"course_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func (e InteractionEvent) MarshalJSON() ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	w := interactionWire{
		Kind:      e.Kind,
		Timestamp: e.Timestamp,
		ElementID: e.ElementID,
		ModuleID:  e.ModuleID,
		CourseID:  e.CourseID,
	}
	if e.Data != nil {
		raw, err := json.Marshal(e.Data)
		if err != nil {
			return nil, err
		}
		w.Data = raw
	}
	return json.Marshal(w)
}

func (e *InteractionEvent) UnmarshalJSON(b []byte) error {
	var w interactionWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	data, err := decodeInteractionData(w.Kind, w.Data)
	if err != nil {
		return err
	}

	*e = InteractionEvent{
		Kind:      w.Kind,
		Timestamp: w.Timestamp,
		ElementID: w.ElementID,
		ModuleID:  w.ModuleID,
		CourseID:  w.CourseID,
		Data:      data,
	}
	return nil
}

func decodeInteractionData(kind InteractionKind, raw json.RawMessage) (InteractionData, error) {
	empty := len(raw) == 0 || bytes.Equal(raw, []byte("null"))

	switch kind {
	case KindClick:
		var d ClickData
		return d, strictDecode(raw, &d)
	case KindScroll:
		var d ScrollData
		return d, strictDecode(raw, &d)
	case KindVideoPlay, KindVideoPause:
		var d VideoData
		return d, strictDecode(raw, &d)
	case KindQuizAttempt:
		var d QuizData
		return d, strictDecode(raw, &d)
	case KindNoteCreated:
		var d NoteData
		return d, strictDecode(raw, &d)
	case KindBookmarkAdded:
		if !empty && !bytes.Equal(bytes.TrimSpace(raw), []byte("{}")) {
			return nil, fmt.Errorf("interaction type %q takes no payload", kind)
		}
		return nil, nil
	}
	return nil, fmt.Errorf("unknown interaction type %q", kind)
}

// strictDecode rejects fields that do not belong to the target payload.
func strictDecode(raw json.RawMessage, v any) error {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid interaction payload: %w", err)
	}
	return nil
}
