package model

import "time"

// MessageKind identifies the transition a notification describes.
type MessageKind string

const (
	KindNewEvent     MessageKind = "NEW_EVENT"
	KindStatusUpdate MessageKind = "STATUS_UPDATE"
	KindPeriodUpdate MessageKind = "PERIOD_UPDATE"
	KindScoreUpdate  MessageKind = "SCORE_UPDATE"
	KindRemoveEvent  MessageKind = "REMOVE_EVENT"
)

// TopicNewEvent is the reserved topic carrying new-event announcements.
// Every other topic is an event id.
const TopicNewEvent = "NEW_EVENT"

// Message is a single notification routed to a topic.
type Message struct {
	Topic   string      `json:"topic"`
	Kind    MessageKind `json:"kind"`
	Payload any         `json:"payload"`
	At      time.Time   `json:"at"`
}

// StatusPayload accompanies STATUS_UPDATE.
type StatusPayload struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
}

// PeriodPayload accompanies PERIOD_UPDATE.
type PeriodPayload struct {
	ID     string `json:"id"`
	Period Period `json:"period"`
}

// ScorePayload accompanies SCORE_UPDATE.
type ScorePayload struct {
	ID    string `json:"id"`
	Score Score  `json:"score"`
}

// RemovePayload accompanies REMOVE_EVENT.
type RemovePayload struct {
	ID string `json:"id"`
}
