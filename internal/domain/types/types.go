// Package types contains read shapes shared by the service and the HTTP API.
package types

import "github.com/okian/livescore/internal/domain/model"

// EventList is the snapshot returned by GET /events.
type EventList struct {
	Total  int           `json:"total"`
	Events []model.Event `json:"events"`
}
