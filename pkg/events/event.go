package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "archive.ingested").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the concrete event carried on both buses.
type BaseEvent struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
	// Origin is the id of the instance that produced the event.
	Origin string `json:"origin,omitempty"`
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

const TypeArchiveIngested = "archive.ingested"

// NewArchiveIngested announces a newly persisted archive.
func NewArchiveIngested(archiveID, title, origin string) BaseEvent {
	return BaseEvent{
		Type: TypeArchiveIngested,
		Data: map[string]interface{}{
			"archive_id": archiveID,
			"title":      title,
		},
		OccurredAt: time.Now().UTC(),
		Origin:     origin,
	}
}

// Encode serializes an event for the wire.
func Encode(e Event) ([]byte, error) {
	base := BaseEvent{Type: e.EventType(), Data: e.Payload(), OccurredAt: e.Timestamp()}
	if b, ok := e.(BaseEvent); ok {
		base.Origin = b.Origin
	}
	return json.Marshal(base)
}

// Decode is the inverse of Encode.
func Decode(data []byte) (BaseEvent, error) {
	var e BaseEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return BaseEvent{}, fmt.Errorf("failed to decode event: %w", err)
	}
	if e.Type == "" {
		return BaseEvent{}, fmt.Errorf("failed to decode event: missing type")
	}
	return e, nil
}

// ArchiveID reads the archive id of an archive event, or "".
func ArchiveID(e Event) string {
	id, _ := e.Payload()["archive_id"].(string)
	return id
}
