package amqp

import "encoding/json"

// EventMessage is the thin notification published to the broker. It carries
// only the queued event's ID and version; the worker loads the payload from
// storage so the broker never sees user data.
type EventMessage struct {
	ID      int64 `json:"id"`
	Version int64 `json:"version"`
}

// NewEventMessage creates a message for a queued notification event.
func NewEventMessage(id, version int64) *EventMessage {
	return &EventMessage{ID: id, Version: version}
}

// ToJSON serializes the message.
func (m *EventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EventMessageFromJSON deserializes a message.
func EventMessageFromJSON(data []byte) (*EventMessage, error) {
	var m EventMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
