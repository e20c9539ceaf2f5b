package amqp

import (
	"encoding/json"
	"time"
)

// EntryCreatedMessage carries only the entry ID and version; the worker
// fetches the full entry from the database before exporting.
type EntryCreatedMessage struct {
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEntryCreatedMessage(id, version int64) *EntryCreatedMessage {
	return &EntryCreatedMessage{
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

func (m *EntryCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func EntryCreatedMessageFromJSON(data []byte) (*EntryCreatedMessage, error) {
	var msg EntryCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
