package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DatasetChangeMessage announces that a blob key changed. It carries only
// the key and the dataset version; consumers fetch the blob themselves.
type DatasetChangeMessage struct {
	MessageID string    `json:"messageId"`
	Key       string    `json:"key"`
	Version   uint64    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewDatasetChangeMessage(key string, version uint64) *DatasetChangeMessage {
	return &DatasetChangeMessage{
		MessageID: uuid.NewString(),
		Key:       key,
		Version:   version,
		Timestamp: time.Now(),
	}
}

func (m *DatasetChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func DatasetChangeMessageFromJSON(data []byte) (*DatasetChangeMessage, error) {
	var msg DatasetChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
