package amqp

import (
	"encoding/json"
	"time"
)

// DatasetRefreshMessage announces that the dataset file was rebuilt and the
// server should reload its in-memory indexes. The message carries no data:
// consumers read the refreshed tables straight from the sqlite file.
type DatasetRefreshMessage struct {
	Source    string    `json:"source"` // what rebuilt the dataset, e.g. "ingest"
	Tables    []string  `json:"tables"` // tables touched by the rebuild
	Timestamp time.Time `json:"timestamp"`
}

// NewDatasetRefreshMessage creates a refresh announcement.
func NewDatasetRefreshMessage(source string, tables []string) *DatasetRefreshMessage {
	return &DatasetRefreshMessage{
		Source:    source,
		Tables:    tables,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *DatasetRefreshMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DatasetRefreshMessageFromJSON parses a refresh announcement.
func DatasetRefreshMessageFromJSON(data []byte) (*DatasetRefreshMessage, error) {
	var msg DatasetRefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
