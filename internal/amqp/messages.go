package amqp

import (
	"encoding/json"
	"time"
)

// DatasetLoadedMessage announces that a store was reset and reloaded. It
// carries counts only; consumers read the data from the store itself.
type DatasetLoadedMessage struct {
	Source        string    `json:"source"`
	DBPath        string    `json:"db_path"`
	SchemaVersion uint      `json:"schema_version"`
	Users         int       `json:"users"`
	Categories    int       `json:"categories"`
	Transactions  int       `json:"transactions"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewDatasetLoadedMessage(source, dbPath string, schemaVersion uint, users, categories, transactions int) *DatasetLoadedMessage {
	return &DatasetLoadedMessage{
		Source:        source,
		DBPath:        dbPath,
		SchemaVersion: schemaVersion,
		Users:         users,
		Categories:    categories,
		Transactions:  transactions,
		Timestamp:     time.Now().UTC(),
	}
}

func (m *DatasetLoadedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func DatasetLoadedMessageFromJSON(data []byte) (*DatasetLoadedMessage, error) {
	var msg DatasetLoadedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
