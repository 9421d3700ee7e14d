package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// RunRequestMessage asks a worker to run the reconciliation pipeline
// against one spreadsheet. The run id is assigned by the publisher so the
// caller can poll the run log.
type RunRequestMessage struct {
	RunID         string    `json:"run_id"`
	SpreadsheetID string    `json:"spreadsheet_id"`
	CreatedBy     string    `json:"created_by"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewRunRequestMessage creates a new run request stamped with the current time
func NewRunRequestMessage(runID, spreadsheetID, createdBy string) *RunRequestMessage {
	return &RunRequestMessage{
		RunID:         runID,
		SpreadsheetID: spreadsheetID,
		CreatedBy:     createdBy,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RunRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RunRequestMessageFromJSON decodes a message; a request without a
// spreadsheet id is rejected.
func RunRequestMessageFromJSON(data []byte) (*RunRequestMessage, error) {
	var msg RunRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.SpreadsheetID == "" {
		return nil, errors.New("run request without spreadsheet_id")
	}
	return &msg, nil
}
