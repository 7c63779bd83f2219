package amqp

import (
	"encoding/json"
	"time"
)

// SchemaVersion is stamped on every message so a worker running an older
// binary can drop messages it does not understand instead of mis-parsing
// them.
const SchemaVersion = 1

// ImportJobMessage asks the worker to (re)analyze a statement import batch.
// It carries only the batch ID; the worker fetches the batch from the
// database so the queue never holds stale statement data.
type ImportJobMessage struct {
	BatchID   string    `json:"batch_id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewImportJobMessage(batchID string) *ImportJobMessage {
	return &ImportJobMessage{
		BatchID:   batchID,
		Version:   SchemaVersion,
		Timestamp: time.Now(),
	}
}

func (m *ImportJobMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ImportJobMessageFromJSON(data []byte) (*ImportJobMessage, error) {
	var msg ImportJobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// OperationSyncMessage asks the worker to mirror a fund operation to the
// configured export sheet. Kind tells the worker which table to load the
// operation from.
type OperationSyncMessage struct {
	OperationID string    `json:"operation_id"`
	Kind        string    `json:"kind"`
	Version     int64     `json:"version"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewOperationSyncMessage(operationID, kind string) *OperationSyncMessage {
	return &OperationSyncMessage{
		OperationID: operationID,
		Kind:        kind,
		Version:     SchemaVersion,
		Timestamp:   time.Now(),
	}
}

func (m *OperationSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func OperationSyncMessageFromJSON(data []byte) (*OperationSyncMessage, error) {
	var msg OperationSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
