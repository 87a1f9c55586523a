package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// SyncAction tells the worker what to do with the mirrored row.
type SyncAction string

const (
	ActionUpsert SyncAction = "upsert"
	ActionDelete SyncAction = "delete"
)

// TransactionSyncMessage carries only the transaction ID; the worker reads
// the current row from the database before touching the spreadsheet.
type TransactionSyncMessage struct {
	ID        string     `json:"id"`
	Action    SyncAction `json:"action"`
	Timestamp time.Time  `json:"timestamp"`
}

func NewTransactionSyncMessage(id string, action SyncAction) *TransactionSyncMessage {
	return &TransactionSyncMessage{
		ID:        id,
		Action:    action,
		Timestamp: time.Now(),
	}
}

func (m *TransactionSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionSyncMessageFromJSON decodes and checks a message body. A missing
// action is read as upsert.
func TransactionSyncMessageFromJSON(data []byte) (*TransactionSyncMessage, error) {
	var msg TransactionSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, fmt.Errorf("sync message without id")
	}
	switch msg.Action {
	case "":
		msg.Action = ActionUpsert
	case ActionUpsert, ActionDelete:
	default:
		return nil, fmt.Errorf("unknown sync action %q", msg.Action)
	}
	return &msg, nil
}
