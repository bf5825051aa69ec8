package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Operations carried by expense events. Deleted events tell the worker to
// remove the exported row instead of upserting it.
const (
	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
)

// ExpenseEvent is the lightweight message published on every expense change.
// It carries only the id, version and operation; the worker fetches the full
// expense from the database when it needs one.
type ExpenseEvent struct {
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseEvent(id, version int64, op string) *ExpenseEvent {
	return &ExpenseEvent{
		ID:        id,
		Version:   version,
		Op:        op,
		Timestamp: time.Now(),
	}
}

func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Op {
	case OpCreated, OpUpdated, OpDeleted:
	default:
		return nil, fmt.Errorf("unknown expense event op %q", msg.Op)
	}
	return &msg, nil
}
