package amqp

import (
	"testing"
	"time"
)

func TestNewTransactionSyncMessage(t *testing.T) {
	before := time.Now()
	msg := NewTransactionSyncMessage("tx-42")
	after := time.Now()

	if msg.ID != "tx-42" {
		t.Errorf("ID = %q, want tx-42", msg.ID)
	}
	if msg.Timestamp.Before(before) || msg.Timestamp.After(after) {
		t.Errorf("Timestamp %v outside [%v, %v]", msg.Timestamp, before, after)
	}
}

func TestTransactionSyncMessage_JSON(t *testing.T) {
	msg := NewTransactionSyncMessage("tx-42")

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	decoded, err := TransactionSyncMessageFromJSON(data)
	if err != nil {
		t.Fatalf("TransactionSyncMessageFromJSON: %v", err)
	}
	if decoded.ID != msg.ID {
		t.Errorf("ID = %q, want %q", decoded.ID, msg.ID)
	}
	if !decoded.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", decoded.Timestamp, msg.Timestamp)
	}
}

func TestTransactionSyncMessage_InvalidJSON(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "garbage", data: []byte("{not json")},
		{name: "wrong type", data: []byte(`{"id": 7}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := TransactionSyncMessageFromJSON(tt.data); err == nil {
				t.Error("expected error for invalid payload")
			}
		})
	}
}
