// Package audit defines the audit trail contract. The postgres-backed
// store lives in infrastructure/storage/postgres.
package audit

import (
	"context"
	"time"
)

// Action identifies what happened to an entity.
type Action string

const (
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
	ActionGrant    Action = "grant"
	ActionRevoke   Action = "revoke"
)

// Entry is one audit record. Changes carries the JSON-encoded payload of
// the mutation; large payloads are compressed by the store.
type Entry struct {
	Entity    string
	EntityID  string
	Action    Action
	Actor     string
	Changes   []byte
	CreatedAt time.Time
}

// Recorder persists audit entries. Recording is best-effort: callers log
// failures but do not fail the business operation.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Nop is a Recorder that discards entries. Used in tests.
type Nop struct{}

func (Nop) Record(ctx context.Context, entry Entry) error { return nil }
