// Package audit defines the audit trail contract for corrections made outside
// the normal ledger flow (reconciliation overwrites, price entry replacement).
package audit

import (
	"context"

	appctx "shopledger/internal/core/context"
	"shopledger/internal/core/id"
)

// Action is the type of audited operation.
type Action string

const (
	ActionReconcileDebt  Action = "reconcile_debt"
	ActionReconcileStock Action = "reconcile_stock"
	ActionReplacePrice   Action = "replace_price_entry"
)

// Entry is a single audit record. Changes is serialized to JSON by the recorder.
type Entry struct {
	EntityType string
	EntityID   id.ID
	Action     Action
	UserID     string
	Changes    any
}

// Recorder persists audit entries. Record is called inside the caller's transaction.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Enrich fills UserID from the request context when the caller left it empty.
func Enrich(ctx context.Context, entry Entry) Entry {
	if entry.UserID == "" {
		entry.UserID = appctx.GetUserID(ctx)
	}
	if entry.UserID == "" {
		entry.UserID = "system"
	}
	return entry
}

// Nop discards entries.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, Entry) error { return nil }
