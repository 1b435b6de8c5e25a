// Package audit records administrative actions against the ledger
// (batch archival, manual adjustments). Entries are append-only.
package audit

import (
	"context"
	"time"

	"mise/internal/core/id"
)

// Entry is one audit record.
type Entry struct {
	ID         id.ID          `db:"id" json:"id"`
	TenantID   id.ID          `db:"tenant_id" json:"tenantId"`
	Action     string         `db:"action" json:"action"`
	EntityType string         `db:"entity_type" json:"entityType"`
	EntityID   id.ID          `db:"entity_id" json:"entityId"`
	Actor      string         `db:"actor" json:"actor"`
	Changes    map[string]any `db:"-" json:"changes,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"createdAt"`
}

// NewEntry builds an entry with generated ID and timestamp.
func NewEntry(tenantID id.ID, action, entityType string, entityID id.ID, actor string, changes map[string]any) Entry {
	return Entry{
		ID:         id.New(),
		TenantID:   tenantID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Actor:      actor,
		Changes:    changes,
		CreatedAt:  time.Now().UTC(),
	}
}

// Recorder persists audit entries. Recording failures must not abort
// the business operation; implementations log and continue.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Noop discards entries. Test use.
type Noop struct{}

func (Noop) Record(ctx context.Context, entry Entry) error { return nil }
