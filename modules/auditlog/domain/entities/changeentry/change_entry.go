package changeentry

import (
	"context"
	"encoding/json"
	"time"
)

// ChangeEntry is one audited mutation of a backend record. Diff holds an
// RFC 6902 patch when a before image existed; Snapshot holds the state the
// backend returned after the change.
type ChangeEntry struct {
	ID         uint
	EntityType string
	EntityID   string
	Action     string
	Diff       json.RawMessage
	Snapshot   json.RawMessage
	Actor      string
	CreatedAt  time.Time
}

type FindParams struct {
	EntityType string
	EntityID   string
	Action     string
	Limit      int
	Offset     int
}

type Repository interface {
	List(ctx context.Context, params *FindParams) ([]*ChangeEntry, error)
	Count(ctx context.Context, params *FindParams) (int64, error)
	Create(ctx context.Context, entry *ChangeEntry) error
}
