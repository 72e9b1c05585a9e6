package importrun

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("import run not found")

// ImportRun is the persisted outcome of one bulk import batch.
type ImportRun struct {
	ID             uuid.UUID
	EntityType     string
	TotalRows      int
	Successful     int
	Failed         int
	SkipDuplicates bool
	ImportNewOnly  bool
	UpdateExisting bool
	Errors         json.RawMessage
	Duration       time.Duration
	CreatedAt      time.Time
}

type FindParams struct {
	EntityType string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

type Repository interface {
	List(ctx context.Context, params *FindParams) ([]*ImportRun, error)
	Count(ctx context.Context, params *FindParams) (int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ImportRun, error)
	Create(ctx context.Context, run *ImportRun) error
}
