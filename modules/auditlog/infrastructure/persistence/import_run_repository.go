package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/talentgrid/gateway/modules/auditlog/domain/entities/importrun"
	"github.com/talentgrid/gateway/modules/auditlog/infrastructure/persistence/models"
	"github.com/talentgrid/gateway/pkg/composables"
	"github.com/talentgrid/gateway/pkg/repo"
)

const importRunColumns = `id, entity_type, total_rows, successful, failed,
	skip_duplicates, import_new_only, update_existing, errors, duration_ms, created_at`

type ImportRunRepository struct{}

func NewImportRunRepository() importrun.Repository {
	return &ImportRunRepository{}
}

func (r *ImportRunRepository) List(ctx context.Context, params *importrun.FindParams) ([]*importrun.ImportRun, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	where, args := buildImportRunFilters(params)
	query := repo.Join(
		`SELECT `+importRunColumns+` FROM import_runs`,
		repo.JoinWhere(where...),
		`ORDER BY created_at DESC`,
	)
	if params != nil {
		query = repo.Join(query, repo.FormatLimitOffset(params.Limit, params.Offset))
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*importrun.ImportRun
	for rows.Next() {
		row, err := scanImportRun(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, toDomainImportRun(row))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *ImportRunRepository) Count(ctx context.Context, params *importrun.FindParams) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	where, args := buildImportRunFilters(params)

	var count int64
	if err := tx.QueryRow(ctx, repo.Join(
		`SELECT COUNT(*) FROM import_runs`,
		repo.JoinWhere(where...),
	), args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ImportRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*importrun.ImportRun, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	row, err := scanImportRun(tx.QueryRow(ctx,
		`SELECT `+importRunColumns+` FROM import_runs WHERE id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, importrun.ErrNotFound
		}
		return nil, err
	}
	return toDomainImportRun(row), nil
}

func (r *ImportRunRepository) Create(ctx context.Context, run *importrun.ImportRun) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	dbRun := toDBImportRun(run)
	if dbRun.CreatedAt.IsZero() {
		dbRun.CreatedAt = time.Now()
	}
	if len(dbRun.Errors) == 0 {
		dbRun.Errors = []byte("[]")
	}

	return tx.QueryRow(
		ctx,
		`INSERT INTO import_runs (`+importRunColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING created_at`,
		dbRun.ID,
		dbRun.EntityType,
		dbRun.TotalRows,
		dbRun.Successful,
		dbRun.Failed,
		dbRun.SkipDuplicates,
		dbRun.ImportNewOnly,
		dbRun.UpdateExisting,
		dbRun.Errors,
		dbRun.DurationMS,
		dbRun.CreatedAt,
	).Scan(&run.CreatedAt)
}

// scanImportRun reads one row in importRunColumns order from either a row or
// a rows cursor.
func scanImportRun(row pgx.Row) (*models.ImportRun, error) {
	var run models.ImportRun
	if err := row.Scan(
		&run.ID,
		&run.EntityType,
		&run.TotalRows,
		&run.Successful,
		&run.Failed,
		&run.SkipDuplicates,
		&run.ImportNewOnly,
		&run.UpdateExisting,
		&run.Errors,
		&run.DurationMS,
		&run.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &run, nil
}

func buildImportRunFilters(params *importrun.FindParams) ([]string, []any) {
	var where []string
	var args []any
	if params == nil {
		return where, args
	}

	argPos := 1
	if et := strings.TrimSpace(params.EntityType); et != "" {
		where = append(where, fmt.Sprintf("entity_type = $%d", argPos))
		args = append(args, et)
		argPos++
	}
	if params.From != nil && !params.From.IsZero() {
		where = append(where, fmt.Sprintf("created_at >= $%d", argPos))
		args = append(args, *params.From)
		argPos++
	}
	if params.To != nil && !params.To.IsZero() {
		where = append(where, fmt.Sprintf("created_at <= $%d", argPos))
		args = append(args, *params.To)
	}
	return where, args
}
