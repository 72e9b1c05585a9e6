package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/talentgrid/gateway/modules/auditlog/domain/entities/changeentry"
	"github.com/talentgrid/gateway/modules/auditlog/infrastructure/persistence/models"
	"github.com/talentgrid/gateway/pkg/composables"
	"github.com/talentgrid/gateway/pkg/repo"
)

type ChangeEntryRepository struct{}

func NewChangeEntryRepository() changeentry.Repository {
	return &ChangeEntryRepository{}
}

func (r *ChangeEntryRepository) List(ctx context.Context, params *changeentry.FindParams) ([]*changeentry.ChangeEntry, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	where, args := buildChangeEntryFilters(params)
	query := repo.Join(
		`SELECT id, entity_type, entity_id, action, diff, snapshot, actor, created_at
		 FROM change_entries`,
		repo.JoinWhere(where...),
		`ORDER BY id DESC`,
	)
	if params != nil {
		query = repo.Join(query, repo.FormatLimitOffset(params.Limit, params.Offset))
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*changeentry.ChangeEntry
	for rows.Next() {
		var row models.ChangeEntry
		if err := rows.Scan(
			&row.ID,
			&row.EntityType,
			&row.EntityID,
			&row.Action,
			&row.Diff,
			&row.Snapshot,
			&row.Actor,
			&row.CreatedAt,
		); err != nil {
			return nil, err
		}
		results = append(results, toDomainChangeEntry(&row))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *ChangeEntryRepository) Count(ctx context.Context, params *changeentry.FindParams) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	where, args := buildChangeEntryFilters(params)

	var count int64
	if err := tx.QueryRow(ctx, repo.Join(
		`SELECT COUNT(*) FROM change_entries`,
		repo.JoinWhere(where...),
	), args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ChangeEntryRepository) Create(ctx context.Context, entry *changeentry.ChangeEntry) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	dbEntry := toDBChangeEntry(entry)
	if dbEntry.CreatedAt.IsZero() {
		dbEntry.CreatedAt = time.Now()
	}

	return tx.QueryRow(
		ctx,
		`INSERT INTO change_entries (entity_type, entity_id, action, diff, snapshot, actor, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		dbEntry.EntityType,
		dbEntry.EntityID,
		dbEntry.Action,
		dbEntry.Diff,
		dbEntry.Snapshot,
		dbEntry.Actor,
		dbEntry.CreatedAt,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func buildChangeEntryFilters(params *changeentry.FindParams) ([]string, []any) {
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
	if id := strings.TrimSpace(params.EntityID); id != "" {
		where = append(where, fmt.Sprintf("entity_id = $%d", argPos))
		args = append(args, id)
		argPos++
	}
	if action := strings.TrimSpace(params.Action); action != "" {
		where = append(where, fmt.Sprintf("action = $%d", argPos))
		args = append(args, action)
	}
	return where, args
}
