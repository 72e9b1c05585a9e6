package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/talentgrid/gateway/modules/auditlog/domain/entities/changeentry"
	"github.com/talentgrid/gateway/modules/auditlog/domain/entities/importrun"
	"github.com/talentgrid/gateway/pkg/constants"
)

func TestImportRunRepository_List_FiltersAndMapsRows(t *testing.T) {
	runID := uuid.New()
	now := time.Now()
	queryCalled := false

	tx := &stubTx{
		queryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			queryCalled = true
			require.Contains(t, sql, "FROM import_runs")
			require.Contains(t, sql, "WHERE entity_type = $1")
			require.Contains(t, sql, "ORDER BY created_at DESC")
			require.Contains(t, sql, "LIMIT 10 OFFSET 5")
			require.Equal(t, []any{"leads"}, args)
			return &stubRows{data: [][]any{
				{
					runID.String(), "leads", 3, 2, 1,
					true, false, false,
					[]byte(`[{"row":2,"errors":["Email is required"]}]`),
					int64(1500), now,
				},
			}}, nil
		},
	}

	ctx := context.WithValue(context.Background(), constants.TxKey, tx)
	repo := NewImportRunRepository()

	result, err := repo.List(ctx, &importrun.FindParams{EntityType: "leads", Limit: 10, Offset: 5})
	require.NoError(t, err)
	require.True(t, queryCalled)
	require.Len(t, result, 1)
	require.Equal(t, runID, result[0].ID)
	require.Equal(t, "leads", result[0].EntityType)
	require.Equal(t, 3, result[0].TotalRows)
	require.Equal(t, 2, result[0].Successful)
	require.Equal(t, 1, result[0].Failed)
	require.True(t, result[0].SkipDuplicates)
	require.JSONEq(t, `[{"row":2,"errors":["Email is required"]}]`, string(result[0].Errors))
	require.Equal(t, 1500*time.Millisecond, result[0].Duration)
	require.Equal(t, now, result[0].CreatedAt)
}

func TestImportRunRepository_List_NoFiltersHasNoWhere(t *testing.T) {
	tx := &stubTx{
		queryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			require.NotContains(t, sql, "WHERE")
			require.Empty(t, args)
			return &stubRows{}, nil
		},
	}

	ctx := context.WithValue(context.Background(), constants.TxKey, tx)
	repo := NewImportRunRepository()

	result, err := repo.List(ctx, &importrun.FindParams{})
	require.NoError(t, err)
	require.Empty(t, result)
}

func TestImportRunRepository_Count_UsesTimeWindow(t *testing.T) {
	from := time.Now().Add(-time.Hour)

	tx := &stubTx{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			require.Contains(t, sql, "SELECT COUNT(*) FROM import_runs")
			require.Contains(t, sql, "entity_type = $1")
			require.Contains(t, sql, "created_at >= $2")
			require.Equal(t, []any{"jobs", from}, args)
			return stubRow{scan: func(dest ...any) error {
				*(dest[0].(*int64)) = 7
				return nil
			}}
		},
	}

	ctx := context.WithValue(context.Background(), constants.TxKey, tx)
	repo := NewImportRunRepository()

	count, err := repo.Count(ctx, &importrun.FindParams{EntityType: "jobs", From: &from})
	require.NoError(t, err)
	require.Equal(t, int64(7), count)
}

func TestImportRunRepository_GetByID_NotFound(t *testing.T) {
	tx := &stubTx{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			require.Contains(t, sql, "WHERE id = $1")
			return stubRow{scan: func(dest ...any) error { return pgx.ErrNoRows }}
		},
	}

	ctx := context.WithValue(context.Background(), constants.TxKey, tx)
	repo := NewImportRunRepository()

	_, err := repo.GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, importrun.ErrNotFound)
}

func TestImportRunRepository_Create_AppliesDefaults(t *testing.T) {
	var gotArgs []any

	tx := &stubTx{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			require.Contains(t, sql, "INSERT INTO import_runs")
			require.Contains(t, sql, "RETURNING created_at")
			gotArgs = args
			return stubRow{scan: func(dest ...any) error {
				*(dest[0].(*time.Time)) = args[10].(time.Time)
				return nil
			}}
		},
	}

	ctx := context.WithValue(context.Background(), constants.TxKey, tx)
	repo := NewImportRunRepository()

	run := &importrun.ImportRun{
		EntityType: "organizations",
		TotalRows:  1,
		Successful: 1,
		Duration:   2 * time.Second,
	}
	require.NoError(t, repo.Create(ctx, run))
	require.Len(t, gotArgs, 11)

	// A zero-value run still inserts a usable row.
	_, err := uuid.Parse(gotArgs[0].(string))
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, run.ID)
	require.Equal(t, "organizations", gotArgs[1])
	require.Equal(t, []byte("[]"), gotArgs[8])
	require.Equal(t, int64(2000), gotArgs[9])
	require.False(t, gotArgs[10].(time.Time).IsZero())
	require.False(t, run.CreatedAt.IsZero())
}

func TestChangeEntryRepository_List_FiltersByEntity(t *testing.T) {
	now := time.Now()

	tx := &stubTx{
		queryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			require.Contains(t, sql, "FROM change_entries")
			require.Contains(t, sql, "WHERE entity_type = $1 AND entity_id = $2 AND action = $3")
			require.Contains(t, sql, "ORDER BY id DESC")
			require.Equal(t, []any{"job-seekers", "42", "update"}, args)
			return &stubRows{data: [][]any{
				{
					uint(9), "job-seekers", "42", "update",
					[]byte(`[{"op":"replace","path":"/status","value":"archived"}]`),
					[]byte(`{"id":42,"status":"archived"}`),
					"a1b2c3d4e5f6", now,
				},
			}}, nil
		},
	}

	ctx := context.WithValue(context.Background(), constants.TxKey, tx)
	repo := NewChangeEntryRepository()

	result, err := repo.List(ctx, &changeentry.FindParams{
		EntityType: "job-seekers",
		EntityID:   "42",
		Action:     "update",
	})
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Equal(t, uint(9), result[0].ID)
	require.Equal(t, "42", result[0].EntityID)
	require.Equal(t, "a1b2c3d4e5f6", result[0].Actor)
	require.JSONEq(t, `[{"op":"replace","path":"/status","value":"archived"}]`, string(result[0].Diff))
}

func TestChangeEntryRepository_Create_ScansGeneratedID(t *testing.T) {
	now := time.Now()

	tx := &stubTx{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			require.Contains(t, sql, "INSERT INTO change_entries")
			require.Contains(t, sql, "RETURNING id, created_at")
			require.Equal(t, "leads", args[0])
			require.Equal(t, "7", args[1])
			require.Equal(t, "create", args[2])
			require.Nil(t, args[3])
			require.Equal(t, []byte(`{"id":7}`), args[4])
			return stubRow{scan: func(dest ...any) error {
				*(dest[0].(*uint)) = 15
				*(dest[1].(*time.Time)) = now
				return nil
			}}
		},
	}

	ctx := context.WithValue(context.Background(), constants.TxKey, tx)
	repo := NewChangeEntryRepository()

	entry := &changeentry.ChangeEntry{
		EntityType: "leads",
		EntityID:   "7",
		Action:     "create",
		Snapshot:   json.RawMessage(`{"id":7}`),
		Actor:      "deadbeef0000",
	}
	require.NoError(t, repo.Create(ctx, entry))
	require.Equal(t, uint(15), entry.ID)
	require.Equal(t, now, entry.CreatedAt)
}

type stubTx struct {
	queryFunc    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	queryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *stubTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (s *stubTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if s.queryFunc == nil {
		return nil, errors.New("query not implemented")
	}
	return s.queryFunc(ctx, sql, args...)
}

func (s *stubTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if s.queryRowFunc == nil {
		return stubRow{scan: func(dest ...any) error { return errors.New("query row not implemented") }}
	}
	return s.queryRowFunc(ctx, sql, args...)
}

type stubRows struct {
	data [][]any
	idx  int
	err  error
}

func (r *stubRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *stubRows) Scan(dest ...any) error {
	if r.idx == 0 || r.idx > len(r.data) {
		return errors.New("no current row to scan")
	}
	row := r.data[r.idx-1]
	if len(dest) != len(row) {
		return fmt.Errorf("destination length %d does not match row length %d", len(dest), len(row))
	}
	for i, target := range dest {
		switch v := target.(type) {
		case *uint:
			*v = row[i].(uint)
		case *int:
			*v = row[i].(int)
		case *int64:
			*v = row[i].(int64)
		case *bool:
			*v = row[i].(bool)
		case *string:
			*v = row[i].(string)
		case *time.Time:
			*v = row[i].(time.Time)
		case *[]byte:
			*v = row[i].([]byte)
		default:
			return fmt.Errorf("unsupported scan target %T", target)
		}
	}
	return nil
}

func (r *stubRows) Values() ([]any, error) {
	if r.idx == 0 || r.idx > len(r.data) {
		return nil, errors.New("no current row")
	}
	return r.data[r.idx-1], nil
}

func (r *stubRows) RawValues() [][]byte { return nil }
func (r *stubRows) Err() error          { return r.err }
func (r *stubRows) Close()              {}
func (r *stubRows) CommandTag() pgconn.CommandTag {
	return pgconn.CommandTag{}
}
func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *stubRows) Conn() *pgx.Conn                              { return nil }

type stubRow struct {
	scan func(dest ...any) error
}

func (r stubRow) Scan(dest ...any) error {
	if r.scan == nil {
		return errors.New("scan not implemented")
	}
	return r.scan(dest...)
}
