package application

import (
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type schemaSource struct {
	fsys fs.FS
	dir  string
}

func NewMigrationManager(pool *pgxpool.Pool) MigrationManager {
	return &migrationManager{pool: pool}
}

type migrationManager struct {
	pool    *pgxpool.Pool
	sources []schemaSource
}

func (m *migrationManager) RegisterSchema(fsys fs.FS, dir string) {
	m.sources = append(m.sources, schemaSource{fsys: fsys, dir: dir})
}

// Run applies all registered schemas in registration order. A nil pool or an
// empty source list is a no-op so DB-less deployments still boot.
func (m *migrationManager) Run() error {
	if m.pool == nil || len(m.sources) == 0 {
		return nil
	}
	db := stdlib.OpenDBFromPool(m.pool)
	defer func() { _ = db.Close() }()

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	defer goose.SetBaseFS(nil)

	for _, src := range m.sources {
		goose.SetBaseFS(src.fsys)
		if err := goose.Up(db, src.dir); err != nil {
			return fmt.Errorf("apply schema %s: %w", src.dir, err)
		}
	}
	return nil
}

// Rollback reverts every applied migration of each registered schema, newest
// source first.
func (m *migrationManager) Rollback() error {
	if m.pool == nil || len(m.sources) == 0 {
		return nil
	}
	db := stdlib.OpenDBFromPool(m.pool)
	defer func() { _ = db.Close() }()

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	defer goose.SetBaseFS(nil)

	for i := len(m.sources) - 1; i >= 0; i-- {
		src := m.sources[i]
		goose.SetBaseFS(src.fsys)
		if err := goose.Reset(db, src.dir); err != nil {
			return fmt.Errorf("reset schema %s: %w", src.dir, err)
		}
	}
	return nil
}
