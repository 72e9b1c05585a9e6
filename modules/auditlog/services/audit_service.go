package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/talentgrid/gateway/modules/auditlog/domain/entities/changeentry"
	"github.com/talentgrid/gateway/modules/auditlog/domain/entities/importrun"
)

// AuditService reads and writes the import history and the change log.
type AuditService struct {
	runs    importrun.Repository
	changes changeentry.Repository
}

func NewAuditService(runs importrun.Repository, changes changeentry.Repository) *AuditService {
	return &AuditService{
		runs:    runs,
		changes: changes,
	}
}

func (s *AuditService) ListImportRuns(
	ctx context.Context,
	params *importrun.FindParams,
) ([]*importrun.ImportRun, int64, error) {
	if params == nil {
		params = &importrun.FindParams{}
	}

	runs, err := s.runs.List(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	count, err := s.runs.Count(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return runs, count, nil
}

func (s *AuditService) GetImportRun(ctx context.Context, id uuid.UUID) (*importrun.ImportRun, error) {
	return s.runs.GetByID(ctx, id)
}

func (s *AuditService) RecordImportRun(ctx context.Context, run *importrun.ImportRun) error {
	if run == nil {
		return errors.New("import run payload is required")
	}
	return s.runs.Create(ctx, run)
}

func (s *AuditService) ListChanges(
	ctx context.Context,
	params *changeentry.FindParams,
) ([]*changeentry.ChangeEntry, int64, error) {
	if params == nil {
		params = &changeentry.FindParams{}
	}

	entries, err := s.changes.List(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	count, err := s.changes.Count(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return entries, count, nil
}

func (s *AuditService) RecordChange(ctx context.Context, entry *changeentry.ChangeEntry) error {
	if entry == nil {
		return errors.New("change entry payload is required")
	}
	return s.changes.Create(ctx, entry)
}
