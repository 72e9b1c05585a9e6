package persistence

import (
	"time"

	"github.com/google/uuid"

	"github.com/talentgrid/gateway/modules/auditlog/domain/entities/changeentry"
	"github.com/talentgrid/gateway/modules/auditlog/domain/entities/importrun"
	"github.com/talentgrid/gateway/modules/auditlog/infrastructure/persistence/models"
)

func toDBImportRun(run *importrun.ImportRun) *models.ImportRun {
	return &models.ImportRun{
		ID:             run.ID.String(),
		EntityType:     run.EntityType,
		TotalRows:      run.TotalRows,
		Successful:     run.Successful,
		Failed:         run.Failed,
		SkipDuplicates: run.SkipDuplicates,
		ImportNewOnly:  run.ImportNewOnly,
		UpdateExisting: run.UpdateExisting,
		Errors:         run.Errors,
		DurationMS:     run.Duration.Milliseconds(),
		CreatedAt:      run.CreatedAt,
	}
}

func toDomainImportRun(dbRun *models.ImportRun) *importrun.ImportRun {
	id, err := uuid.Parse(dbRun.ID)
	if err != nil {
		id = uuid.Nil
	}

	return &importrun.ImportRun{
		ID:             id,
		EntityType:     dbRun.EntityType,
		TotalRows:      dbRun.TotalRows,
		Successful:     dbRun.Successful,
		Failed:         dbRun.Failed,
		SkipDuplicates: dbRun.SkipDuplicates,
		ImportNewOnly:  dbRun.ImportNewOnly,
		UpdateExisting: dbRun.UpdateExisting,
		Errors:         dbRun.Errors,
		Duration:       time.Duration(dbRun.DurationMS) * time.Millisecond,
		CreatedAt:      dbRun.CreatedAt,
	}
}

func toDBChangeEntry(entry *changeentry.ChangeEntry) *models.ChangeEntry {
	return &models.ChangeEntry{
		ID:         entry.ID,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Action:     entry.Action,
		Diff:       entry.Diff,
		Snapshot:   entry.Snapshot,
		Actor:      entry.Actor,
		CreatedAt:  entry.CreatedAt,
	}
}

func toDomainChangeEntry(dbEntry *models.ChangeEntry) *changeentry.ChangeEntry {
	return &changeentry.ChangeEntry{
		ID:         dbEntry.ID,
		EntityType: dbEntry.EntityType,
		EntityID:   dbEntry.EntityID,
		Action:     dbEntry.Action,
		Diff:       dbEntry.Diff,
		Snapshot:   dbEntry.Snapshot,
		Actor:      dbEntry.Actor,
		CreatedAt:  dbEntry.CreatedAt,
	}
}
