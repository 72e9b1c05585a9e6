package mappers

import (
	"encoding/json"
	"time"

	"github.com/talentgrid/gateway/modules/auditlog/domain/entities/changeentry"
	"github.com/talentgrid/gateway/modules/auditlog/domain/entities/importrun"
	"github.com/talentgrid/gateway/modules/auditlog/presentation/viewmodels"
)

func ImportRunToViewModel(run *importrun.ImportRun) *viewmodels.ImportRun {
	if run == nil {
		return nil
	}

	rowErrors := run.Errors
	if len(rowErrors) == 0 {
		rowErrors = json.RawMessage("[]")
	}

	return &viewmodels.ImportRun{
		ID:             run.ID.String(),
		EntityType:     run.EntityType,
		TotalRows:      run.TotalRows,
		Successful:     run.Successful,
		Failed:         run.Failed,
		SkipDuplicates: run.SkipDuplicates,
		ImportNewOnly:  run.ImportNewOnly,
		UpdateExisting: run.UpdateExisting,
		Errors:         rowErrors,
		DurationMS:     run.Duration.Milliseconds(),
		CreatedAt:      run.CreatedAt.Format(time.RFC3339),
	}
}

func ChangeEntryToViewModel(entry *changeentry.ChangeEntry) *viewmodels.ChangeEntry {
	if entry == nil {
		return nil
	}

	return &viewmodels.ChangeEntry{
		ID:         entry.ID,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Action:     entry.Action,
		Diff:       entry.Diff,
		Snapshot:   entry.Snapshot,
		Actor:      entry.Actor,
		CreatedAt:  entry.CreatedAt.Format(time.RFC3339),
	}
}
