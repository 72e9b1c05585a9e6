package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/talentgrid/gateway/modules/crm/domain/entities/entitytype"
	"github.com/talentgrid/gateway/modules/dataimport/domain/mapping"
	"github.com/talentgrid/gateway/pkg/backend"
	"github.com/talentgrid/gateway/pkg/eventbus"
	"github.com/talentgrid/gateway/pkg/metrics"
)

// Options are the caller's duplicate-handling flags. Setting any of them
// turns on the pre-create existence lookup.
type Options struct {
	SkipDuplicates bool `json:"skipDuplicates"`
	ImportNewOnly  bool `json:"importNewOnly"`
	UpdateExisting bool `json:"updateExisting"`
}

// LookupEnabled reports whether any flag requests duplicate detection.
func (o Options) LookupEnabled() bool {
	return o.SkipDuplicates || o.ImportNewOnly || o.UpdateExisting
}

// RowError collects the failure messages of a single input row. Row numbers
// are 1-based positions in the submitted batch.
type RowError struct {
	Row    int      `json:"row"`
	Errors []string `json:"errors"`
}

// Summary is the aggregate outcome of one import batch.
type Summary struct {
	TotalRows  int        `json:"totalRows"`
	Successful int        `json:"successful"`
	Failed     int        `json:"failed"`
	Errors     []RowError `json:"errors"`
}

// ImportCompletedEvent is published after every batch, successful or not.
type ImportCompletedEvent struct {
	RunID       uuid.UUID
	EntityType  entitytype.EntityType
	Options     Options
	Summary     Summary
	Duration    time.Duration
	CompletedAt time.Time
}

const (
	rowOutcomeCreated = "created"
	rowOutcomeUpdated = "updated"
	rowOutcomeSkipped = "skipped"
	rowOutcomeFailed  = "failed"
)

const (
	createFallbackMessage = "Failed to create record"
	updateFallbackMessage = "Failed to update record"
	panicFallbackMessage  = "Unknown error occurred"
)

// ImportService reconciles import batches against the backend: every row is
// mapped, optionally checked against existing records, then skipped, updated
// or created. Rows never abort the batch; failures end up in the summary.
type ImportService struct {
	registry  *mapping.Registry
	backend   *backend.Client
	publisher eventbus.EventBus
}

func NewImportService(registry *mapping.Registry, client *backend.Client, publisher eventbus.EventBus) *ImportService {
	return &ImportService{
		registry:  registry,
		backend:   client,
		publisher: publisher,
	}
}

// Import processes the batch strictly in input order. Once the entity type
// has been validated by the caller, the summary is the only result: row
// failures are reported, never raised.
func (s *ImportService) Import(
	ctx context.Context,
	et entitytype.EntityType,
	records []map[string]any,
	opts Options,
	fieldLabels map[string]string,
) Summary {
	runID := uuid.New()
	start := time.Now()
	summary := Summary{
		TotalRows: len(records),
		Errors:    []RowError{},
	}

	for i, record := range records {
		outcome, rowErrors := s.importRow(ctx, et, record, opts, fieldLabels)
		if len(rowErrors) > 0 {
			summary.Failed++
			summary.Errors = append(summary.Errors, RowError{Row: i + 1, Errors: rowErrors})
		} else {
			summary.Successful++
		}
		metrics.ImportRowsTotal.WithLabelValues(et.String(), outcome).Inc()
	}

	duration := time.Since(start)
	metrics.ImportDuration.WithLabelValues(et.String()).Observe(duration.Seconds())
	logWithFields(ctx, logrus.InfoLevel, "import batch completed", logrus.Fields{
		"run_id":     runID,
		"entity":     et.String(),
		"total":      summary.TotalRows,
		"successful": summary.Successful,
		"failed":     summary.Failed,
		"duration":   duration.String(),
	})

	s.publisher.Publish(ImportCompletedEvent{
		RunID:       runID,
		EntityType:  et,
		Options:     opts,
		Summary:     summary,
		Duration:    duration,
		CompletedAt: time.Now(),
	})
	return summary
}

// importRow shields the batch from row-level panics. A panic carrying an
// error surfaces its message; anything else reports the generic fallback.
func (s *ImportService) importRow(
	ctx context.Context,
	et entitytype.EntityType,
	record map[string]any,
	opts Options,
	fieldLabels map[string]string,
) (outcome string, rowErrors []string) {
	defer func() {
		if rec := recover(); rec != nil {
			outcome = rowOutcomeFailed
			if err, ok := rec.(error); ok {
				rowErrors = []string{err.Error()}
			} else {
				rowErrors = []string{panicFallbackMessage}
			}
			logWithFields(ctx, logrus.ErrorLevel, "import row panicked", logrus.Fields{
				"entity": et.String(),
				"panic":  fmt.Sprint(rec),
			})
		}
	}()
	return s.processRow(ctx, et, record, opts, fieldLabels)
}

// processRow implements the per-row decision: exactly one of skip, update,
// create or fail.
func (s *ImportService) processRow(
	ctx context.Context,
	et entitytype.EntityType,
	record map[string]any,
	opts Options,
	fieldLabels map[string]string,
) (string, []string) {
	payload := s.registry.MapRecord(et, record, fieldLabels)
	endpoint := et.Endpoint()

	if opts.LookupEnabled() {
		field := et.UniqueField()
		value := uniqueValue(payload, record, field)
		if value != "" {
			existing, err := s.lookupExisting(ctx, endpoint, field, value)
			switch {
			case err != nil:
				// A failed lookup is not a failed row. Fall through
				// to the create path.
				logWithFields(ctx, logrus.WarnLevel, "duplicate lookup failed, creating anyway", logrus.Fields{
					"entity": et.String(),
					"field":  field,
					"error":  err.Error(),
				})
			case len(existing) > 0:
				if opts.SkipDuplicates || opts.ImportNewOnly {
					return rowOutcomeSkipped, []string{fmt.Sprintf("Record already exists (%s: %s)", field, value)}
				}
				if opts.UpdateExisting {
					if err := s.updateExisting(ctx, endpoint, existing[0], payload); err != nil {
						return rowOutcomeFailed, []string{failureMessage(err, updateFallbackMessage)}
					}
					return rowOutcomeUpdated, nil
				}
			}
		}
	}

	if _, err := s.backend.Create(ctx, endpoint, payload); err != nil {
		return rowOutcomeFailed, []string{failureMessage(err, createFallbackMessage)}
	}
	return rowOutcomeCreated, nil
}

// lookupExisting queries the backend by unique field and re-filters the
// result with case-insensitive equality. Backends treat the query parameter
// as a hint; the filter is what decides.
func (s *ImportService) lookupExisting(ctx context.Context, endpoint, field, value string) ([]map[string]any, error) {
	candidates, err := s.backend.List(ctx, endpoint, url.Values{field: []string{value}})
	if err != nil {
		return nil, err
	}

	lowered := strings.ToLower(value)
	matches := make([]map[string]any, 0, len(candidates))
	for _, candidate := range candidates {
		stored, ok := candidate[field].(string)
		if !ok {
			continue
		}
		if strings.ToLower(stored) == lowered {
			matches = append(matches, candidate)
		}
	}
	return matches, nil
}

func (s *ImportService) updateExisting(ctx context.Context, endpoint string, existing, payload map[string]any) error {
	id := existingID(existing)
	if id == "" {
		return errors.New("existing record has no usable id")
	}
	_, err := s.backend.Update(ctx, endpoint+"/"+id, payload)
	return err
}

// uniqueValue resolves the duplicate-detection value: mapped payload first,
// raw record second. Only non-empty strings count as resolved.
func uniqueValue(payload, record map[string]any, field string) string {
	if v, ok := payload[field].(string); ok && v != "" {
		return v
	}
	if v, ok := record[field].(string); ok && v != "" {
		return v
	}
	return ""
}

func existingID(record map[string]any) string {
	switch v := record["id"].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// failureMessage prefers what the backend said over the generic fallback.
func failureMessage(err error, fallback string) string {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	return fallback
}
