package viewmodels

import "encoding/json"

type ImportRun struct {
	ID             string          `json:"id"`
	EntityType     string          `json:"entityType"`
	TotalRows      int             `json:"totalRows"`
	Successful     int             `json:"successful"`
	Failed         int             `json:"failed"`
	SkipDuplicates bool            `json:"skipDuplicates"`
	ImportNewOnly  bool            `json:"importNewOnly"`
	UpdateExisting bool            `json:"updateExisting"`
	Errors         json.RawMessage `json:"errors"`
	DurationMS     int64           `json:"durationMs"`
	CreatedAt      string          `json:"createdAt"`
}

type ChangeEntry struct {
	ID         uint            `json:"id"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Action     string          `json:"action"`
	Diff       json.RawMessage `json:"diff,omitempty"`
	Snapshot   json.RawMessage `json:"snapshot,omitempty"`
	Actor      string          `json:"actor"`
	CreatedAt  string          `json:"createdAt"`
}
