package models

import "time"

type ImportRun struct {
	ID             string
	EntityType     string
	TotalRows      int
	Successful     int
	Failed         int
	SkipDuplicates bool
	ImportNewOnly  bool
	UpdateExisting bool
	Errors         []byte
	DurationMS     int64
	CreatedAt      time.Time
}

type ChangeEntry struct {
	ID         uint
	EntityType string
	EntityID   string
	Action     string
	Diff       []byte
	Snapshot   []byte
	Actor      string
	CreatedAt  time.Time
}
