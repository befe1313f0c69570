package models

import (
	"time"

	"gorm.io/datatypes"
)

// SyncRun status constants
const (
	SyncRunSucceeded = "succeeded"
	SyncRunPartial   = "partial"
	SyncRunFailed    = "failed"
)

// SyncRun records the outcome of one invocation of the sync command
type SyncRun struct {
	ID         string         `gorm:"column:id;primaryKey"`
	Mode       string         `gorm:"column:mode;index"`
	Status     string         `gorm:"column:status"`
	StartedAt  time.Time      `gorm:"column:started_at"`
	FinishedAt time.Time      `gorm:"column:finished_at"`
	Result     datatypes.JSON `gorm:"column:result"`
}

// TableName specifies the table name for GORM
func (SyncRun) TableName() string {
	return "sync_runs"
}
