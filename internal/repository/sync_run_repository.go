package repository

import (
	"context"
	"fmt"

	"github.com/elchunenfreund/amazon-vendor-sync/internal/models"
	"gorm.io/gorm"
)

type SyncRunRepository struct {
	db *gorm.DB
}

func NewSyncRunRepository(db *gorm.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

// Create records a finished sync run
func (r *SyncRunRepository) Create(ctx context.Context, run *models.SyncRun) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to record sync run: %w", err)
	}
	return nil
}
