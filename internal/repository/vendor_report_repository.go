package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/elchunenfreund/amazon-vendor-sync/internal/models"
	"gorm.io/gorm"
)

type VendorReportRepository struct {
	db *gorm.DB
}

func NewVendorReportRepository(db *gorm.DB) *VendorReportRepository {
	return &VendorReportRepository{db: db}
}

// DeleteByTypeAndDates removes every row of reportType whose report date is in dates
func (r *VendorReportRepository) DeleteByTypeAndDates(ctx context.Context, reportType string, dates []time.Time) (int64, error) {
	if len(dates) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("report_type = ? AND report_date IN ?", reportType, dates).
		Delete(&models.VendorReport{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete vendor reports: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// InsertBatch inserts rows in a single statement
func (r *VendorReportRepository) InsertBatch(ctx context.Context, rows []models.VendorReport) error {
	if len(rows) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to insert vendor reports: %w", err)
	}
	return nil
}
