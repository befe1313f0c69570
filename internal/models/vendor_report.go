package models

import (
	"time"

	"gorm.io/datatypes"
)

// VendorReport is one ASIN row of a vendor analytics report for a single report date.
// Rows sharing (report_type, report_date) are replaced together on every ingestion.
type VendorReport struct {
	ID                uint           `gorm:"column:id;primaryKey"`
	ReportType        string         `gorm:"column:report_type;not null;index:idx_vendor_reports_type_date,priority:1"`
	ASIN              string         `gorm:"column:asin;not null;index"`
	ReportDate        time.Time      `gorm:"column:report_date;not null;index:idx_vendor_reports_type_date,priority:2"`
	Data              datatypes.JSON `gorm:"column:data"`
	DataStartDate     *time.Time     `gorm:"column:data_start_date"`
	DataEndDate       *time.Time     `gorm:"column:data_end_date"`
	ReportRequestDate time.Time      `gorm:"column:report_request_date"`
}

// TableName specifies the table name for GORM
func (VendorReport) TableName() string {
	return "vendor_reports"
}
