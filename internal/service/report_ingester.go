package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/elchunenfreund/amazon-vendor-sync/internal/models"
	"github.com/elchunenfreund/amazon-vendor-sync/internal/spapi"
)

// Rows per INSERT statement
const insertChunkSize = 200

// fallbackRecordKey holds the records of documents without a type specific key
const fallbackRecordKey = "reportData"

// VendorReportStore interface for dependency injection
type VendorReportStore interface {
	DeleteByTypeAndDates(ctx context.Context, reportType string, dates []time.Time) (int64, error)
	InsertBatch(ctx context.Context, rows []models.VendorReport) error
}

// ReportIngester replaces the stored rows of a report type for every report
// date found in a decoded document.
type ReportIngester struct {
	store  VendorReportStore
	logger *zap.Logger
	now    func() time.Time
}

func NewReportIngester(store VendorReportStore, logger *zap.Logger) *ReportIngester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportIngester{store: store, logger: logger, now: time.Now}
}

type reportSpecification struct {
	DataStartTime string `json:"dataStartTime"`
	DataEndTime   string `json:"dataEndTime"`
}

// recordFields are the only parts of a record the ingester reads; the
// record itself is stored as is.
type recordFields struct {
	ASIN      string `json:"asin"`
	EndDate   string `json:"endDate"`
	StartDate string `json:"startDate"`
	Date      string `json:"date"`
	EndTime   string `json:"endTime"`
	StartTime string `json:"startTime"`
}

type parsedRecord struct {
	raw        json.RawMessage
	asin       string
	reportDate time.Time
	dataStart  *time.Time
	dataEnd    *time.Time
}

// Ingest stores the records of content and returns how many rows were
// inserted. A document that is not valid JSON is logged and yields 0 without
// an error. Records without an ASIN are skipped.
func (i *ReportIngester) Ingest(ctx context.Context, reportType string, content []byte) (int, error) {
	log := i.logger.With(zap.String("report_type", reportType))

	records, spec, ok := i.extractRecords(reportType, content, log)
	if !ok || len(records) == 0 {
		log.Info("report has no records")
		return 0, nil
	}

	now := i.now().UTC()
	today := truncateToDay(now)
	specStart := parseTimestamp(spec.DataStartTime)
	specEnd := parseTimestamp(spec.DataEndTime)

	parsed := make([]parsedRecord, 0, len(records))
	dateSet := make(map[time.Time]struct{})
	for _, raw := range records {
		var f recordFields
		if err := json.Unmarshal(raw, &f); err != nil {
			log.Warn("skipping malformed record", zap.Error(err))
			continue
		}

		rec := parsedRecord{
			raw:        raw,
			asin:       strings.TrimSpace(f.ASIN),
			reportDate: recordDate(f, today),
			dataStart:  firstTime(specStart, parseTimestamp(f.StartDate), parseTimestamp(f.StartTime)),
			dataEnd:    firstTime(specEnd, parseTimestamp(f.EndDate), parseTimestamp(f.EndTime)),
		}
		dateSet[rec.reportDate] = struct{}{}
		parsed = append(parsed, rec)
	}

	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(a, b int) bool { return dates[a].Before(dates[b]) })

	deleted, err := i.store.DeleteByTypeAndDates(ctx, reportType, dates)
	if err != nil {
		return 0, fmt.Errorf("failed to clear %s rows: %w", reportType, err)
	}
	log.Info("cleared existing rows", zap.Int64("deleted", deleted), zap.Int("dates", len(dates)))

	saved := 0
	chunk := make([]models.VendorReport, 0, insertChunkSize)
	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		if err := i.store.InsertBatch(ctx, chunk); err != nil {
			return fmt.Errorf("failed to insert %s rows: %w", reportType, err)
		}
		saved += len(chunk)
		clear(chunk)
		chunk = chunk[:0]
		return nil
	}

	skipped := 0
	for _, rec := range parsed {
		if rec.asin == "" {
			skipped++
			continue
		}
		chunk = append(chunk, models.VendorReport{
			ReportType:        reportType,
			ASIN:              rec.asin,
			ReportDate:        rec.reportDate,
			Data:              datatypes.JSON(rec.raw),
			DataStartDate:     rec.dataStart,
			DataEndDate:       rec.dataEnd,
			ReportRequestDate: now,
		})
		if len(chunk) == insertChunkSize {
			if err := flush(); err != nil {
				return saved, err
			}
		}
	}
	if err := flush(); err != nil {
		return saved, err
	}

	log.Info("report ingested", zap.Int("saved", saved), zap.Int("skipped", skipped))
	return saved, nil
}

// extractRecords finds the record array of the document. ok is false when
// the document could not be parsed.
func (i *ReportIngester) extractRecords(reportType string, content []byte, log *zap.Logger) ([]json.RawMessage, reportSpecification, bool) {
	var spec reportSpecification

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(content, &doc); err != nil {
		log.Error("failed to parse report document", zap.Error(err), zap.Int("bytes", len(content)))
		return nil, spec, false
	}

	if raw, ok := doc["reportSpecification"]; ok {
		if err := json.Unmarshal(raw, &spec); err != nil {
			log.Warn("ignoring malformed reportSpecification", zap.Error(err))
		}
	}

	keys := []string{fallbackRecordKey}
	if def, ok := spapi.LookupReport(reportType); ok {
		keys = []string{def.RecordKey, fallbackRecordKey}
	}

	for _, key := range keys {
		raw, ok := doc[key]
		if !ok {
			continue
		}
		var records []json.RawMessage
		if err := json.Unmarshal(raw, &records); err != nil {
			log.Error("report records are not an array", zap.String("key", key), zap.Error(err))
			return nil, spec, false
		}
		return records, spec, true
	}
	return nil, spec, true
}

// recordDate picks the report date of a record: endDate, startDate, date,
// endTime, startTime, then today.
func recordDate(f recordFields, today time.Time) time.Time {
	for _, s := range []string{f.EndDate, f.StartDate, f.Date, f.EndTime, f.StartTime} {
		if t := parseTimestamp(s); t != nil {
			return truncateToDay(*t)
		}
	}
	return today
}

var timestampLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func parseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func firstTime(candidates ...*time.Time) *time.Time {
	for _, t := range candidates {
		if t != nil {
			return t
		}
	}
	return nil
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
