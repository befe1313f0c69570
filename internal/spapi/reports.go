package spapi

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/elchunenfreund/amazon-vendor-sync/internal/retry"
)

const (
	reportsPath   = "/reports/2021-06-30/reports"
	documentsPath = "/reports/2021-06-30/documents"

	DefaultMaxWait = 2 * time.Minute
)

// isoLayout is the timestamp format the reports API expects
const isoLayout = "2006-01-02T15:04:05Z"

type createReportRequest struct {
	ReportType     string            `json:"reportType"`
	MarketplaceIDs []string          `json:"marketplaceIds"`
	DataStartTime  string            `json:"dataStartTime"`
	DataEndTime    string            `json:"dataEndTime"`
	ReportOptions  map[string]string `json:"reportOptions,omitempty"`
}

type reportStatus struct {
	ReportID         string        `json:"reportId"`
	ReportType       string        `json:"reportType"`
	ProcessingStatus string        `json:"processingStatus"`
	ReportDocumentID string        `json:"reportDocumentId"`
	Errors           []ErrorDetail `json:"errors"`
}

type reportDocument struct {
	ReportDocumentID     string `json:"reportDocumentId"`
	URL                  string `json:"url"`
	CompressionAlgorithm string `json:"compressionAlgorithm"`
}

// CreateReport submits a report request and returns the job in CREATED state.
// Real-time types use the requested range capped to their maximum span; weekly
// types ignore it and request the latest complete week.
func (c *Client) CreateReport(ctx context.Context, accessToken, reportType string, requestedStart, requestedEnd time.Time) (*ReportJob, error) {
	def, ok := LookupReport(reportType)
	if !ok {
		return nil, fmt.Errorf("unknown report type %q", reportType)
	}

	var window Window
	if def.RealTime {
		window = CapWindow(requestedStart, requestedEnd, def.MaxSpan)
	} else {
		window = WeekWindow(c.now())
	}

	payload, err := json.Marshal(createReportRequest{
		ReportType:     reportType,
		MarketplaceIDs: []string{c.marketplaceID},
		DataStartTime:  window.Start.Format(isoLayout),
		DataEndTime:    window.End.Format(isoLayout),
		ReportOptions:  c.reportOptions(def),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode report request: %w", err)
	}

	c.logger.Info("creating report",
		zap.String("report_type", reportType),
		zap.Time("data_start", window.Start),
		zap.Time("data_end", window.End))

	resp, err := c.send(ctx, "createReport", http.MethodPost, c.endpoint+reportsPath, accessToken, payload, true)
	if err != nil {
		return nil, err
	}

	var created struct {
		ReportID string `json:"reportId"`
	}
	if !resp.ok() || json.Unmarshal(resp.body, &created) != nil || created.ReportID == "" {
		return nil, &CreateReportError{
			ReportType: reportType,
			StatusCode: resp.status,
			Body:       truncate(string(resp.body), maxErrorBody),
		}
	}

	return &ReportJob{
		ReportType: reportType,
		ReportID:   created.ReportID,
		State:      StateCreated,
		Window:     window,
	}, nil
}

// WaitForReport polls the job until it reaches DONE, FATAL or CANCELLED, or
// maxWait elapses. On DONE the report document id is returned.
func (c *Client) WaitForReport(ctx context.Context, accessToken string, job *ReportJob, maxWait time.Duration) (string, error) {
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	log := c.logger.With(zap.String("report_type", job.ReportType), zap.String("report_id", job.ReportID))
	started := c.now()

	for {
		var status reportStatus
		path := reportsPath + "/" + url.PathEscape(job.ReportID)
		if err := c.getJSON(ctx, "getReport", path, nil, accessToken, &status); err != nil {
			return "", err
		}

		state, err := ParseProcessingStatus(status.ProcessingStatus)
		if err != nil {
			return "", fmt.Errorf("report %s: %w", job.ReportID, err)
		}
		if err := job.Transition(state); err != nil {
			return "", err
		}

		switch state {
		case StateDone:
			if status.ReportDocumentID == "" {
				return "", fmt.Errorf("report %s is DONE without a report document", job.ReportID)
			}
			job.ReportDocumentID = status.ReportDocumentID
			log.Info("report ready", zap.String("report_document_id", job.ReportDocumentID))
			return job.ReportDocumentID, nil
		case StateFatal, StateCancelled:
			failure := &JobFailure{ReportID: job.ReportID, ReportType: job.ReportType, Status: state}
			if status.ReportDocumentID != "" {
				job.ReportDocumentID = status.ReportDocumentID
				failure.ErrorText = c.fetchErrorDocument(ctx, accessToken, status.ReportDocumentID, log)
			} else if len(status.Errors) > 0 {
				failure.ErrorText = truncate(status.Errors[0].Code+": "+status.Errors[0].Message, maxErrorBody)
			}
			return "", failure
		}

		waited := c.now().Sub(started)
		if waited+c.pollInterval > maxWait {
			return "", &JobTimeout{ReportID: job.ReportID, ReportType: job.ReportType, LastStatus: state, Waited: waited}
		}
		log.Debug("report not ready", zap.String("status", string(state)))
		if err := retry.Sleep(ctx, c.pollInterval); err != nil {
			return "", err
		}
	}
}

// fetchErrorDocument returns the start of a failed report's error document.
// Any failure is logged and yields an empty string.
func (c *Client) fetchErrorDocument(ctx context.Context, accessToken, documentID string, log *zap.Logger) string {
	content, err := c.downloadDocument(ctx, accessToken, documentID)
	if err != nil {
		log.Warn("could not fetch report error document",
			zap.String("report_document_id", documentID),
			zap.Error(err))
		return ""
	}
	text := truncate(string(content), maxErrorBody)
	log.Error("report error document", zap.String("content", text))
	return text
}

// DownloadAndDecode fetches the document of a DONE job, decompressing it when
// the API marks it GZIP, and moves the job to DOWNLOADED.
func (c *Client) DownloadAndDecode(ctx context.Context, accessToken string, job *ReportJob) ([]byte, error) {
	if job.State != StateDone {
		return nil, fmt.Errorf("%w: cannot download report %s in state %s", ErrInvalidTransition, job.ReportID, job.State)
	}
	content, err := c.downloadDocument(ctx, accessToken, job.ReportDocumentID)
	if err != nil {
		return nil, err
	}
	if err := job.Transition(StateDownloaded); err != nil {
		return nil, err
	}
	c.logger.Info("report downloaded",
		zap.String("report_type", job.ReportType),
		zap.String("report_id", job.ReportID),
		zap.Int("bytes", len(content)))
	return content, nil
}

func (c *Client) downloadDocument(ctx context.Context, accessToken, documentID string) ([]byte, error) {
	var doc reportDocument
	path := documentsPath + "/" + url.PathEscape(documentID)
	if err := c.getJSON(ctx, "getReportDocument", path, nil, accessToken, &doc); err != nil {
		return nil, err
	}
	if doc.URL == "" {
		return nil, fmt.Errorf("report document %s has no url", documentID)
	}

	// The document url is presigned; it takes no SP-API token and is not paced
	resp, err := c.send(ctx, "downloadReportDocument", http.MethodGet, doc.URL, "", nil, false)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, newAPIError("downloadReportDocument", resp.status, resp.body)
	}

	if !strings.EqualFold(doc.CompressionAlgorithm, "GZIP") {
		return resp.body, nil
	}
	return gunzip(resp.body)
}

func gunzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip document: %w", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress document: %w", err)
	}
	return out, nil
}
