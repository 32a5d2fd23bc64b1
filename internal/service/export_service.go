package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/cahsa-api/internal/dto"
	"github.com/noah-isme/cahsa-api/internal/models"
	appErrors "github.com/noah-isme/cahsa-api/pkg/errors"
	"github.com/noah-isme/cahsa-api/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type requestLister interface {
	List(ctx context.Context, actor models.Actor, query dto.RequestQuery) ([]models.RequestSummary, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

var exportColumns = []export.Column{
	{Key: "submitted", Label: "Last Updated", Weight: 1.2},
	{Key: "pid", Label: "UCF ID", Weight: 0.8},
	{Key: "name", Label: "Student", Weight: 1.6},
	{Key: "audit", Label: "Audit", Weight: 1.8},
	{Key: "requestor", Label: "Requested By", Weight: 1.4},
	{Key: "status", Label: "Status", Weight: 1},
	{Key: "reason", Label: "Reason", Weight: 2.2},
}

// ExportService renders scoped request listings as downloadable files.
type ExportService struct {
	requests requestLister
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to
// the default exporters.
func NewExportService(requests requestLister, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		requests: requests,
		csv:      csv,
		pdf:      pdf,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Export lists requests the way List does and renders them in format.
func (s *ExportService) Export(ctx context.Context, actor models.Actor, query dto.RequestQuery, format string) (*dto.ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	summaries, err := s.requests.List(ctx, actor, query)
	if err != nil {
		return nil, err
	}

	status := models.StatusPending
	if parsed, err := models.ParseRequestStatus(query.Status); err == nil {
		status = parsed
	}
	dataset := buildExportDataset(status, summaries)

	var (
		content     []byte
		contentType string
	)
	switch format {
	case ExportFormatPDF:
		content, err = s.pdf.Render(dataset)
		contentType = "application/pdf"
	default:
		content, err = s.csv.Render(dataset)
		contentType = "text/csv"
	}
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render export")
	}

	generatedAt := s.now()
	s.logger.Info("request export generated",
		zap.String("actor_id", actor.AdvisorID),
		zap.String("format", format),
		zap.Int("rows", len(summaries)))

	return &dto.ExportFile{
		Filename:    fmt.Sprintf("substitution-requests-%s-%s.%s", strings.ReplaceAll(string(status), " ", "-"), generatedAt.Format("20060102"), format),
		ContentType: contentType,
		Content:     content,
		GeneratedAt: generatedAt,
	}, nil
}

func buildExportDataset(status models.RequestStatus, summaries []models.RequestSummary) export.Dataset {
	rows := make([]map[string]string, 0, len(summaries))
	for _, summary := range summaries {
		requestor := summary.RequestorName
		if requestor == "" {
			requestor = summary.Requestor
		}
		rows = append(rows, map[string]string{
			"submitted": summary.StatusTime.Format("2006-01-02 15:04"),
			"pid":       summary.PID,
			"name":      summary.Name,
			"audit":     models.DisplayAudit(summary.UAudit),
			"requestor": requestor,
			"status":    summary.Status.Label(),
			"reason":    summary.Reason,
		})
	}
	return export.Dataset{
		Title:   "Course Substitution Requests: " + status.Label(),
		Columns: exportColumns,
		Rows:    rows,
	}
}
