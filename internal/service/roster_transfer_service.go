package service

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/chapter-participation-api/internal/dto"
	"github.com/noah-isme/chapter-participation-api/internal/models"
	appErrors "github.com/noah-isme/chapter-participation-api/pkg/errors"
	"github.com/noah-isme/chapter-participation-api/pkg/export"
)

const (
	exportHeaderName  = "Student Name"
	exportHeaderGrade = "Grade Level"

	contentTypeCSV = "text/csv"
	contentTypePDF = "application/pdf"
)

type rosterImporter interface {
	Import(ctx context.Context, students []models.Student) error
}

type csvRenderer interface {
	Render(table export.Table) ([]byte, error)
}

type pdfRenderer interface {
	Render(table export.Table, title, subtitle string) ([]byte, error)
}

type exportStorage interface {
	Save(filename string, data []byte) (string, error)
}

// ExportFile is a rendered roster export.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// RosterTransferConfig tunes import and export.
type RosterTransferConfig struct {
	DatabaseName  string
	MaxImportRows int
}

// RosterTransferService imports rosters from CSV and exports them as CSV or PDF.
type RosterTransferService struct {
	roster   rosterReader
	importer rosterImporter
	notifier rosterPublisher
	reader   *export.CSVImporter
	csv      csvRenderer
	pdf      pdfRenderer
	storage  exportStorage
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      RosterTransferConfig
	now      func() time.Time
}

// NewRosterTransferService constructs the service. storage may be nil, in
// which case exports are only returned to the caller.
func NewRosterTransferService(roster rosterReader, importer rosterImporter, notifier rosterPublisher, storage exportStorage, cfg RosterTransferConfig, metrics *MetricsService, logger *zap.Logger) *RosterTransferService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DatabaseName == "" {
		cfg.DatabaseName = "roster.db"
	}
	return &RosterTransferService{
		roster:   roster,
		importer: importer,
		notifier: notifier,
		reader:   export.NewCSVImporter(2, cfg.MaxImportRows),
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		storage:  storage,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Import reads "name,gradeLevel" rows after a header row and adds one student
// per row, without events. A malformed row aborts the whole import.
func (s *RosterTransferService) Import(ctx context.Context, r io.Reader) (*dto.ImportResult, error) {
	records, err := s.reader.Read(r)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid roster csv: "+err.Error())
	}

	students := make([]models.Student, 0, len(records))
	for _, record := range records {
		student, err := parseRosterRecord(record)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
		}
		students = append(students, student)
	}

	if len(students) > 0 {
		if err := s.importer.Import(ctx, students); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to import roster")
		}
		if s.notifier != nil {
			s.notifier.Publish(ctx, models.RosterChangeImported, 0)
		}
	}

	s.metrics.RecordImport(len(students))
	s.logger.Info("roster imported", zap.Int("students", len(students)))
	return &dto.ImportResult{Imported: len(students)}, nil
}

func parseRosterRecord(record export.Record) (models.Student, error) {
	name := strings.TrimSpace(record.Fields[0])
	if name == "" {
		return models.Student{}, fmt.Errorf("line %d: student name is required", record.Line)
	}
	raw := strings.TrimSpace(record.Fields[1])
	grade, err := strconv.Atoi(raw)
	if err != nil || grade < 0 {
		return models.Student{}, fmt.Errorf("line %d: grade level %q is not a non-negative integer", record.Line, raw)
	}
	return models.Student{Name: name, GradeLevel: grade, ParticipationEvents: []models.ParticipationEvent{}}, nil
}

// ExportCSV renders the roster as "Student Name,Grade Level" rows.
func (s *RosterTransferService) ExportCSV(ctx context.Context) (*ExportFile, error) {
	table, err := s.table(ctx)
	if err != nil {
		return nil, err
	}
	body, err := s.csv.Render(table)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster csv")
	}
	return s.keep(&ExportFile{Filename: s.exportName(".csv"), ContentType: contentTypeCSV, Body: body}), nil
}

// ExportPDF renders the roster as a printable table.
func (s *RosterTransferService) ExportPDF(ctx context.Context) (*ExportFile, error) {
	table, err := s.table(ctx)
	if err != nil {
		return nil, err
	}
	subtitle := fmt.Sprintf("%d students, generated %s", len(table.Rows), s.now().UTC().Format(time.RFC1123))
	body, err := s.pdf.Render(table, "Chapter Roster", subtitle)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster pdf")
	}
	return s.keep(&ExportFile{Filename: s.exportName(".pdf"), ContentType: contentTypePDF, Body: body}), nil
}

func (s *RosterTransferService) table(ctx context.Context) (export.Table, error) {
	students, err := s.roster.List(ctx)
	if err != nil {
		return export.Table{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	rows := make([][]string, 0, len(students))
	for _, student := range students {
		rows = append(rows, []string{student.Name, strconv.Itoa(student.GradeLevel)})
	}
	return export.Table{Headers: []string{exportHeaderName, exportHeaderGrade}, Rows: rows}, nil
}

// keep writes a copy of the export to the exports directory. Failures are
// logged; the caller still receives the file.
func (s *RosterTransferService) keep(file *ExportFile) *ExportFile {
	if s.storage == nil {
		return file
	}
	if _, err := s.storage.Save(file.Filename, file.Body); err != nil {
		s.logger.Warn("export not kept on disk", zap.String("filename", file.Filename), zap.Error(err))
	}
	return file
}

func (s *RosterTransferService) exportName(ext string) string {
	return baseName(s.cfg.DatabaseName) + "-roster-export" + ext
}

// baseName strips a trailing ".db" from a database file name.
func baseName(databaseName string) string {
	return strings.TrimSuffix(databaseName, ".db")
}
