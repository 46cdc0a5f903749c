package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/village-api/internal/currency"
	"github.com/noah-isme/village-api/pkg/export"
	appErrors "github.com/noah-isme/village-api/pkg/errors"
)

// Passbook formats.
const (
	FormatCSV  = "csv"
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
)

type statementSource interface {
	Statement(ctx context.Context, classID, studentID string) (*Statement, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string, summary ...string) ([]byte, error)
}

type xlsxRenderer interface {
	Render(data export.Dataset, sheetName string) ([]byte, error)
}

// Passbook is a rendered student statement.
type Passbook struct {
	Filename    string
	ContentType string
	Body        []byte
	SavedPath   string
}

// ExportService renders student passbooks.
type ExportService struct {
	source  statementSource
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	xlsx    xlsxRenderer
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService constructs an ExportService. storage may be nil, in which
// case passbooks are only streamed.
func NewExportService(source statementSource, storage fileStorage, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		source:  source,
		storage: storage,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		xlsx:    export.NewXLSXExporter(),
		logger:  logger,
		now:     time.Now,
	}
}

var passbookHeaders = []string{"Date", "Reason", "Type", "Amount", "Balance", "Voided"}

// Passbook renders a student's ledger in the requested format. When keep is
// set and storage is configured the file is also written to disk.
func (s *ExportService) Passbook(ctx context.Context, classID, studentID, format string, keep bool) (*Passbook, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatCSV
	}
	stmt, err := s.source.Statement(ctx, classID, studentID)
	if err != nil {
		return nil, err
	}

	dataset := passbookDataset(stmt)
	title := fmt.Sprintf("Passbook - %s", stmt.Student.Name)
	book := &Passbook{Filename: s.filename(classID, stmt, format)}
	switch format {
	case FormatCSV:
		book.ContentType = "text/csv"
		book.Body, err = s.csv.Render(dataset)
	case FormatPDF:
		book.ContentType = "application/pdf"
		book.Body, err = s.pdf.Render(dataset, title,
			fmt.Sprintf("Class %s, seat %d", classID, stmt.Student.Number),
			"Balance: "+currency.Format(stmt.Student.Balance, stmt.Rates).Display,
		)
	case FormatXLSX:
		book.ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		book.Body, err = s.xlsx.Render(dataset, "Passbook")
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported format "+format)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render passbook")
	}

	if keep && s.storage != nil {
		path, err := s.storage.Save("passbooks/"+book.Filename, book.Body)
		if err != nil {
			s.logger.Warn("passbook not saved", zap.String("class_id", classID), zap.String("student_id", studentID), zap.Error(err))
		} else {
			book.SavedPath = path
		}
	}
	return book, nil
}

func passbookDataset(stmt *Statement) export.Dataset {
	rows := make([]map[string]string, 0, len(stmt.Transactions))
	for _, tx := range stmt.Transactions {
		voided := ""
		if tx.Voided {
			voided = "yes"
		}
		rows = append(rows, map[string]string{
			"Date":    tx.Timestamp.UTC().Format("2006-01-02 15:04"),
			"Reason":  tx.Reason,
			"Type":    string(tx.Kind),
			"Amount":  strconv.FormatInt(tx.Amount, 10),
			"Balance": strconv.FormatInt(tx.Balance, 10),
			"Voided":  voided,
		})
	}
	return export.Dataset{Headers: passbookHeaders, Rows: rows, Numeric: []string{"Amount", "Balance"}}
}

func (s *ExportService) filename(classID string, stmt *Statement, format string) string {
	timestamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%02d_%s_%s.%s", sanitizeFilename(classID), stmt.Student.Number, sanitizeFilename(strings.ToLower(stmt.Student.Name)), timestamp, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_", "\"", "", "'", "")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
