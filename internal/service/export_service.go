package service

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"pmis/internal/display"
	"pmis/internal/logging"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type ExportFormat string

const (
	FormatPDF   ExportFormat = "pdf"
	FormatExcel ExportFormat = "xlsx"
)

func ParseExportFormat(raw string) (ExportFormat, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pdf":
		return FormatPDF, true
	case "xlsx", "excel":
		return FormatExcel, true
	}
	return "", false
}

func (f ExportFormat) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// ExportFileName is "<report>-<YYYY-MM-DD>.<ext>".
func ExportFileName(kind ReportKind, format ExportFormat, day time.Time) string {
	return fmt.Sprintf("%s-%s.%s", kind, day.Format("2006-01-02"), format)
}

// ExportGate lets each user run one export at a time, whatever the format.
type ExportGate struct {
	mu     sync.Mutex
	active map[uint]ExportFormat
}

func NewExportGate() *ExportGate {
	return &ExportGate{active: make(map[uint]ExportFormat)}
}

// Acquire reserves the user's export slot. Call release when done.
func (g *ExportGate) Acquire(userID uint, format ExportFormat) (release func(), err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if running, busy := g.active[userID]; busy {
		return nil, fmt.Errorf("%w: %s export still running", ErrExportInProgress, running)
	}
	g.active[userID] = format
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.active, userID)
			g.mu.Unlock()
		})
	}, nil
}

func (g *ExportGate) Busy(userID uint) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.active[userID]
	return busy
}

type ExportFile struct {
	FileName    string
	ContentType string
	Content     []byte
}

type ExportService interface {
	Export(ctx context.Context, kind ReportKind, filter ReportFilter, format ExportFormat, userID uint) (*ExportFile, error)
	// Exporting reports whether the user has an export in flight.
	Exporting(userID uint) bool
}

type exportService struct {
	reports ReportService
	gate    *ExportGate
	now     func() time.Time
}

func NewExportService(reports ReportService, gate *ExportGate) ExportService {
	if gate == nil {
		gate = NewExportGate()
	}
	return &exportService{reports: reports, gate: gate, now: time.Now}
}

func (s *exportService) Exporting(userID uint) bool {
	return s.gate.Busy(userID)
}

func (s *exportService) Export(ctx context.Context, kind ReportKind, filter ReportFilter, format ExportFormat, userID uint) (*ExportFile, error) {
	release, err := s.gate.Acquire(userID, format)
	if err != nil {
		return nil, err
	}
	defer release()

	report, err := s.reports.Generate(ctx, kind, filter)
	if err != nil {
		return nil, err
	}
	if report.RowCount == 0 {
		return nil, fmt.Errorf("%w: %s has no rows", ErrNothingToExport, report.Title)
	}

	var content []byte
	switch format {
	case FormatPDF:
		content, err = renderPDF(report.Table(), s.now())
	case FormatExcel:
		content, err = renderExcel(report.Table())
	default:
		return nil, invalidf("unsupported export format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", format, err)
	}

	log := logging.FromContext(ctx)
	log.Info().
		Str("report", string(kind)).
		Str("format", string(format)).
		Int("rows", report.RowCount).
		Msg("report exported")

	return &ExportFile{
		FileName:    ExportFileName(kind, format, s.now()),
		ContentType: format.ContentType(),
		Content:     content,
	}, nil
}

// --- Excel ---

func renderExcel(t Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := t.Title
	if len(sheet) > 31 {
		sheet = sheet[:31]
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return nil, err
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, err
	}
	percentStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: strPtr("0.0")})
	if err != nil {
		return nil, err
	}
	summaryStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	for i, col := range t.Columns {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheet, name, name, col.Width); err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, name+"1", col.Title); err != nil {
			return nil, err
		}
	}
	lastCol, err := excelize.ColumnNumberToName(len(t.Columns))
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, err
	}

	for r, row := range t.Rows {
		line := r + 2
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, line)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, excelValue(value)); err != nil {
				return nil, err
			}
			var styleErr error
			switch t.Columns[c].Kind {
			case ColMoney:
				styleErr = f.SetCellStyle(sheet, cell, cell, moneyStyle)
			case ColPercent:
				styleErr = f.SetCellStyle(sheet, cell, cell, percentStyle)
			}
			if styleErr != nil {
				return nil, styleErr
			}
		}
	}

	if t.SummaryLine != "" {
		cell, err := excelize.CoordinatesToCellName(1, len(t.Rows)+3)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, t.SummaryLine); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheet, cell, cell, summaryStyle); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func excelValue(v interface{}) interface{} {
	if d, ok := v.(decimal.Decimal); ok {
		return d.InexactFloat64()
	}
	return v
}

func strPtr(s string) *string { return &s }

// --- PDF ---

const (
	pdfMargin    = 10.0
	pdfRowHeight = 7.0
)

func renderPDF(t Table, generated time.Time) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	widths := pdfColumnWidths(t.Columns, pageW-2*pdfMargin)

	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 243, 255)
		pdf.SetTextColor(0, 0, 0)
		for i, col := range t.Columns {
			pdf.CellFormat(widths[i], pdfRowHeight, tr(col.Title), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8)
	}

	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 10, tr(t.Title), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(0, 5, "Generated "+generated.Format("02 Jan 2006 15:04"), "", 1, "L", false, 0, "")
		pdf.Ln(2)
		header()
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	for _, row := range t.Rows {
		for i, value := range row {
			text := pdfCell(value, t.Columns[i].Kind)
			align := "L"
			if t.Columns[i].Kind != ColText {
				align = "R"
			}
			pdf.CellFormat(widths[i], pdfRowHeight, tr(fitText(pdf, text, widths[i]-2)), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if t.SummaryLine != "" {
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(0, pdfRowHeight, tr(t.SummaryLine), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// pdfColumnWidths shares the printable width in proportion to the Excel widths.
func pdfColumnWidths(columns []ReportColumn, total float64) []float64 {
	sum := 0.0
	for _, c := range columns {
		sum += c.Width
	}
	widths := make([]float64, len(columns))
	for i, c := range columns {
		widths[i] = total * c.Width / sum
	}
	return widths
}

func pdfCell(v interface{}, kind ColumnKind) string {
	switch val := v.(type) {
	case decimal.Decimal:
		if kind == ColPercent {
			return val.StringFixed(1) + "%"
		}
		return display.GroupThousands(val.StringFixed(2))
	case int:
		return strconv.Itoa(val)
	case string:
		if val == "" {
			return display.NotAvailable
		}
		return val
	case nil:
		return display.NotAvailable
	}
	return fmt.Sprint(v)
}

func fitText(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
