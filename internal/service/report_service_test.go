package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"pmis/internal/model"
	"pmis/internal/repository"
	"pmis/internal/workflow"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type reportFixture struct {
	db      *gorm.DB
	svc     ReportService
	roads   *model.Project
	water   *model.Project
	schools *model.Project
}

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func addPayment(t *testing.T, db *gorm.DB, projectID uint, amount int64, paidOn time.Time) {
	t.Helper()
	req := model.PaymentRequest{ProjectID: projectID, UserID: 1, Amount: decimal.NewFromInt(amount), Status: workflow.StatusPaid}
	require.NoError(t, db.Omit("PaymentDetails", "Documents").Create(&req).Error)
	require.NoError(t, db.Create(&model.PaymentDetails{RequestID: req.ID, PaymentMethod: "EFT",
		AmountPaid: decimal.NewFromInt(amount), PaymentDate: paidOn, PaidByUserID: 4}).Error)
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()
	db := newTestDB(t)
	f := &reportFixture{db: db}

	contractor := model.Contractor{CompanyName: "Lake Builders Ltd"}
	require.NoError(t, db.Create(&contractor).Error)

	f.roads = &model.Project{Name: "Ring Road", Department: "Roads", FinancialYear: "2024/2025",
		Budget: decimal.NewFromInt(600_000), ContractSum: decimal.NewFromInt(500_000), ContractorID: &contractor.ID,
		PercentComplete: decimal.NewFromInt(40)}
	f.water = &model.Project{Name: "Borehole", Department: "Water", FinancialYear: "2024/2025",
		Budget: decimal.NewFromInt(400_000), ContractSum: decimal.NewFromInt(300_000)}
	f.schools = &model.Project{Name: "Classrooms", Department: "Education", FinancialYear: "2023/2024",
		Budget: decimal.NewFromInt(100_000), ContractSum: decimal.NewFromInt(100_000)}
	for _, p := range []*model.Project{f.roads, f.water, f.schools} {
		require.NoError(t, db.Create(p).Error)
	}

	addPayment(t, db, f.roads.ID, 150_000, date(2024, time.August, 10))
	addPayment(t, db, f.roads.ID, 100_000, date(2024, time.November, 1))
	addPayment(t, db, f.water.ID, 60_000, date(2024, time.September, 30))

	target := date(2024, time.October, 15)
	done := date(2024, time.October, 10)
	late := date(2024, time.December, 1)
	missed := date(2024, time.September, 1)
	require.NoError(t, db.Create(&[]model.Milestone{
		{ProjectID: f.roads.ID, Name: "Earthworks", TargetDate: &target, CompletedAt: &done, Status: model.MilestoneCompleted},
		{ProjectID: f.roads.ID, Name: "Surfacing", TargetDate: &target, CompletedAt: &late, Status: model.MilestoneCompleted},
		{ProjectID: f.water.ID, Name: "Drilling", TargetDate: &missed, Status: model.MilestoneInProgress},
	}).Error)

	f.svc = NewReportService(repository.NewProjectRepository(db), repository.NewReportRepository(db))
	return f
}

func TestAbsorptionReport(t *testing.T) {
	f := newReportFixture(t)

	report, err := f.svc.Generate(context.Background(), ReportAbsorption, ReportFilter{FinancialYear: "2024/2025"})
	require.NoError(t, err)
	assert.Equal(t, "Absorption Report", report.Title)
	assert.True(t, report.CanExport)
	require.Equal(t, 2, report.RowCount)

	rows := report.Data.([]AbsorptionRow)
	assert.Equal(t, "Ring Road", rows[0].ProjectName)
	assert.True(t, decimal.NewFromInt(250_000).Equal(rows[0].AmountPaid))
	assert.True(t, decimal.NewFromInt(250_000).Equal(rows[0].Balance))
	assert.Equal(t, "41.67", rows[0].AbsorptionRate.StringFixed(2))

	sum := report.Summary.(AbsorptionSummary)
	assert.Equal(t, "Total: KES 800,000.00 (80.0% of Budget)", sum.SummaryLine)
	assert.True(t, decimal.NewFromInt(310_000).Equal(sum.TotalPaid))
	assert.Equal(t, "31.00", sum.AbsorptionRate.StringFixed(2))
	assert.Equal(t, sum.SummaryLine, report.Table().SummaryLine)
	assert.Len(t, report.Table().Rows, 2)
}

func TestAbsorptionReport_GroupAndSort(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	report, err := f.svc.Generate(ctx, ReportAbsorption, ReportFilter{GroupBy: "department"})
	require.NoError(t, err)
	sum := report.Summary.(AbsorptionSummary)
	require.Len(t, sum.Departments, 3)
	assert.Equal(t, "Education", sum.Departments[0].Department)
	rows := report.Data.([]AbsorptionRow)
	assert.Equal(t, "Education", rows[0].Department)

	report, err = f.svc.Generate(ctx, ReportAbsorption, ReportFilter{SortBy: "budget", Order: "desc"})
	require.NoError(t, err)
	rows = report.Data.([]AbsorptionRow)
	assert.Equal(t, []string{"Ring Road", "Borehole", "Classrooms"}, []string{rows[0].ProjectName, rows[1].ProjectName, rows[2].ProjectName})

	_, err = f.svc.Generate(ctx, ReportAbsorption, ReportFilter{SortBy: "password"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Generate(ctx, ReportKind("weekly"), ReportFilter{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCAPRReport(t *testing.T) {
	f := newReportFixture(t)

	report, err := f.svc.Generate(context.Background(), ReportCAPR, ReportFilter{Department: "Water"})
	require.NoError(t, err)
	rows := report.Data.([]CAPRRow)
	require.Len(t, rows, 1)
	assert.Equal(t, "N/A", rows[0].Contractor)
	assert.Equal(t, "N/A", rows[0].StartDate)

	report, err = f.svc.Generate(context.Background(), ReportCAPR, ReportFilter{Department: "Roads"})
	require.NoError(t, err)
	rows = report.Data.([]CAPRRow)
	assert.Equal(t, "Lake Builders Ltd", rows[0].Contractor)
	sum := report.Summary.(CAPRSummary)
	assert.True(t, decimal.NewFromInt(250_000).Equal(sum.TotalBalance))
}

func TestPerformanceReport(t *testing.T) {
	f := newReportFixture(t)
	f.svc.(*reportService).now = func() time.Time { return date(2025, time.January, 10) }

	report, err := f.svc.Generate(context.Background(), ReportPerformanceManagement, ReportFilter{FinancialYear: "2024/2025"})
	require.NoError(t, err)
	rows := report.Data.([]PerformanceRow)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Milestones)
	assert.Equal(t, 2, rows[0].Completed)
	assert.Equal(t, "50.00", rows[0].OnTimeRate.StringFixed(2))
	assert.Equal(t, 1, rows[1].Overdue)

	sum := report.Summary.(PerformanceSummary)
	assert.Equal(t, 3, sum.Milestones)
	assert.Equal(t, 1, sum.Overdue)
}

func TestQuarterlyReport(t *testing.T) {
	f := newReportFixture(t)

	report, err := f.svc.Generate(context.Background(), ReportQuarterlyImplementation, ReportFilter{FinancialYear: "2024/2025", Quarter: 2})
	require.NoError(t, err)
	sum := report.Summary.(QuarterlySummary)
	assert.Equal(t, "2024-10-01", sum.PeriodStart)
	assert.Equal(t, "2024-12-31", sum.PeriodEnd)

	rows := report.Data.([]QuarterlyRow)
	require.Len(t, rows, 2)
	roads := rows[0]
	assert.True(t, decimal.NewFromInt(100_000).Equal(roads.Expenditure))
	assert.True(t, decimal.NewFromInt(250_000).Equal(roads.CumulativeExpenditure))
	assert.Equal(t, 2, roads.MilestonesDue)
	assert.Equal(t, 2, roads.MilestonesAchieved)
	assert.True(t, rows[1].Expenditure.IsZero())

	_, err = f.svc.Generate(context.Background(), ReportQuarterlyImplementation, ReportFilter{FinancialYear: "2024", Quarter: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.Generate(context.Background(), ReportQuarterlyImplementation, ReportFilter{FinancialYear: "2024/2025", Quarter: 5})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestExport(t *testing.T) {
	f := newReportFixture(t)
	exports := NewExportService(f.svc, nil)
	ctx := context.Background()

	file, err := exports.Export(ctx, ReportAbsorption, ReportFilter{FinancialYear: "2024/2025"}, FormatExcel, 1)
	require.NoError(t, err)
	assert.Regexp(t, `^absorption-\d{4}-\d{2}-\d{2}\.xlsx$`, file.FileName)
	assert.Equal(t, FormatExcel.ContentType(), file.ContentType)

	book, err := excelize.OpenReader(bytes.NewReader(file.Content))
	require.NoError(t, err)
	defer book.Close()
	header, err := book.GetCellValue("Absorption Report", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Project", header)
	name, err := book.GetCellValue("Absorption Report", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Ring Road", name)
	summary, err := book.GetCellValue("Absorption Report", "A5")
	require.NoError(t, err)
	assert.Equal(t, "Total: KES 800,000.00 (80.0% of Budget)", summary)

	file, err = exports.Export(ctx, ReportCAPR, ReportFilter{}, FormatPDF, 1)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(file.Content, []byte("%PDF")))
	assert.False(t, exports.Exporting(1))

	_, err = exports.Export(ctx, ReportAbsorption, ReportFilter{FinancialYear: "2030/2031"}, FormatPDF, 1)
	assert.ErrorIs(t, err, ErrNothingToExport)
}

func TestRenderExcel_StylesAndErrors(t *testing.T) {
	content, err := renderExcel(Table{
		Title:   "Payments",
		Columns: []ReportColumn{{Title: "Project", Width: 20}, {Title: "Paid", Kind: ColMoney, Width: 15}},
		Rows:    [][]interface{}{{"Ring Road", decimal.NewFromInt(1500)}},
	})
	require.NoError(t, err)

	book, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer book.Close()
	style, err := book.GetCellStyle("Payments", "B2")
	require.NoError(t, err)
	assert.NotZero(t, style)

	_, err = renderExcel(Table{Title: "Empty"})
	assert.Error(t, err, "a table without columns cannot be laid out")
}

func TestExportGate(t *testing.T) {
	gate := NewExportGate()

	release, err := gate.Acquire(1, FormatPDF)
	require.NoError(t, err)
	assert.True(t, gate.Busy(1))

	_, err = gate.Acquire(1, FormatExcel)
	assert.ErrorIs(t, err, ErrExportInProgress, "one export per user across formats")

	other, err := gate.Acquire(2, FormatExcel)
	require.NoError(t, err)
	other()

	release()
	release()
	assert.False(t, gate.Busy(1))
	_, err = gate.Acquire(1, FormatExcel)
	assert.NoError(t, err)
}

func TestExportFormatAndName(t *testing.T) {
	f, ok := ParseExportFormat("Excel")
	assert.True(t, ok)
	assert.Equal(t, FormatExcel, f)
	_, ok = ParseExportFormat("csv")
	assert.False(t, ok)
	assert.Equal(t, "capr-2025-03-01.pdf", ExportFileName(ReportCAPR, FormatPDF, date(2025, time.March, 1)))

	k, ok := ParseReportKind(" Performance-Management ")
	assert.True(t, ok)
	assert.Equal(t, ReportPerformanceManagement, k)
}
