package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"pmis/internal/display"
	"pmis/internal/model"
	"pmis/internal/repository"

	"github.com/shopspring/decimal"
)

// ReportKind names one of the dashboard reports; it doubles as the URL segment
// and the export file name prefix.
type ReportKind string

const (
	ReportAbsorption              ReportKind = "absorption"
	ReportCAPR                    ReportKind = "capr"
	ReportPerformanceManagement   ReportKind = "performance-management"
	ReportQuarterlyImplementation ReportKind = "quarterly-implementation"
)

var reportTitles = map[ReportKind]string{
	ReportAbsorption:              "Absorption Report",
	ReportCAPR:                    "Capital Projects Report",
	ReportPerformanceManagement:   "Performance Management Report",
	ReportQuarterlyImplementation: "Quarterly Implementation Report",
}

func ParseReportKind(raw string) (ReportKind, bool) {
	k := ReportKind(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := reportTitles[k]
	return k, ok
}

func (k ReportKind) Title() string { return reportTitles[k] }

type ReportFilter struct {
	FinancialYear string `form:"financialYear"`
	Quarter       int    `form:"quarter"`
	Department    string `form:"department"`
	GroupBy       string `form:"groupBy"` // "department" groups the absorption report
	SortBy        string `form:"sortBy"`
	Order         string `form:"order"` // asc or desc
}

// ColumnKind drives cell formatting in exports.
type ColumnKind int

const (
	ColText ColumnKind = iota
	ColMoney
	ColPercent
	ColNumber
)

type ReportColumn struct {
	Key   string     `json:"key"`
	Title string     `json:"title"`
	Kind  ColumnKind `json:"-"`
	Width float64    `json:"-"` // Excel column width in characters
}

// Table is the flattened form of a report used by exports.
type Table struct {
	Title       string
	Columns     []ReportColumn
	Rows        [][]interface{}
	SummaryLine string
}

// Report is what the dashboard renders: data rows plus summary totals.
type Report struct {
	Kind      ReportKind     `json:"kind"`
	Title     string         `json:"title"`
	Columns   []ReportColumn `json:"columns"`
	Data      interface{}    `json:"data"`
	Summary   interface{}    `json:"summary"`
	RowCount  int            `json:"rowCount"`
	CanExport bool           `json:"canExport"`
	table     Table
}

// Table returns the export view of the report.
func (r *Report) Table() Table { return r.table }

// --- Rows ---

type rowFields interface {
	field(key string) interface{}
}

type AbsorptionRow struct {
	ProjectID      uint            `json:"projectId"`
	ProjectName    string          `json:"projectName"`
	Department     string          `json:"department"`
	Budget         decimal.Decimal `json:"budget"`
	ContractSum    decimal.Decimal `json:"contractSum"`
	AmountPaid     decimal.Decimal `json:"amountPaid"`
	Balance        decimal.Decimal `json:"balance"`
	AbsorptionRate decimal.Decimal `json:"absorptionRate"`
}

func (r AbsorptionRow) field(key string) interface{} {
	switch key {
	case "projectName":
		return r.ProjectName
	case "department":
		return r.Department
	case "budget":
		return r.Budget
	case "contractSum":
		return r.ContractSum
	case "amountPaid":
		return r.AmountPaid
	case "balance":
		return r.Balance
	case "absorptionRate":
		return r.AbsorptionRate
	}
	return nil
}

type DepartmentSubtotal struct {
	Department     string          `json:"department"`
	Projects       int             `json:"projects"`
	Budget         decimal.Decimal `json:"budget"`
	ContractSum    decimal.Decimal `json:"contractSum"`
	AmountPaid     decimal.Decimal `json:"amountPaid"`
	AbsorptionRate decimal.Decimal `json:"absorptionRate"`
}

type AbsorptionSummary struct {
	TotalBudget      decimal.Decimal      `json:"totalBudget"`
	TotalContractSum decimal.Decimal      `json:"totalContractSum"`
	TotalPaid        decimal.Decimal      `json:"totalPaid"`
	AbsorptionRate   decimal.Decimal      `json:"absorptionRate"`
	SummaryLine      string               `json:"summaryLine"`
	Departments      []DepartmentSubtotal `json:"departments,omitempty"`
}

type CAPRRow struct {
	ProjectID       uint            `json:"projectId"`
	ProjectName     string          `json:"projectName"`
	Contractor      string          `json:"contractor"`
	ContractSum     decimal.Decimal `json:"contractSum"`
	AmountPaid      decimal.Decimal `json:"amountPaid"`
	Balance         decimal.Decimal `json:"balance"`
	PercentComplete decimal.Decimal `json:"percentComplete"`
	Status          string          `json:"status"`
	StartDate       string          `json:"startDate"`
	EndDate         string          `json:"endDate"`
}

func (r CAPRRow) field(key string) interface{} {
	switch key {
	case "projectName":
		return r.ProjectName
	case "contractor":
		return r.Contractor
	case "contractSum":
		return r.ContractSum
	case "amountPaid":
		return r.AmountPaid
	case "balance":
		return r.Balance
	case "percentComplete":
		return r.PercentComplete
	case "status":
		return r.Status
	case "startDate":
		return r.StartDate
	case "endDate":
		return r.EndDate
	}
	return nil
}

type CAPRSummary struct {
	Projects         int             `json:"projects"`
	TotalContractSum decimal.Decimal `json:"totalContractSum"`
	TotalPaid        decimal.Decimal `json:"totalPaid"`
	TotalBalance     decimal.Decimal `json:"totalBalance"`
}

type PerformanceRow struct {
	ProjectID       uint            `json:"projectId"`
	ProjectName     string          `json:"projectName"`
	Department      string          `json:"department"`
	Milestones      int             `json:"milestones"`
	Completed       int             `json:"completed"`
	Overdue         int             `json:"overdue"`
	OnTimeRate      decimal.Decimal `json:"onTimeRate"`
	PercentComplete decimal.Decimal `json:"percentComplete"`
}

func (r PerformanceRow) field(key string) interface{} {
	switch key {
	case "projectName":
		return r.ProjectName
	case "department":
		return r.Department
	case "milestones":
		return r.Milestones
	case "completed":
		return r.Completed
	case "overdue":
		return r.Overdue
	case "onTimeRate":
		return r.OnTimeRate
	case "percentComplete":
		return r.PercentComplete
	}
	return nil
}

type PerformanceSummary struct {
	Projects   int             `json:"projects"`
	Milestones int             `json:"milestones"`
	Completed  int             `json:"completed"`
	Overdue    int             `json:"overdue"`
	OnTimeRate decimal.Decimal `json:"onTimeRate"`
}

type QuarterlyRow struct {
	ProjectID             uint            `json:"projectId"`
	ProjectName           string          `json:"projectName"`
	Department            string          `json:"department"`
	PlannedBudget         decimal.Decimal `json:"plannedBudget"`
	Expenditure           decimal.Decimal `json:"expenditure"`
	CumulativeExpenditure decimal.Decimal `json:"cumulativeExpenditure"`
	UtilizationRate       decimal.Decimal `json:"utilizationRate"`
	MilestonesDue         int             `json:"milestonesDue"`
	MilestonesAchieved    int             `json:"milestonesAchieved"`
}

func (r QuarterlyRow) field(key string) interface{} {
	switch key {
	case "projectName":
		return r.ProjectName
	case "department":
		return r.Department
	case "plannedBudget":
		return r.PlannedBudget
	case "expenditure":
		return r.Expenditure
	case "cumulativeExpenditure":
		return r.CumulativeExpenditure
	case "utilizationRate":
		return r.UtilizationRate
	case "milestonesDue":
		return r.MilestonesDue
	case "milestonesAchieved":
		return r.MilestonesAchieved
	}
	return nil
}

type QuarterlySummary struct {
	FinancialYear      string          `json:"financialYear"`
	Quarter            int             `json:"quarter"`
	PeriodStart        string          `json:"periodStart"`
	PeriodEnd          string          `json:"periodEnd"`
	TotalPlanned       decimal.Decimal `json:"totalPlanned"`
	TotalExpenditure   decimal.Decimal `json:"totalExpenditure"`
	MilestonesDue      int             `json:"milestonesDue"`
	MilestonesAchieved int             `json:"milestonesAchieved"`
}

var reportColumns = map[ReportKind][]ReportColumn{
	ReportAbsorption: {
		{Key: "projectName", Title: "Project", Width: 36},
		{Key: "department", Title: "Department", Width: 22},
		{Key: "budget", Title: "Budget (KES)", Kind: ColMoney, Width: 18},
		{Key: "contractSum", Title: "Contract Sum (KES)", Kind: ColMoney, Width: 18},
		{Key: "amountPaid", Title: "Amount Paid (KES)", Kind: ColMoney, Width: 18},
		{Key: "balance", Title: "Balance (KES)", Kind: ColMoney, Width: 18},
		{Key: "absorptionRate", Title: "Absorption (%)", Kind: ColPercent, Width: 14},
	},
	ReportCAPR: {
		{Key: "projectName", Title: "Project", Width: 36},
		{Key: "contractor", Title: "Contractor", Width: 28},
		{Key: "contractSum", Title: "Contract Sum (KES)", Kind: ColMoney, Width: 18},
		{Key: "amountPaid", Title: "Amount Paid (KES)", Kind: ColMoney, Width: 18},
		{Key: "balance", Title: "Balance (KES)", Kind: ColMoney, Width: 18},
		{Key: "percentComplete", Title: "Complete (%)", Kind: ColPercent, Width: 12},
		{Key: "status", Title: "Status", Width: 16},
		{Key: "startDate", Title: "Start", Width: 14},
		{Key: "endDate", Title: "End", Width: 14},
	},
	ReportPerformanceManagement: {
		{Key: "projectName", Title: "Project", Width: 36},
		{Key: "department", Title: "Department", Width: 22},
		{Key: "milestones", Title: "Milestones", Kind: ColNumber, Width: 12},
		{Key: "completed", Title: "Completed", Kind: ColNumber, Width: 12},
		{Key: "overdue", Title: "Overdue", Kind: ColNumber, Width: 12},
		{Key: "onTimeRate", Title: "On Time (%)", Kind: ColPercent, Width: 12},
		{Key: "percentComplete", Title: "Complete (%)", Kind: ColPercent, Width: 12},
	},
	ReportQuarterlyImplementation: {
		{Key: "projectName", Title: "Project", Width: 36},
		{Key: "department", Title: "Department", Width: 22},
		{Key: "plannedBudget", Title: "Planned Budget (KES)", Kind: ColMoney, Width: 20},
		{Key: "expenditure", Title: "Quarter Expenditure (KES)", Kind: ColMoney, Width: 22},
		{Key: "cumulativeExpenditure", Title: "Cumulative (KES)", Kind: ColMoney, Width: 18},
		{Key: "utilizationRate", Title: "Utilization (%)", Kind: ColPercent, Width: 14},
		{Key: "milestonesDue", Title: "Milestones Due", Kind: ColNumber, Width: 14},
		{Key: "milestonesAchieved", Title: "Achieved", Kind: ColNumber, Width: 12},
	},
}

// --- Interface ---

type ReportService interface {
	Generate(ctx context.Context, kind ReportKind, filter ReportFilter) (*Report, error)
}

type reportService struct {
	projects repository.ProjectRepository
	reports  repository.ReportRepository
	now      func() time.Time
}

func NewReportService(projects repository.ProjectRepository, reports repository.ReportRepository) ReportService {
	return &reportService{projects: projects, reports: reports, now: time.Now}
}

func (s *reportService) Generate(ctx context.Context, kind ReportKind, filter ReportFilter) (*Report, error) {
	columns, ok := reportColumns[kind]
	if !ok {
		return nil, invalidf("unknown report %q", kind)
	}
	if filter.SortBy != "" && !hasColumn(columns, filter.SortBy) {
		return nil, invalidf("cannot sort %s by %q", kind, filter.SortBy)
	}
	desc := strings.EqualFold(filter.Order, "desc")

	var (
		report *Report
		err    error
	)
	switch kind {
	case ReportAbsorption:
		report, err = s.absorption(ctx, filter, desc)
	case ReportCAPR:
		report, err = s.capr(ctx, filter, desc)
	case ReportPerformanceManagement:
		report, err = s.performance(ctx, filter, desc)
	case ReportQuarterlyImplementation:
		report, err = s.quarterly(ctx, filter, desc)
	}
	if err != nil {
		return nil, err
	}

	report.Kind = kind
	report.Title = kind.Title()
	report.Columns = columns
	report.CanExport = report.RowCount > 0
	report.table.Title = report.Title
	report.table.Columns = columns
	return report, nil
}

func (s *reportService) absorption(ctx context.Context, filter ReportFilter, desc bool) (*Report, error) {
	projects, err := s.projects.List(ctx, repository.ProjectFilter{FinancialYear: filter.FinancialYear, Department: filter.Department})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch projects: %w", err)
	}
	paid, err := s.reports.PaidByProject(ctx, nil, nil)
	if err != nil {
		return nil, err
	}

	rows := make([]AbsorptionRow, 0, len(projects))
	var sum AbsorptionSummary
	for _, p := range projects {
		amountPaid := paid[p.ID]
		rows = append(rows, AbsorptionRow{
			ProjectID:      p.ID,
			ProjectName:    p.Name,
			Department:     p.Department,
			Budget:         p.Budget,
			ContractSum:    p.ContractSum,
			AmountPaid:     amountPaid,
			Balance:        p.ContractSum.Sub(amountPaid),
			AbsorptionRate: display.Ratio(amountPaid, p.Budget),
		})
		sum.TotalBudget = sum.TotalBudget.Add(p.Budget)
		sum.TotalContractSum = sum.TotalContractSum.Add(p.ContractSum)
		sum.TotalPaid = sum.TotalPaid.Add(amountPaid)
	}
	sum.AbsorptionRate = display.Ratio(sum.TotalPaid, sum.TotalBudget)
	sum.SummaryLine = display.BudgetSummaryLine(sum.TotalBudget, sum.TotalContractSum)

	if strings.EqualFold(filter.GroupBy, "department") {
		sum.Departments = departmentSubtotals(rows)
		if filter.SortBy == "" {
			filter.SortBy = "department"
		}
	}
	sortRows(rows, filter.SortBy, desc)

	return &Report{Data: rows, Summary: sum, RowCount: len(rows), table: Table{
		Rows: tableRows(rows, reportColumns[ReportAbsorption]), SummaryLine: sum.SummaryLine,
	}}, nil
}

func (s *reportService) capr(ctx context.Context, filter ReportFilter, desc bool) (*Report, error) {
	projects, err := s.projects.List(ctx, repository.ProjectFilter{FinancialYear: filter.FinancialYear, Department: filter.Department})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch projects: %w", err)
	}
	paid, err := s.reports.PaidByProject(ctx, nil, nil)
	if err != nil {
		return nil, err
	}

	rows := make([]CAPRRow, 0, len(projects))
	var sum CAPRSummary
	for _, p := range projects {
		contractor := display.NotAvailable
		if p.Contractor != nil {
			contractor = p.Contractor.CompanyName
		}
		amountPaid := paid[p.ID]
		row := CAPRRow{
			ProjectID:       p.ID,
			ProjectName:     p.Name,
			Contractor:      contractor,
			ContractSum:     p.ContractSum,
			AmountPaid:      amountPaid,
			Balance:         p.ContractSum.Sub(amountPaid),
			PercentComplete: p.PercentComplete,
			Status:          p.Status,
			StartDate:       display.FormatDate(p.StartDate),
			EndDate:         display.FormatDate(p.EndDate),
		}
		rows = append(rows, row)
		sum.TotalContractSum = sum.TotalContractSum.Add(row.ContractSum)
		sum.TotalPaid = sum.TotalPaid.Add(row.AmountPaid)
		sum.TotalBalance = sum.TotalBalance.Add(row.Balance)
	}
	sum.Projects = len(rows)
	sortRows(rows, filter.SortBy, desc)

	line := fmt.Sprintf("Projects: %d | Contract Sum: %s | Paid: %s | Balance: %s", sum.Projects,
		display.FormatKES(sum.TotalContractSum), display.FormatKES(sum.TotalPaid), display.FormatKES(sum.TotalBalance))
	return &Report{Data: rows, Summary: sum, RowCount: len(rows), table: Table{
		Rows: tableRows(rows, reportColumns[ReportCAPR]), SummaryLine: line,
	}}, nil
}

func (s *reportService) performance(ctx context.Context, filter ReportFilter, desc bool) (*Report, error) {
	projects, err := s.projects.List(ctx, repository.ProjectFilter{FinancialYear: filter.FinancialYear, Department: filter.Department})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch projects: %w", err)
	}
	milestones, err := s.projects.ListMilestones(ctx, projectIDs(projects)...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch milestones: %w", err)
	}
	byProject := groupMilestones(milestones)

	now := s.now()
	rows := make([]PerformanceRow, 0, len(projects))
	var sum PerformanceSummary
	onTimeTotal := 0
	for _, p := range projects {
		row := PerformanceRow{ProjectID: p.ID, ProjectName: p.Name, Department: p.Department, PercentComplete: p.PercentComplete}
		onTime := 0
		for _, m := range byProject[p.ID] {
			row.Milestones++
			if m.CompletedAt != nil {
				row.Completed++
				if !m.Overdue(now) {
					onTime++
				}
			} else if m.Overdue(now) {
				row.Overdue++
			}
		}
		row.OnTimeRate = display.Ratio(decimal.NewFromInt(int64(onTime)), decimal.NewFromInt(int64(row.Completed)))
		rows = append(rows, row)

		sum.Milestones += row.Milestones
		sum.Completed += row.Completed
		sum.Overdue += row.Overdue
		onTimeTotal += onTime
	}
	sum.Projects = len(rows)
	sum.OnTimeRate = display.Ratio(decimal.NewFromInt(int64(onTimeTotal)), decimal.NewFromInt(int64(sum.Completed)))
	sortRows(rows, filter.SortBy, desc)

	line := fmt.Sprintf("Milestones: %d | Completed: %d | Overdue: %d | On time: %s%%",
		sum.Milestones, sum.Completed, sum.Overdue, sum.OnTimeRate.StringFixed(1))
	return &Report{Data: rows, Summary: sum, RowCount: len(rows), table: Table{
		Rows: tableRows(rows, reportColumns[ReportPerformanceManagement]), SummaryLine: line,
	}}, nil
}

func (s *reportService) quarterly(ctx context.Context, filter ReportFilter, desc bool) (*Report, error) {
	now := s.now()
	fy := filter.FinancialYear
	if fy == "" {
		fy = FinancialYearOf(now)
	}
	quarter := filter.Quarter
	if quarter == 0 {
		quarter = QuarterOf(now)
	}
	from, to, err := QuarterRange(fy, quarter, time.UTC)
	if err != nil {
		return nil, err
	}
	yearStart, _, err := FinancialYearRange(fy, time.UTC)
	if err != nil {
		return nil, err
	}

	projects, err := s.projects.List(ctx, repository.ProjectFilter{FinancialYear: fy, Department: filter.Department})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch projects: %w", err)
	}
	inQuarter, err := s.reports.PaidByProject(ctx, &from, &to)
	if err != nil {
		return nil, err
	}
	cumulative, err := s.reports.PaidByProject(ctx, &yearStart, &to)
	if err != nil {
		return nil, err
	}
	milestones, err := s.projects.ListMilestones(ctx, projectIDs(projects)...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch milestones: %w", err)
	}
	byProject := groupMilestones(milestones)

	within := func(t *time.Time) bool { return t != nil && !t.Before(from) && t.Before(to) }

	rows := make([]QuarterlyRow, 0, len(projects))
	sum := QuarterlySummary{
		FinancialYear: fy,
		Quarter:       quarter,
		PeriodStart:   from.Format("2006-01-02"),
		PeriodEnd:     to.AddDate(0, 0, -1).Format("2006-01-02"),
	}
	for _, p := range projects {
		row := QuarterlyRow{
			ProjectID:             p.ID,
			ProjectName:           p.Name,
			Department:            p.Department,
			PlannedBudget:         p.Budget,
			Expenditure:           inQuarter[p.ID],
			CumulativeExpenditure: cumulative[p.ID],
			UtilizationRate:       display.Ratio(cumulative[p.ID], p.Budget),
		}
		for _, m := range byProject[p.ID] {
			if within(m.TargetDate) {
				row.MilestonesDue++
			}
			if within(m.CompletedAt) {
				row.MilestonesAchieved++
			}
		}
		rows = append(rows, row)
		sum.TotalPlanned = sum.TotalPlanned.Add(row.PlannedBudget)
		sum.TotalExpenditure = sum.TotalExpenditure.Add(row.Expenditure)
		sum.MilestonesDue += row.MilestonesDue
		sum.MilestonesAchieved += row.MilestonesAchieved
	}
	sortRows(rows, filter.SortBy, desc)

	line := fmt.Sprintf("FY %s Q%d | Planned: %s | Spent in quarter: %s", fy, quarter,
		display.FormatKES(sum.TotalPlanned), display.FormatKES(sum.TotalExpenditure))
	return &Report{Data: rows, Summary: sum, RowCount: len(rows), table: Table{
		Rows: tableRows(rows, reportColumns[ReportQuarterlyImplementation]), SummaryLine: line,
	}}, nil
}

// --- Helpers ---

func hasColumn(columns []ReportColumn, key string) bool {
	for _, c := range columns {
		if c.Key == key {
			return true
		}
	}
	return false
}

func projectIDs(projects []model.Project) []uint {
	ids := make([]uint, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	return ids
}

func groupMilestones(milestones []model.Milestone) map[uint][]model.Milestone {
	out := make(map[uint][]model.Milestone)
	for _, m := range milestones {
		out[m.ProjectID] = append(out[m.ProjectID], m)
	}
	return out
}

func departmentSubtotals(rows []AbsorptionRow) []DepartmentSubtotal {
	index := make(map[string]int)
	var out []DepartmentSubtotal
	for _, r := range rows {
		i, ok := index[r.Department]
		if !ok {
			i = len(out)
			index[r.Department] = i
			out = append(out, DepartmentSubtotal{Department: r.Department})
		}
		d := &out[i]
		d.Projects++
		d.Budget = d.Budget.Add(r.Budget)
		d.ContractSum = d.ContractSum.Add(r.ContractSum)
		d.AmountPaid = d.AmountPaid.Add(r.AmountPaid)
	}
	for i := range out {
		out[i].AbsorptionRate = display.Ratio(out[i].AmountPaid, out[i].Budget)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Department < out[j].Department })
	return out
}

// sortRows orders rows by one column; ties keep their original order.
func sortRows[T rowFields](rows []T, key string, desc bool) {
	if key == "" {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		c := compareCells(rows[i].field(key), rows[j].field(key))
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compareCells(a, b interface{}) int {
	switch av := a.(type) {
	case decimal.Decimal:
		return av.Cmp(b.(decimal.Decimal))
	case int:
		bv := b.(int)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case string:
		return strings.Compare(strings.ToLower(av), strings.ToLower(b.(string)))
	}
	return 0
}

func tableRows[T rowFields](rows []T, columns []ReportColumn) [][]interface{} {
	out := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		cells := make([]interface{}, 0, len(columns))
		for _, c := range columns {
			cells = append(cells, r.field(c.Key))
		}
		out = append(out, cells)
	}
	return out
}
