package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// The financial year runs July to June; "2024/2025" starts on 1 July 2024.

// FinancialYearOf returns the financial year label containing t.
func FinancialYearOf(t time.Time) string {
	start := t.Year()
	if t.Month() < time.July {
		start--
	}
	return fmt.Sprintf("%d/%d", start, start+1)
}

// QuarterOf returns the financial quarter (1-4) containing t. Q1 is July-September.
func QuarterOf(t time.Time) int {
	return ((int(t.Month())+5)%12)/3 + 1
}

func parseFinancialYear(fy string) (int, error) {
	parts := strings.Split(strings.TrimSpace(fy), "/")
	if len(parts) != 2 {
		return 0, invalidf("financial year must look like 2024/2025, got %q", fy)
	}
	start, err1 := strconv.Atoi(parts[0])
	end, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || end != start+1 {
		return 0, invalidf("financial year must look like 2024/2025, got %q", fy)
	}
	return start, nil
}

// FinancialYearRange is [1 July start, 1 July start+1).
func FinancialYearRange(fy string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := parseFinancialYear(fy)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	from := time.Date(start, time.July, 1, 0, 0, 0, 0, loc)
	return from, from.AddDate(1, 0, 0), nil
}

// QuarterRange is the half-open date range of quarter q of financial year fy.
func QuarterRange(fy string, q int, loc *time.Location) (time.Time, time.Time, error) {
	if q < 1 || q > 4 {
		return time.Time{}, time.Time{}, invalidf("quarter must be between 1 and 4, got %d", q)
	}
	yearStart, _, err := FinancialYearRange(fy, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	from := yearStart.AddDate(0, 3*(q-1), 0)
	return from, from.AddDate(0, 3, 0), nil
}
