// Package display renders values the way the dashboard and exports show them.
package display

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// NotAvailable is shown for missing values.
const NotAvailable = "N/A"

const currencyCode = "KES"

var hundred = decimal.NewFromInt(100)

// FormatCurrency renders an optional amount as "KES 1,234.50".
func FormatCurrency(v *decimal.Decimal) string {
	if v == nil {
		return NotAvailable
	}
	return FormatKES(*v)
}

// FormatKES renders an amount with the currency code, thousands separators
// and two decimals.
func FormatKES(v decimal.Decimal) string {
	return currencyCode + " " + GroupThousands(v.StringFixed(2))
}

// GroupThousands inserts commas into the integer part of a plain decimal string.
func GroupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + frac
}

// FormatBooleanForDisplay renders an optional flag as Yes/No.
func FormatBooleanForDisplay(v *bool) string {
	switch {
	case v == nil:
		return NotAvailable
	case *v:
		return "Yes"
	default:
		return "No"
	}
}

// FormatPercent renders part/whole with one decimal, e.g. "80.0%".
func FormatPercent(part, whole decimal.Decimal) string {
	if whole.IsZero() {
		return NotAvailable
	}
	return part.Div(whole).Mul(hundred).StringFixed(1) + "%"
}

// Ratio returns part/whole as a percentage rounded to two places, or zero.
func Ratio(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(2)
}

// BudgetSummaryLine is the totals row of the absorption report.
func BudgetSummaryLine(totalBudget, totalContractSum decimal.Decimal) string {
	return "Total: " + FormatKES(totalContractSum) + " (" + FormatPercent(totalContractSum, totalBudget) + " of Budget)"
}

// FormatDate renders an optional date as "02 Jan 2006".
func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return NotAvailable
	}
	return t.Format("02 Jan 2006")
}
