package dashboard

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Rate returns num/den*100, or 0 when den is zero.
func Rate(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	r := num / den * 100
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// FormatRate renders Rate with one decimal. A zero denominator renders "0".
func FormatRate(num, den float64) string {
	if den == 0 {
		return "0"
	}
	return strconv.FormatFloat(Rate(num, den), 'f', 1, 64)
}

// BarWidth scales value against first as a percentage, never below floor.
func BarWidth(value, first, floor float64) float64 {
	return math.Max(Rate(value, first), floor)
}

// FormatCount groups thousands with dots, as the dashboard locale does.
func FormatCount(n int) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := strconv.Itoa(n)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}

// TrendLabel drops the year from a YYYY-MM-DD period.
func TrendLabel(period string) string {
	if len(period) > 5 && period[4] == '-' {
		return period[5:]
	}
	return period
}

// FormatDate renders an ISO date or timestamp as dd/mm/yyyy. Empty input renders "—".
func FormatDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return Placeholder
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("02/01/2006")
		}
	}
	return value
}

// Placeholder renders missing values.
const Placeholder = "—"

func orPlaceholder(value string) string {
	if strings.TrimSpace(value) == "" {
		return Placeholder
	}
	return value
}
