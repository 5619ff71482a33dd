package analytics

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// KPI is one summary card value, already formatted for display
type KPI struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Value string `json:"value"`
}

var printer = message.NewPrinter(language.English)

// Thousands formats an integer with grouping, e.g. 12,345
func Thousands(n int64) string {
	return printer.Sprintf("%d", n)
}

// Money formats a revenue amount as dollars with cents, e.g. $1,234.50.
// The amount never passes through float64.
func Money(d decimal.Decimal) string {
	d = d.Round(2)
	whole, cents, _ := strings.Cut(d.Abs().StringFixed(2), ".")
	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	return sign + "$" + groupDigits(whole) + "." + cents
}

// groupDigits inserts a comma every three digits from the right
func groupDigits(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Percent formats a percentage with one decimal, e.g. 12.5%
func Percent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}
