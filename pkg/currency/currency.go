// Package currency formats monetary amounts for display.
//
// Prices are stored as whole Lao Kip, no fractional unit.
package currency

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const kipSymbol = "₭"

var printer = message.NewPrinter(language.English)

// FormatKip renders an amount as a grouped kip string, e.g. ₭1,234,000.
func FormatKip(amount int64) string {
	return kipSymbol + printer.Sprintf("%d", amount)
}
