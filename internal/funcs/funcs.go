package funcs

import (
	"strings"
	"text/template"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var TemplateFuncs = template.FuncMap{
	"title":      title,
	"upper":      strings.ToUpper,
	"lower":      strings.ToLower,
	"formatTime": formatTime,
	"money":      money,
}

func title(s string) string {
	return cases.Title(language.English).String(s)
}

func formatTime(format string, t time.Time) string {
	return t.Format(format)
}

// money renders an amount with two decimal places followed by its currency.
func money(amount decimal.Decimal, currency string) string {
	return amount.StringFixed(2) + " " + currency
}
