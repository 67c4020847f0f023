package dashboard

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter renders amounts with locale digit grouping.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter builds a formatter for tag. An empty tag uses English.
func NewFormatter(tag string) Formatter {
	lang, err := language.Parse(tag)
	if err != nil || tag == "" {
		lang = language.English
	}
	return Formatter{printer: message.NewPrinter(lang)}
}

// Amount formats v with two fraction digits.
func (f Formatter) Amount(v decimal.Decimal) string {
	if f.printer == nil {
		f = NewFormatter("")
	}
	return f.printer.Sprint(number.Decimal(v.Round(2).InexactFloat64(), number.Scale(2)))
}
