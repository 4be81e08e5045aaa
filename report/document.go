// Package report lays out quotations, requests and claims as printable documents and renders
// them to PDF in-process with fpdf or remotely through Gotenberg.
package report

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CompanyName heads every document.
const CompanyName = "MTR – Manufacture Tunisienne des ressorts"

// Field is a labelled value.
type Field struct {
	Label string
	Value string
}

// Section groups fields under a heading.
type Section struct {
	Title  string
	Fields []Field
}

// Column describes a table column. Width is a fraction of the printable width.
type Column struct {
	Header string
	Width  float64
	Align  string
}

// Table is a simple grid of preformatted cells.
type Table struct {
	Columns []Column
	Rows    [][]string
}

// Document is the engine-neutral layout of one PDF.
type Document struct {
	Slug     string
	Title    string
	Number   string
	Date     time.Time
	Party    Section
	Sections []Section
	Table    *Table
	Totals   []Field
	Notes    []string
}

// Filename is the stored file name of the rendered document.
func (d Document) Filename() string {
	return d.Slug + "-" + d.Number + ".pdf"
}

// Money formats an amount the French way with two decimals.
func Money(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", ",", 1)
}

// Quantity formats a quantity without trailing zeros.
func Quantity(d decimal.Decimal) string {
	return strings.Replace(d.String(), ".", ",", 1)
}

// Percent formats a percentage.
func Percent(d decimal.Decimal) string {
	return Quantity(d) + " %"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
