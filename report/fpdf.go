package report

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-pdf/fpdf"
)

const (
	pageMargin = 15.0
	lineHeight = 5.5
)

// FPDFRenderer draws documents in-process on A4 pages.
type FPDFRenderer struct{}

// NewFPDFRenderer returns the built-in renderer.
func NewFPDFRenderer() *FPDFRenderer {
	return &FPDFRenderer{}
}

// Render draws doc and returns the PDF bytes.
func (r *FPDFRenderer) Render(ctx context.Context, doc Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 2*pageMargin

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 7)
		pdf.CellFormat(contentW, 4, tr(fmt.Sprintf("%s  -  page %d", doc.Number, pdf.PageNo())), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFillColor(11, 34, 57)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(contentW, 10, tr(CompanyName), "", 1, "C", true, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW/2, 8, tr(doc.Title), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW/2, 8, tr("N° "+doc.Number), "", 1, "R", false, 0, "")
	if !doc.Date.IsZero() {
		pdf.CellFormat(contentW, lineHeight, tr("Date : "+doc.Date.Format("02/01/2006")), "", 1, "R", false, 0, "")
	}
	pdf.Ln(3)

	drawSection(pdf, tr, contentW, doc.Party)
	for _, s := range doc.Sections {
		drawSection(pdf, tr, contentW, s)
	}
	if doc.Table != nil {
		drawTable(pdf, tr, contentW, doc.Table)
	}
	if len(doc.Totals) > 0 {
		pdf.Ln(2)
		labelW, valueW := contentW*0.75, contentW*0.25
		for i, t := range doc.Totals {
			style := ""
			if i == len(doc.Totals)-1 {
				style = "B"
			}
			pdf.SetFont("Helvetica", style, 9)
			pdf.CellFormat(labelW, lineHeight, tr(t.Label), "", 0, "R", false, 0, "")
			pdf.CellFormat(valueW, lineHeight, tr(t.Value), "", 1, "R", false, 0, "")
		}
	}
	if len(doc.Notes) > 0 {
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "I", 8)
		for _, n := range doc.Notes {
			pdf.MultiCell(contentW, 4.5, tr(n), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("fpdf: %w", err)
	}
	return buf.Bytes(), nil
}

func drawSection(pdf *fpdf.Fpdf, tr func(string) string, width float64, s Section) {
	if len(s.Fields) == 0 {
		return
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(238, 243, 250)
	pdf.CellFormat(width, 7, tr(s.Title), "", 1, "L", true, 0, "")
	labelW := width * 0.35
	for _, f := range s.Fields {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(labelW, lineHeight, tr(f.Label), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(width-labelW, lineHeight, tr(f.Value), "", "L", false)
	}
	pdf.Ln(2)
}

func drawTable(pdf *fpdf.Fpdf, tr func(string) string, width float64, t *Table) {
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(11, 34, 57)
	pdf.SetTextColor(255, 255, 255)
	for _, c := range t.Columns {
		pdf.CellFormat(width*c.Width, 7, tr(c.Header), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 8)
	for _, row := range t.Rows {
		for i, c := range t.Columns {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			align := c.Align
			if align == "" {
				align = "L"
			}
			pdf.CellFormat(width*c.Width, 6, tr(fit(pdf, cell, width*c.Width-2)), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
}

// fit truncates s so it fits in width at the current font.
func fit(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
