package numbering

import (
	"fmt"
	"strings"
)

// Numbering families. Each family owns an independent counter per year.
const (
	FamilyRequest     = "devis"
	FamilyQuotation   = "quote"
	FamilyReclamation = "reclamation"
)

// DefaultRequestPrefix prefixes spec request numbers.
const DefaultRequestPrefix = "DDV"

// ScopeKey renders the counter key for a family and year.
func ScopeKey(family string, year int) string {
	return fmt.Sprintf("%s:%d", family, year)
}

// FormatRequestNumber renders <prefix><yy><seq padded to 5>, e.g. DDV2500123.
func FormatRequestNumber(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s%02d%05d", prefix, year%100, seq)
}

// FormatQuotationNumber renders DV<yyyy>-<seq padded to 6>, e.g. DV2025-000123.
func FormatQuotationNumber(year int, seq int64) string {
	return fmt.Sprintf("DV%04d-%06d", year, seq)
}

// FormatReclamationNumber renders R<yy><seq padded to 5>.
func FormatReclamationNumber(year int, seq int64) string {
	return FormatRequestNumber("R", year, seq)
}

// Formatter renders a sequence value for a family.
type Formatter func(year int, seq int64) string

// Formatters returns the standard formatter set using requestPrefix for spec requests.
func Formatters(requestPrefix string) map[string]Formatter {
	if requestPrefix == "" {
		requestPrefix = DefaultRequestPrefix
	}
	return map[string]Formatter{
		FamilyRequest: func(year int, seq int64) string {
			return FormatRequestNumber(requestPrefix, year, seq)
		},
		FamilyQuotation:   FormatQuotationNumber,
		FamilyReclamation: FormatReclamationNumber,
	}
}

// LooksLikeRequestNumber reports whether s carries the request number prefix, ignoring case.
func LooksLikeRequestNumber(prefix, s string) bool {
	if prefix == "" {
		prefix = DefaultRequestPrefix
	}
	return len(s) > len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
