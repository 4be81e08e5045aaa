// Package quotations turns one or more specification requests into numbered, priced
// quotations and reports which requests are still waiting for one.
package quotations

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joulek/Backend-mtr/internal/platform/storage"
	"github.com/joulek/Backend-mtr/internal/specrequests"
)

// Status is the commercial state of a quotation.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// ClientSnapshot freezes the client identity at creation time.
type ClientSnapshot struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Address string    `json:"address,omitempty"`
	Phone   string    `json:"phone,omitempty"`
	TaxID   string    `json:"tax_id,omitempty"`
}

// LineItem is one priced line. LineTotalExclTax is derived.
type LineItem struct {
	ArticleID           uuid.UUID       `json:"article_id"`
	ArticleReference    string          `json:"article_reference"`
	Description         string          `json:"description"`
	Unit                string          `json:"unit"`
	Quantity            decimal.Decimal `json:"quantity"`
	UnitPriceExclTax    decimal.Decimal `json:"unit_price_excl_tax"`
	DiscountPercent     decimal.Decimal `json:"discount_percent"`
	TaxRatePercent      decimal.Decimal `json:"tax_rate_percent"`
	LineTotalExclTax    decimal.Decimal `json:"line_total_excl_tax"`
	SourceRequestNumber string          `json:"source_request_number"`
}

// Totals is recomputed from the lines before every write.
type Totals struct {
	TotalExclTaxBeforeDiscount decimal.Decimal `json:"total_excl_tax_before_discount"`
	TotalExclTaxNet            decimal.Decimal `json:"total_excl_tax_net"`
	TotalTax                   decimal.Decimal `json:"total_tax"`
	SurchargePercent           decimal.Decimal `json:"surcharge_percent"`
	SurchargeAmount            decimal.Decimal `json:"surcharge_amount"`
	StampDuty                  decimal.Decimal `json:"stamp_duty"`
	TotalInclTax               decimal.Decimal `json:"total_incl_tax"`
}

// Link references a contributing request.
type Link struct {
	RequestID     uuid.UUID         `json:"request_id"`
	RequestNumber string            `json:"request_number"`
	Kind          specrequests.Kind `json:"kind"`
}

// Quotation is the persisted quotation document.
type Quotation struct {
	ID                  uuid.UUID         `json:"id"`
	Number              string            `json:"number"`
	SourceRequestID     uuid.UUID         `json:"source_request_id"`
	SourceRequestNumber string            `json:"source_request_number"`
	Client              ClientSnapshot    `json:"client"`
	Lines               []LineItem        `json:"lines"`
	Totals              Totals            `json:"totals"`
	Links               []Link            `json:"links"`
	Status              Status            `json:"status"`
	ValidUntil          *time.Time        `json:"valid_until,omitempty"`
	Document            *storage.Document `json:"document,omitempty"`
	CreatedBy           uuid.UUID         `json:"created_by"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// RequestRef is one row of the unconverted-request listing.
type RequestRef struct {
	ID     uuid.UUID         `json:"id"`
	Number string            `json:"number"`
	Kind   specrequests.Kind `json:"kind"`
}

// Linkage is the part of a quotation that ties it to requests.
type Linkage struct {
	SourceRequestID     uuid.UUID
	SourceRequestNumber string
	LinkRequestIDs      []uuid.UUID
	LinkNumbers         []string
}
