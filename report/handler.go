package report

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/joulek/Backend-mtr/internal/quotations"
)

// Handler exposes rendering diagnostics to staff.
type Handler struct {
	client   *Client
	renderer Renderer
	logger   *slog.Logger
}

// NewHandler creates a report handler. client may be nil when Gotenberg is not configured.
func NewHandler(client *Client, renderer Renderer, logger *slog.Logger) *Handler {
	return &Handler{client: client, renderer: renderer, logger: logger}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ping", h.ping)
	r.Get("/sample", h.sample)
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	if h.client == nil {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"disabled"}`))
		return
	}
	if err := h.client.Ping(r.Context()); err != nil {
		h.logger.Warn("gotenberg ping failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// sample renders a fixed quotation with the configured engine.
func (h *Handler) sample(w http.ResponseWriter, r *http.Request) {
	q := SampleQuotation(time.Now())
	pdf, err := h.renderer.Render(r.Context(), QuotationDocument(q))
	if err != nil {
		h.logger.Error("render sample pdf", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename=sample.pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

// SampleQuotation builds a priced two-line quotation for previews.
func SampleQuotation(at time.Time) *quotations.Quotation {
	q := &quotations.Quotation{
		Number:    "DV0000-000000",
		Client:    quotations.ClientSnapshot{Name: "Client EXEMPLE", Email: "client@example.com", Address: "Zone industrielle, Sfax"},
		CreatedAt: at,
		Lines: []quotations.LineItem{
			{ArticleReference: "RC-10", Description: "Ressort de compression Ø1,5", Unit: "u", Quantity: decimal.NewFromInt(100),
				UnitPriceExclTax: decimal.RequireFromString("0.85"), DiscountPercent: decimal.NewFromInt(5), TaxRatePercent: decimal.NewFromInt(19), SourceRequestNumber: "DDV0000001"},
			{ArticleReference: "FD-2", Description: "Fil dressé 2 mm", Unit: "m", Quantity: decimal.NewFromInt(250),
				UnitPriceExclTax: decimal.RequireFromString("0.32"), TaxRatePercent: decimal.NewFromInt(19), SourceRequestNumber: "DDV0000002"},
		},
	}
	quotations.Recalculate(q, quotations.DefaultTotalsPolicy())
	return q
}
