package quotations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joulek/Backend-mtr/internal/articles"
	"github.com/joulek/Backend-mtr/internal/numbering"
	"github.com/joulek/Backend-mtr/internal/platform/httpx"
	"github.com/joulek/Backend-mtr/internal/shared"
	"github.com/joulek/Backend-mtr/internal/specrequests"
)

// ErrMixedClients is returned when the selected requests have different owners.
var ErrMixedClients = fmt.Errorf("requests belong to different clients: %w", httpx.ErrConflict)

// ArticleResolver looks up catalogue articles.
type ArticleResolver interface {
	Resolve(ctx context.Context, id uuid.UUID) (*articles.Article, error)
}

// RequestResolver finds a request whatever its kind.
type RequestResolver interface {
	ResolveAnyKind(ctx context.Context, id uuid.UUID) (*specrequests.SpecRequest, error)
}

// LineDescriptor is the staff input for one quotation line. RequestID may carry either a
// request id or a request number.
type LineDescriptor struct {
	ArticleID        string             `json:"article_id"`
	RequestID        string             `json:"request_id,omitempty"`
	RequestNumber    string             `json:"request_number,omitempty"`
	Description      string             `json:"description,omitempty"`
	Quantity         shared.FlexDecimal `json:"quantity"`
	UnitPriceExclTax shared.FlexDecimal `json:"unit_price_excl_tax"`
	DiscountPercent  shared.FlexDecimal `json:"discount_percent"`
	TaxRatePercent   shared.FlexDecimal `json:"tax_rate_percent"`
}

// LineDefaults fills values a descriptor leaves out.
type LineDefaults struct {
	RequestPrefix  string
	TaxRatePercent decimal.Decimal
}

// Built is the outcome of line assembly: the resolved requests in input order and the lines.
type Built struct {
	Requests []specrequests.SpecRequest
	Lines    []LineItem
}

// LineBuilder resolves requests and articles into quotation lines.
type LineBuilder struct {
	requests RequestResolver
	articles ArticleResolver
	defaults LineDefaults
}

// NewLineBuilder wires the builder.
func NewLineBuilder(requests RequestResolver, articles ArticleResolver, defaults LineDefaults) *LineBuilder {
	if defaults.RequestPrefix == "" {
		defaults.RequestPrefix = numbering.DefaultRequestPrefix
	}
	return &LineBuilder{requests: requests, articles: articles, defaults: defaults}
}

// Build resolves every request, checks they share one client and produces one line per
// descriptor. Any failure aborts the whole build.
func (b *LineBuilder) Build(ctx context.Context, requestIDs []string, descriptors []LineDescriptor) (*Built, error) {
	if len(requestIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one request is required", httpx.ErrValidation)
	}
	if len(descriptors) == 0 {
		return nil, fmt.Errorf("%w: at least one line is required", httpx.ErrValidation)
	}
	for i, d := range descriptors {
		if strings.TrimSpace(d.ArticleID) == "" {
			return nil, fmt.Errorf("%w: line %d: article is required", httpx.ErrValidation, i+1)
		}
	}

	resolved, err := b.resolveRequests(ctx, requestIDs)
	if err != nil {
		return nil, err
	}
	owner := resolved[0].OwnerID
	for _, req := range resolved[1:] {
		if req.OwnerID != owner {
			return nil, ErrMixedClients
		}
	}

	byID := make(map[uuid.UUID]string, len(resolved))
	byNumber := make(map[string]string, len(resolved))
	for _, req := range resolved {
		byID[req.ID] = req.Number
		byNumber[strings.ToUpper(req.Number)] = req.Number
	}
	fallback := resolved[0].Number

	lines := make([]LineItem, 0, len(descriptors))
	for i, d := range descriptors {
		line, err := b.buildLine(ctx, i+1, d)
		if err != nil {
			return nil, err
		}
		line.SourceRequestNumber = b.origin(d, byID, byNumber, fallback)
		line.LineTotalExclTax = round2(lineNet(line))
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: no valid line", httpx.ErrValidation)
	}
	return &Built{Requests: resolved, Lines: lines}, nil
}

func (b *LineBuilder) resolveRequests(ctx context.Context, requestIDs []string) ([]specrequests.SpecRequest, error) {
	seen := make(map[uuid.UUID]struct{}, len(requestIDs))
	out := make([]specrequests.SpecRequest, 0, len(requestIDs))
	for _, raw := range requestIDs {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid request id %q", httpx.ErrValidation, raw)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		req, err := b.requests.ResolveAnyKind(ctx, id)
		if errors.Is(err, httpx.ErrNotFound) {
			return nil, fmt.Errorf("request not found: %s: %w", id, httpx.ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("resolve request %s: %w", id, err)
		}
		out = append(out, *req)
	}
	return out, nil
}

func (b *LineBuilder) buildLine(ctx context.Context, index int, d LineDescriptor) (LineItem, error) {
	articleID, err := uuid.Parse(strings.TrimSpace(d.ArticleID))
	if err != nil {
		return LineItem{}, fmt.Errorf("article not found on line %d: %s: %w", index, d.ArticleID, httpx.ErrNotFound)
	}
	article, err := b.articles.Resolve(ctx, articleID)
	if errors.Is(err, httpx.ErrNotFound) {
		return LineItem{}, fmt.Errorf("article not found on line %d: %s: %w", index, articleID, httpx.ErrNotFound)
	}
	if err != nil {
		return LineItem{}, fmt.Errorf("resolve article %s: %w", articleID, err)
	}

	line := LineItem{
		ArticleID:        article.ID,
		ArticleReference: article.Reference,
		Description:      article.Designation,
		Unit:             article.Unit,
		Quantity:         d.Quantity.Or(decimal.NewFromInt(1)),
		UnitPriceExclTax: d.UnitPriceExclTax.Or(article.PriceExclTax),
		DiscountPercent:  d.DiscountPercent.Or(decimal.Zero),
		TaxRatePercent:   d.TaxRatePercent.Or(b.defaults.TaxRatePercent),
	}
	if desc := strings.TrimSpace(d.Description); desc != "" {
		line.Description = desc
	}
	switch {
	case line.Quantity.IsNegative():
		return LineItem{}, fmt.Errorf("%w: line %d: quantity must not be negative", httpx.ErrValidation, index)
	case line.UnitPriceExclTax.IsNegative():
		return LineItem{}, fmt.Errorf("%w: line %d: unit price must not be negative", httpx.ErrValidation, index)
	case !inPercentRange(line.DiscountPercent):
		return LineItem{}, fmt.Errorf("%w: line %d: discount must be between 0 and 100", httpx.ErrValidation, index)
	case !inPercentRange(line.TaxRatePercent):
		return LineItem{}, fmt.Errorf("%w: line %d: tax rate must be between 0 and 100", httpx.ErrValidation, index)
	}
	return line, nil
}

func inPercentRange(d decimal.Decimal) bool {
	return !d.IsNegative() && !d.GreaterThan(hundred)
}

// origin picks the request number a line is attributed to. A descriptor without any origin
// falls back to the first request.
func (b *LineBuilder) origin(d LineDescriptor, byID map[uuid.UUID]string, byNumber map[string]string, fallback string) string {
	ref := strings.TrimSpace(d.RequestID)
	if id, err := uuid.Parse(ref); err == nil {
		if number, ok := byID[id]; ok {
			return number
		}
	}
	if numbering.LooksLikeRequestNumber(b.defaults.RequestPrefix, ref) {
		return canonicalNumber(ref, byNumber)
	}
	if explicit := strings.TrimSpace(d.RequestNumber); explicit != "" {
		return canonicalNumber(explicit, byNumber)
	}
	return fallback
}

func canonicalNumber(raw string, byNumber map[string]string) string {
	upper := strings.ToUpper(raw)
	if number, ok := byNumber[upper]; ok {
		return number
	}
	return upper
}
