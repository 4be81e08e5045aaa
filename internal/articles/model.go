// Package articles manages the priced catalogue lines quotations are built from.
package articles

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Article is a priced catalogue entry.
type Article struct {
	ID           uuid.UUID       `json:"id"`
	Reference    string          `json:"reference"`
	Designation  string          `json:"designation"`
	Unit         string          `json:"unit"`
	PriceExclTax decimal.Decimal `json:"price_excl_tax"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// CreateArticleRequest is the admin payload for a new article.
type CreateArticleRequest struct {
	Reference    string          `json:"reference" validate:"required,max=64"`
	Designation  string          `json:"designation" validate:"required,max=255"`
	Unit         string          `json:"unit" validate:"omitempty,max=16"`
	PriceExclTax decimal.Decimal `json:"price_excl_tax"`
}

// ListArticlesRequest filters the catalogue.
type ListArticlesRequest struct {
	Search  string
	Page    int
	PerPage int
}
