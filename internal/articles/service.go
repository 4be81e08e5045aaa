package articles

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/joulek/Backend-mtr/internal/platform/httpx"
	"github.com/joulek/Backend-mtr/internal/shared"
)

// Service exposes catalogue operations.
type Service struct {
	repo     Repository
	validate *validator.Validate
}

// NewService builds the catalogue service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

// Resolve returns the article behind id. It satisfies the quotation article resolver.
func (s *Service) Resolve(ctx context.Context, id uuid.UUID) (*Article, error) {
	return s.repo.Get(ctx, id)
}

// List returns one page of the catalogue.
func (s *Service) List(ctx context.Context, req ListArticlesRequest) (shared.Page[Article], error) {
	req.Page, req.PerPage = shared.NormalizePage(req.Page, req.PerPage)
	req.Search = strings.TrimSpace(req.Search)
	items, total, err := s.repo.List(ctx, req)
	if err != nil {
		return shared.Page[Article]{}, err
	}
	return shared.Page[Article]{Items: items, Pagination: shared.NewPagination(req.Page, req.PerPage, total)}, nil
}

// Create validates and stores a new article.
func (s *Service) Create(ctx context.Context, req CreateArticleRequest) (*Article, error) {
	req.Reference = strings.ToUpper(strings.TrimSpace(req.Reference))
	req.Designation = strings.TrimSpace(req.Designation)
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	if req.PriceExclTax.IsNegative() {
		return nil, fmt.Errorf("%w: price_excl_tax must be >= 0", httpx.ErrValidation)
	}
	unit := req.Unit
	if unit == "" {
		unit = "u"
	}
	a := Article{
		ID:           uuid.New(),
		Reference:    req.Reference,
		Designation:  req.Designation,
		Unit:         unit,
		PriceExclTax: req.PriceExclTax.Round(3),
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return &a, nil
}
