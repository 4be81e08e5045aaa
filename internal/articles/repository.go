package articles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/joulek/Backend-mtr/internal/platform/db"
	"github.com/joulek/Backend-mtr/internal/platform/httpx"
)

// ErrNotFound is returned when an article id is unknown.
var ErrNotFound = fmt.Errorf("article %w", httpx.ErrNotFound)

// ErrDuplicateReference is returned when the reference already exists.
var ErrDuplicateReference = fmt.Errorf("article reference %w", httpx.ErrConflict)

// Repository persists articles.
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (*Article, error)
	List(ctx context.Context, req ListArticlesRequest) ([]Article, int, error)
	Create(ctx context.Context, a Article) error
}

type repository struct {
	db db.DBTX
}

// NewRepository builds the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const articleColumns = `id, reference, designation, unit, price_excl_tax::text, created_at, updated_at`

func scanArticle(row pgx.Row) (*Article, error) {
	var (
		a     Article
		price string
	)
	if err := row.Scan(&a.ID, &a.Reference, &a.Designation, &a.Unit, &price, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse price %q: %w", price, err)
	}
	a.PriceExclTax = p
	return &a, nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Article, error) {
	a, err := scanArticle(r.db.QueryRow(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	return a, nil
}

func (r *repository) List(ctx context.Context, req ListArticlesRequest) ([]Article, int, error) {
	where := ""
	args := []any{}
	if req.Search != "" {
		where = `WHERE reference ILIKE $1 OR designation ILIKE $1`
		args = append(args, "%"+escapeLike(req.Search)+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM articles `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}

	limitPos := len(args) + 1
	args = append(args, req.PerPage, (req.Page-1)*req.PerPage)
	rows, err := r.db.Query(ctx, fmt.Sprintf(`SELECT %s FROM articles %s ORDER BY reference LIMIT $%d OFFSET $%d`,
		articleColumns, where, limitPos, limitPos+1), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	out := make([]Article, 0, req.PerPage)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *a)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, a Article) error {
	now := time.Now().UTC()
	_, err := r.db.Exec(ctx, `
		INSERT INTO articles (id, reference, designation, unit, price_excl_tax, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $6)`,
		a.ID, a.Reference, a.Designation, a.Unit, a.PriceExclTax.String(), now)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateReference, a.Reference)
	}
	if err != nil {
		return fmt.Errorf("create article: %w", err)
	}
	return nil
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
