package quotations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joulek/Backend-mtr/internal/platform/db"
	"github.com/joulek/Backend-mtr/internal/platform/httpx"
	"github.com/joulek/Backend-mtr/internal/platform/storage"
)

// ErrNotFound is returned when no quotation matches.
var ErrNotFound = fmt.Errorf("quotation %w", httpx.ErrNotFound)

// Store persists quotations.
type Store interface {
	Insert(ctx context.Context, q *Quotation) error
	Get(ctx context.Context, id uuid.UUID) (*Quotation, error)
	GetByNumber(ctx context.Context, number string) (*Quotation, error)
	FindBySourceRequest(ctx context.Context, id uuid.UUID, number string) (*Quotation, error)
	FindLinkage(ctx context.Context, ids []uuid.UUID, numbers []string) ([]Linkage, error)
	List(ctx context.Context, req ListRequest) ([]Quotation, int, error)
	SetDocument(ctx context.Context, id uuid.UUID, doc storage.Document) error
}

type store struct {
	db db.DBTX
}

// NewStore returns the pgx-backed store.
func NewStore(pool *pgxpool.Pool) Store {
	return &store{db: pool}
}

const quotationColumns = `id, number, source_request_id, source_request_number, client, lines, totals, links,
	status, valid_until, document, created_by, created_at, updated_at`

func scanQuotation(row pgx.Row) (*Quotation, error) {
	var (
		q                                    Quotation
		sourceID, createdBy                  pgtype.UUID
		client, lines, totals, links, docRaw []byte
		validUntil                           pgtype.Date
	)
	err := row.Scan(&q.ID, &q.Number, &sourceID, &q.SourceRequestNumber, &client, &lines, &totals, &links,
		&q.Status, &validUntil, &docRaw, &createdBy, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if sourceID.Valid {
		q.SourceRequestID = sourceID.Bytes
	}
	if createdBy.Valid {
		q.CreatedBy = createdBy.Bytes
	}
	if validUntil.Valid {
		t := validUntil.Time
		q.ValidUntil = &t
	}
	for _, part := range []struct {
		raw  []byte
		dest any
		name string
	}{
		{client, &q.Client, "client"},
		{lines, &q.Lines, "lines"},
		{totals, &q.Totals, "totals"},
		{links, &q.Links, "links"},
	} {
		if len(part.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(part.raw, part.dest); err != nil {
			return nil, fmt.Errorf("decode quotation %s: %w", part.name, err)
		}
	}
	if len(docRaw) > 0 {
		var doc storage.Document
		if err := json.Unmarshal(docRaw, &doc); err != nil {
			return nil, fmt.Errorf("decode quotation document: %w", err)
		}
		q.Document = &doc
	}
	return &q, nil
}

func nullableUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: id != uuid.Nil}
}

func (s *store) Insert(ctx context.Context, q *Quotation) error {
	client, err := json.Marshal(q.Client)
	if err != nil {
		return err
	}
	lines, err := json.Marshal(q.Lines)
	if err != nil {
		return err
	}
	totals, err := json.Marshal(q.Totals)
	if err != nil {
		return err
	}
	links, err := json.Marshal(q.Links)
	if err != nil {
		return err
	}
	linkIDs := make([]uuid.UUID, 0, len(q.Links))
	linkNumbers := make([]string, 0, len(q.Links))
	for _, l := range q.Links {
		linkIDs = append(linkIDs, l.RequestID)
		linkNumbers = append(linkNumbers, strings.ToUpper(l.RequestNumber))
	}
	var validUntil pgtype.Date
	if q.ValidUntil != nil {
		validUntil = pgtype.Date{Time: *q.ValidUntil, Valid: true}
	}

	now := time.Now().UTC()
	q.CreatedAt, q.UpdatedAt = now, now
	_, err = s.db.Exec(ctx, `
		INSERT INTO quotations (id, number, source_request_id, source_request_number, client, lines, totals, links,
			link_request_ids, link_numbers, status, valid_until, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)`,
		q.ID, q.Number, nullableUUID(q.SourceRequestID), q.SourceRequestNumber, client, lines, totals, links,
		linkIDs, linkNumbers, string(q.Status), validUntil, nullableUUID(q.CreatedBy), now)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("quotation number %s: %w", q.Number, httpx.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert quotation: %w", err)
	}
	return nil
}

func (s *store) one(ctx context.Context, where string, args ...any) (*Quotation, error) {
	q, err := scanQuotation(s.db.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM quotations WHERE %s ORDER BY created_at DESC LIMIT 1`, quotationColumns, where), args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get quotation: %w", err)
	}
	return q, nil
}

func (s *store) Get(ctx context.Context, id uuid.UUID) (*Quotation, error) {
	return s.one(ctx, `id = $1`, id)
}

func (s *store) GetByNumber(ctx context.Context, number string) (*Quotation, error) {
	return s.one(ctx, `number = $1`, strings.ToUpper(strings.TrimSpace(number)))
}

// FindBySourceRequest matches the primary source or any link. A nil id only matches numbers.
func (s *store) FindBySourceRequest(ctx context.Context, id uuid.UUID, number string) (*Quotation, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	return s.one(ctx, `($1::uuid IS NOT NULL AND (source_request_id = $1 OR $1 = ANY(link_request_ids)))
		OR ($2 <> '' AND (source_request_number = $2 OR $2 = ANY(link_numbers)))`,
		nullableUUID(id), number)
}

func (s *store) FindLinkage(ctx context.Context, ids []uuid.UUID, numbers []string) ([]Linkage, error) {
	if ids == nil {
		ids = []uuid.UUID{}
	}
	if numbers == nil {
		numbers = []string{}
	}
	rows, err := s.db.Query(ctx, `
		SELECT source_request_id, source_request_number, link_request_ids, link_numbers
		FROM quotations
		WHERE source_request_id = ANY($1)
		   OR link_request_ids && $1::uuid[]
		   OR source_request_number = ANY($2)
		   OR link_numbers && $2::text[]`, ids, numbers)
	if err != nil {
		return nil, fmt.Errorf("find quotation linkage: %w", err)
	}
	defer rows.Close()

	var out []Linkage
	for rows.Next() {
		var (
			l        Linkage
			sourceID pgtype.UUID
		)
		if err := rows.Scan(&sourceID, &l.SourceRequestNumber, &l.LinkRequestIDs, &l.LinkNumbers); err != nil {
			return nil, err
		}
		if sourceID.Valid {
			l.SourceRequestID = sourceID.Bytes
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *store) List(ctx context.Context, req ListRequest) ([]Quotation, int, error) {
	where := ""
	var args []any
	if req.Search != "" {
		where = `WHERE number ILIKE $1 OR source_request_number ILIKE $1 OR client->>'name' ILIKE $1`
		args = append(args, "%"+escapeLike(req.Search)+"%")
	}

	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM quotations `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count quotations: %w", err)
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM quotations %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, quotationColumns, where, n+1, n+2)
	args = append(args, req.PerPage, (req.Page-1)*req.PerPage)
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list quotations: %w", err)
	}
	defer rows.Close()

	var out []Quotation
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *q)
	}
	return out, total, rows.Err()
}

func (s *store) SetDocument(ctx context.Context, id uuid.UUID, doc storage.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, `UPDATE quotations SET document = $2, updated_at = NOW() WHERE id = $1`, id, raw)
	if err != nil {
		return fmt.Errorf("set quotation document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
