package reclamations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joulek/Backend-mtr/internal/platform/db"
	"github.com/joulek/Backend-mtr/internal/platform/httpx"
	"github.com/joulek/Backend-mtr/internal/platform/storage"
)

// ErrNotFound is returned for unknown claim ids.
var ErrNotFound = fmt.Errorf("reclamation %w", httpx.ErrNotFound)

// Repository persists claims.
type Repository interface {
	Insert(ctx context.Context, rec *Reclamation) error
	Get(ctx context.Context, id uuid.UUID) (*Reclamation, error)
	List(ctx context.Context, req ListRequest) ([]Reclamation, int, error)
	SetGeneratedDocument(ctx context.Context, id uuid.UUID, doc storage.Document) error
}

type repository struct {
	db db.DBTX
}

// NewRepository returns the pgx repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const selectReclamation = `
	SELECT r.id, r.number, r.owner_id,
	       TRIM(COALESCE(c.first_name, '') || ' ' || COALESCE(c.last_name, '')),
	       r.order_ref, r.nature, r.expectation, r.description, r.attachments,
	       r.generated_document, r.created_at, r.updated_at
	FROM reclamations r
	LEFT JOIN clients c ON c.id = r.owner_id`

func scanReclamation(row pgx.Row) (*Reclamation, error) {
	var (
		rec         Reclamation
		orderRef    []byte
		attachments []byte
		generated   []byte
	)
	if err := row.Scan(&rec.ID, &rec.Number, &rec.OwnerID, &rec.OwnerName, &orderRef, &rec.Nature,
		&rec.Expectation, &rec.Description, &attachments, &generated, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(orderRef, &rec.Order); err != nil {
		return nil, fmt.Errorf("decode order ref: %w", err)
	}
	if len(attachments) > 0 {
		if err := json.Unmarshal(attachments, &rec.Attachments); err != nil {
			return nil, fmt.Errorf("decode attachments: %w", err)
		}
	}
	if len(generated) > 0 {
		var doc storage.Document
		if err := json.Unmarshal(generated, &doc); err != nil {
			return nil, fmt.Errorf("decode generated document: %w", err)
		}
		rec.GeneratedDocument = &doc
	}
	return &rec, nil
}

func (r *repository) Insert(ctx context.Context, rec *Reclamation) error {
	orderRef, err := json.Marshal(rec.Order)
	if err != nil {
		return err
	}
	attachments, err := json.Marshal(rec.Attachments)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	rec.CreatedAt, rec.UpdatedAt = now, now
	_, err = r.db.Exec(ctx, `
		INSERT INTO reclamations (id, number, owner_id, order_ref, nature, expectation, description, attachments, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		rec.ID, rec.Number, rec.OwnerID, orderRef, rec.Nature, rec.Expectation, rec.Description, attachments, now)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("reclamation number %s: %w", rec.Number, httpx.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert reclamation: %w", err)
	}
	return nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Reclamation, error) {
	rec, err := scanReclamation(r.db.QueryRow(ctx, selectReclamation+` WHERE r.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get reclamation: %w", err)
	}
	return rec, nil
}

func (r *repository) List(ctx context.Context, req ListRequest) ([]Reclamation, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if req.Search != "" {
		conditions = append(conditions, fmt.Sprintf(`(r.number ILIKE $%[1]d OR r.order_ref->>'number' ILIKE $%[1]d
			OR r.nature ILIKE $%[1]d OR c.first_name ILIKE $%[1]d OR c.last_name ILIKE $%[1]d OR c.email ILIKE $%[1]d)`, argPos))
		args = append(args, "%"+escapeLike(req.Search)+"%")
		argPos++
	}
	if req.OwnerID != nil {
		conditions = append(conditions, fmt.Sprintf("r.owner_id = $%d", argPos))
		args = append(args, *req.OwnerID)
		argPos++
	}
	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM reclamations r LEFT JOIN clients c ON c.id = r.owner_id` + whereClause
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reclamations: %w", err)
	}

	query := selectReclamation + whereClause + fmt.Sprintf(` ORDER BY r.created_at DESC LIMIT $%d OFFSET $%d`, argPos, argPos+1)
	args = append(args, req.PerPage, (req.Page-1)*req.PerPage)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reclamations: %w", err)
	}
	defer rows.Close()

	var out []Reclamation
	for rows.Next() {
		rec, err := scanReclamation(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *rec)
	}
	return out, total, rows.Err()
}

func (r *repository) SetGeneratedDocument(ctx context.Context, id uuid.UUID, doc storage.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `UPDATE reclamations SET generated_document = $2, updated_at = NOW() WHERE id = $1`, id, raw)
	if err != nil {
		return fmt.Errorf("set reclamation document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
