package specrequests

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

// ErrNotFound is returned when a request id is unknown.
var ErrNotFound = fmt.Errorf("request %w", httpx.ErrNotFound)

// Repository persists requests of a single kind.
type Repository interface {
	Kind() Kind
	Insert(ctx context.Context, req *SpecRequest) error
	Get(ctx context.Context, id uuid.UUID) (*SpecRequest, error)
	List(ctx context.Context, req ListRequest) ([]SpecRequest, int, error)
	SearchRefs(ctx context.Context, filter string) ([]Ref, error)
	SetGeneratedDocument(ctx context.Context, id uuid.UUID, doc storage.Document) error
}

type repository struct {
	db    db.DBTX
	kind  Kind
	table string
}

// NewRepository builds the pgx repository for one kind.
func NewRepository(pool *pgxpool.Pool, kind Kind) Repository {
	return &repository{db: pool, kind: kind, table: kind.Table()}
}

func (r *repository) Kind() Kind {
	return r.kind
}

const requestColumns = `id, number, owner_id, spec, attachments, generated_document, requirements, remarks, created_at, updated_at`

func (r *repository) scan(row pgx.Row) (*SpecRequest, error) {
	var (
		req         SpecRequest
		attachments []byte
		generated   []byte
	)
	err := row.Scan(&req.ID, &req.Number, &req.OwnerID, &req.Spec, &attachments, &generated,
		&req.Requirements, &req.Remarks, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return nil, err
	}
	req.Kind = r.kind
	if len(attachments) > 0 {
		if err := json.Unmarshal(attachments, &req.Attachments); err != nil {
			return nil, fmt.Errorf("decode attachments: %w", err)
		}
	}
	if len(generated) > 0 {
		var doc storage.Document
		if err := json.Unmarshal(generated, &doc); err != nil {
			return nil, fmt.Errorf("decode generated document: %w", err)
		}
		req.GeneratedDocument = &doc
	}
	return &req, nil
}

func (r *repository) Insert(ctx context.Context, req *SpecRequest) error {
	attachments, err := json.Marshal(req.Attachments)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	req.CreatedAt, req.UpdatedAt = now, now
	_, err = r.db.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, number, owner_id, spec, attachments, requirements, remarks, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`, r.table),
		req.ID, req.Number, req.OwnerID, []byte(req.Spec), attachments, req.Requirements, req.Remarks, now)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("request number %s: %w", req.Number, httpx.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert %s request: %w", r.kind, err)
	}
	return nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*SpecRequest, error) {
	req, err := r.scan(r.db.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, requestColumns, r.table), id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s request: %w", r.kind, err)
	}
	return req, nil
}

func (r *repository) List(ctx context.Context, req ListRequest) ([]SpecRequest, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("number ILIKE $%d", argPos))
		args = append(args, "%"+escapeLike(req.Search)+"%")
		argPos++
	}
	if req.OwnerID != nil {
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", argPos))
		args = append(args, *req.OwnerID)
		argPos++
	}
	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s %s", r.table, whereClause), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s requests: %w", r.kind, err)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		requestColumns, r.table, whereClause, argPos, argPos+1)
	args = append(args, req.PerPage, (req.Page-1)*req.PerPage)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s requests: %w", r.kind, err)
	}
	defer rows.Close()

	var out []SpecRequest
	for rows.Next() {
		item, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *item)
	}
	return out, total, rows.Err()
}

func (r *repository) SearchRefs(ctx context.Context, filter string) ([]Ref, error) {
	query := fmt.Sprintf(`SELECT id, number FROM %s`, r.table)
	var args []any
	if filter != "" {
		query += ` WHERE number ILIKE $1`
		args = append(args, "%"+escapeLike(filter)+"%")
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search %s requests: %w", r.kind, err)
	}
	defer rows.Close()

	var refs []Ref
	for rows.Next() {
		ref := Ref{Kind: r.kind}
		if err := rows.Scan(&ref.ID, &ref.Number); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (r *repository) SetGeneratedDocument(ctx context.Context, id uuid.UUID, doc storage.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, fmt.Sprintf(`UPDATE %s SET generated_document = $2, updated_at = NOW() WHERE id = $1`, r.table), id, raw)
	if err != nil {
		return fmt.Errorf("set %s document: %w", r.kind, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
