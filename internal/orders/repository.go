package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joulek/Backend-mtr/internal/platform/db"
	"github.com/joulek/Backend-mtr/internal/platform/httpx"
)

// ErrNotFound is returned for unknown order ids.
var ErrNotFound = fmt.Errorf("order %w", httpx.ErrNotFound)

// Repository persists client orders.
type Repository interface {
	Upsert(ctx context.Context, order *Order) error
	Get(ctx context.Context, id uuid.UUID) (*Order, error)
	Statuses(ctx context.Context, clientID uuid.UUID, requestIDs []uuid.UUID) (map[uuid.UUID]string, error)
}

type repository struct {
	db db.DBTX
}

// NewRepository returns the pgx repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

// Upsert confirms the order of (client, request), keeping the original id and creation time.
func (r *repository) Upsert(ctx context.Context, order *Order) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO client_orders (id, client_id, request_id, request_kind, quotation_number, note, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (client_id, request_id) DO UPDATE SET
			request_kind = EXCLUDED.request_kind,
			quotation_number = EXCLUDED.quotation_number,
			note = EXCLUDED.note,
			status = EXCLUDED.status,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`,
		order.ID, order.ClientID, order.RequestID, order.RequestKind, order.QuotationNumber, order.Note, order.Status,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert order: %w", err)
	}
	return nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	var o Order
	err := r.db.QueryRow(ctx, `
		SELECT id, client_id, request_id, request_kind, quotation_number, note, status, created_at, updated_at
		FROM client_orders WHERE id = $1`, id).
		Scan(&o.ID, &o.ClientID, &o.RequestID, &o.RequestKind, &o.QuotationNumber, &o.Note, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &o, nil
}

func (r *repository) Statuses(ctx context.Context, clientID uuid.UUID, requestIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT request_id, status FROM client_orders
		WHERE client_id = $1 AND request_id = ANY($2)`, clientID, requestIDs)
	if err != nil {
		return nil, fmt.Errorf("order statuses: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]string, len(requestIDs))
	for rows.Next() {
		var id uuid.UUID
		var status string
		if err := rows.Scan(&id, &status); err != nil {
			return nil, err
		}
		out[id] = status
	}
	return out, rows.Err()
}
