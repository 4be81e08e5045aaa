package quotations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joulek/Backend-mtr/internal/clients"
	"github.com/joulek/Backend-mtr/internal/numbering"
	"github.com/joulek/Backend-mtr/internal/platform/httpx"
	"github.com/joulek/Backend-mtr/internal/specrequests"
)

// NumberAllocator issues and previews document numbers.
type NumberAllocator interface {
	Next(ctx context.Context, family string) (string, error)
	PreviewNext(ctx context.Context, family string) (string, error)
}

// ClientDirectory looks up the client snapshotted onto a quotation.
type ClientDirectory interface {
	Lookup(ctx context.Context, id uuid.UUID) (*clients.Client, error)
}

// CreateParams is the input of Repository.Create. Requests[0] is the primary source.
type CreateParams struct {
	Requests   []specrequests.SpecRequest
	Lines      []LineItem
	ValidUntil *time.Time
	Status     Status
	CreatedBy  uuid.UUID
}

// Repository owns quotation records. Every write goes through save, which recomputes totals.
type Repository struct {
	store   Store
	numbers NumberAllocator
	clients ClientDirectory
	policy  TotalsPolicy
}

// NewRepository wires the repository.
func NewRepository(store Store, numbers NumberAllocator, clients ClientDirectory, policy TotalsPolicy) *Repository {
	return &Repository{store: store, numbers: numbers, clients: clients, policy: policy}
}

// Create numbers a new quotation, snapshots the primary client, links every request and
// persists it.
func (r *Repository) Create(ctx context.Context, p CreateParams) (*Quotation, error) {
	if len(p.Requests) == 0 {
		return nil, fmt.Errorf("%w: at least one request is required", httpx.ErrValidation)
	}
	if len(p.Lines) == 0 {
		return nil, fmt.Errorf("%w: at least one line is required", httpx.ErrValidation)
	}
	status := p.Status
	if status == "" {
		status = StatusDraft
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, p.Status)
	}

	primary := p.Requests[0]
	client, err := r.clients.Lookup(ctx, primary.OwnerID)
	if errors.Is(err, httpx.ErrNotFound) {
		return nil, fmt.Errorf("client of request %s not found: %w", primary.Number, httpx.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup client: %w", err)
	}

	number, err := r.numbers.Next(ctx, numbering.FamilyQuotation)
	if err != nil {
		return nil, fmt.Errorf("allocate quotation number: %w", err)
	}

	q := &Quotation{
		ID:                  uuid.New(),
		Number:              number,
		SourceRequestID:     primary.ID,
		SourceRequestNumber: primary.Number,
		Client: ClientSnapshot{
			ID:      client.ID,
			Name:    client.DisplayName(),
			Email:   client.Email,
			Address: client.Address,
			Phone:   client.Phone,
			TaxID:   client.TaxID,
		},
		Lines:      append([]LineItem(nil), p.Lines...),
		Links:      make([]Link, 0, len(p.Requests)),
		Status:     status,
		ValidUntil: p.ValidUntil,
		CreatedBy:  p.CreatedBy,
	}
	for _, req := range p.Requests {
		q.Links = append(q.Links, Link{RequestID: req.ID, RequestNumber: req.Number, Kind: req.Kind})
	}
	if err := r.save(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (r *Repository) save(ctx context.Context, q *Quotation) error {
	Recalculate(q, r.policy)
	return r.store.Insert(ctx, q)
}

// FindBySourceRequest returns the latest quotation produced from a request id or number.
func (r *Repository) FindBySourceRequest(ctx context.Context, ref string) (*Quotation, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: request reference is required", httpx.ErrValidation)
	}
	if id, err := uuid.Parse(ref); err == nil {
		return r.store.FindBySourceRequest(ctx, id, "")
	}
	return r.store.FindBySourceRequest(ctx, uuid.Nil, ref)
}
