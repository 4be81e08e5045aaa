package quotations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/joulek/Backend-mtr/internal/numbering"
	"github.com/joulek/Backend-mtr/internal/platform/httpx"
	"github.com/joulek/Backend-mtr/internal/platform/storage"
	"github.com/joulek/Backend-mtr/internal/shared"
)

const idempotencyModule = "quotations"

// Dispatcher schedules post-commit work for an issued quotation.
type Dispatcher interface {
	QuotationIssued(ctx context.Context, id uuid.UUID, sendEmail bool) error
}

// Service exposes the quotation operations used by handlers and jobs.
type Service struct {
	repo       *Repository
	store      Store
	builder    *LineBuilder
	aggregator *Aggregator
	numbers    NumberAllocator
	idem       shared.IdempotencyGuard
	audit      shared.AuditRecorder
	dispatcher Dispatcher
	created    prometheus.Counter
	logger     *slog.Logger
}

// Option customises the service.
type Option func(*Service)

// WithIdempotency enables Idempotency-Key handling on create.
func WithIdempotency(guard shared.IdempotencyGuard) Option {
	return func(s *Service) { s.idem = guard }
}

// WithAudit records an audit entry per created quotation.
func WithAudit(recorder shared.AuditRecorder) Option {
	return func(s *Service) { s.audit = recorder }
}

// WithDispatcher enqueues rendering and mailing after create.
func WithDispatcher(d Dispatcher) Option {
	return func(s *Service) { s.dispatcher = d }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithRegisterer exposes the created-quotations counter.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Service) {
		s.created = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "devis_quotations_created_total",
			Help: "Quotations created.",
		})
		if reg != nil {
			reg.MustRegister(s.created)
		}
	}
}

// NewService wires the quotation service.
func NewService(repo *Repository, store Store, builder *LineBuilder, aggregator *Aggregator, numbers NumberAllocator, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		store:      store,
		builder:    builder,
		aggregator: aggregator,
		numbers:    numbers,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PreviewNextNumber reports the number the next quotation would likely get. It allocates
// nothing and may be overtaken by a concurrent create.
func (s *Service) PreviewNextNumber(ctx context.Context) (string, error) {
	return s.numbers.PreviewNext(ctx, numbering.FamilyQuotation)
}

// ListUnconverted lists requests that no quotation references yet.
func (s *Service) ListUnconverted(ctx context.Context, filter string, limit int) ([]RequestRef, error) {
	return s.aggregator.ListUnconverted(ctx, filter, limit)
}

// CreateFromRequests builds lines from the selected requests and persists the quotation.
// Nothing is written when any request, article or client check fails.
func (s *Service) CreateFromRequests(ctx context.Context, actor shared.Actor, idempotencyKey string, req CreateQuotationRequest) (*Quotation, error) {
	if actor.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: %v", httpx.ErrUnauthorized, shared.ErrMissingActor)
	}
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	reserved := false
	if idempotencyKey != "" && s.idem != nil {
		if err := s.idem.CheckAndInsert(ctx, idempotencyKey, idempotencyModule); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return nil, fmt.Errorf("%w: %v", httpx.ErrConflict, err)
			}
			return nil, err
		}
		reserved = true
	}

	q, err := s.create(ctx, actor, req)
	if err != nil {
		if reserved {
			if derr := s.idem.Delete(ctx, idempotencyKey, idempotencyModule); derr != nil {
				s.logger.Warn("release idempotency key", slog.String("key", idempotencyKey), slog.Any("error", derr))
			}
		}
		return nil, err
	}

	s.aggregator.Invalidate(ctx)
	if s.created != nil {
		s.created.Inc()
	}
	if s.audit != nil {
		err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actor.ID,
			Action:   "quotation.create",
			Entity:   "quotation",
			EntityID: q.Number,
			Meta:     map[string]any{"requests": linkNumbers(q.Links), "total_incl_tax": q.Totals.TotalInclTax.StringFixed(2)},
		})
		if err != nil {
			s.logger.Warn("audit quotation", slog.String("number", q.Number), slog.Any("error", err))
		}
	}
	if s.dispatcher != nil {
		if err := s.dispatcher.QuotationIssued(ctx, q.ID, req.ShouldEmail()); err != nil {
			s.logger.Warn("dispatch quotation issued", slog.String("number", q.Number), slog.Any("error", err))
		}
	}
	s.logger.Info("quotation created", slog.String("number", q.Number), slog.Int("lines", len(q.Lines)))
	return q, nil
}

func (s *Service) create(ctx context.Context, actor shared.Actor, req CreateQuotationRequest) (*Quotation, error) {
	built, err := s.builder.Build(ctx, req.RequestIDs, req.Lines)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, CreateParams{
		Requests:   built.Requests,
		Lines:      built.Lines,
		ValidUntil: req.ValidUntil,
		Status:     req.Status,
		CreatedBy:  actor.ID,
	})
}

func linkNumbers(links []Link) []string {
	out := make([]string, 0, len(links))
	for _, l := range links {
		out = append(out, l.RequestNumber)
	}
	return out
}

// FindForRequest returns the quotation produced from a request id or number.
func (s *Service) FindForRequest(ctx context.Context, ref string) (*Quotation, error) {
	return s.repo.FindBySourceRequest(ctx, ref)
}

// Get returns a quotation by number.
func (s *Service) Get(ctx context.Context, number string) (*Quotation, error) {
	return s.store.GetByNumber(ctx, number)
}

// GetByID returns a quotation by id.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Quotation, error) {
	return s.store.Get(ctx, id)
}

// List returns a page of quotations, newest first.
func (s *Service) List(ctx context.Context, req ListRequest) (shared.Page[Quotation], error) {
	req.Page, req.PerPage = shared.NormalizePage(req.Page, req.PerPage)
	req.Search = strings.TrimSpace(req.Search)
	items, total, err := s.store.List(ctx, req)
	if err != nil {
		return shared.Page[Quotation]{}, err
	}
	return shared.Page[Quotation]{Items: items, Pagination: shared.NewPagination(req.Page, req.PerPage, total)}, nil
}

// SetDocument records the rendered PDF.
func (s *Service) SetDocument(ctx context.Context, id uuid.UUID, doc storage.Document) error {
	return s.store.SetDocument(ctx, id, doc)
}
