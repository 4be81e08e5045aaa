package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/joulek/Backend-mtr/internal/platform/httpx"
	"github.com/joulek/Backend-mtr/internal/shared"
	"github.com/joulek/Backend-mtr/internal/specrequests"
)

// MaxStatusIDs bounds one status lookup.
const MaxStatusIDs = 200

// RequestResolver finds a request without knowing its kind.
type RequestResolver interface {
	ResolveAnyKind(ctx context.Context, id uuid.UUID) (*specrequests.SpecRequest, error)
}

// Dispatcher schedules the order notification.
type Dispatcher interface {
	OrderPlaced(ctx context.Context, id uuid.UUID) error
}

// Service confirms client orders.
type Service struct {
	repo       Repository
	requests   RequestResolver
	dispatcher Dispatcher
	validate   *validator.Validate
	logger     *slog.Logger
}

// NewService wires the order service. dispatcher may be nil.
func NewService(repo Repository, requests RequestResolver, dispatcher Dispatcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, requests: requests, dispatcher: dispatcher, validate: validator.New(), logger: logger}
}

// Place confirms the order of one of the actor's requests. Placing twice updates the existing order.
func (s *Service) Place(ctx context.Context, actor shared.Actor, in PlaceInput) (*Order, error) {
	if actor.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: %v", httpx.ErrUnauthorized, shared.ErrMissingActor)
	}
	in.RequestID = strings.TrimSpace(in.RequestID)
	in.QuotationNumber = strings.ToUpper(strings.TrimSpace(in.QuotationNumber))
	in.Note = strings.TrimSpace(in.Note)
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	requestID := uuid.MustParse(in.RequestID)

	req, err := s.requests.ResolveAnyKind(ctx, requestID)
	if errors.Is(err, specrequests.ErrNotFound) {
		return nil, fmt.Errorf("%w: request %s", httpx.ErrForbidden, requestID)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve request: %w", err)
	}
	if req.OwnerID != actor.ID {
		return nil, fmt.Errorf("%w: request %s", httpx.ErrForbidden, requestID)
	}

	order := &Order{
		ID:              uuid.New(),
		ClientID:        actor.ID,
		RequestID:       req.ID,
		RequestNumber:   req.Number,
		RequestKind:     req.Kind,
		QuotationNumber: in.QuotationNumber,
		Note:            in.Note,
		Status:          StatusConfirmed,
	}
	if err := s.repo.Upsert(ctx, order); err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		if err := s.dispatcher.OrderPlaced(ctx, order.ID); err != nil {
			s.logger.Warn("dispatch order placed", slog.String("request", req.Number), slog.Any("error", err))
		}
	}
	s.logger.Info("order confirmed", slog.String("request", req.Number), slog.String("quotation", order.QuotationNumber))
	return order, nil
}

// Get returns one order.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.repo.Get(ctx, id)
}

// Statuses reports, for each requested id, whether the actor confirmed an order for it.
// Every id appears in the result.
func (s *Service) Statuses(ctx context.Context, actor shared.Actor, rawIDs []string) (map[string]bool, error) {
	if actor.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: %v", httpx.ErrUnauthorized, shared.ErrMissingActor)
	}
	out := make(map[string]bool)
	ids := make([]uuid.UUID, 0, len(rawIDs))
	for _, raw := range rawIDs {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed request id %q", httpx.ErrValidation, raw)
		}
		if _, seen := out[raw]; !seen {
			ids = append(ids, id)
		}
		out[raw] = false
	}
	if len(ids) > MaxStatusIDs {
		return nil, fmt.Errorf("%w: at most %d ids", httpx.ErrValidation, MaxStatusIDs)
	}
	if len(ids) == 0 {
		return out, nil
	}
	statuses, err := s.repo.Statuses(ctx, actor.ID, ids)
	if err != nil {
		return nil, err
	}
	for raw := range out {
		id := uuid.MustParse(raw)
		out[raw] = statuses[id] == StatusConfirmed
	}
	return out, nil
}
