package specrequests

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/joulek/Backend-mtr/internal/numbering"
	"github.com/joulek/Backend-mtr/internal/platform/httpx"
	"github.com/joulek/Backend-mtr/internal/platform/storage"
	"github.com/joulek/Backend-mtr/internal/shared"
)

// Upload limits for request attachments.
const (
	MaxFiles    = 4
	MaxFileSize = 10 << 20
)

// NumberAllocator issues formatted document numbers.
type NumberAllocator interface {
	Next(ctx context.Context, family string) (string, error)
}

// FileStore persists attachment bytes.
type FileStore interface {
	Save(locator string, data []byte) (string, error)
	Delete(locator string) error
}

// Dispatcher schedules post-commit work for a new request.
type Dispatcher interface {
	SpecRequestSubmitted(ctx context.Context, kind Kind, id uuid.UUID) error
}

// ListingInvalidator drops cached request listings that a new request makes stale.
type ListingInvalidator interface {
	Invalidate(ctx context.Context)
}

// Service runs the request intake flow shared by every kind.
type Service struct {
	registry   *Registry
	numbers    NumberAllocator
	files      FileStore
	dispatcher Dispatcher
	listings   ListingInvalidator
	validate   *validator.Validate
	logger     *slog.Logger
}

// NewService wires the intake service. dispatcher and listings may be nil.
func NewService(registry *Registry, numbers NumberAllocator, files FileStore, dispatcher Dispatcher, listings ListingInvalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registry:   registry,
		numbers:    numbers,
		files:      files,
		dispatcher: dispatcher,
		listings:   listings,
		validate:   NewValidator(),
		logger:     logger,
	}
}

// Registry exposes the kind registry for cross-kind lookups.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Create validates a submission, allocates its number, stores attachments and persists it.
// Post-commit rendering is dispatched without waiting for it.
func (s *Service) Create(ctx context.Context, actor shared.Actor, in CreateInput) (*SpecRequest, error) {
	if actor.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: %v", httpx.ErrUnauthorized, shared.ErrMissingActor)
	}
	repo, err := s.registry.For(in.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	_, spec, err := DecodeSpec(s.validate, in.Kind, in.Spec)
	if err != nil {
		return nil, err
	}
	in.Requirements = strings.TrimSpace(in.Requirements)
	in.Remarks = strings.TrimSpace(in.Remarks)
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	if err := checkUploads(in.Files); err != nil {
		return nil, err
	}

	number, err := s.numbers.Next(ctx, numbering.FamilyRequest)
	if err != nil {
		return nil, fmt.Errorf("allocate request number: %w", err)
	}

	req := &SpecRequest{
		ID:           uuid.New(),
		Number:       number,
		OwnerID:      actor.ID,
		Kind:         in.Kind,
		Spec:         spec,
		Requirements: in.Requirements,
		Remarks:      in.Remarks,
		Attachments:  make([]storage.Attachment, 0, len(in.Files)),
	}
	for i, f := range in.Files {
		locator := fmt.Sprintf("requests/%s/%02d-%s", number, i+1, storage.SafeName(f.Filename))
		if _, err := s.files.Save(locator, f.Data); err != nil {
			s.discard(req.Attachments)
			return nil, fmt.Errorf("store attachment %s: %w", f.Filename, err)
		}
		req.Attachments = append(req.Attachments, storage.Attachment{
			Filename:  f.Filename,
			MediaType: f.MediaType,
			Size:      int64(len(f.Data)),
			Locator:   locator,
		})
	}

	if err := repo.Insert(ctx, req); err != nil {
		s.discard(req.Attachments)
		return nil, fmt.Errorf("create request: %w", err)
	}

	if s.listings != nil {
		s.listings.Invalidate(ctx)
	}
	if s.dispatcher != nil {
		if err := s.dispatcher.SpecRequestSubmitted(ctx, req.Kind, req.ID); err != nil {
			s.logger.Warn("dispatch request submitted", slog.String("number", req.Number), slog.Any("error", err))
		}
	}
	s.logger.Info("request created", slog.String("number", req.Number), slog.String("kind", string(req.Kind)))
	return req, nil
}

func (s *Service) discard(attachments []storage.Attachment) {
	for _, a := range attachments {
		if err := s.files.Delete(a.Locator); err != nil {
			s.logger.Warn("discard attachment", slog.String("locator", a.Locator), slog.Any("error", err))
		}
	}
}

func checkUploads(files []storage.Upload) error {
	if len(files) > MaxFiles {
		return fmt.Errorf("%w: too many files (max %d)", httpx.ErrValidation, MaxFiles)
	}
	for _, f := range files {
		if len(f.Data) > MaxFileSize {
			return fmt.Errorf("%w: %s exceeds %d bytes", httpx.ErrTooLarge, f.Filename, MaxFileSize)
		}
	}
	return nil
}

// Get returns one request. Clients only see their own requests.
func (s *Service) Get(ctx context.Context, actor shared.Actor, kind Kind, id uuid.UUID) (*SpecRequest, error) {
	repo, err := s.registry.For(kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	req, err := repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && req.OwnerID != actor.ID {
		return nil, fmt.Errorf("%w: request %s", httpx.ErrForbidden, id)
	}
	return req, nil
}

// List returns a page of requests of one kind.
func (s *Service) List(ctx context.Context, kind Kind, req ListRequest) (shared.Page[SpecRequest], error) {
	repo, err := s.registry.For(kind)
	if err != nil {
		return shared.Page[SpecRequest]{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	req.Page, req.PerPage = shared.NormalizePage(req.Page, req.PerPage)
	req.Search = strings.TrimSpace(req.Search)
	items, total, err := repo.List(ctx, req)
	if err != nil {
		return shared.Page[SpecRequest]{}, err
	}
	return shared.Page[SpecRequest]{Items: items, Pagination: shared.NewPagination(req.Page, req.PerPage, total)}, nil
}

// ListMine returns the caller's most recent requests across all kinds, newest first.
func (s *Service) ListMine(ctx context.Context, actor shared.Actor) ([]SpecRequest, error) {
	if actor.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: %v", httpx.ErrUnauthorized, shared.ErrMissingActor)
	}
	owner := actor.ID
	var out []SpecRequest
	for _, k := range s.registry.Kinds() {
		repo, _ := s.registry.For(k)
		items, _, err := repo.List(ctx, ListRequest{OwnerID: &owner, Page: 1, PerPage: shared.MaxPerPage})
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Find returns a request without an ownership check. Used by background jobs.
func (s *Service) Find(ctx context.Context, kind Kind, id uuid.UUID) (*SpecRequest, error) {
	repo, err := s.registry.For(kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return repo.Get(ctx, id)
}

// SetGeneratedDocument records the rendered PDF of a request.
func (s *Service) SetGeneratedDocument(ctx context.Context, kind Kind, id uuid.UUID, doc storage.Document) error {
	repo, err := s.registry.For(kind)
	if err != nil {
		return err
	}
	return repo.SetGeneratedDocument(ctx, id, doc)
}
