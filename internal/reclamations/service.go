package reclamations

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/joulek/Backend-mtr/internal/numbering"
	"github.com/joulek/Backend-mtr/internal/platform/httpx"
	"github.com/joulek/Backend-mtr/internal/platform/storage"
	"github.com/joulek/Backend-mtr/internal/shared"
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

// Dispatcher schedules post-commit work for a new claim.
type Dispatcher interface {
	ReclamationFiled(ctx context.Context, id uuid.UUID) error
}

// Service runs the claim flows.
type Service struct {
	repo       Repository
	numbers    NumberAllocator
	files      FileStore
	dispatcher Dispatcher
	validate   *validator.Validate
	logger     *slog.Logger
}

// NewService wires the claim service. dispatcher may be nil.
func NewService(repo Repository, numbers NumberAllocator, files FileStore, dispatcher Dispatcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:       repo,
		numbers:    numbers,
		files:      files,
		dispatcher: dispatcher,
		validate:   validator.New(),
		logger:     logger,
	}
}

// Create validates and stores a claim filed by actor, then schedules its PDF and notification.
func (s *Service) Create(ctx context.Context, actor shared.Actor, in CreateInput) (*Reclamation, error) {
	if actor.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: %v", httpx.ErrUnauthorized, shared.ErrMissingActor)
	}
	in.Order.Number = strings.TrimSpace(in.Order.Number)
	in.Order.ProductReference = strings.TrimSpace(in.Order.ProductReference)
	in.Nature = strings.ToLower(strings.TrimSpace(in.Nature))
	in.Expectation = strings.ToLower(strings.TrimSpace(in.Expectation))
	in.Description = strings.TrimSpace(in.Description)
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	if err := checkUploads(in.Files); err != nil {
		return nil, err
	}
	resolveChoices(&in)

	number, err := s.numbers.Next(ctx, numbering.FamilyReclamation)
	if err != nil {
		return nil, fmt.Errorf("allocate reclamation number: %w", err)
	}

	rec := &Reclamation{
		ID:          uuid.New(),
		Number:      number,
		OwnerID:     actor.ID,
		Order:       in.Order,
		Nature:      in.Nature,
		Expectation: in.Expectation,
		Description: in.Description,
		Attachments: make([]storage.Attachment, 0, len(in.Files)),
	}
	for i, f := range in.Files {
		locator := fmt.Sprintf("reclamations/%s/%02d-%s", number, i+1, storage.SafeName(f.Filename))
		if _, err := s.files.Save(locator, f.Data); err != nil {
			s.discard(rec.Attachments)
			return nil, fmt.Errorf("store attachment %s: %w", f.Filename, err)
		}
		rec.Attachments = append(rec.Attachments, storage.Attachment{
			Filename:  f.Filename,
			MediaType: f.MediaType,
			Size:      int64(len(f.Data)),
			Locator:   locator,
		})
	}

	if err := s.repo.Insert(ctx, rec); err != nil {
		s.discard(rec.Attachments)
		return nil, fmt.Errorf("create reclamation: %w", err)
	}

	if s.dispatcher != nil {
		if err := s.dispatcher.ReclamationFiled(ctx, rec.ID); err != nil {
			s.logger.Warn("dispatch reclamation filed", slog.String("number", rec.Number), slog.Any("error", err))
		}
	}
	s.logger.Info("reclamation filed", slog.String("number", rec.Number))
	return rec, nil
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

// Get returns one claim. Clients only see their own claims.
func (s *Service) Get(ctx context.Context, actor shared.Actor, id uuid.UUID) (*Reclamation, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && rec.OwnerID != actor.ID {
		return nil, fmt.Errorf("%w: reclamation %s", httpx.ErrForbidden, id)
	}
	return rec, nil
}

// List returns a page of claims for staff.
func (s *Service) List(ctx context.Context, req ListRequest) (shared.Page[Reclamation], error) {
	req.Page, req.PerPage = shared.NormalizePage(req.Page, req.PerPage)
	req.Search = strings.TrimSpace(req.Search)
	items, total, err := s.repo.List(ctx, req)
	if err != nil {
		return shared.Page[Reclamation]{}, err
	}
	return shared.Page[Reclamation]{Items: items, Pagination: shared.NewPagination(req.Page, req.PerPage, total)}, nil
}

// ListMine returns the caller's claims, newest first.
func (s *Service) ListMine(ctx context.Context, actor shared.Actor, page, perPage int) (shared.Page[Reclamation], error) {
	if actor.ID == uuid.Nil {
		return shared.Page[Reclamation]{}, fmt.Errorf("%w: %v", httpx.ErrUnauthorized, shared.ErrMissingActor)
	}
	owner := actor.ID
	return s.List(ctx, ListRequest{OwnerID: &owner, Page: page, PerPage: perPage})
}

// SetGeneratedDocument records the rendered PDF of a claim.
func (s *Service) SetGeneratedDocument(ctx context.Context, id uuid.UUID, doc storage.Document) error {
	return s.repo.SetGeneratedDocument(ctx, id, doc)
}

// EmailAttachments picks stored attachments in order while their cumulative size, added to
// reserved, stays within AttachmentBudget. Selection stops at the first one that would overflow.
func EmailAttachments(attachments []storage.Attachment, reserved int64) []storage.Attachment {
	total := reserved
	var out []storage.Attachment
	for _, a := range attachments {
		if a.Size <= 0 {
			continue
		}
		if total+a.Size > AttachmentBudget {
			break
		}
		out = append(out, a)
		total += a.Size
	}
	return out
}
