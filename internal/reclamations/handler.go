package reclamations

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/joulek/Backend-mtr/internal/platform/httpx"
	"github.com/joulek/Backend-mtr/internal/shared"
)

// FileOpener reads stored files back.
type FileOpener interface {
	Open(locator string) (*os.File, error)
}

// Handler serves the claim endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	files   FileOpener
	admin   func(http.Handler) http.Handler
}

// NewHandler builds the handler. admin guards staff-only routes.
func NewHandler(logger *slog.Logger, service *Service, files FileOpener, admin func(http.Handler) http.Handler) *Handler {
	return &Handler{logger: logger, service: service, files: files, admin: admin}
}

// MountRoutes registers claim routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/mine", h.listMine)
	r.With(h.admin).Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Get("/{id}/pdf", h.pdf)
	r.With(h.admin).Get("/{id}/attachments/{index}", h.attachment)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	in, err := decodeSubmission(w, r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())
	rec, err := h.service.Create(r.Context(), actor, in)
	if err != nil {
		if !errors.Is(err, httpx.ErrValidation) && !errors.Is(err, httpx.ErrTooLarge) {
			h.logger.Error("create reclamation", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, rec)
}

func decodeSubmission(w http.ResponseWriter, r *http.Request) (CreateInput, error) {
	var in CreateInput
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		return in, httpx.DecodeJSON(r, &in)
	}
	if err := httpx.ParseMultipart(w, r, MaxFiles*MaxFileSize+(1<<20)); err != nil {
		return in, err
	}
	if err := httpx.DecodeFormJSON(r, "data", &in); err != nil {
		return in, err
	}
	files, err := httpx.ReadUploads(r, "files", MaxFiles)
	if err != nil {
		return in, err
	}
	in.Files = files
	return in, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.List(r.Context(), ListRequest{
		Search:  r.URL.Query().Get("q"),
		Page:    httpx.QueryInt(r, "page", 1),
		PerPage: httpx.QueryInt(r, "per_page", 20),
	})
	if err != nil {
		h.logger.Error("list reclamations", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	page, err := h.service.ListMine(r.Context(), actor, httpx.QueryInt(r, "page", 1), httpx.QueryInt(r, "per_page", 10))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*Reclamation, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid reclamation id", err.Error())
		return nil, false
	}
	actor, _ := shared.ActorFromContext(r.Context())
	rec, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return nil, false
	}
	return rec, true
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.load(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) pdf(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.load(w, r)
	if !ok {
		return
	}
	if rec.GeneratedDocument == nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "document not generated yet")
		return
	}
	h.stream(w, rec.Number, rec.GeneratedDocument.Locator, path.Base(rec.GeneratedDocument.Locator),
		rec.GeneratedDocument.ContentType, rec.GeneratedDocument.Size)
}

func (h *Handler) attachment(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.load(w, r)
	if !ok {
		return
	}
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || idx < 0 || idx >= len(rec.Attachments) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "attachment not found")
		return
	}
	a := rec.Attachments[idx]
	h.stream(w, rec.Number, a.Locator, a.Filename, a.MediaType, a.Size)
}

func (h *Handler) stream(w http.ResponseWriter, number, locator, filename, contentType string, size int64) {
	f, err := h.files.Open(locator)
	if err != nil {
		h.logger.Error("open reclamation file", slog.String("number", number), slog.Any("error", err))
		httpx.Problem(w, http.StatusNotFound, "Not Found", "document unavailable")
		return
	}
	defer f.Close() //nolint:errcheck
	httpx.Inline(w, filename, contentType, size, f)
}
