package specrequests

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/joulek/Backend-mtr/internal/platform/httpx"
	"github.com/joulek/Backend-mtr/internal/shared"
)

// FileOpener reads stored documents back.
type FileOpener interface {
	Open(locator string) (*os.File, error)
}

// Handler serves the request intake endpoints.
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

// MountRoutes registers request routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/mine", h.listMine)
	r.Post("/{kind}", h.create)
	r.With(h.admin).Get("/{kind}", h.list)
	r.Get("/{kind}/{id}", h.get)
	r.Get("/{kind}/{id}/document", h.document)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	kind, err := ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())

	in, err := decodeSubmission(w, r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	in.Kind = kind

	req, err := h.service.Create(r.Context(), actor, in)
	if err != nil {
		if !errors.Is(err, httpx.ErrValidation) {
			h.logger.Error("create request", slog.String("kind", string(kind)), slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"id":     req.ID,
		"number": req.Number,
		"kind":   req.Kind,
	})
}

// decodeSubmission accepts either application/json or multipart/form-data with a "data" JSON
// field and "files" parts.
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
	kind, err := ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page, err := h.service.List(r.Context(), kind, ListRequest{
		Search:  r.URL.Query().Get("q"),
		Page:    httpx.QueryInt(r, "page", 1),
		PerPage: httpx.QueryInt(r, "per_page", 20),
	})
	if err != nil {
		h.logger.Error("list requests", slog.String("kind", string(kind)), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	items, err := h.service.ListMine(r.Context(), actor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*SpecRequest, bool) {
	kind, err := ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		httpx.RespondError(w, err)
		return nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request id", err.Error())
		return nil, false
	}
	actor, _ := shared.ActorFromContext(r.Context())
	req, err := h.service.Get(r.Context(), actor, kind, id)
	if err != nil {
		httpx.RespondError(w, err)
		return nil, false
	}
	return req, true
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	req, ok := h.load(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, req)
}

func (h *Handler) document(w http.ResponseWriter, r *http.Request) {
	req, ok := h.load(w, r)
	if !ok {
		return
	}
	if req.GeneratedDocument == nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "document not generated yet")
		return
	}
	f, err := h.files.Open(req.GeneratedDocument.Locator)
	if err != nil {
		h.logger.Error("open request document", slog.String("number", req.Number), slog.Any("error", err))
		httpx.Problem(w, http.StatusNotFound, "Not Found", "document unavailable")
		return
	}
	defer f.Close() //nolint:errcheck
	httpx.Inline(w, path.Base(req.GeneratedDocument.Locator), req.GeneratedDocument.ContentType, req.GeneratedDocument.Size, f)
}
