package quotations

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path"

	"github.com/go-chi/chi/v5"

	"github.com/joulek/Backend-mtr/internal/platform/httpx"
	"github.com/joulek/Backend-mtr/internal/shared"
)

// FileOpener reads stored documents back.
type FileOpener interface {
	Open(locator string) (*os.File, error)
}

// Handler serves the quotation endpoints.
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

func (h *Handler) nextNumber(w http.ResponseWriter, r *http.Request) {
	number, err := h.service.PreviewNextNumber(r.Context())
	if err != nil {
		h.logger.Error("preview quotation number", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"number": number})
}

func (h *Handler) unconverted(w http.ResponseWriter, r *http.Request) {
	refs, err := h.service.ListUnconverted(r.Context(), r.URL.Query().Get("q"), unconvertedLimit(r))
	if err != nil {
		h.logger.Error("list unconverted requests", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": refs})
}

// unconvertedLimit reads ?limit=. Absent or malformed means the default; an explicit value below
// one is raised to one.
func unconvertedLimit(r *http.Request) int {
	limit := httpx.QueryInt(r, "limit", DefaultUnconvertedLimit)
	if limit < 1 {
		return 1
	}
	return limit
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateQuotationRequest
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())
	q, err := h.service.CreateFromRequests(r.Context(), actor, r.Header.Get("Idempotency-Key"), req)
	if err != nil {
		if !isClientError(err) {
			h.logger.Error("create quotation", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, q)
}

func isClientError(err error) bool {
	return errors.Is(err, httpx.ErrValidation) || errors.Is(err, httpx.ErrNotFound) ||
		errors.Is(err, httpx.ErrConflict) || errors.Is(err, httpx.ErrUnauthorized)
}

func (h *Handler) byRequest(w http.ResponseWriter, r *http.Request) {
	q, err := h.service.FindForRequest(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.List(r.Context(), ListRequest{
		Search:  r.URL.Query().Get("q"),
		Page:    httpx.QueryInt(r, "page", 1),
		PerPage: httpx.QueryInt(r, "per_page", 20),
	})
	if err != nil {
		h.logger.Error("list quotations", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	q, err := h.service.Get(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) pdf(w http.ResponseWriter, r *http.Request) {
	q, err := h.service.Get(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if q.Document == nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "document not generated yet")
		return
	}
	f, err := h.files.Open(q.Document.Locator)
	if err != nil {
		h.logger.Error("open quotation document", slog.String("number", q.Number), slog.Any("error", err))
		httpx.Problem(w, http.StatusNotFound, "Not Found", "document unavailable")
		return
	}
	defer f.Close() //nolint:errcheck
	httpx.Inline(w, path.Base(q.Document.Locator), q.Document.ContentType, q.Document.Size, f)
}
