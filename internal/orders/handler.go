package orders

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/joulek/Backend-mtr/internal/platform/httpx"
	"github.com/joulek/Backend-mtr/internal/shared"
)

// Handler serves the client order endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.place)
	r.Get("/status", h.status)
}

func (h *Handler) place(w http.ResponseWriter, r *http.Request) {
	var in PlaceInput
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())
	order, err := h.service.Place(r.Context(), actor, in)
	if err != nil {
		if !errors.Is(err, httpx.ErrValidation) && !errors.Is(err, httpx.ErrForbidden) {
			h.logger.Error("place order", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	statuses, err := h.service.Statuses(r.Context(), actor, strings.Split(r.URL.Query().Get("ids"), ","))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"map": statuses})
}
