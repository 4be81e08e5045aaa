package quotations

import "github.com/go-chi/chi/v5"

// MountRoutes registers quotation routes. Every route is staff-only.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.admin)
		r.Get("/next-number", h.nextNumber)
		r.Get("/unconverted-requests", h.unconverted)
		r.Get("/by-request/{ref}", h.byRequest)
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{number}", h.show)
		r.Get("/{number}/pdf", h.pdf)
	})
}
