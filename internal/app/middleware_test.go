package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joulek/Backend-mtr/internal/shared"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestActorMiddleware(t *testing.T) {
	userID := uuid.New()
	var seen *shared.Actor
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actor, ok := shared.ActorFromContext(r.Context()); ok {
			seen = &actor
		}
		w.WriteHeader(http.StatusNoContent)
	})
	handler := ActorMiddleware(discardLogger())(next)

	t.Run("anonymous", func(t *testing.T) {
		seen = nil
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Nil(t, seen)
	})

	t.Run("admin role is case insensitive", func(t *testing.T) {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderUserID, userID.String())
		req.Header.Set(HeaderUserRole, " Admin ")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.NotNil(t, seen)
		assert.Equal(t, userID, seen.ID)
		assert.True(t, seen.IsAdmin())
	})

	t.Run("unknown role falls back to client", func(t *testing.T) {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderUserID, userID.String())
		req.Header.Set(HeaderUserRole, "superuser")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.NotNil(t, seen)
		assert.Equal(t, shared.RoleClient, seen.Role)
	})

	t.Run("malformed id", func(t *testing.T) {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderUserID, "42")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
		assert.Nil(t, seen)
	})
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	guarded := RequireRole(shared.RoleAdmin)(ok)

	serve := func(actor *shared.Actor) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if actor != nil {
			req = req.WithContext(shared.ContextWithActor(req.Context(), *actor))
		}
		rec := httptest.NewRecorder()
		guarded.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, serve(nil))
	assert.Equal(t, http.StatusForbidden, serve(&shared.Actor{ID: uuid.New(), Role: shared.RoleClient}))
	assert.Equal(t, http.StatusOK, serve(&shared.Actor{ID: uuid.New(), Role: shared.RoleAdmin}))
}

func TestRequireActor(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	rec := httptest.NewRecorder()
	RequireActor(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
