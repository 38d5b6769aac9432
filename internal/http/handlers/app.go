package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"renderstudio/internal/domain/jsoncfg"
	"renderstudio/internal/middleware"
	"renderstudio/internal/studio"
)

// App carries the dependencies shared by every handler.
type App struct {
	Sessions       *studio.Registry
	Catalog        *jsoncfg.Catalog
	Exports        studio.Exporter
	Generator      studio.Generator
	Logger         zerolog.Logger
	MaxUploadBytes int64

	// BaseContext bounds background generations; cancel it on shutdown.
	BaseContext context.Context

	inflight sync.WaitGroup
}

type errorResponse struct {
	Error   string           `json:"error"`
	Message string           `json:"message"`
	Session *studio.Snapshot `json:"session,omitempty"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, errorResponse{Error: kind, Message: message})
}

// session resolves the caller's session from the id placed by the session
// middleware, creating it on first use.
func (a *App) session(r *http.Request) *studio.Session {
	id := middleware.SessionIDFromContext(r.Context())
	if id == "" {
		return nil
	}
	return a.Sessions.GetOrCreate(id)
}

func (a *App) log(r *http.Request) *zerolog.Logger {
	l := a.Logger.With().
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Str("session_id", middleware.SessionIDFromContext(r.Context())).
		Logger()
	return &l
}

func (a *App) baseContext() context.Context {
	if a.BaseContext != nil {
		return a.BaseContext
	}
	return context.Background()
}

// Wait blocks until background generations have finished.
func (a *App) Wait() {
	a.inflight.Wait()
}
