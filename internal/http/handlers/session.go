package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"renderstudio/internal/domain"
	"renderstudio/internal/studio"
)

type textRequest struct {
	Text string `json:"text"`
}

type exportResponse struct {
	Path    string          `json:"path"`
	Session studio.Snapshot `json:"session"`
}

// sessionError maps a session operation error onto a status code and always
// returns the current snapshot so the page can re-render.
func (a *App) sessionError(w http.ResponseWriter, r *http.Request, s *studio.Session, err error) {
	code, kind := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, domain.ErrBusy):
		code, kind = http.StatusConflict, "busy"
	case errors.Is(err, domain.ErrNotReady):
		code, kind = http.StatusConflict, "not_ready"
	case errors.Is(err, domain.ErrCapacityExceeded):
		code, kind = http.StatusConflict, "capacity_exceeded"
	case errors.Is(err, domain.ErrNoResult):
		code, kind = http.StatusNotFound, "no_result"
	case errors.Is(err, domain.ErrNotFound):
		code, kind = http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrFileDecode):
		code, kind = http.StatusUnprocessableEntity, "file_decode"
	case errors.Is(err, domain.ErrMissingCredential):
		code, kind = http.StatusServiceUnavailable, "missing_credential"
	case errors.Is(err, domain.ErrExport):
		code, kind = http.StatusInternalServerError, "export_failed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code, kind = http.StatusRequestTimeout, "canceled"
	}
	if code >= http.StatusInternalServerError {
		a.log(r).Error().Err(err).Msg("session operation failed")
	}
	snap := s.Snapshot()
	a.json(w, code, errorResponse{Error: kind, Message: messageFor(err), Session: &snap})
}

func messageFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrBusy):
		return "A render is in progress"
	case errors.Is(err, domain.ErrNotReady):
		return "Add at least one image and a prompt"
	case errors.Is(err, domain.ErrCapacityExceeded):
		return fmt.Sprintf("At most %d reference images", domain.MaxReferenceImages)
	case errors.Is(err, domain.ErrNoResult):
		return "No generated image yet"
	case errors.Is(err, domain.ErrNotFound):
		return err.Error()
	}
	return domain.Message(err)
}

func (a *App) requireSession(w http.ResponseWriter, r *http.Request) (*studio.Session, bool) {
	s := a.session(r)
	if s == nil {
		a.error(w, http.StatusBadRequest, "bad_request", "missing session")
		return nil, false
	}
	return s, true
}

func (a *App) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := a.requireSession(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, s.Snapshot())
}

// ClearSession resets everything and forgets the session.
func (a *App) ClearSession(w http.ResponseWriter, r *http.Request) {
	s, ok := a.requireSession(w, r)
	if !ok {
		return
	}
	s.ClearAll()
	a.Sessions.Delete(s.ID())
	a.json(w, http.StatusOK, s.Snapshot())
}

func (a *App) AddImage(w http.ResponseWriter, r *http.Request) {
	s, ok := a.requireSession(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, a.MaxUploadBytes+(1<<20))
	file, _, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, http.StatusRequestEntityTooLarge, "file_too_large", "image file is too large")
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", "multipart field \"file\" required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, a.MaxUploadBytes+1))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "failed to read upload")
		return
	}
	if int64(len(data)) > a.MaxUploadBytes {
		a.error(w, http.StatusRequestEntityTooLarge, "file_too_large", "image file is too large")
		return
	}
	img, err := s.AddImage(r.Context(), data)
	if err != nil {
		a.sessionError(w, r, s, err)
		return
	}
	a.log(r).Debug().Str("image_id", img.ID).Int("bytes", len(data)).Msg("image added")
	a.json(w, http.StatusCreated, s.Snapshot())
}

func (a *App) RemoveImage(w http.ResponseWriter, r *http.Request) {
	s, ok := a.requireSession(w, r)
	if !ok {
		return
	}
	if err := s.RemoveImage(chi.URLParam(r, "id")); err != nil {
		a.sessionError(w, r, s, err)
		return
	}
	a.json(w, http.StatusOK, s.Snapshot())
}

func (a *App) SetPrompt(w http.ResponseWriter, r *http.Request) {
	a.promptUpdate(w, r, (*studio.Session).SetPrompt)
}

func (a *App) AppendPrompt(w http.ResponseWriter, r *http.Request) {
	a.promptUpdate(w, r, (*studio.Session).AppendPrompt)
}

func (a *App) promptUpdate(w http.ResponseWriter, r *http.Request, apply func(*studio.Session, string) error) {
	s, ok := a.requireSession(w, r)
	if !ok {
		return
	}
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := apply(s, req.Text); err != nil {
		a.sessionError(w, r, s, err)
		return
	}
	a.json(w, http.StatusOK, s.Snapshot())
}

func (a *App) ApplyPreset(w http.ResponseWriter, r *http.Request) {
	s, ok := a.requireSession(w, r)
	if !ok {
		return
	}
	if err := s.ApplyPreset(chi.URLParam(r, "key")); err != nil {
		a.sessionError(w, r, s, err)
		return
	}
	a.json(w, http.StatusOK, s.Snapshot())
}

func (a *App) ApplyAdjustment(w http.ResponseWriter, r *http.Request) {
	s, ok := a.requireSession(w, r)
	if !ok {
		return
	}
	if err := s.ApplyAdjustment(chi.URLParam(r, "key")); err != nil {
		a.sessionError(w, r, s, err)
		return
	}
	a.json(w, http.StatusOK, s.Snapshot())
}

// Generate enters Loading and runs the request in the background, answering
// 202 immediately. With ?wait=true it answers once the outcome is applied.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	s, ok := a.requireSession(w, r)
	if !ok {
		return
	}
	attempt, err := s.Begin()
	if err != nil {
		a.sessionError(w, r, s, err)
		return
	}
	logger := a.log(r)
	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	if wait {
		a.run(r.Context(), attempt, logger)
		a.json(w, http.StatusOK, s.Snapshot())
		return
	}
	a.inflight.Add(1)
	go func() {
		defer a.inflight.Done()
		a.run(a.baseContext(), attempt, logger)
	}()
	a.json(w, http.StatusAccepted, s.Snapshot())
}

func (a *App) run(ctx context.Context, attempt *studio.Attempt, logger *zerolog.Logger) {
	err := attempt.Run(ctx)
	switch {
	case errors.Is(err, studio.ErrStale):
		logger.Debug().Msg("generation outcome arrived after clear")
	case err != nil:
		logger.Warn().Err(err).Msg("generation failed")
	}
}

func (a *App) UseResult(w http.ResponseWriter, r *http.Request) {
	s, ok := a.requireSession(w, r)
	if !ok {
		return
	}
	if _, err := s.UseAsInput(); err != nil {
		a.sessionError(w, r, s, err)
		return
	}
	a.json(w, http.StatusOK, s.Snapshot())
}

func (a *App) DownloadResult(w http.ResponseWriter, r *http.Request) {
	s, ok := a.requireSession(w, r)
	if !ok {
		return
	}
	exp, err := s.Download()
	if err != nil {
		a.sessionError(w, r, s, err)
		return
	}
	w.Header().Set("Content-Type", exp.MIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exp.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(exp.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(exp.Data)
}

func (a *App) ExportResult(w http.ResponseWriter, r *http.Request) {
	s, ok := a.requireSession(w, r)
	if !ok {
		return
	}
	if a.Exports == nil {
		a.error(w, http.StatusNotImplemented, "export_disabled", "export directory not configured")
		return
	}
	path, err := s.Export(r.Context(), a.Exports)
	if err != nil {
		a.sessionError(w, r, s, err)
		return
	}
	a.json(w, http.StatusCreated, exportResponse{Path: path, Session: s.Snapshot()})
}

func (a *App) GetCatalog(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.Catalog)
}
