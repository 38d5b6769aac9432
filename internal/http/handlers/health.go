package handlers

import (
	"net/http"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	configured := a.Generator != nil && a.Generator.HasCredentials()
	a.json(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"fal_configured": configured,
		"sessions":       a.Sessions.Count(),
	})
}
