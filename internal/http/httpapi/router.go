package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"renderstudio/internal/http/handlers"
	"renderstudio/internal/middleware"
)

// Options tunes the middleware chain.
type Options struct {
	CORSOrigins   []string
	SessionMaxAge time.Duration
	SecureCookies bool
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.CORS(opts.CORSOrigins),
	)

	r.Get("/v1/healthz", app.Health)
	r.Handle("/static/*", handlers.Static())

	r.Group(func(r chi.Router) {
		r.Use(
			middleware.Session(opts.SessionMaxAge, opts.SecureCookies),
			middleware.Logger(app.Logger),
		)

		r.Get("/", app.Index)
		r.Get("/api/catalog", app.GetCatalog)

		r.Route("/api/session", func(r chi.Router) {
			r.Get("/", app.GetSession)
			r.Delete("/", app.ClearSession)

			r.Post("/images", app.AddImage)
			r.Delete("/images/{id}", app.RemoveImage)

			r.Put("/prompt", app.SetPrompt)
			r.Post("/prompt/append", app.AppendPrompt)
			r.Post("/presets/{key}", app.ApplyPreset)
			r.Post("/adjustments/{key}", app.ApplyAdjustment)

			r.Post("/generate", app.Generate)

			r.Post("/result/use", app.UseResult)
			r.Get("/result/download", app.DownloadResult)
			r.Post("/result/export", app.ExportResult)
		})
	})

	return r
}
