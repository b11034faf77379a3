// Package http assembles the chi router for every route of spec §6's
// table, grounded on internal/http/services/cback's routerInit shape
// (one chi.NewRouter, one route-registration function) but without the
// driver-plugin `global.Service` wrapper, since this server has a single,
// fixed HTTP surface rather than a configurable list of mountable
// services.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/filez-project/filez/internal/http/handlers"
	"github.com/filez-project/filez/internal/http/middleware"
	"github.com/filez-project/filez/pkg/auth"
)

// NewRouter builds the complete route table. Every route follows
// Identify → Validate schema → domain op → map result (spec §4.9); the
// file, file-version and job routes also run AccessPolicy::check before
// the domain op, while the session routes and the access-policy check
// route do not.
func NewRouter(log zerolog.Logger, resolver *auth.Resolver, d *handlers.Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger(log))
	r.Use(middleware.Recover)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Secure)
	r.Use(middleware.CORS)
	r.Use(middleware.Identify(resolver))

	r.Route("/api/files", func(r chi.Router) {
		r.Post("/create", d.CreateFile)
		r.Delete("/delete/{file_id}", d.DeleteFile)
		r.Get("/{file_id}/metadata", d.GetFileMetadata)
		r.Post("/{file_id}/tags", d.AttachTag)
	})

	r.Route("/api/file_versions", func(r chi.Router) {
		r.Post("/create", d.CreateFileVersion)
		r.Head("/{id}/content", d.HeadFileVersionContent)
		r.Patch("/{id}/content", d.PatchFileVersionContent)
		r.Get("/{id}/content", d.GetFileVersionContent)
	})

	r.Post("/api/access_policies/check", d.CheckAccessPolicy)

	r.Route("/api/jobs", func(r chi.Router) {
		r.Post("/create", d.CreateJob)
		r.Post("/pickup", d.PickupJob)
		r.Post("/update_status", d.UpdateJobStatus)
	})

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/start", d.StartSession)
		r.Post("/refresh", d.RefreshSession)
		r.Post("/end", d.EndSession)
		r.Get("/timeout", d.SessionTimeout)
	})

	return r
}
