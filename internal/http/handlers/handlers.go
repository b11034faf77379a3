// Package handlers wires each route of spec §6's table to the
// Identify → Validate schema → AccessPolicy::check → domain op → map
// result pipeline of spec §4.9, grounded on the chi-router,
// JSON-in/JSON-out shape of internal/http/services/cback.
package handlers

import (
	"net/http"

	"github.com/filez-project/filez/internal/http/response"
	"github.com/filez-project/filez/pkg/accesspolicy"
	"github.com/filez-project/filez/pkg/appctx"
	"github.com/filez-project/filez/pkg/filez"
	"github.com/filez-project/filez/pkg/jobqueue"
	"github.com/filez-project/filez/pkg/model"
	"github.com/filez-project/filez/pkg/filez/session"
	"github.com/filez-project/filez/pkg/store"
	"github.com/filez-project/filez/pkg/storageprovider"
	"github.com/filez-project/filez/pkg/upload"
)

// Deps is every collaborator a handler needs, assembled once in
// cmd/filezd/main.go and closed over by each route's http.HandlerFunc.
type Deps struct {
	Store      store.Store
	Policy     *accesspolicy.Engine
	Filez      *filez.Service
	Upload     *upload.Service
	Jobs       *jobqueue.Service
	Sessions   *session.Service
	Providers  *storageprovider.Registry
}

// authInfo fetches the request's AuthenticationInfo; Identify always
// installs one, even for an anonymous caller, so this never needs to
// handle the not-present case as anything but a programmer error.
func authInfo(r *http.Request) *appctx.AuthenticationInfo {
	ai, ok := appctx.GetAuthenticationInfo(r.Context())
	if !ok {
		panic("handlers: Identify middleware did not run")
	}
	return ai
}

// authorize runs AccessPolicy::check(...).verify(...)? for a single
// action against zero or more resources, writing the error response and
// returning false when denied.
func (d *Deps) authorize(w http.ResponseWriter, r *http.Request, resourceType model.ResourceType, resourceIDs []model.ID, action model.Action) bool {
	ai := authInfo(r)
	result, err := d.Policy.Check(r.Context(), ai.RequestingUser, ai.RequestingApp, resourceType, resourceIDs, action)
	if err != nil {
		response.Error(w, err)
		return false
	}
	if !result.VerifyAllowTypeLevel() {
		response.Error(w, forbidden(action))
		return false
	}
	return true
}

type forbiddenErr string

func (e forbiddenErr) Error() string { return "forbidden: action " + string(e) + " denied" }
func (e forbiddenErr) IsForbidden()  {}

func forbidden(action model.Action) error { return forbiddenErr(action) }
