// Package auth is the Identity Resolver (spec §4.1): it turns an optional
// bearer token and the request's headers into an AuthenticationInfo,
// trying each registered CredentialStrategy in turn the way the teacher's
// own auth package separates "get credentials from the request" from
// "authenticate them" (CredentialStrategy/TokenStrategy split).
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/filez-project/filez/pkg/appctx"
	"github.com/filez-project/filez/pkg/errtypes"
	"github.com/filez-project/filez/pkg/model"
)

// CredentialStrategy extracts a bearer-shaped credential from the request
// and, if it recognizes the shape (a JWT vs an "apikey_"-prefixed key),
// resolves it to an ExternalIdentity. A strategy that doesn't recognize
// the credential shape returns ok=false so the next strategy gets a turn.
type CredentialStrategy interface {
	Resolve(ctx context.Context, bearer string) (identity *model.ExternalIdentity, ok bool, err error)
}

// Users resolves an ExternalIdentity to a User row.
type Users interface {
	GetUserByExternalID(ctx context.Context, externalID string) (model.User, error)
	CreateUser(ctx context.Context, u model.User) (model.User, error)
}

// Apps resolves the requesting App by audience claim, Origin header, or
// the built-in public app.
type Apps interface {
	GetApp(ctx context.Context, id model.ID) (model.App, error)
	GetAppByOrigin(ctx context.Context, origin string) (model.App, error)
}

// Resolver is the Identity Resolver's entry point.
type Resolver struct {
	Strategies []CredentialStrategy
	Users      Users
	Apps       Apps
	PublicApp  model.App
}

// New builds a Resolver trying each strategy in order until one
// recognizes the bearer's shape.
func New(users Users, apps Apps, publicApp model.App, strategies ...CredentialStrategy) *Resolver {
	return &Resolver{Strategies: strategies, Users: users, Apps: apps, PublicApp: publicApp}
}

// Resolve implements spec §4.1: identity first, then app-selection rules
// (a) audience, (b) Origin header, (c) public app.
func (r *Resolver) Resolve(ctx context.Context, req *http.Request) (*appctx.AuthenticationInfo, error) {
	info := &appctx.AuthenticationInfo{RequestingApp: r.PublicApp}

	bearer := bearerToken(req)
	var identity *model.ExternalIdentity
	var audienceAppID *model.ID
	if bearer != "" {
		for _, s := range r.Strategies {
			id, ok, err := s.Resolve(ctx, bearer)
			if err != nil {
				return nil, err
			}
			if ok {
				identity = id
				break
			}
		}
		if identity == nil {
			return nil, errtypes.InvalidCredentials("unrecognized bearer")
		}
		info.ExternalIdentity = identity
		if aud, ok := identity.Claims["filez_app_id"].(string); ok && aud != "" {
			if parsed, err := model.ParseID(aud); err == nil {
				audienceAppID = &parsed
			}
		}
		user, err := r.Users.GetUserByExternalID(ctx, identity.Subject)
		switch {
		case err == nil:
			info.RequestingUser = &user
		case isNotFound(err):
			// No User row yet; caller decides whether an identified-but-
			// unregistered subject is usable (spec §4.1).
		default:
			return nil, err
		}
	}

	app, err := r.selectApp(ctx, req, audienceAppID)
	if err != nil {
		return nil, err
	}
	info.RequestingApp = app

	return info, nil
}

func (r *Resolver) selectApp(ctx context.Context, req *http.Request, audienceAppID *model.ID) (model.App, error) {
	if audienceAppID != nil {
		app, err := r.Apps.GetApp(ctx, *audienceAppID)
		if err != nil {
			return model.App{}, errtypes.Unauthorized("unknown app audience")
		}
		return app, nil
	}
	if origin := req.Header.Get("Origin"); origin != "" {
		app, err := r.Apps.GetAppByOrigin(ctx, origin)
		if err != nil {
			return model.App{}, errtypes.NotFound("unknown origin " + origin) // UnknownApp
		}
		return app, nil
	}
	return r.PublicApp, nil
}

func bearerToken(req *http.Request) string {
	h := req.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return h[len(prefix):]
	}
	return ""
}

func isNotFound(err error) bool {
	type isNotFound interface{ IsNotFound() }
	_, ok := err.(isNotFound)
	return ok
}
