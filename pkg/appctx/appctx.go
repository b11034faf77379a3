// Package appctx carries per-request state — the logger and the resolved
// identity — on the request context instead of through package-level
// globals, so the identity resolver, authorization engine and domain
// services all read from the same root handle passed down from the HTTP
// surface.
package appctx

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/filez-project/filez/pkg/model"
)

// WithLogger returns a context with an associated logger.
func WithLogger(ctx context.Context, l *zerolog.Logger) context.Context {
	return l.WithContext(ctx)
}

// GetLogger returns the logger embedded in ctx, or a disabled logger if
// none was set.
func GetLogger(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

type authKey struct{}

// AuthenticationInfo is the outcome of the identity resolver: who is
// calling (if anyone), the raw external identity that introspection
// produced, and which App the request is attributed to.
type AuthenticationInfo struct {
	RequestingUser        *model.User
	ExternalIdentity      *model.ExternalIdentity
	RequestingApp         model.App
	AppRuntimeInstanceID  string
}

// WithAuthenticationInfo returns a context carrying ai.
func WithAuthenticationInfo(ctx context.Context, ai *AuthenticationInfo) context.Context {
	return context.WithValue(ctx, authKey{}, ai)
}

// GetAuthenticationInfo returns the AuthenticationInfo stored in ctx, and
// whether one was present.
func GetAuthenticationInfo(ctx context.Context) (*AuthenticationInfo, bool) {
	ai, ok := ctx.Value(authKey{}).(*AuthenticationInfo)
	return ai, ok
}

// MustGetUser returns the requesting user or panics; handlers should only
// call this after a policy check has already required an authenticated
// caller.
func MustGetUser(ctx context.Context) *model.User {
	ai, ok := GetAuthenticationInfo(ctx)
	if !ok || ai.RequestingUser == nil {
		panic("appctx: no authenticated user in context")
	}
	return ai.RequestingUser
}
