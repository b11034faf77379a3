package middleware

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/filez-project/filez/internal/http/response"
	"github.com/filez-project/filez/pkg/appctx"
	"github.com/filez-project/filez/pkg/auth"
)

// Logger attaches log to every request's context, the way
// internal/http/interceptors/appctx does ahead of every other middleware.
func Logger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := appctx.WithLogger(r.Context(), &log)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Identify runs the Identity Resolver (spec §4.1) ahead of every route and
// stores its AuthenticationInfo on the context. A missing bearer is not
// rejected: it resolves to an AuthenticationInfo with a nil
// RequestingUser, and it is left to AccessPolicy::check to decide whether
// the requested action permits an anonymous caller. A resolution error
// (an unrecognized bearer, an unknown audience or Origin) is written as
// the error response and the route is not run.
func Identify(resolver *auth.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info, err := resolver.Resolve(r.Context(), r)
			if err != nil {
				response.Error(w, err)
				return
			}
			ctx := appctx.WithAuthenticationInfo(r.Context(), info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
