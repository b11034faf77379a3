package model

// AppType distinguishes browser-origin apps (matched by Origin header)
// from server-to-server worker apps (matched by token audience or api key).
type AppType string

const (
	AppTypeFrontend AppType = "Frontend"
	AppTypeBackend  AppType = "Backend"
)

// App is a client registered with the server (cmd/filezd creates the
// built-in public and filez apps at startup), identified at request time
// by either bearer audience or Origin header match.
type App struct {
	ID      ID
	Name    string
	Origins []string
	// Trusted apps bypass the untrusted-app policy gate (spec §4.3 rule 6).
	Trusted bool
	AppType AppType
	// APIKeyHash is the argon2id hash of a pre-shared key, set only for
	// Backend apps that authenticate without an OIDC flow (worker apps
	// picking up jobs). Empty means the app has no standing api key.
	APIKeyHash string
}

// PublicAppID is the built-in app used when no bearer audience and no
// Origin header match resolves a caller to a specific app. It is the
// fixed, non-nil ID 00000000-0000-0000-0000-000000000001, so that
// CreateApp, which assigns a fresh ID only when the ID is NilID, keeps it.
var PublicAppID = ID{15: 1}

// FilezAppName is the name of the built-in app that owns version 1 of
// every file (spec §3, FileVersion.app_id).
const FilezAppName = "filez"

// HasOrigin reports whether origin is registered for this app.
func (a App) HasOrigin(origin string) bool {
	for _, o := range a.Origins {
		if o == origin {
			return true
		}
	}
	return false
}
