package credential

import (
	"context"
	"strings"

	"github.com/alexedwards/argon2id"

	"github.com/filez-project/filez/pkg/model"
)

// AppLookup resolves a Backend App's argon2id-hashed pre-shared key.
type AppLookup interface {
	ListApps(ctx context.Context, req model.ListRequest) (model.ListResult[model.App], error)
}

// APIKey is the secondary credential strategy for worker apps that
// authenticate with a pre-shared key instead of completing an OIDC flow
// (spec §4.1 supplement, SPEC_FULL §4.1). Selected when the bearer is
// prefixed "apikey_".
type APIKey struct {
	Apps AppLookup
}

func NewAPIKey(apps AppLookup) *APIKey { return &APIKey{Apps: apps} }

const apiKeyPrefix = "apikey_"

// Resolve implements auth.CredentialStrategy. The returned
// ExternalIdentity's Subject is the App's id and Issuer is "filez-apikey"
// so the resolver's GetUserByExternalID lookup simply misses (api keys
// authenticate an App, not a User).
func (a *APIKey) Resolve(ctx context.Context, bearer string) (*model.ExternalIdentity, bool, error) {
	if !strings.HasPrefix(bearer, apiKeyPrefix) {
		return nil, false, nil
	}
	key := strings.TrimPrefix(bearer, apiKeyPrefix)

	result, err := a.Apps.ListApps(ctx, model.ListRequest{Limit: 1000})
	if err != nil {
		return nil, false, err
	}
	for _, app := range result.Items {
		if app.APIKeyHash == "" {
			continue
		}
		match, err := argon2id.ComparePasswordAndHash(key, app.APIKeyHash)
		if err != nil || !match {
			continue
		}
		return &model.ExternalIdentity{
			Issuer:  "filez-apikey",
			Subject: app.ID.String(),
			Claims:  map[string]any{"filez_app_id": app.ID.String()},
		}, true, nil
	}
	return nil, false, nil
}
