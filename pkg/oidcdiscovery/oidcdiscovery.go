// Package oidcdiscovery lazily discovers an OIDC issuer's configuration,
// retrying every 5 seconds until success and then exiting the retry loop
// (spec §4.1), with concurrent callers sharing one in-flight attempt via
// golang.org/x/sync/singleflight.
package oidcdiscovery

import (
	"context"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/sync/singleflight"

	"github.com/filez-project/filez/pkg/log"
)

var logger = log.New("oidcdiscovery")

// Discovery holds the issuer's provider document once discovered.
type Discovery struct {
	issuer   string
	clientID string

	mu       sync.RWMutex
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier

	group singleflight.Group
}

// New returns a Discovery that has not yet resolved its provider
// document; call Start to begin the retry loop in the background.
func New(issuer, clientID string) *Discovery {
	return &Discovery{issuer: issuer, clientID: clientID}
}

func (d *Discovery) Issuer() string { return d.issuer }

// Start launches the background retry loop (spec §4.1: every 5s until
// success, then exits). ctx cancellation stops the loop before success.
func (d *Discovery) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		if d.tryDiscover(ctx) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if d.tryDiscover(ctx) {
					return
				}
			}
		}
	}()
}

func (d *Discovery) tryDiscover(ctx context.Context) bool {
	_, err, _ := d.group.Do("discover", func() (any, error) {
		provider, err := oidc.NewProvider(ctx, d.issuer)
		if err != nil {
			return nil, err
		}
		d.mu.Lock()
		d.provider = provider
		d.verifier = provider.Verifier(&oidc.Config{ClientID: d.clientID})
		d.mu.Unlock()
		return nil, nil
	})
	if err != nil {
		logger.Warn().Err(err).Str("issuer", d.issuer).Msg("oidc discovery attempt failed, retrying")
		return false
	}
	logger.Info().Str("issuer", d.issuer).Msg("oidc discovery succeeded")
	return true
}

// Verifier returns the discovered token verifier, triggering a one-off
// single-flight discovery attempt if startup discovery hasn't completed
// yet instead of making the caller wait for the next 5s tick.
func (d *Discovery) Verifier(ctx context.Context) (*oidc.IDTokenVerifier, error) {
	d.mu.RLock()
	v := d.verifier
	d.mu.RUnlock()
	if v != nil {
		return v, nil
	}
	if !d.tryDiscover(ctx) {
		return nil, errNotDiscovered
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.verifier, nil
}

type discoveryError string

func (e discoveryError) Error() string { return string(e) }

const errNotDiscovered = discoveryError("oidcdiscovery: issuer configuration not yet available")
