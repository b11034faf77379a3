// Package session implements the Session lifecycle supplement (SPEC_FULL
// §3/§9): start, refresh-on-activity, end, and timeout lookup, tracked
// separately from the bearer/OIDC identity so a Frontend app can end a
// user's session.
package session

import (
	"context"
	"time"

	"github.com/filez-project/filez/pkg/errtypes"
	"github.com/filez-project/filez/pkg/model"
)

// Store is the slice of store.Store this service needs.
type Store interface {
	CreateSession(ctx context.Context, s model.Session) (model.Session, error)
	GetSession(ctx context.Context, id model.ID) (model.Session, error)
	TouchSession(ctx context.Context, id model.ID) error
	EndSession(ctx context.Context, id model.ID) error
}

// Service is the Session lifecycle's entry point.
type Service struct {
	Store          Store
	DefaultTimeout time.Duration
}

func New(s Store, defaultTimeout time.Duration) *Service {
	return &Service{Store: s, DefaultTimeout: defaultTimeout}
}

// Start begins a new session for a (user, app) pair.
func (s *Service) Start(ctx context.Context, userID, appID model.ID) (model.Session, error) {
	now := time.Now().UTC()
	return s.Store.CreateSession(ctx, model.Session{
		ID:               model.NewID(),
		UserID:           userID,
		AppID:            appID,
		CreatedTime:      now,
		LastActivityTime: now,
		TimeoutSeconds:   int(s.DefaultTimeout / time.Second),
	})
}

// Refresh extends a session's activity clock. Returns NotFound if the
// session has already expired and been reaped, the same as if it never
// existed (spec §9 generic error handling design).
func (s *Service) Refresh(ctx context.Context, id model.ID) (model.Session, error) {
	sess, err := s.Store.GetSession(ctx, id)
	if err != nil {
		return model.Session{}, err
	}
	if sess.Expired(time.Now().UTC()) {
		return model.Session{}, errtypes.NotFound("session " + id.String())
	}
	if err := s.Store.TouchSession(ctx, id); err != nil {
		return model.Session{}, err
	}
	sess.LastActivityTime = time.Now().UTC()
	return sess, nil
}

// End terminates a session early, before its inactivity timeout elapses.
func (s *Service) End(ctx context.Context, id model.ID) error {
	return s.Store.EndSession(ctx, id)
}

// Timeout reports how long until id's session expires from its current
// last-activity time, or zero if it's already expired.
func (s *Service) Timeout(ctx context.Context, id model.ID) (time.Duration, error) {
	sess, err := s.Store.GetSession(ctx, id)
	if err != nil {
		return 0, err
	}
	remaining := time.Duration(sess.TimeoutSeconds)*time.Second - time.Since(sess.LastActivityTime)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}
