package model

import "time"

// Session is a login session, tracked separately from the bearer/OIDC
// identity so a Frontend app can show "active sessions" and let a user end
// one remotely (SPEC_FULL §3, supplemented from original_source's
// http_api/sessions/*.rs, dropped by the distillation).
type Session struct {
	ID               ID
	UserID           ID
	AppID            ID
	CreatedTime      time.Time
	LastActivityTime time.Time
	TimeoutSeconds   int
}

// Expired reports whether the session has been inactive longer than its
// timeout, measured against now.
func (s Session) Expired(now time.Time) bool {
	return now.Sub(s.LastActivityTime) > time.Duration(s.TimeoutSeconds)*time.Second
}
