package handlers

import (
	"net/http"

	"github.com/filez-project/filez/internal/http/request"
	"github.com/filez-project/filez/internal/http/response"
	"github.com/filez-project/filez/pkg/errtypes"
	"github.com/filez-project/filez/pkg/model"
)

type startSessionRequest struct {
	AppID string `json:"app_id" validate:"required,uuid"`
}

// StartSession implements POST /api/sessions/start (SPEC_FULL §3/§6
// supplement).
func (d *Deps) StartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := request.Bind(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	appID, err := model.ParseID(req.AppID)
	if err != nil {
		response.Error(w, errtypes.Validation{Field: "app_id", Reason: "not a uuid"})
		return
	}
	ai := authInfo(r)
	if ai.RequestingUser == nil {
		response.Error(w, errtypes.Unauthorized("session requires an authenticated user"))
		return
	}
	sess, err := d.Sessions.Start(r.Context(), ai.RequestingUser.ID, appID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, map[string]model.Session{"session": sess})
}

type sessionIDRequest struct {
	SessionID string `json:"session_id" validate:"required,uuid"`
}

func parseSessionID(r *http.Request) (model.ID, error) {
	var req sessionIDRequest
	if err := request.Bind(r, &req); err != nil {
		return model.ID{}, err
	}
	return model.ParseID(req.SessionID)
}

// RefreshSession implements POST /api/sessions/refresh.
func (d *Deps) RefreshSession(w http.ResponseWriter, r *http.Request) {
	id, err := parseSessionID(r)
	if err != nil {
		response.Error(w, err)
		return
	}
	sess, err := d.Sessions.Refresh(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, map[string]model.Session{"session": sess})
}

// EndSession implements POST /api/sessions/end.
func (d *Deps) EndSession(w http.ResponseWriter, r *http.Request) {
	id, err := parseSessionID(r)
	if err != nil {
		response.Error(w, err)
		return
	}
	if err := d.Sessions.End(r.Context(), id); err != nil {
		response.Error(w, err)
		return
	}
	response.NoContent(w)
}

// SessionTimeout implements GET /api/sessions/timeout?session_id=….
func (d *Deps) SessionTimeout(w http.ResponseWriter, r *http.Request) {
	id, err := model.ParseID(r.URL.Query().Get("session_id"))
	if err != nil {
		response.Error(w, errtypes.Validation{Field: "session_id", Reason: "not a uuid"})
		return
	}
	remaining, err := d.Sessions.Timeout(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, map[string]float64{"timeout_seconds": remaining.Seconds()})
}
