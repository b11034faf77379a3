package handlers

import (
	"net/http"

	"github.com/filez-project/filez/internal/http/request"
	"github.com/filez-project/filez/internal/http/response"
	"github.com/filez-project/filez/pkg/errtypes"
	"github.com/filez-project/filez/pkg/model"
)

type checkAccessPolicyRequest struct {
	ResourceType string   `json:"resource_type" validate:"required"`
	ResourceIDs  []string `json:"resource_ids"`
	Action       string   `json:"action" validate:"required"`
}

// CheckAccessPolicy implements POST /api/access_policies/check, the
// caller-facing way to ask AccessPolicy::check without performing the
// underlying action (spec §4.3, §6).
func (d *Deps) CheckAccessPolicy(w http.ResponseWriter, r *http.Request) {
	var req checkAccessPolicyRequest
	if err := request.Bind(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	ids := make([]model.ID, 0, len(req.ResourceIDs))
	for _, s := range req.ResourceIDs {
		id, err := model.ParseID(s)
		if err != nil {
			response.Error(w, errtypes.Validation{Field: "resource_ids", Reason: "not a uuid"})
			return
		}
		ids = append(ids, id)
	}
	ai := authInfo(r)
	result, err := d.Policy.Check(r.Context(), ai.RequestingUser, ai.RequestingApp,
		model.ResourceType(req.ResourceType), ids, model.Action(req.Action))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, map[string]interface{}{"evaluations": result.Evaluations})
}
