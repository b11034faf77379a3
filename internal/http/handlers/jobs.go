package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/filez-project/filez/internal/http/request"
	"github.com/filez-project/filez/internal/http/response"
	"github.com/filez-project/filez/pkg/errtypes"
	"github.com/filez-project/filez/pkg/model"
)

type createJobRequest struct {
	AppID            string          `json:"app_id" validate:"required,uuid"`
	Name             string          `json:"name" validate:"required"`
	ExecutionDetails json.RawMessage `json:"execution_details" validate:"required"`
	Persistence      string          `json:"persistence" validate:"required,oneof=Ephemeral Persistent"`
	DeadlineTime     *time.Time      `json:"deadline_time"`
}

// CreateJob implements POST /api/jobs/create.
func (d *Deps) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := request.Bind(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	appID, err := model.ParseID(req.AppID)
	if err != nil {
		response.Error(w, errtypes.Validation{Field: "app_id", Reason: "not a uuid"})
		return
	}
	if !d.authorize(w, r, model.ResourceJob, nil, model.ActionFilezJobsCreate) {
		return
	}
	ai := authInfo(r)
	ownerID := model.NilID
	if ai.RequestingUser != nil {
		ownerID = ai.RequestingUser.ID
	}
	job, err := d.Jobs.Create(r.Context(), ownerID, appID, req.Name, req.ExecutionDetails,
		model.JobPersistence(req.Persistence), req.DeadlineTime)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, map[string]model.Job{"job": job})
}

type pickupJobRequest struct {
	AppRuntimeInstanceID string `json:"app_runtime_instance_id" validate:"required"`
}

// PickupJob implements POST /api/jobs/pickup.
func (d *Deps) PickupJob(w http.ResponseWriter, r *http.Request) {
	var req pickupJobRequest
	if err := request.Bind(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	if !d.authorize(w, r, model.ResourceJob, nil, model.ActionFilezJobsPickup) {
		return
	}
	ai := authInfo(r)
	job, err := d.Jobs.Pickup(r.Context(), ai.RequestingApp.ID, req.AppRuntimeInstanceID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, map[string]*model.Job{"job": job})
}

type updateJobStatusRequest struct {
	JobID                string `json:"job_id" validate:"required,uuid"`
	Status               string `json:"status" validate:"required"`
	AppRuntimeInstanceID string `json:"app_runtime_instance_id" validate:"required"`
}

// UpdateJobStatus implements POST /api/jobs/update_status.
func (d *Deps) UpdateJobStatus(w http.ResponseWriter, r *http.Request) {
	var req updateJobStatusRequest
	if err := request.Bind(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	jobID, err := model.ParseID(req.JobID)
	if err != nil {
		response.Error(w, errtypes.Validation{Field: "job_id", Reason: "not a uuid"})
		return
	}
	if !d.authorize(w, r, model.ResourceJob, []model.ID{jobID}, model.ActionFilezJobsUpdate) {
		return
	}
	job, err := d.Jobs.UpdateStatus(r.Context(), jobID, req.AppRuntimeInstanceID, model.JobStatus(req.Status))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, map[string]model.Job{"job": job})
}
