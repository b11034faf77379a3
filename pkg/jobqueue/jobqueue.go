// Package jobqueue is the business-logic wrapper around the Job Queue's
// persistence operations (spec §4.7): creation, worker pickup, and
// status updates, each emitting a typed lifecycle event. Grounded on
// the teacher's service-over-store layering (a thin domain package
// between internal/http handlers and pkg/store), generalized from
// CS3 share/file workflows to job lifecycle management.
package jobqueue

import (
	"context"
	"time"

	"github.com/filez-project/filez/pkg/errtypes"
	"github.com/filez-project/filez/pkg/events"
	"github.com/filez-project/filez/pkg/model"
)

// Store is the slice of store.Store this service needs.
type Store interface {
	CreateJob(ctx context.Context, j model.Job) (model.Job, error)
	GetJob(ctx context.Context, id model.ID) (model.Job, error)
	DeleteJob(ctx context.Context, id model.ID) error
	ListJobs(ctx context.Context, req model.ListRequest) (model.ListResult[model.Job], error)
	PickupJob(ctx context.Context, appID model.ID, runtimeInstanceID string, now time.Time) (*model.Job, error)
	UpdateJobStatus(ctx context.Context, jobID model.ID, newStatus model.JobStatus) (model.Job, error)
}

// Service is the Job Queue's entry point.
type Service struct {
	Store  Store
	Events *events.Publisher
}

func New(s Store, pub *events.Publisher) *Service {
	return &Service{Store: s, Events: pub}
}

// Create inserts a new job. Authorization (the type-level
// FilezJobsCreate policy check) is the caller's responsibility, applied
// before this is reached, matching every other Service in this module.
func (s *Service) Create(ctx context.Context, ownerID, appID model.ID, name string, executionDetails []byte, persistence model.JobPersistence, deadline *time.Time) (model.Job, error) {
	j, err := s.Store.CreateJob(ctx, model.Job{
		ID:               model.NewID(),
		OwnerID:          ownerID,
		AppID:            appID,
		Name:             name,
		ExecutionDetails: executionDetails,
		Persistence:      persistence,
		Status:           model.JobPending,
		DeadlineTime:     deadline,
	})
	if err != nil {
		return model.Job{}, err
	}
	_ = s.Events.Publish(events.JobCreated{JobID: j.ID.String(), AppID: j.AppID.String(), OwnerID: j.OwnerID.String(), Name: j.Name})
	return j, nil
}

// Pickup implements spec §4.7's pickup algorithm: a worker identifies
// itself by (app_id, runtime_instance_id) and atomically claims the
// oldest eligible Pending job for its app.
func (s *Service) Pickup(ctx context.Context, appID model.ID, runtimeInstanceID string) (*model.Job, error) {
	j, err := s.Store.PickupJob(ctx, appID, runtimeInstanceID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if j == nil {
		return nil, nil
	}
	_ = s.Events.Publish(events.JobPickedUp{JobID: j.ID.String(), AppID: j.AppID.String(), RuntimeInstanceID: runtimeInstanceID})
	return j, nil
}

// UpdateStatus implements spec §4.7 "Update status": only the worker
// currently holding the job's lease (identified by runtimeInstanceID)
// may advance it, and only along a legal transition edge
// (model.CanTransition, enforced again by the store).
func (s *Service) UpdateStatus(ctx context.Context, jobID model.ID, runtimeInstanceID string, newStatus model.JobStatus) (model.Job, error) {
	current, err := s.Store.GetJob(ctx, jobID)
	if err != nil {
		return model.Job{}, err
	}
	if current.PickedUpByRuntimeInstance == nil || *current.PickedUpByRuntimeInstance != runtimeInstanceID {
		return model.Job{}, errtypes.Forbidden("caller does not hold this job's lease")
	}
	updated, err := s.Store.UpdateJobStatus(ctx, jobID, newStatus)
	if err != nil {
		return model.Job{}, err
	}
	_ = s.Events.Publish(events.JobStatusChanged{
		JobID: updated.ID.String(), AppID: updated.AppID.String(),
		From: string(current.Status), To: string(updated.Status),
	})
	return updated, nil
}

// Get, Delete, and List pass straight through to the store; they exist
// so handlers depend on jobqueue.Store's narrow surface rather than the
// full store.Store.
func (s *Service) Get(ctx context.Context, id model.ID) (model.Job, error) { return s.Store.GetJob(ctx, id) }
func (s *Service) Delete(ctx context.Context, id model.ID) error          { return s.Store.DeleteJob(ctx, id) }
func (s *Service) List(ctx context.Context, req model.ListRequest) (model.ListResult[model.Job], error) {
	return s.Store.ListJobs(ctx, req)
}
