package jobqueue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filez-project/filez/pkg/errtypes"
	"github.com/filez-project/filez/pkg/model"
)

// fakeStore is a minimal single-threaded stand-in for pkg/store/sql.DB's
// job methods, enforcing the same transition rule sql.DB.UpdateJobStatus
// does, so the domain-level lease checks in Service can be exercised
// without a real database.
type fakeStore struct {
	jobs map[model.ID]model.Job
}

func newFakeStore() *fakeStore { return &fakeStore{jobs: map[model.ID]model.Job{}} }

func (s *fakeStore) CreateJob(ctx context.Context, j model.Job) (model.Job, error) {
	j.CreatedTime = time.Now().UTC()
	s.jobs[j.ID] = j
	return j, nil
}

func (s *fakeStore) GetJob(ctx context.Context, id model.ID) (model.Job, error) {
	j, ok := s.jobs[id]
	if !ok {
		return model.Job{}, errtypes.NotFound("job")
	}
	return j, nil
}

func (s *fakeStore) DeleteJob(ctx context.Context, id model.ID) error {
	delete(s.jobs, id)
	return nil
}

func (s *fakeStore) ListJobs(ctx context.Context, req model.ListRequest) (model.ListResult[model.Job], error) {
	var items []model.Job
	for _, j := range s.jobs {
		items = append(items, j)
	}
	return model.ListResult[model.Job]{Items: items}, nil
}

func (s *fakeStore) PickupJob(ctx context.Context, appID model.ID, runtimeInstanceID string, now time.Time) (*model.Job, error) {
	for id, j := range s.jobs {
		if j.AppID != appID || j.Status != model.JobPending {
			continue
		}
		if j.DeadlineTime != nil && !j.DeadlineTime.After(now) {
			continue
		}
		j.Status = model.JobPickedUp
		j.PickedUpByRuntimeInstance = &runtimeInstanceID
		j.PickedUpAt = &now
		s.jobs[id] = j
		return &j, nil
	}
	return nil, nil
}

func (s *fakeStore) UpdateJobStatus(ctx context.Context, jobID model.ID, newStatus model.JobStatus) (model.Job, error) {
	current, err := s.GetJob(ctx, jobID)
	if err != nil {
		return model.Job{}, err
	}
	if !model.CanTransition(current.Status, newStatus) {
		return model.Job{}, errtypes.Validation{Field: "status", Reason: "illegal transition"}
	}
	current.Status = newStatus
	if newStatus == model.JobPending {
		current.PickedUpByRuntimeInstance = nil
		current.PickedUpAt = nil
	}
	s.jobs[jobID] = current
	return current, nil
}

func TestPickup_ReturnsNilWhenNothingPending(t *testing.T) {
	store := newFakeStore()
	svc := New(store, nil)

	job, err := svc.Pickup(context.Background(), model.NewID(), "worker-1")
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestPickup_ClaimsExactlyOnePendingJob(t *testing.T) {
	store := newFakeStore()
	svc := New(store, nil)
	appID := model.NewID()

	created, err := svc.Create(context.Background(), model.NewID(), appID, "do-thing", []byte(`{}`), model.JobEphemeral, nil)
	require.NoError(t, err)

	claimed, err := svc.Pickup(context.Background(), appID, "worker-1")
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, created.ID, claimed.ID)
	assert.Equal(t, model.JobPickedUp, claimed.Status)
	assert.Equal(t, "worker-1", *claimed.PickedUpByRuntimeInstance)

	second, err := svc.Pickup(context.Background(), appID, "worker-2")
	require.NoError(t, err)
	assert.Nil(t, second)
}

func TestPickup_SkipsJobPastDeadline(t *testing.T) {
	store := newFakeStore()
	svc := New(store, nil)
	appID := model.NewID()
	past := time.Now().UTC().Add(-time.Hour)
	jobID := model.NewID()
	store.jobs[jobID] = model.Job{
		ID: jobID, AppID: appID, Status: model.JobPending, DeadlineTime: &past,
	}

	claimed, err := svc.Pickup(context.Background(), appID, "worker-1")
	require.NoError(t, err)
	assert.Nil(t, claimed)
}

func TestUpdateStatus_RejectsCallerWithoutTheLease(t *testing.T) {
	store := newFakeStore()
	svc := New(store, nil)
	appID := model.NewID()

	created, _ := svc.Create(context.Background(), model.NewID(), appID, "do-thing", []byte(`{}`), model.JobEphemeral, nil)
	_, err := svc.Pickup(context.Background(), appID, "worker-1")
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), created.ID, "worker-2", model.JobRunning)
	require.Error(t, err)
	var forbidden errtypes.Forbidden
	assert.ErrorAs(t, err, &forbidden)
}

func TestUpdateStatus_RejectsIllegalTransition(t *testing.T) {
	store := newFakeStore()
	svc := New(store, nil)
	appID := model.NewID()

	created, _ := svc.Create(context.Background(), model.NewID(), appID, "do-thing", []byte(`{}`), model.JobEphemeral, nil)
	_, err := svc.Pickup(context.Background(), appID, "worker-1")
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), created.ID, "worker-1", model.JobSucceeded)
	require.NoError(t, err) // PickedUp -> Succeeded is legal

	_, err = svc.UpdateStatus(context.Background(), created.ID, "worker-1", model.JobRunning)
	require.Error(t, err) // Succeeded is terminal; no outgoing edges
	var validation errtypes.Validation
	assert.ErrorAs(t, err, &validation)
}
