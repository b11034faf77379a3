package reconciler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filez-project/filez/pkg/filez"
	"github.com/filez-project/filez/pkg/model"
)

type fakeJobStore struct {
	expired  []model.Job
	reclaimed []model.ID
	deleted  []model.ID
}

func (s *fakeJobStore) ListExpiredLeases(ctx context.Context, cutoff time.Time) ([]model.Job, error) {
	return s.expired, nil
}
func (s *fakeJobStore) ReclaimJob(ctx context.Context, jobID model.ID) error {
	s.reclaimed = append(s.reclaimed, jobID)
	return nil
}
func (s *fakeJobStore) DeleteJobRow(ctx context.Context, jobID model.ID) error {
	s.deleted = append(s.deleted, jobID)
	return nil
}

func TestLeaseReclaimerTask_ResetsPersistentJobToPending(t *testing.T) {
	jobID := model.NewID()
	store := &fakeJobStore{expired: []model.Job{
		{ID: jobID, Persistence: model.JobPersistent, Status: model.JobPickedUp},
	}}
	task := LeaseReclaimerTask(store, nil, time.Minute)

	require.NoError(t, task.Run(context.Background()))
	assert.Equal(t, []model.ID{jobID}, store.reclaimed)
	assert.Empty(t, store.deleted)
}

func TestLeaseReclaimerTask_DeletesEphemeralJobPastDeadline(t *testing.T) {
	jobID := model.NewID()
	past := time.Now().UTC().Add(-time.Hour)
	store := &fakeJobStore{expired: []model.Job{
		{ID: jobID, Persistence: model.JobEphemeral, Status: model.JobPickedUp, DeadlineTime: &past},
	}}
	task := LeaseReclaimerTask(store, nil, time.Minute)

	require.NoError(t, task.Run(context.Background()))
	assert.Equal(t, []model.ID{jobID}, store.deleted)
	assert.Empty(t, store.reclaimed)
}

func TestLeaseReclaimerTask_ResetsEphemeralJobBeforeDeadline(t *testing.T) {
	jobID := model.NewID()
	future := time.Now().UTC().Add(time.Hour)
	store := &fakeJobStore{expired: []model.Job{
		{ID: jobID, Persistence: model.JobEphemeral, Status: model.JobPickedUp, DeadlineTime: &future},
	}}
	task := LeaseReclaimerTask(store, nil, time.Minute)

	require.NoError(t, task.Run(context.Background()))
	assert.Equal(t, []model.ID{jobID}, store.reclaimed)
	assert.Empty(t, store.deleted)
}

type fakeOrphanSource struct {
	pending []filez.ReclaimTarget
	retried []filez.ReclaimTarget
}

func (s *fakeOrphanSource) DrainPendingReclaims() []filez.ReclaimTarget {
	drained := s.pending
	s.pending = nil
	return drained
}
func (s *fakeOrphanSource) RetryReclaim(ctx context.Context, t filez.ReclaimTarget) {
	s.retried = append(s.retried, t)
}

func TestOrphanSweepTask_RetriesEveryDrainedTarget(t *testing.T) {
	target := filez.ReclaimTarget{StorageLocationID: model.NewID(), Path: "apps/x/files/y/v1"}
	source := &fakeOrphanSource{pending: []filez.ReclaimTarget{target}}
	task := OrphanSweepTask(time.Minute, source)

	require.NoError(t, task.Run(context.Background()))
	assert.Equal(t, []filez.ReclaimTarget{target}, source.retried)
	assert.Empty(t, source.DrainPendingReclaims())
}

type fakeLocationStore struct {
	counts   map[model.ID]int
	statuses map[model.ID]model.StorageLocationStatus
	deleted  []model.ID
}

func newFakeLocationStore() *fakeLocationStore {
	return &fakeLocationStore{counts: map[model.ID]int{}, statuses: map[model.ID]model.StorageLocationStatus{}}
}

func (s *fakeLocationStore) ListStorageLocations(ctx context.Context, req model.ListRequest) (model.ListResult[model.StorageLocation], error) {
	return model.ListResult[model.StorageLocation]{}, nil
}
func (s *fakeLocationStore) SetStorageLocationStatus(ctx context.Context, id model.ID, status model.StorageLocationStatus) error {
	s.statuses[id] = status
	return nil
}
func (s *fakeLocationStore) DeleteStorageLocation(ctx context.Context, id model.ID) error {
	s.deleted = append(s.deleted, id)
	return nil
}
func (s *fakeLocationStore) CountFileVersionsForLocation(ctx context.Context, id model.ID) (int, error) {
	return s.counts[id], nil
}

func TestStorageLocationReconcileTask_DemotesLocationStillReferenced(t *testing.T) {
	locID := model.NewID()
	store := newFakeLocationStore()
	store.counts[locID] = 3
	task := StorageLocationReconcileTask(time.Minute, store, func() []model.ID { return []model.ID{locID} })

	require.NoError(t, task.Run(context.Background()))
	assert.Equal(t, model.StorageLocationDeprecated, store.statuses[locID])
	assert.Empty(t, store.deleted)
}

func TestStorageLocationReconcileTask_DeletesUnreferencedLocation(t *testing.T) {
	locID := model.NewID()
	store := newFakeLocationStore()
	task := StorageLocationReconcileTask(time.Minute, store, func() []model.ID { return []model.ID{locID} })

	require.NoError(t, task.Run(context.Background()))
	assert.Equal(t, []model.ID{locID}, store.deleted)
}
