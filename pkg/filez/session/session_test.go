package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filez-project/filez/pkg/errtypes"
	"github.com/filez-project/filez/pkg/model"
)

type fakeStore struct {
	sessions map[model.ID]model.Session
	touched  []model.ID
	ended    []model.ID
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: map[model.ID]model.Session{}}
}

func (s *fakeStore) CreateSession(ctx context.Context, sess model.Session) (model.Session, error) {
	s.sessions[sess.ID] = sess
	return sess, nil
}

func (s *fakeStore) GetSession(ctx context.Context, id model.ID) (model.Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return model.Session{}, errtypes.NotFound("session")
	}
	return sess, nil
}

func (s *fakeStore) TouchSession(ctx context.Context, id model.ID) error {
	s.touched = append(s.touched, id)
	return nil
}

func (s *fakeStore) EndSession(ctx context.Context, id model.ID) error {
	s.ended = append(s.ended, id)
	delete(s.sessions, id)
	return nil
}

func TestStart_SetsDefaultTimeout(t *testing.T) {
	store := newFakeStore()
	svc := New(store, 30*time.Minute)

	sess, err := svc.Start(context.Background(), model.NewID(), model.NewID())
	require.NoError(t, err)
	assert.Equal(t, 1800, sess.TimeoutSeconds)
}

func TestRefresh_RejectsAlreadyExpiredSession(t *testing.T) {
	store := newFakeStore()
	svc := New(store, time.Minute)
	id := model.NewID()
	store.sessions[id] = model.Session{
		ID: id, TimeoutSeconds: 60,
		LastActivityTime: time.Now().UTC().Add(-2 * time.Minute),
	}

	_, err := svc.Refresh(context.Background(), id)
	require.Error(t, err)
	var nf errtypes.NotFound
	assert.ErrorAs(t, err, &nf)
	assert.Empty(t, store.touched)
}

func TestRefresh_TouchesStillActiveSession(t *testing.T) {
	store := newFakeStore()
	svc := New(store, time.Minute)
	id := model.NewID()
	store.sessions[id] = model.Session{
		ID: id, TimeoutSeconds: 3600,
		LastActivityTime: time.Now().UTC().Add(-time.Minute),
	}

	_, err := svc.Refresh(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []model.ID{id}, store.touched)
}

func TestTimeout_ReturnsZeroWhenAlreadyExpired(t *testing.T) {
	store := newFakeStore()
	svc := New(store, time.Minute)
	id := model.NewID()
	store.sessions[id] = model.Session{
		ID: id, TimeoutSeconds: 10,
		LastActivityTime: time.Now().UTC().Add(-time.Hour),
	}

	remaining, err := svc.Timeout(context.Background(), id)
	require.NoError(t, err)
	assert.Zero(t, remaining)
}

func TestEnd_DelegatesToStore(t *testing.T) {
	store := newFakeStore()
	svc := New(store, time.Minute)
	id := model.NewID()
	store.sessions[id] = model.Session{ID: id}

	require.NoError(t, svc.End(context.Background(), id))
	assert.Equal(t, []model.ID{id}, store.ended)
	_, ok := store.sessions[id]
	assert.False(t, ok)
}
