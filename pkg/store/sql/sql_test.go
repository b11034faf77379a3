package sql

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filez-project/filez/pkg/errtypes"
	"github.com/filez-project/filez/pkg/model"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	// A unique named in-memory, shared-cache DSN per test keeps SQLite's single-connection
	// assumptions happy while still giving each test a clean schema;
	// ":memory:" would otherwise be torn down between connections in
	// database/sql's pool.
	db, err := Open(context.Background(), Config{Driver: "sqlite3", DSN: "file:" + t.Name() + "?mode=memory&cache=shared"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateApp_AssignsIDWhenNil(t *testing.T) {
	db := openTestDB(t)
	a, err := db.CreateApp(context.Background(), model.App{Name: "worker"})
	require.NoError(t, err)
	assert.NotEqual(t, model.NilID, a.ID)
}

func TestCreateApp_PreservesCallerSuppliedID(t *testing.T) {
	db := openTestDB(t)
	a, err := db.CreateApp(context.Background(), model.App{ID: model.PublicAppID, Name: "public"})
	require.NoError(t, err)
	assert.Equal(t, model.PublicAppID, a.ID)

	got, err := db.GetApp(context.Background(), model.PublicAppID)
	require.NoError(t, err)
	assert.Equal(t, "public", got.Name)
}

func TestCreateApp_RejectsDuplicateID(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	a, err := db.CreateApp(ctx, model.App{Name: "worker"})
	require.NoError(t, err)

	_, err = db.CreateApp(ctx, model.App{ID: a.ID, Name: "worker-again"})
	require.Error(t, err)
	var exists errtypes.AlreadyExists
	assert.ErrorAs(t, err, &exists)
}

func TestGetApp_NotFoundForMissingID(t *testing.T) {
	db := openTestDB(t)
	_, err := db.GetApp(context.Background(), model.NewID())
	require.Error(t, err)
	var nf errtypes.NotFound
	assert.ErrorAs(t, err, &nf)
}

func TestGetAppByOrigin_MatchesOneOfMultipleOrigins(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, err := db.CreateApp(ctx, model.App{Name: "frontend", Origins: []string{"https://a.example", "https://b.example"}})
	require.NoError(t, err)

	got, err := db.GetAppByOrigin(ctx, "https://b.example")
	require.NoError(t, err)
	assert.Equal(t, "frontend", got.Name)
}

func TestJobLifecycle_PickupThenTransition(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	appID := model.NewID()
	_, err := db.CreateApp(ctx, model.App{ID: appID, Name: "worker-app"})
	require.NoError(t, err)

	created, err := db.CreateJob(ctx, model.Job{
		ID: model.NewID(), OwnerID: model.NewID(), AppID: appID,
		Name: "render-thumbnail", Persistence: model.JobEphemeral,
	})
	require.NoError(t, err)
	assert.Equal(t, model.JobPending, created.Status)

	claimed, err := db.PickupJob(ctx, appID, "runtime-1", created.CreatedTime)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, model.JobPickedUp, claimed.Status)
	require.NotNil(t, claimed.PickedUpByRuntimeInstance)
	assert.Equal(t, "runtime-1", *claimed.PickedUpByRuntimeInstance)

	second, err := db.PickupJob(ctx, appID, "runtime-2", created.CreatedTime)
	require.NoError(t, err)
	assert.Nil(t, second)

	updated, err := db.UpdateJobStatus(ctx, created.ID, model.JobRunning)
	require.NoError(t, err)
	assert.Equal(t, model.JobRunning, updated.Status)

	_, err = db.UpdateJobStatus(ctx, created.ID, model.JobPickedUp)
	require.Error(t, err)
	var validation errtypes.Validation
	assert.ErrorAs(t, err, &validation)
}

func TestUpdateJobStatus_ToPendingClearsLease(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	appID := model.NewID()
	_, err := db.CreateApp(ctx, model.App{ID: appID, Name: "worker-app"})
	require.NoError(t, err)
	created, err := db.CreateJob(ctx, model.Job{ID: model.NewID(), OwnerID: model.NewID(), AppID: appID, Name: "x"})
	require.NoError(t, err)

	_, err = db.PickupJob(ctx, appID, "runtime-1", created.CreatedTime)
	require.NoError(t, err)

	reset, err := db.UpdateJobStatus(ctx, created.ID, model.JobPending)
	require.NoError(t, err)
	assert.Equal(t, model.JobPending, reset.Status)
	assert.Nil(t, reset.PickedUpByRuntimeInstance)
	assert.Nil(t, reset.PickedUpAt)
}

func TestPickupJob_SkipsJobPastDeadline(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	appID := model.NewID()
	_, err := db.CreateApp(ctx, model.App{ID: appID, Name: "worker-app"})
	require.NoError(t, err)

	now := time.Now().UTC()
	past := now.Add(-time.Minute)
	_, err = db.CreateJob(ctx, model.Job{
		ID: model.NewID(), OwnerID: model.NewID(), AppID: appID,
		Name: "expired", DeadlineTime: &past,
	})
	require.NoError(t, err)

	claimed, err := db.PickupJob(ctx, appID, "runtime-1", now)
	require.NoError(t, err)
	assert.Nil(t, claimed)
}

func TestPickupJob_ClaimsJobWithFutureDeadline(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	appID := model.NewID()
	_, err := db.CreateApp(ctx, model.App{ID: appID, Name: "worker-app"})
	require.NoError(t, err)

	now := time.Now().UTC()
	future := now.Add(time.Hour)
	created, err := db.CreateJob(ctx, model.Job{
		ID: model.NewID(), OwnerID: model.NewID(), AppID: appID,
		Name: "not-yet-due", DeadlineTime: &future,
	})
	require.NoError(t, err)

	claimed, err := db.PickupJob(ctx, appID, "runtime-1", now)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, created.ID, claimed.ID)
}
