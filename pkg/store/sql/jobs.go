package sql

import (
	"context"
	"database/sql"
	"time"

	"github.com/filez-project/filez/pkg/errtypes"
	"github.com/filez-project/filez/pkg/model"
)

const jobColumns = `id, owner_id, app_id, name, execution_details, persistence, status,
	deadline_time, picked_up_by_runtime_instance, picked_up_at, created_time, modified_time`

func (db *DB) CreateJob(ctx context.Context, j model.Job) (model.Job, error) {
	if j.ID == model.NilID {
		j.ID = model.NewID()
	}
	now := time.Now().UTC()
	j.CreatedTime, j.ModifiedTime = now, now
	j.Status = model.JobPending
	_, err := db.q(ctx).ExecContext(ctx,
		`INSERT INTO jobs (`+jobColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID.String(), j.OwnerID.String(), j.AppID.String(), j.Name, j.ExecutionDetails, string(j.Persistence), string(j.Status),
		j.DeadlineTime, j.PickedUpByRuntimeInstance, j.PickedUpAt, j.CreatedTime, j.ModifiedTime)
	if err != nil {
		return model.Job{}, err
	}
	return j, nil
}

func scanJobRow(scan func(dest ...any) error) (model.Job, error) {
	var j model.Job
	var id, owner, app, persistence, status string
	if err := scan(&id, &owner, &app, &j.Name, &j.ExecutionDetails, &persistence, &status,
		&j.DeadlineTime, &j.PickedUpByRuntimeInstance, &j.PickedUpAt, &j.CreatedTime, &j.ModifiedTime); err != nil {
		return model.Job{}, err
	}
	j.ID, _ = model.ParseID(id)
	j.OwnerID, _ = model.ParseID(owner)
	j.AppID, _ = model.ParseID(app)
	j.Persistence = model.JobPersistence(persistence)
	j.Status = model.JobStatus(status)
	return j, nil
}

func (db *DB) GetJob(ctx context.Context, id model.ID) (model.Job, error) {
	row := db.q(ctx).QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id.String())
	j, err := scanJobRow(row.Scan)
	if err == sql.ErrNoRows {
		return model.Job{}, errtypes.NotFound("job")
	}
	return j, err
}

func (db *DB) DeleteJob(ctx context.Context, id model.ID) error {
	res, err := db.q(ctx).ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (db *DB) DeleteJobRow(ctx context.Context, jobID model.ID) error { return db.DeleteJob(ctx, jobID) }

func (db *DB) ListJobs(ctx context.Context, req model.ListRequest) (model.ListResult[model.Job], error) {
	limit, offset := listBounds(req)
	rows, err := db.q(ctx).QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs ORDER BY created_time `+orderDir(req)+` LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return model.ListResult[model.Job]{}, err
	}
	defer rows.Close()
	var items []model.Job
	for rows.Next() {
		j, err := scanJobRow(rows.Scan)
		if err != nil {
			return model.ListResult[model.Job]{}, err
		}
		items = append(items, j)
	}
	total, err := db.countRows(ctx, "jobs")
	if err != nil {
		return model.ListResult[model.Job]{}, err
	}
	return model.ListResult[model.Job]{Items: items, TotalCount: total}, rows.Err()
}

// PickupJob atomically claims the oldest Pending job for appID whose
// deadline, if any, has not yet passed (spec §4.7 pickup step 1: a job
// past its deadline is not handed to a worker and stays Pending; the
// lease reclaimer only visits PickedUp and Running jobs). On MySQL this
// uses SELECT ... FOR UPDATE SKIP LOCKED so N
// concurrent workers never block each other or double-claim the same row
// (spec §4.7, Concurrency & Resource Model's job exclusivity property).
// SQLite has no SKIP LOCKED and serializes naturally through its single
// writer lock, so the plain FOR UPDATE-less form there is still
// race-free.
func (db *DB) PickupJob(ctx context.Context, appID model.ID, runtimeInstanceID string, now time.Time) (*model.Job, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query := `SELECT ` + jobColumns + ` FROM jobs WHERE app_id = ? AND status = ? AND (deadline_time IS NULL OR deadline_time > ?) ORDER BY created_time ASC LIMIT 1`
	if db.d.skipLocked() {
		query += forUpdateSuffix() + " SKIP LOCKED"
	}
	row := tx.QueryRowContext(ctx, query, appID.String(), string(model.JobPending), now)
	j, err := scanJobRow(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	j.Status = model.JobPickedUp
	j.PickedUpByRuntimeInstance = &runtimeInstanceID
	j.PickedUpAt = &now
	j.ModifiedTime = now
	_, err = tx.ExecContext(ctx,
		`UPDATE jobs SET status = ?, picked_up_by_runtime_instance = ?, picked_up_at = ?, modified_time = ? WHERE id = ?`,
		string(j.Status), j.PickedUpByRuntimeInstance, j.PickedUpAt, j.ModifiedTime, j.ID.String())
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &j, nil
}

func (db *DB) UpdateJobStatus(ctx context.Context, jobID model.ID, newStatus model.JobStatus) (model.Job, error) {
	current, err := db.GetJob(ctx, jobID)
	if err != nil {
		return model.Job{}, err
	}
	if !model.CanTransition(current.Status, newStatus) {
		return model.Job{}, errtypes.Validation{Field: "status", Reason: "illegal transition from " + string(current.Status) + " to " + string(newStatus)}
	}
	current.Status = newStatus
	current.ModifiedTime = time.Now().UTC()
	if newStatus == model.JobPending {
		current.PickedUpByRuntimeInstance = nil
		current.PickedUpAt = nil
	}
	res, err := db.q(ctx).ExecContext(ctx,
		`UPDATE jobs SET status = ?, picked_up_by_runtime_instance = ?, picked_up_at = ?, modified_time = ? WHERE id = ?`,
		string(current.Status), current.PickedUpByRuntimeInstance, current.PickedUpAt, current.ModifiedTime, current.ID.String())
	if err != nil {
		return model.Job{}, err
	}
	if err := mustAffect(res); err != nil {
		return model.Job{}, err
	}
	return current, nil
}

func (db *DB) ListExpiredLeases(ctx context.Context, cutoff time.Time) ([]model.Job, error) {
	rows, err := db.q(ctx).QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE status IN (?, ?) AND picked_up_at < ?`,
		string(model.JobPickedUp), string(model.JobRunning), cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []model.Job
	for rows.Next() {
		j, err := scanJobRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, j)
	}
	return items, rows.Err()
}

// ReclaimJob resets an expired lease back to Pending for re-pickup, the
// behavior for Persistent jobs; Ephemeral jobs past their deadline are
// deleted by the caller (pkg/reconciler) instead of reclaimed.
func (db *DB) ReclaimJob(ctx context.Context, jobID model.ID) error {
	res, err := db.q(ctx).ExecContext(ctx,
		`UPDATE jobs SET status = ?, picked_up_by_runtime_instance = NULL, picked_up_at = NULL, modified_time = ? WHERE id = ?`,
		string(model.JobPending), time.Now().UTC(), jobID.String())
	if err != nil {
		return err
	}
	return mustAffect(res)
}
