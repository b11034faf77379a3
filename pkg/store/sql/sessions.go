package sql

import (
	"context"
	"database/sql"
	"time"

	"github.com/filez-project/filez/pkg/errtypes"
	"github.com/filez-project/filez/pkg/model"
)

const sessionColumns = `id, user_id, app_id, created_time, last_activity_time, timeout_seconds`

func (db *DB) CreateSession(ctx context.Context, s model.Session) (model.Session, error) {
	if s.ID == model.NilID {
		s.ID = model.NewID()
	}
	now := time.Now().UTC()
	s.CreatedTime, s.LastActivityTime = now, now
	_, err := db.q(ctx).ExecContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID.String(), s.UserID.String(), s.AppID.String(), s.CreatedTime, s.LastActivityTime, s.TimeoutSeconds)
	if err != nil {
		return model.Session{}, err
	}
	return s, nil
}

func (db *DB) GetSession(ctx context.Context, id model.ID) (model.Session, error) {
	row := db.q(ctx).QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id.String())
	var s model.Session
	var sid, user, app string
	if err := row.Scan(&sid, &user, &app, &s.CreatedTime, &s.LastActivityTime, &s.TimeoutSeconds); err != nil {
		if err == sql.ErrNoRows {
			return model.Session{}, errtypes.NotFound("session")
		}
		return model.Session{}, err
	}
	s.ID, _ = model.ParseID(sid)
	s.UserID, _ = model.ParseID(user)
	s.AppID, _ = model.ParseID(app)
	return s, nil
}

func (db *DB) TouchSession(ctx context.Context, id model.ID) error {
	res, err := db.q(ctx).ExecContext(ctx, `UPDATE sessions SET last_activity_time = ? WHERE id = ?`, time.Now().UTC(), id.String())
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (db *DB) EndSession(ctx context.Context, id model.ID) error {
	res, err := db.q(ctx).ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	return mustAffect(res)
}
