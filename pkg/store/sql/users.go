package sql

import (
	"context"
	"database/sql"
	"time"

	"github.com/filez-project/filez/pkg/errtypes"
	"github.com/filez-project/filez/pkg/model"
)

func (db *DB) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	if u.ID == model.NilID {
		u.ID = model.NewID()
	}
	now := time.Now().UTC()
	u.CreatedTime, u.ModifiedTime = now, now
	_, err := db.q(ctx).ExecContext(ctx,
		`INSERT INTO users (id, external_id, display_name, email, user_type, created_time, modified_time)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID.String(), u.ExternalID, u.DisplayName, u.Email, string(u.UserType), u.CreatedTime, u.ModifiedTime)
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, errtypes.AlreadyExists(u.ID.String())
		}
		return model.User{}, err
	}
	return u, nil
}

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	var id, userType string
	if err := row.Scan(&id, &u.ExternalID, &u.DisplayName, &u.Email, &userType, &u.CreatedTime, &u.ModifiedTime); err != nil {
		if err == sql.ErrNoRows {
			return model.User{}, errtypes.NotFound("user")
		}
		return model.User{}, err
	}
	parsed, err := model.ParseID(id)
	if err != nil {
		return model.User{}, err
	}
	u.ID = parsed
	u.UserType = model.UserType(userType)
	return u, nil
}

func (db *DB) GetUser(ctx context.Context, id model.ID) (model.User, error) {
	row := db.q(ctx).QueryRowContext(ctx,
		`SELECT id, external_id, display_name, email, user_type, created_time, modified_time FROM users WHERE id = ?`,
		id.String())
	return scanUser(row)
}

func (db *DB) GetUserByExternalID(ctx context.Context, externalID string) (model.User, error) {
	row := db.q(ctx).QueryRowContext(ctx,
		`SELECT id, external_id, display_name, email, user_type, created_time, modified_time FROM users WHERE external_id = ?`,
		externalID)
	return scanUser(row)
}

func (db *DB) DeleteUser(ctx context.Context, id model.ID) error {
	res, err := db.q(ctx).ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (db *DB) ListUsers(ctx context.Context, req model.ListRequest) (model.ListResult[model.User], error) {
	limit, offset := listBounds(req)
	rows, err := db.q(ctx).QueryContext(ctx,
		`SELECT id, external_id, display_name, email, user_type, created_time, modified_time
		 FROM users ORDER BY created_time `+orderDir(req)+` LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return model.ListResult[model.User]{}, err
	}
	defer rows.Close()

	var items []model.User
	for rows.Next() {
		var u model.User
		var id, userType string
		if err := rows.Scan(&id, &u.ExternalID, &u.DisplayName, &u.Email, &userType, &u.CreatedTime, &u.ModifiedTime); err != nil {
			return model.ListResult[model.User]{}, err
		}
		parsed, err := model.ParseID(id)
		if err != nil {
			return model.ListResult[model.User]{}, err
		}
		u.ID = parsed
		u.UserType = model.UserType(userType)
		items = append(items, u)
	}
	total, err := db.countRows(ctx, "users")
	if err != nil {
		return model.ListResult[model.User]{}, err
	}
	return model.ListResult[model.User]{Items: items, TotalCount: total}, rows.Err()
}
