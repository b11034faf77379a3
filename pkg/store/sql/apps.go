package sql

import (
	"context"
	"database/sql"
	"strings"

	"github.com/filez-project/filez/pkg/errtypes"
	"github.com/filez-project/filez/pkg/model"
)

func (db *DB) CreateApp(ctx context.Context, a model.App) (model.App, error) {
	if a.ID == model.NilID {
		a.ID = model.NewID()
	}
	_, err := db.q(ctx).ExecContext(ctx,
		`INSERT INTO apps (id, name, origins, trusted, app_type, api_key_hash) VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID.String(), a.Name, strings.Join(a.Origins, ","), boolInt(a.Trusted), string(a.AppType), a.APIKeyHash)
	if err != nil {
		if isUniqueViolation(err) {
			return model.App{}, errtypes.AlreadyExists(a.ID.String())
		}
		return model.App{}, err
	}
	return a, nil
}

func scanApp(row *sql.Row) (model.App, error) {
	var a model.App
	var id, origins, appType string
	var trusted int
	if err := row.Scan(&id, &a.Name, &origins, &trusted, &appType, &a.APIKeyHash); err != nil {
		if err == sql.ErrNoRows {
			return model.App{}, errtypes.NotFound("app")
		}
		return model.App{}, err
	}
	parsed, err := model.ParseID(id)
	if err != nil {
		return model.App{}, err
	}
	a.ID = parsed
	a.AppType = model.AppType(appType)
	a.Trusted = trusted != 0
	if origins != "" {
		a.Origins = strings.Split(origins, ",")
	}
	return a, nil
}

const appColumns = `id, name, origins, trusted, app_type, api_key_hash`

func (db *DB) GetApp(ctx context.Context, id model.ID) (model.App, error) {
	row := db.q(ctx).QueryRowContext(ctx, `SELECT `+appColumns+` FROM apps WHERE id = ?`, id.String())
	return scanApp(row)
}

func (db *DB) GetAppByOrigin(ctx context.Context, origin string) (model.App, error) {
	rows, err := db.q(ctx).QueryContext(ctx, `SELECT `+appColumns+` FROM apps`)
	if err != nil {
		return model.App{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var a model.App
		var id, origins, appType string
		var trusted int
		if err := rows.Scan(&id, &a.Name, &origins, &trusted, &appType, &a.APIKeyHash); err != nil {
			return model.App{}, err
		}
		parsed, err := model.ParseID(id)
		if err != nil {
			return model.App{}, err
		}
		a.ID = parsed
		a.AppType = model.AppType(appType)
		a.Trusted = trusted != 0
		if origins != "" {
			a.Origins = strings.Split(origins, ",")
		}
		if a.HasOrigin(origin) {
			return a, nil
		}
	}
	return model.App{}, errtypes.NotFound("app with origin " + origin)
}

func (db *DB) ListApps(ctx context.Context, req model.ListRequest) (model.ListResult[model.App], error) {
	limit, offset := listBounds(req)
	rows, err := db.q(ctx).QueryContext(ctx,
		`SELECT `+appColumns+` FROM apps ORDER BY name `+orderDir(req)+` LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return model.ListResult[model.App]{}, err
	}
	defer rows.Close()
	var items []model.App
	for rows.Next() {
		var a model.App
		var id, origins, appType string
		var trusted int
		if err := rows.Scan(&id, &a.Name, &origins, &trusted, &appType, &a.APIKeyHash); err != nil {
			return model.ListResult[model.App]{}, err
		}
		parsed, err := model.ParseID(id)
		if err != nil {
			return model.ListResult[model.App]{}, err
		}
		a.ID = parsed
		a.AppType = model.AppType(appType)
		a.Trusted = trusted != 0
		if origins != "" {
			a.Origins = strings.Split(origins, ",")
		}
		items = append(items, a)
	}
	total, err := db.countRows(ctx, "apps")
	if err != nil {
		return model.ListResult[model.App]{}, err
	}
	return model.ListResult[model.App]{Items: items, TotalCount: total}, rows.Err()
}

func (db *DB) DeleteApp(ctx context.Context, id model.ID) error {
	res, err := db.q(ctx).ExecContext(ctx, `DELETE FROM apps WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
