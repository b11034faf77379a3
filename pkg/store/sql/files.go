package sql

import (
	"context"
	"database/sql"
	"time"

	"github.com/filez-project/filez/pkg/errtypes"
	"github.com/filez-project/filez/pkg/model"
)

func (db *DB) CreateFile(ctx context.Context, f model.File) (model.File, error) {
	if f.ID == model.NilID {
		f.ID = model.NewID()
	}
	now := time.Now().UTC()
	f.CreatedTime, f.ModifiedTime = now, now
	_, err := db.q(ctx).ExecContext(ctx,
		`INSERT INTO files (id, owner_id, name, mime_type, created_time, modified_time) VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID.String(), f.OwnerID.String(), f.Name, f.MimeType, f.CreatedTime, f.ModifiedTime)
	if err != nil {
		return model.File{}, err
	}
	return f, nil
}

const fileColumns = `id, owner_id, name, mime_type, created_time, modified_time`

func scanFile(row *sql.Row) (model.File, error) {
	var f model.File
	var id, owner string
	if err := row.Scan(&id, &owner, &f.Name, &f.MimeType, &f.CreatedTime, &f.ModifiedTime); err != nil {
		if err == sql.ErrNoRows {
			return model.File{}, errtypes.NotFound("file")
		}
		return model.File{}, err
	}
	f.ID, _ = model.ParseID(id)
	f.OwnerID, _ = model.ParseID(owner)
	return f, nil
}

func (db *DB) GetFile(ctx context.Context, id model.ID) (model.File, error) {
	row := db.q(ctx).QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE id = ?`, id.String())
	return scanFile(row)
}

func (db *DB) DeleteFile(ctx context.Context, id model.ID) error {
	res, err := db.q(ctx).ExecContext(ctx, `DELETE FROM files WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (db *DB) ListFiles(ctx context.Context, ownerID model.ID, req model.ListRequest) (model.ListResult[model.File], error) {
	limit, offset := listBounds(req)
	rows, err := db.q(ctx).QueryContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE owner_id = ? ORDER BY created_time `+orderDir(req)+` LIMIT ? OFFSET ?`,
		ownerID.String(), limit, offset)
	if err != nil {
		return model.ListResult[model.File]{}, err
	}
	defer rows.Close()
	var items []model.File
	for rows.Next() {
		var f model.File
		var id, owner string
		if err := rows.Scan(&id, &owner, &f.Name, &f.MimeType, &f.CreatedTime, &f.ModifiedTime); err != nil {
			return model.ListResult[model.File]{}, err
		}
		f.ID, _ = model.ParseID(id)
		f.OwnerID, _ = model.ParseID(owner)
		items = append(items, f)
	}
	var total int
	if err := db.q(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM files WHERE owner_id = ?`, ownerID.String()).Scan(&total); err != nil {
		return model.ListResult[model.File]{}, err
	}
	return model.ListResult[model.File]{Items: items, TotalCount: total}, rows.Err()
}

func (db *DB) ListAllFiles(ctx context.Context) ([]model.File, error) {
	rows, err := db.q(ctx).QueryContext(ctx, `SELECT `+fileColumns+` FROM files`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []model.File
	for rows.Next() {
		var f model.File
		var id, owner string
		if err := rows.Scan(&id, &owner, &f.Name, &f.MimeType, &f.CreatedTime, &f.ModifiedTime); err != nil {
			return nil, err
		}
		f.ID, _ = model.ParseID(id)
		f.OwnerID, _ = model.ParseID(owner)
		items = append(items, f)
	}
	return items, rows.Err()
}
