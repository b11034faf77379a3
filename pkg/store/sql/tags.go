package sql

import (
	"context"
	"time"

	"github.com/filez-project/filez/pkg/model"
)

// InternTag ensures a (key, value) pair exists in the interning table. A
// duplicate insert is not an error, matching how reva's share manager
// treats "already exists" races on lookup tables as a no-op.
func (db *DB) InternTag(ctx context.Context, tag model.Tag) error {
	_, err := db.q(ctx).ExecContext(ctx, `INSERT INTO tags (tag_key, tag_value) VALUES (?, ?)`, tag.Key, tag.Value)
	if err != nil && isUniqueViolation(err) {
		return nil
	}
	return err
}

func (db *DB) AttachTag(ctx context.Context, ft model.FileTag) error {
	if err := db.InternTag(ctx, model.Tag{Key: ft.Key, Value: ft.Value}); err != nil {
		return err
	}
	if ft.CreatedTime.IsZero() {
		ft.CreatedTime = time.Now().UTC()
	}
	_, err := db.q(ctx).ExecContext(ctx,
		`INSERT INTO file_tags (file_id, tag_key, tag_value, created_by_user, created_time) VALUES (?, ?, ?, ?, ?)`,
		ft.FileID.String(), ft.Key, ft.Value, ft.CreatedByUser.String(), ft.CreatedTime)
	if err != nil && isUniqueViolation(err) {
		return nil
	}
	return err
}

func (db *DB) DetachTag(ctx context.Context, fileID model.ID, key, value string) error {
	_, err := db.q(ctx).ExecContext(ctx,
		`DELETE FROM file_tags WHERE file_id = ? AND tag_key = ? AND tag_value = ?`, fileID.String(), key, value)
	return err
}

func (db *DB) ListTagsForFile(ctx context.Context, fileID model.ID) ([]model.Tag, error) {
	rows, err := db.q(ctx).QueryContext(ctx,
		`SELECT tag_key, tag_value FROM file_tags WHERE file_id = ?`, fileID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tags []model.Tag
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.Key, &t.Value); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}
