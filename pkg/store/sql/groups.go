package sql

import (
	"context"
	"database/sql"
	"time"

	"github.com/filez-project/filez/pkg/errtypes"
	"github.com/filez-project/filez/pkg/model"
)

// --- UserGroups ---

func (db *DB) CreateUserGroup(ctx context.Context, g model.UserGroup) (model.UserGroup, error) {
	if g.ID == model.NilID {
		g.ID = model.NewID()
	}
	now := time.Now().UTC()
	g.CreatedTime, g.ModifiedTime = now, now
	_, err := db.q(ctx).ExecContext(ctx,
		`INSERT INTO user_groups (id, owner_id, name, created_time, modified_time) VALUES (?, ?, ?, ?, ?)`,
		g.ID.String(), g.OwnerID.String(), g.Name, g.CreatedTime, g.ModifiedTime)
	if err != nil {
		return model.UserGroup{}, err
	}
	return g, nil
}

func (db *DB) GetUserGroup(ctx context.Context, id model.ID) (model.UserGroup, error) {
	row := db.q(ctx).QueryRowContext(ctx,
		`SELECT id, owner_id, name, created_time, modified_time FROM user_groups WHERE id = ?`, id.String())
	var g model.UserGroup
	var gid, owner string
	if err := row.Scan(&gid, &owner, &g.Name, &g.CreatedTime, &g.ModifiedTime); err != nil {
		if err == sql.ErrNoRows {
			return model.UserGroup{}, errtypes.NotFound("user group")
		}
		return model.UserGroup{}, err
	}
	g.ID, _ = model.ParseID(gid)
	g.OwnerID, _ = model.ParseID(owner)
	return g, nil
}

func (db *DB) DeleteUserGroup(ctx context.Context, id model.ID) error {
	if _, err := db.q(ctx).ExecContext(ctx, `DELETE FROM user_group_members WHERE group_id = ?`, id.String()); err != nil {
		return err
	}
	res, err := db.q(ctx).ExecContext(ctx, `DELETE FROM user_groups WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (db *DB) ListUserGroups(ctx context.Context, req model.ListRequest) (model.ListResult[model.UserGroup], error) {
	limit, offset := listBounds(req)
	rows, err := db.q(ctx).QueryContext(ctx,
		`SELECT id, owner_id, name, created_time, modified_time FROM user_groups
		 ORDER BY created_time `+orderDir(req)+` LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return model.ListResult[model.UserGroup]{}, err
	}
	defer rows.Close()
	var items []model.UserGroup
	for rows.Next() {
		var g model.UserGroup
		var gid, owner string
		if err := rows.Scan(&gid, &owner, &g.Name, &g.CreatedTime, &g.ModifiedTime); err != nil {
			return model.ListResult[model.UserGroup]{}, err
		}
		g.ID, _ = model.ParseID(gid)
		g.OwnerID, _ = model.ParseID(owner)
		items = append(items, g)
	}
	total, err := db.countRows(ctx, "user_groups")
	if err != nil {
		return model.ListResult[model.UserGroup]{}, err
	}
	return model.ListResult[model.UserGroup]{Items: items, TotalCount: total}, rows.Err()
}

func (db *DB) AddUserGroupMember(ctx context.Context, groupID, userID model.ID) error {
	_, err := db.q(ctx).ExecContext(ctx,
		`INSERT INTO user_group_members (group_id, user_id) VALUES (?, ?)`, groupID.String(), userID.String())
	if err != nil && isUniqueViolation(err) {
		return nil // already a member
	}
	return err
}

func (db *DB) RemoveUserGroupMember(ctx context.Context, groupID, userID model.ID) error {
	_, err := db.q(ctx).ExecContext(ctx,
		`DELETE FROM user_group_members WHERE group_id = ? AND user_id = ?`, groupID.String(), userID.String())
	return err
}

func (db *DB) ListUserGroupIDsForUser(ctx context.Context, userID model.ID) ([]model.ID, error) {
	rows, err := db.q(ctx).QueryContext(ctx,
		`SELECT group_id FROM user_group_members WHERE user_id = ?`, userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []model.ID
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		id, err := model.ParseID(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// --- FileGroups ---

func (db *DB) CreateFileGroup(ctx context.Context, g model.FileGroup) (model.FileGroup, error) {
	if g.ID == model.NilID {
		g.ID = model.NewID()
	}
	now := time.Now().UTC()
	g.CreatedTime, g.ModifiedTime = now, now
	nameGlob, mimePrefix, tagKey, tagValue := filterParts(g.Filter)
	_, err := db.q(ctx).ExecContext(ctx,
		`INSERT INTO file_groups (id, owner_id, name, group_type, filter_name_glob, filter_mime_prefix, filter_tag_key, filter_tag_value, created_time, modified_time)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID.String(), g.OwnerID.String(), g.Name, string(g.GroupType), nameGlob, mimePrefix, tagKey, tagValue, g.CreatedTime, g.ModifiedTime)
	if err != nil {
		return model.FileGroup{}, err
	}
	return g, nil
}

func (db *DB) UpdateFileGroup(ctx context.Context, g model.FileGroup) (model.FileGroup, error) {
	g.ModifiedTime = time.Now().UTC()
	nameGlob, mimePrefix, tagKey, tagValue := filterParts(g.Filter)
	res, err := db.q(ctx).ExecContext(ctx,
		`UPDATE file_groups SET name = ?, group_type = ?, filter_name_glob = ?, filter_mime_prefix = ?,
		 filter_tag_key = ?, filter_tag_value = ?, modified_time = ? WHERE id = ?`,
		g.Name, string(g.GroupType), nameGlob, mimePrefix, tagKey, tagValue, g.ModifiedTime, g.ID.String())
	if err != nil {
		return model.FileGroup{}, err
	}
	if err := mustAffect(res); err != nil {
		return model.FileGroup{}, err
	}
	return g, nil
}

func filterParts(f *model.DynamicFilter) (nameGlob, mimePrefix, tagKey, tagValue *string) {
	if f == nil {
		return nil, nil, nil, nil
	}
	return ptr(f.NameGlob), ptr(f.MimePrefix), ptr(f.TagKey), ptr(f.TagValue)
}

func ptr(s string) *string { return &s }

func (db *DB) scanFileGroup(row *sql.Row) (model.FileGroup, error) {
	var g model.FileGroup
	var id, owner, groupType string
	var nameGlob, mimePrefix, tagKey, tagValue sql.NullString
	if err := row.Scan(&id, &owner, &g.Name, &groupType, &nameGlob, &mimePrefix, &tagKey, &tagValue, &g.CreatedTime, &g.ModifiedTime); err != nil {
		if err == sql.ErrNoRows {
			return model.FileGroup{}, errtypes.NotFound("file group")
		}
		return model.FileGroup{}, err
	}
	g.ID, _ = model.ParseID(id)
	g.OwnerID, _ = model.ParseID(owner)
	g.GroupType = model.FileGroupType(groupType)
	if g.GroupType == model.FileGroupDynamic {
		g.Filter = &model.DynamicFilter{
			NameGlob: nameGlob.String, MimePrefix: mimePrefix.String,
			TagKey: tagKey.String, TagValue: tagValue.String,
		}
	}
	return g, nil
}

const fileGroupColumns = `id, owner_id, name, group_type, filter_name_glob, filter_mime_prefix, filter_tag_key, filter_tag_value, created_time, modified_time`

func (db *DB) GetFileGroup(ctx context.Context, id model.ID) (model.FileGroup, error) {
	row := db.q(ctx).QueryRowContext(ctx, `SELECT `+fileGroupColumns+` FROM file_groups WHERE id = ?`, id.String())
	return db.scanFileGroup(row)
}

func (db *DB) DeleteFileGroup(ctx context.Context, id model.ID) error {
	if _, err := db.q(ctx).ExecContext(ctx, `DELETE FROM file_group_members WHERE group_id = ?`, id.String()); err != nil {
		return err
	}
	res, err := db.q(ctx).ExecContext(ctx, `DELETE FROM file_groups WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (db *DB) ListFileGroups(ctx context.Context, req model.ListRequest) (model.ListResult[model.FileGroup], error) {
	limit, offset := listBounds(req)
	rows, err := db.q(ctx).QueryContext(ctx,
		`SELECT `+fileGroupColumns+` FROM file_groups ORDER BY created_time `+orderDir(req)+` LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return model.ListResult[model.FileGroup]{}, err
	}
	defer rows.Close()
	var items []model.FileGroup
	for rows.Next() {
		var g model.FileGroup
		var id, owner, groupType string
		var nameGlob, mimePrefix, tagKey, tagValue sql.NullString
		if err := rows.Scan(&id, &owner, &g.Name, &groupType, &nameGlob, &mimePrefix, &tagKey, &tagValue, &g.CreatedTime, &g.ModifiedTime); err != nil {
			return model.ListResult[model.FileGroup]{}, err
		}
		g.ID, _ = model.ParseID(id)
		g.OwnerID, _ = model.ParseID(owner)
		g.GroupType = model.FileGroupType(groupType)
		if g.GroupType == model.FileGroupDynamic {
			g.Filter = &model.DynamicFilter{NameGlob: nameGlob.String, MimePrefix: mimePrefix.String, TagKey: tagKey.String, TagValue: tagValue.String}
		}
		items = append(items, g)
	}
	total, err := db.countRows(ctx, "file_groups")
	if err != nil {
		return model.ListResult[model.FileGroup]{}, err
	}
	return model.ListResult[model.FileGroup]{Items: items, TotalCount: total}, rows.Err()
}

func (db *DB) AddFileGroupMember(ctx context.Context, groupID, fileID model.ID) error {
	_, err := db.q(ctx).ExecContext(ctx,
		`INSERT INTO file_group_members (group_id, file_id) VALUES (?, ?)`, groupID.String(), fileID.String())
	if err != nil && isUniqueViolation(err) {
		return nil
	}
	return err
}

func (db *DB) RemoveFileGroupMember(ctx context.Context, groupID, fileID model.ID) error {
	_, err := db.q(ctx).ExecContext(ctx,
		`DELETE FROM file_group_members WHERE group_id = ? AND file_id = ?`, groupID.String(), fileID.String())
	return err
}

func (db *DB) ListFileGroupMembers(ctx context.Context, groupID model.ID) ([]model.ID, error) {
	rows, err := db.q(ctx).QueryContext(ctx, `SELECT file_id FROM file_group_members WHERE group_id = ?`, groupID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []model.ID
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		id, err := model.ParseID(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
