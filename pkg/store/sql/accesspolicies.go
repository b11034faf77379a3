package sql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/filez-project/filez/pkg/errtypes"
	"github.com/filez-project/filez/pkg/model"
)

const accessPolicyColumns = `id, name, owner_id, subject_type, subject_id, resource_type, resource_id, actions, effect`

func (db *DB) CreateAccessPolicy(ctx context.Context, p model.AccessPolicy) (model.AccessPolicy, error) {
	if p.ID == model.NilID {
		p.ID = model.NewID()
	}
	_, err := db.q(ctx).ExecContext(ctx,
		`INSERT INTO access_policies (`+accessPolicyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID.String(), p.Name, p.OwnerID.String(), string(p.SubjectType), idPtrString(p.SubjectID),
		string(p.ResourceType), idPtrString(p.ResourceID), joinActions(p.Actions), string(p.Effect))
	if err != nil {
		return model.AccessPolicy{}, err
	}
	return p, nil
}

func idPtrString(id *model.ID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func joinActions(actions []model.Action) string {
	parts := make([]string, len(actions))
	for i, a := range actions {
		parts[i] = string(a)
	}
	return strings.Join(parts, ",")
}

func splitActions(s string) []model.Action {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	actions := make([]model.Action, len(parts))
	for i, p := range parts {
		actions[i] = model.Action(p)
	}
	return actions
}

func scanAccessPolicy(row *sql.Row) (model.AccessPolicy, error) {
	var p model.AccessPolicy
	var id, owner, subjectType, resourceType, actions, effect string
	var subjectID, resourceID sql.NullString
	if err := row.Scan(&id, &p.Name, &owner, &subjectType, &subjectID, &resourceType, &resourceID, &actions, &effect); err != nil {
		if err == sql.ErrNoRows {
			return model.AccessPolicy{}, errtypes.NotFound("access policy")
		}
		return model.AccessPolicy{}, err
	}
	return hydrateAccessPolicy(id, p.Name, owner, subjectType, subjectID, resourceType, resourceID, actions, effect)
}

func hydrateAccessPolicy(id, name, owner, subjectType string, subjectID sql.NullString, resourceType string, resourceID sql.NullString, actions, effect string) (model.AccessPolicy, error) {
	p := model.AccessPolicy{Name: name, SubjectType: model.SubjectType(subjectType), ResourceType: model.ResourceType(resourceType), Actions: splitActions(actions), Effect: model.Effect(effect)}
	var err error
	if p.ID, err = model.ParseID(id); err != nil {
		return p, err
	}
	if p.OwnerID, err = model.ParseID(owner); err != nil {
		return p, err
	}
	if subjectID.Valid {
		parsed, err := model.ParseID(subjectID.String)
		if err != nil {
			return p, err
		}
		p.SubjectID = &parsed
	}
	if resourceID.Valid {
		parsed, err := model.ParseID(resourceID.String)
		if err != nil {
			return p, err
		}
		p.ResourceID = &parsed
	}
	return p, nil
}

func (db *DB) GetAccessPolicy(ctx context.Context, id model.ID) (model.AccessPolicy, error) {
	row := db.q(ctx).QueryRowContext(ctx, `SELECT `+accessPolicyColumns+` FROM access_policies WHERE id = ?`, id.String())
	return scanAccessPolicy(row)
}

func (db *DB) DeleteAccessPolicy(ctx context.Context, id model.ID) error {
	res, err := db.q(ctx).ExecContext(ctx, `DELETE FROM access_policies WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (db *DB) ListAccessPolicies(ctx context.Context, req model.ListRequest) (model.ListResult[model.AccessPolicy], error) {
	limit, offset := listBounds(req)
	rows, err := db.q(ctx).QueryContext(ctx,
		`SELECT `+accessPolicyColumns+` FROM access_policies ORDER BY id `+orderDir(req)+` LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return model.ListResult[model.AccessPolicy]{}, err
	}
	defer rows.Close()
	var items []model.AccessPolicy
	for rows.Next() {
		var id, name, owner, subjectType, resourceType, actions, effect string
		var subjectID, resourceID sql.NullString
		if err := rows.Scan(&id, &name, &owner, &subjectType, &subjectID, &resourceType, &resourceID, &actions, &effect); err != nil {
			return model.ListResult[model.AccessPolicy]{}, err
		}
		p, err := hydrateAccessPolicy(id, name, owner, subjectType, subjectID, resourceType, resourceID, actions, effect)
		if err != nil {
			return model.ListResult[model.AccessPolicy]{}, err
		}
		items = append(items, p)
	}
	total, err := db.countRows(ctx, "access_policies")
	if err != nil {
		return model.ListResult[model.AccessPolicy]{}, err
	}
	return model.ListResult[model.AccessPolicy]{Items: items, TotalCount: total}, rows.Err()
}

func (db *DB) DeleteAccessPoliciesForResource(ctx context.Context, resourceType model.ResourceType, resourceID model.ID) error {
	_, err := db.q(ctx).ExecContext(ctx,
		`DELETE FROM access_policies WHERE resource_type = ? AND resource_id = ?`, string(resourceType), resourceID.String())
	return err
}

// FetchApplicablePolicies implements accesspolicy.PolicyFetcher: one query
// regardless of len(ids), returning every policy whose resource_id is
// either NULL (type-level) or one of ids.
func (db *DB) FetchApplicablePolicies(ctx context.Context, resourceType model.ResourceType, ids []model.ID) ([]model.AccessPolicy, error) {
	query := `SELECT ` + accessPolicyColumns + ` FROM access_policies WHERE resource_type = ? AND (resource_id IS NULL`
	args := []any{string(resourceType)}
	if len(ids) > 0 {
		placeholders := make([]string, len(ids))
		for i, id := range ids {
			placeholders[i] = "?"
			args = append(args, id.String())
		}
		query += fmt.Sprintf(" OR resource_id IN (%s)", strings.Join(placeholders, ","))
	}
	query += ")"

	rows, err := db.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []model.AccessPolicy
	for rows.Next() {
		var id, name, owner, subjectType, rt, actions, effect string
		var subjectID, resourceID sql.NullString
		if err := rows.Scan(&id, &name, &owner, &subjectType, &subjectID, &rt, &resourceID, &actions, &effect); err != nil {
			return nil, err
		}
		p, err := hydrateAccessPolicy(id, name, owner, subjectType, subjectID, rt, resourceID, actions, effect)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// ownerTable returns the table/column pair that stores owner_id for a
// ResourceType, or ok=false when the resource type carries no ownership
// (FileVersion inherits its File's ownership and is never checked
// directly; User, App, StorageLocation, StorageQuota, Tag have no owner).
func ownerTable(rt model.ResourceType) (table string, ok bool) {
	switch rt {
	case model.ResourceFile:
		return "files", true
	case model.ResourceFileGroup:
		return "file_groups", true
	case model.ResourceUserGroup:
		return "user_groups", true
	case model.ResourceAccessPolicy:
		return "access_policies", true
	case model.ResourceJob:
		return "jobs", true
	default:
		return "", false
	}
}

func (db *DB) FetchOwners(ctx context.Context, resourceType model.ResourceType, ids []model.ID) (map[model.ID]model.ID, error) {
	table, ok := ownerTable(resourceType)
	result := map[model.ID]model.ID{}
	if !ok || len(ids) == 0 {
		return result, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id.String()
	}
	query := fmt.Sprintf(`SELECT id, owner_id FROM %s WHERE id IN (%s)`, table, strings.Join(placeholders, ","))
	rows, err := db.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var idStr, ownerStr string
		if err := rows.Scan(&idStr, &ownerStr); err != nil {
			return nil, err
		}
		id, err := model.ParseID(idStr)
		if err != nil {
			return nil, err
		}
		owner, err := model.ParseID(ownerStr)
		if err != nil {
			return nil, err
		}
		result[id] = owner
	}
	return result, rows.Err()
}

func (db *DB) FetchUserGroupIDs(ctx context.Context, userID model.ID) ([]model.ID, error) {
	return db.ListUserGroupIDsForUser(ctx, userID)
}
