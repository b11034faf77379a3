package sql

import (
	"context"
	"database/sql"

	"github.com/filez-project/filez/pkg/errtypes"
	"github.com/filez-project/filez/pkg/model"
)

const storageQuotaColumns = `id, subject_type, subject_id, storage_location_id, quota_bytes`

func (db *DB) CreateStorageQuota(ctx context.Context, q model.StorageQuota) (model.StorageQuota, error) {
	if q.ID == model.NilID {
		q.ID = model.NewID()
	}
	_, err := db.q(ctx).ExecContext(ctx,
		`INSERT INTO storage_quotas (`+storageQuotaColumns+`) VALUES (?, ?, ?, ?, ?)`,
		q.ID.String(), string(q.SubjectType), q.SubjectID.String(), q.StorageLocationID.String(), q.QuotaBytes)
	if err != nil {
		if isUniqueViolation(err) {
			return model.StorageQuota{}, errtypes.AlreadyExists("storage quota")
		}
		return model.StorageQuota{}, err
	}
	return q, nil
}

func (db *DB) GetStorageQuota(ctx context.Context, id model.ID) (model.StorageQuota, error) {
	row := db.q(ctx).QueryRowContext(ctx, `SELECT `+storageQuotaColumns+` FROM storage_quotas WHERE id = ?`, id.String())
	var q model.StorageQuota
	var qid, subjectType, subjectID, locID string
	if err := row.Scan(&qid, &subjectType, &subjectID, &locID, &q.QuotaBytes); err != nil {
		if err == sql.ErrNoRows {
			return model.StorageQuota{}, errtypes.NotFound("storage quota")
		}
		return model.StorageQuota{}, err
	}
	q.ID, _ = model.ParseID(qid)
	q.SubjectType = model.QuotaSubjectType(subjectType)
	q.SubjectID, _ = model.ParseID(subjectID)
	q.StorageLocationID, _ = model.ParseID(locID)
	return q, nil
}

func (db *DB) ListStorageQuotas(ctx context.Context, req model.ListRequest) (model.ListResult[model.StorageQuota], error) {
	limit, offset := listBounds(req)
	rows, err := db.q(ctx).QueryContext(ctx,
		`SELECT `+storageQuotaColumns+` FROM storage_quotas ORDER BY id `+orderDir(req)+` LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return model.ListResult[model.StorageQuota]{}, err
	}
	defer rows.Close()
	var items []model.StorageQuota
	for rows.Next() {
		var q model.StorageQuota
		var qid, subjectType, subjectID, locID string
		if err := rows.Scan(&qid, &subjectType, &subjectID, &locID, &q.QuotaBytes); err != nil {
			return model.ListResult[model.StorageQuota]{}, err
		}
		q.ID, _ = model.ParseID(qid)
		q.SubjectType = model.QuotaSubjectType(subjectType)
		q.SubjectID, _ = model.ParseID(subjectID)
		q.StorageLocationID, _ = model.ParseID(locID)
		items = append(items, q)
	}
	total, err := db.countRows(ctx, "storage_quotas")
	if err != nil {
		return model.ListResult[model.StorageQuota]{}, err
	}
	return model.ListResult[model.StorageQuota]{Items: items, TotalCount: total}, rows.Err()
}

func (db *DB) DeleteStorageQuota(ctx context.Context, id model.ID) error {
	res, err := db.q(ctx).ExecContext(ctx, `DELETE FROM storage_quotas WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	return mustAffect(res)
}
