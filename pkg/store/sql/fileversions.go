package sql

import (
	"context"
	"database/sql"
	"time"

	"github.com/filez-project/filez/pkg/errtypes"
	"github.com/filez-project/filez/pkg/model"
)

const fileVersionColumns = `id, file_id, app_id, version_number, storage_location_id, storage_quota_id,
	size_bytes, content_expected_sha256, content_valid, created_time, stored_bytes, upload_state`

func (db *DB) CreateFileVersion(ctx context.Context, v model.FileVersion) (model.FileVersion, error) {
	if v.ID == model.NilID {
		v.ID = model.NewID()
	}
	v.CreatedTime = time.Now().UTC()
	_, err := db.q(ctx).ExecContext(ctx,
		`INSERT INTO file_versions (`+fileVersionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID.String(), v.FileID.String(), v.AppID.String(), v.VersionNumber, v.StorageLocationID.String(), v.StorageQuotaID.String(),
		v.SizeBytes, v.ContentExpectedSHA256, boolInt(v.ContentValid), v.CreatedTime, v.StoredBytes, string(v.UploadState))
	if err != nil {
		if isUniqueViolation(err) {
			return model.FileVersion{}, errtypes.AlreadyExists("file version")
		}
		return model.FileVersion{}, err
	}
	return v, nil
}

func scanFileVersion(row *sql.Row) (model.FileVersion, error) {
	var v model.FileVersion
	var id, fileID, appID, locID, quotaID, uploadState string
	var contentValid int
	if err := row.Scan(&id, &fileID, &appID, &v.VersionNumber, &locID, &quotaID,
		&v.SizeBytes, &v.ContentExpectedSHA256, &contentValid, &v.CreatedTime, &v.StoredBytes, &uploadState); err != nil {
		if err == sql.ErrNoRows {
			return model.FileVersion{}, errtypes.NotFound("file version")
		}
		return model.FileVersion{}, err
	}
	v.ID, _ = model.ParseID(id)
	v.FileID, _ = model.ParseID(fileID)
	v.AppID, _ = model.ParseID(appID)
	v.StorageLocationID, _ = model.ParseID(locID)
	v.StorageQuotaID, _ = model.ParseID(quotaID)
	v.ContentValid = contentValid != 0
	v.UploadState = model.UploadState(uploadState)
	return v, nil
}

func (db *DB) GetFileVersion(ctx context.Context, id model.ID) (model.FileVersion, error) {
	row := db.q(ctx).QueryRowContext(ctx, `SELECT `+fileVersionColumns+` FROM file_versions WHERE id = ?`, id.String())
	return scanFileVersion(row)
}

func (db *DB) GetFileVersionByNumber(ctx context.Context, fileID, appID model.ID, versionNumber int) (model.FileVersion, error) {
	row := db.q(ctx).QueryRowContext(ctx,
		`SELECT `+fileVersionColumns+` FROM file_versions WHERE file_id = ? AND app_id = ? AND version_number = ?`,
		fileID.String(), appID.String(), versionNumber)
	return scanFileVersion(row)
}

func (db *DB) GetLatestValidFileVersion(ctx context.Context, fileID, appID model.ID) (model.FileVersion, error) {
	row := db.q(ctx).QueryRowContext(ctx,
		`SELECT `+fileVersionColumns+` FROM file_versions
		 WHERE file_id = ? AND app_id = ? AND content_valid = 1
		 ORDER BY version_number DESC LIMIT 1`, fileID.String(), appID.String())
	return scanFileVersion(row)
}

func (db *DB) MaxVersionNumber(ctx context.Context, fileID, appID model.ID) (int, error) {
	var max sql.NullInt64
	err := db.q(ctx).QueryRowContext(ctx,
		`SELECT MAX(version_number) FROM file_versions WHERE file_id = ? AND app_id = ?`,
		fileID.String(), appID.String()).Scan(&max)
	if err != nil {
		return 0, err
	}
	return int(max.Int64), nil
}

func (db *DB) ListFileVersions(ctx context.Context, fileID model.ID) ([]model.FileVersion, error) {
	rows, err := db.q(ctx).QueryContext(ctx,
		`SELECT `+fileVersionColumns+` FROM file_versions WHERE file_id = ? ORDER BY app_id, version_number`, fileID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []model.FileVersion
	for rows.Next() {
		var v model.FileVersion
		var id, fID, appID, locID, quotaID, uploadState string
		var contentValid int
		if err := rows.Scan(&id, &fID, &appID, &v.VersionNumber, &locID, &quotaID,
			&v.SizeBytes, &v.ContentExpectedSHA256, &contentValid, &v.CreatedTime, &v.StoredBytes, &uploadState); err != nil {
			return nil, err
		}
		v.ID, _ = model.ParseID(id)
		v.FileID, _ = model.ParseID(fID)
		v.AppID, _ = model.ParseID(appID)
		v.StorageLocationID, _ = model.ParseID(locID)
		v.StorageQuotaID, _ = model.ParseID(quotaID)
		v.ContentValid = contentValid != 0
		v.UploadState = model.UploadState(uploadState)
		items = append(items, v)
	}
	return items, rows.Err()
}

func (db *DB) UpdateFileVersionUpload(ctx context.Context, v model.FileVersion) error {
	res, err := db.q(ctx).ExecContext(ctx,
		`UPDATE file_versions SET stored_bytes = ?, upload_state = ?, content_valid = ?, size_bytes = ? WHERE id = ?`,
		v.StoredBytes, string(v.UploadState), boolInt(v.ContentValid), v.SizeBytes, v.ID.String())
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (db *DB) DeleteFileVersionsForFile(ctx context.Context, fileID model.ID) ([]model.FileVersion, error) {
	versions, err := db.ListFileVersions(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if _, err := db.q(ctx).ExecContext(ctx, `DELETE FROM file_versions WHERE file_id = ?`, fileID.String()); err != nil {
		return nil, err
	}
	return versions, nil
}

func (db *DB) SumSizeForQuota(ctx context.Context, quotaID model.ID) (int64, error) {
	var sum sql.NullInt64
	err := db.q(ctx).QueryRowContext(ctx,
		`SELECT SUM(size_bytes) FROM file_versions WHERE storage_quota_id = ? AND upload_state = ?`,
		quotaID.String(), string(model.UploadCommitted)).Scan(&sum)
	if err != nil {
		return 0, err
	}
	return sum.Int64, nil
}
