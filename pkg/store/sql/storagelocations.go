package sql

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/filez-project/filez/pkg/errtypes"
	"github.com/filez-project/filez/pkg/model"
)

const storageLocationColumns = `id, name, is_default, status, provider_kind, config_json`

func (db *DB) CreateStorageLocation(ctx context.Context, l model.StorageLocation) (model.StorageLocation, error) {
	if l.ID == model.NilID {
		l.ID = model.NewID()
	}
	configJSON, err := marshalProviderConfig(l.Config)
	if err != nil {
		return model.StorageLocation{}, err
	}
	_, err = db.q(ctx).ExecContext(ctx,
		`INSERT INTO storage_locations (`+storageLocationColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		l.ID.String(), l.Name, boolInt(l.Default), string(l.Status), string(l.Config.Kind), configJSON)
	if err != nil {
		return model.StorageLocation{}, err
	}
	return l, nil
}

func marshalProviderConfig(c model.ProviderConfig) (string, error) {
	var payload any
	switch c.Kind {
	case model.ProviderMinio:
		payload = c.Minio
	case model.ProviderPosix:
		payload = c.Posix
	}
	b, err := json.Marshal(payload)
	return string(b), err
}

func unmarshalProviderConfig(kind model.ProviderKind, raw string) (model.ProviderConfig, error) {
	c := model.ProviderConfig{Kind: kind}
	switch kind {
	case model.ProviderMinio:
		var m model.MinioConfig
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return c, err
		}
		c.Minio = &m
	case model.ProviderPosix:
		var p model.PosixConfig
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return c, err
		}
		c.Posix = &p
	}
	return c, nil
}

func scanStorageLocation(row *sql.Row) (model.StorageLocation, error) {
	var l model.StorageLocation
	var id, status, kind, configJSON string
	var isDefault int
	if err := row.Scan(&id, &l.Name, &isDefault, &status, &kind, &configJSON); err != nil {
		if err == sql.ErrNoRows {
			return model.StorageLocation{}, errtypes.NotFound("storage location")
		}
		return model.StorageLocation{}, err
	}
	l.ID, _ = model.ParseID(id)
	l.Default = isDefault != 0
	l.Status = model.StorageLocationStatus(status)
	cfg, err := unmarshalProviderConfig(model.ProviderKind(kind), configJSON)
	if err != nil {
		return model.StorageLocation{}, err
	}
	l.Config = cfg
	return l, nil
}

func (db *DB) GetStorageLocation(ctx context.Context, id model.ID) (model.StorageLocation, error) {
	row := db.q(ctx).QueryRowContext(ctx, `SELECT `+storageLocationColumns+` FROM storage_locations WHERE id = ?`, id.String())
	return scanStorageLocation(row)
}

func (db *DB) GetDefaultStorageLocation(ctx context.Context) (model.StorageLocation, error) {
	row := db.q(ctx).QueryRowContext(ctx, `SELECT `+storageLocationColumns+` FROM storage_locations WHERE is_default = 1 LIMIT 1`)
	return scanStorageLocation(row)
}

func (db *DB) ListStorageLocations(ctx context.Context, req model.ListRequest) (model.ListResult[model.StorageLocation], error) {
	limit, offset := listBounds(req)
	rows, err := db.q(ctx).QueryContext(ctx,
		`SELECT `+storageLocationColumns+` FROM storage_locations ORDER BY name `+orderDir(req)+` LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return model.ListResult[model.StorageLocation]{}, err
	}
	defer rows.Close()
	var items []model.StorageLocation
	for rows.Next() {
		var l model.StorageLocation
		var id, status, kind, configJSON string
		var isDefault int
		if err := rows.Scan(&id, &l.Name, &isDefault, &status, &kind, &configJSON); err != nil {
			return model.ListResult[model.StorageLocation]{}, err
		}
		l.ID, _ = model.ParseID(id)
		l.Default = isDefault != 0
		l.Status = model.StorageLocationStatus(status)
		cfg, err := unmarshalProviderConfig(model.ProviderKind(kind), configJSON)
		if err != nil {
			return model.ListResult[model.StorageLocation]{}, err
		}
		l.Config = cfg
		items = append(items, l)
	}
	total, err := db.countRows(ctx, "storage_locations")
	if err != nil {
		return model.ListResult[model.StorageLocation]{}, err
	}
	return model.ListResult[model.StorageLocation]{Items: items, TotalCount: total}, rows.Err()
}

func (db *DB) SetStorageLocationStatus(ctx context.Context, id model.ID, status model.StorageLocationStatus) error {
	res, err := db.q(ctx).ExecContext(ctx, `UPDATE storage_locations SET status = ? WHERE id = ?`, string(status), id.String())
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (db *DB) DeleteStorageLocation(ctx context.Context, id model.ID) error {
	res, err := db.q(ctx).ExecContext(ctx, `DELETE FROM storage_locations WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (db *DB) CountFileVersionsForLocation(ctx context.Context, id model.ID) (int, error) {
	var n int
	err := db.q(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM file_versions WHERE storage_location_id = ?`, id.String()).Scan(&n)
	return n, err
}
