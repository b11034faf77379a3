package sql

// schemaFor returns the DDL for a fresh database. IDs are stored as
// CHAR(36) uuid strings and timestamps as DATETIME(6)/TEXT so the same
// logical schema works unmodified against both drivers; the one place
// that differs (table engine) is appended per dialect.
func schemaFor(d dialect) []string {
	engine := ""
	if d.name() == "mysql" {
		engine = " ENGINE=InnoDB"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id CHAR(36) PRIMARY KEY,
			external_id VARCHAR(512) NULL,
			display_name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL,
			user_type VARCHAR(32) NOT NULL,
			created_time DATETIME(6) NOT NULL,
			modified_time DATETIME(6) NOT NULL,
			UNIQUE (external_id)
		)` + engine,
		`CREATE TABLE IF NOT EXISTS apps (
			id CHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			origins TEXT NOT NULL,
			trusted TINYINT(1) NOT NULL,
			app_type VARCHAR(32) NOT NULL,
			api_key_hash VARCHAR(255) NULL
		)` + engine,
		`CREATE TABLE IF NOT EXISTS user_groups (
			id CHAR(36) PRIMARY KEY,
			owner_id CHAR(36) NOT NULL,
			name VARCHAR(255) NOT NULL,
			created_time DATETIME(6) NOT NULL,
			modified_time DATETIME(6) NOT NULL
		)` + engine,
		`CREATE TABLE IF NOT EXISTS user_group_members (
			group_id CHAR(36) NOT NULL,
			user_id CHAR(36) NOT NULL,
			PRIMARY KEY (group_id, user_id)
		)` + engine,
		`CREATE TABLE IF NOT EXISTS file_groups (
			id CHAR(36) PRIMARY KEY,
			owner_id CHAR(36) NOT NULL,
			name VARCHAR(255) NOT NULL,
			group_type VARCHAR(32) NOT NULL,
			filter_name_glob VARCHAR(255) NULL,
			filter_mime_prefix VARCHAR(255) NULL,
			filter_tag_key VARCHAR(255) NULL,
			filter_tag_value VARCHAR(255) NULL,
			created_time DATETIME(6) NOT NULL,
			modified_time DATETIME(6) NOT NULL
		)` + engine,
		`CREATE TABLE IF NOT EXISTS file_group_members (
			group_id CHAR(36) NOT NULL,
			file_id CHAR(36) NOT NULL,
			PRIMARY KEY (group_id, file_id)
		)` + engine,
		`CREATE TABLE IF NOT EXISTS files (
			id CHAR(36) PRIMARY KEY,
			owner_id CHAR(36) NOT NULL,
			name VARCHAR(1024) NOT NULL,
			mime_type VARCHAR(255) NOT NULL,
			created_time DATETIME(6) NOT NULL,
			modified_time DATETIME(6) NOT NULL
		)` + engine,
		`CREATE TABLE IF NOT EXISTS file_versions (
			id CHAR(36) PRIMARY KEY,
			file_id CHAR(36) NOT NULL,
			app_id CHAR(36) NOT NULL,
			version_number INT NOT NULL,
			storage_location_id CHAR(36) NOT NULL,
			storage_quota_id CHAR(36) NOT NULL,
			size_bytes BIGINT NOT NULL,
			content_expected_sha256 CHAR(64) NULL,
			content_valid TINYINT(1) NOT NULL,
			created_time DATETIME(6) NOT NULL,
			stored_bytes BIGINT NOT NULL,
			upload_state VARCHAR(32) NOT NULL,
			UNIQUE (file_id, app_id, version_number)
		)` + engine,
		`CREATE TABLE IF NOT EXISTS tags (
			tag_key VARCHAR(255) NOT NULL,
			tag_value VARCHAR(255) NOT NULL,
			PRIMARY KEY (tag_key, tag_value)
		)` + engine,
		`CREATE TABLE IF NOT EXISTS file_tags (
			file_id CHAR(36) NOT NULL,
			tag_key VARCHAR(255) NOT NULL,
			tag_value VARCHAR(255) NOT NULL,
			created_by_user CHAR(36) NOT NULL,
			created_time DATETIME(6) NOT NULL,
			PRIMARY KEY (file_id, tag_key, tag_value)
		)` + engine,
		`CREATE TABLE IF NOT EXISTS storage_locations (
			id CHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			is_default TINYINT(1) NOT NULL,
			status VARCHAR(32) NOT NULL,
			provider_kind VARCHAR(32) NOT NULL,
			config_json TEXT NOT NULL
		)` + engine,
		`CREATE TABLE IF NOT EXISTS storage_quotas (
			id CHAR(36) PRIMARY KEY,
			subject_type VARCHAR(32) NOT NULL,
			subject_id CHAR(36) NOT NULL,
			storage_location_id CHAR(36) NOT NULL,
			quota_bytes BIGINT NOT NULL,
			UNIQUE (subject_type, subject_id, storage_location_id)
		)` + engine,
		`CREATE TABLE IF NOT EXISTS access_policies (
			id CHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			owner_id CHAR(36) NOT NULL,
			subject_type VARCHAR(32) NOT NULL,
			subject_id CHAR(36) NULL,
			resource_type VARCHAR(64) NOT NULL,
			resource_id CHAR(36) NULL,
			actions TEXT NOT NULL,
			effect VARCHAR(16) NOT NULL
		)` + engine,
		`CREATE INDEX IF NOT EXISTS idx_access_policies_lookup ON access_policies (resource_type, resource_id)`,
		`CREATE TABLE IF NOT EXISTS jobs (
			id CHAR(36) PRIMARY KEY,
			owner_id CHAR(36) NOT NULL,
			app_id CHAR(36) NOT NULL,
			name VARCHAR(255) NOT NULL,
			execution_details BLOB NOT NULL,
			persistence VARCHAR(16) NOT NULL,
			status VARCHAR(16) NOT NULL,
			deadline_time DATETIME(6) NULL,
			picked_up_by_runtime_instance VARCHAR(255) NULL,
			picked_up_at DATETIME(6) NULL,
			created_time DATETIME(6) NOT NULL,
			modified_time DATETIME(6) NOT NULL
		)` + engine,
		`CREATE INDEX IF NOT EXISTS idx_jobs_pickup ON jobs (app_id, status)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id CHAR(36) PRIMARY KEY,
			user_id CHAR(36) NOT NULL,
			app_id CHAR(36) NOT NULL,
			created_time DATETIME(6) NOT NULL,
			last_activity_time DATETIME(6) NOT NULL,
			timeout_seconds INT NOT NULL
		)` + engine,
	}
	return stmts
}
