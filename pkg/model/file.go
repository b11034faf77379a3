package model

import "time"

// File is the owning record for a sequence of FileVersions. Exactly one
// current FileVersion exists per (app_id, version_number) pair, dense
// starting at 1.
type File struct {
	ID           ID
	OwnerID      ID
	Name         string
	MimeType     string
	CreatedTime  time.Time
	ModifiedTime time.Time
}

// FileVersion is one uploaded revision of a File, scoped to the App that
// created it. Filez itself owns version 1 of every file.
type FileVersion struct {
	ID                    ID
	FileID                ID
	AppID                 ID
	VersionNumber         int
	StorageLocationID     ID
	StorageQuotaID        ID
	SizeBytes             int64
	ContentExpectedSHA256 *string
	ContentValid          bool
	CreatedTime           time.Time

	// StoredBytes and UploadState are the resumable-upload state machine's
	// working fields (spec §4.6); they are not part of the original data
	// model table but are persisted alongside the version row.
	StoredBytes int64
	UploadState UploadState
}

// UploadState is the resumable upload protocol's state machine (spec §4.6).
type UploadState string

const (
	UploadEmpty      UploadState = "Empty"
	UploadInProgress UploadState = "Uploading"
	UploadCommitted  UploadState = "Committed"
	UploadFailed     UploadState = "Failed"
)

// Tag is an interned (key, value) pair, attached to files via a join.
type Tag struct {
	Key   string
	Value string
}

// FileTag is the join row recording who attached a Tag to a File and when.
type FileTag struct {
	FileID        ID
	Key           string
	Value         string
	CreatedByUser ID
	CreatedTime   time.Time
}

// FileMetadata is the read-only aggregate the file metadata endpoint
// returns (SPEC_FULL §4.5, grounded on original_source's get_metadata.rs).
type FileMetadata struct {
	File     File
	Tags     []Tag
	Versions []FileVersionSummary
}

// FileVersionSummary is the trimmed-down version info returned as part of
// FileMetadata, omitting the resumable-upload working fields.
type FileVersionSummary struct {
	AppID         ID
	VersionNumber int
	SizeBytes     int64
	ContentValid  bool
	CreatedTime   time.Time
}
