// Package store is the typed, transactional persistence layer (spec §4.2):
// one interface per entity group, a shared listing envelope, and the
// failure taxonomy every driver must map its errors onto. pkg/store/sql
// is the only implementation, but handlers and services depend on these
// interfaces so a future in-memory test double needs no changes upstream.
package store

import (
	"context"
	"time"

	"github.com/filez-project/filez/pkg/model"
)

// SortBy names a sortable column. No Store method takes one: each listing
// method sorts on one fixed column, and pkg/store/sql does not read
// model.ListRequest.SortBy, so a caller cannot pick an arbitrary column.
type SortBy string

// Users is typed persistence for User rows.
type Users interface {
	CreateUser(ctx context.Context, u model.User) (model.User, error)
	GetUser(ctx context.Context, id model.ID) (model.User, error)
	GetUserByExternalID(ctx context.Context, externalID string) (model.User, error)
	DeleteUser(ctx context.Context, id model.ID) error
	ListUsers(ctx context.Context, req model.ListRequest) (model.ListResult[model.User], error)
}

// Apps is typed persistence for App rows.
type Apps interface {
	CreateApp(ctx context.Context, a model.App) (model.App, error)
	GetApp(ctx context.Context, id model.ID) (model.App, error)
	GetAppByOrigin(ctx context.Context, origin string) (model.App, error)
	ListApps(ctx context.Context, req model.ListRequest) (model.ListResult[model.App], error)
	DeleteApp(ctx context.Context, id model.ID) error
}

// UserGroups is typed persistence for UserGroup rows and membership edges.
type UserGroups interface {
	CreateUserGroup(ctx context.Context, g model.UserGroup) (model.UserGroup, error)
	GetUserGroup(ctx context.Context, id model.ID) (model.UserGroup, error)
	DeleteUserGroup(ctx context.Context, id model.ID) error
	ListUserGroups(ctx context.Context, req model.ListRequest) (model.ListResult[model.UserGroup], error)
	AddUserGroupMember(ctx context.Context, groupID, userID model.ID) error
	RemoveUserGroupMember(ctx context.Context, groupID, userID model.ID) error
	ListUserGroupIDsForUser(ctx context.Context, userID model.ID) ([]model.ID, error)
}

// FileGroups is typed persistence for FileGroup rows and Manual membership
// edges; Dynamic membership is computed by pkg/filez/group, not stored.
type FileGroups interface {
	CreateFileGroup(ctx context.Context, g model.FileGroup) (model.FileGroup, error)
	GetFileGroup(ctx context.Context, id model.ID) (model.FileGroup, error)
	UpdateFileGroup(ctx context.Context, g model.FileGroup) (model.FileGroup, error)
	DeleteFileGroup(ctx context.Context, id model.ID) error
	ListFileGroups(ctx context.Context, req model.ListRequest) (model.ListResult[model.FileGroup], error)
	AddFileGroupMember(ctx context.Context, groupID, fileID model.ID) error
	RemoveFileGroupMember(ctx context.Context, groupID, fileID model.ID) error
	ListFileGroupMembers(ctx context.Context, groupID model.ID) ([]model.ID, error)
}

// Files is typed persistence for File rows.
type Files interface {
	CreateFile(ctx context.Context, f model.File) (model.File, error)
	GetFile(ctx context.Context, id model.ID) (model.File, error)
	DeleteFile(ctx context.Context, id model.ID) error
	ListFiles(ctx context.Context, ownerID model.ID, req model.ListRequest) (model.ListResult[model.File], error)
	ListAllFiles(ctx context.Context) ([]model.File, error) // used by dynamic file-group evaluation
}

// FileVersions is typed persistence for FileVersion rows, including the
// resumable-upload working fields.
type FileVersions interface {
	CreateFileVersion(ctx context.Context, v model.FileVersion) (model.FileVersion, error)
	GetFileVersion(ctx context.Context, id model.ID) (model.FileVersion, error)
	GetFileVersionByNumber(ctx context.Context, fileID, appID model.ID, versionNumber int) (model.FileVersion, error)
	GetLatestValidFileVersion(ctx context.Context, fileID, appID model.ID) (model.FileVersion, error)
	MaxVersionNumber(ctx context.Context, fileID, appID model.ID) (int, error)
	ListFileVersions(ctx context.Context, fileID model.ID) ([]model.FileVersion, error)
	UpdateFileVersionUpload(ctx context.Context, v model.FileVersion) error
	DeleteFileVersionsForFile(ctx context.Context, fileID model.ID) ([]model.FileVersion, error)
	SumSizeForQuota(ctx context.Context, quotaID model.ID) (int64, error)
}

// StorageLocations is typed persistence for StorageLocation rows.
type StorageLocations interface {
	CreateStorageLocation(ctx context.Context, l model.StorageLocation) (model.StorageLocation, error)
	GetStorageLocation(ctx context.Context, id model.ID) (model.StorageLocation, error)
	GetDefaultStorageLocation(ctx context.Context) (model.StorageLocation, error)
	ListStorageLocations(ctx context.Context, req model.ListRequest) (model.ListResult[model.StorageLocation], error)
	SetStorageLocationStatus(ctx context.Context, id model.ID, status model.StorageLocationStatus) error
	DeleteStorageLocation(ctx context.Context, id model.ID) error
	CountFileVersionsForLocation(ctx context.Context, id model.ID) (int, error)
}

// StorageQuotas is typed persistence for StorageQuota rows.
type StorageQuotas interface {
	CreateStorageQuota(ctx context.Context, q model.StorageQuota) (model.StorageQuota, error)
	GetStorageQuota(ctx context.Context, id model.ID) (model.StorageQuota, error)
	ListStorageQuotas(ctx context.Context, req model.ListRequest) (model.ListResult[model.StorageQuota], error)
	DeleteStorageQuota(ctx context.Context, id model.ID) error
}

// AccessPolicies is typed persistence for AccessPolicy rows.
type AccessPolicies interface {
	CreateAccessPolicy(ctx context.Context, p model.AccessPolicy) (model.AccessPolicy, error)
	GetAccessPolicy(ctx context.Context, id model.ID) (model.AccessPolicy, error)
	DeleteAccessPolicy(ctx context.Context, id model.ID) error
	ListAccessPolicies(ctx context.Context, req model.ListRequest) (model.ListResult[model.AccessPolicy], error)
	DeleteAccessPoliciesForResource(ctx context.Context, resourceType model.ResourceType, resourceID model.ID) error
	FetchApplicablePolicies(ctx context.Context, resourceType model.ResourceType, ids []model.ID) ([]model.AccessPolicy, error)
	FetchOwners(ctx context.Context, resourceType model.ResourceType, ids []model.ID) (map[model.ID]model.ID, error)
	FetchUserGroupIDs(ctx context.Context, userID model.ID) ([]model.ID, error)
}

// Jobs is typed persistence for Job rows.
type Jobs interface {
	CreateJob(ctx context.Context, j model.Job) (model.Job, error)
	GetJob(ctx context.Context, id model.ID) (model.Job, error)
	DeleteJob(ctx context.Context, id model.ID) error
	ListJobs(ctx context.Context, req model.ListRequest) (model.ListResult[model.Job], error)
	PickupJob(ctx context.Context, appID model.ID, runtimeInstanceID string, now time.Time) (*model.Job, error)
	UpdateJobStatus(ctx context.Context, jobID model.ID, newStatus model.JobStatus) (model.Job, error)
	ListExpiredLeases(ctx context.Context, cutoff time.Time) ([]model.Job, error)
	ReclaimJob(ctx context.Context, jobID model.ID) error
	DeleteJobRow(ctx context.Context, jobID model.ID) error
}

// Tags is typed persistence for interned Tag rows and the file membership join.
type Tags interface {
	InternTag(ctx context.Context, tag model.Tag) error
	AttachTag(ctx context.Context, ft model.FileTag) error
	DetachTag(ctx context.Context, fileID model.ID, key, value string) error
	ListTagsForFile(ctx context.Context, fileID model.ID) ([]model.Tag, error)
}

// Sessions is typed persistence for Session rows.
type Sessions interface {
	CreateSession(ctx context.Context, s model.Session) (model.Session, error)
	GetSession(ctx context.Context, id model.ID) (model.Session, error)
	TouchSession(ctx context.Context, id model.ID) error
	EndSession(ctx context.Context, id model.ID) error
}

// Store aggregates every entity-group interface plus transaction control.
// A single concrete type (pkg/store/sql.DB) implements all of them.
type Store interface {
	Users
	Apps
	UserGroups
	FileGroups
	Files
	FileVersions
	StorageLocations
	StorageQuotas
	AccessPolicies
	Jobs
	Tags
	Sessions

	// WithSerializableTx runs fn inside a serializable transaction,
	// required for multi-entity operations that cross invariants (spec
	// §4.2): tag interning, job pickup, quota-check + version create.
	WithSerializableTx(ctx context.Context, fn func(ctx context.Context) error) error
}
