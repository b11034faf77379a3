package model

// StorageLocationStatus distinguishes an actively-assignable location from
// one the reconciler has deprecated because live FileVersions still
// reference it (SPEC_FULL §3, REDESIGN FLAG (c): deprecate, never delete
// out from under a referenced location).
type StorageLocationStatus string

const (
	StorageLocationActive     StorageLocationStatus = "Active"
	StorageLocationDeprecated StorageLocationStatus = "Deprecated"
)

// ProviderKind is the tagged-variant discriminator of StorageLocation's
// provider_config.
type ProviderKind string

const (
	ProviderMinio ProviderKind = "Minio"
	ProviderPosix ProviderKind = "Posix"
)

// ProviderConfig is the tagged-variant provider configuration for a
// StorageLocation. Exactly one of the driver-specific fields is populated,
// selected by Kind.
type ProviderConfig struct {
	Kind  ProviderKind
	Minio *MinioConfig
	Posix *PosixConfig
}

// MinioConfig configures the Minio/S3 storage driver.
type MinioConfig struct {
	Endpoint        string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
}

// PosixConfig configures the local-disk storage driver used for
// development and tests.
type PosixConfig struct {
	RootDir string
}

// StorageLocation is a named, addressable destination for FileVersion
// bytes. At most one location is marked Default.
type StorageLocation struct {
	ID      ID
	Name    string
	Default bool
	Status  StorageLocationStatus
	Config  ProviderConfig
}

// QuotaSubjectType is the kind of entity a StorageQuota is charged against.
type QuotaSubjectType string

const (
	QuotaSubjectUser      QuotaSubjectType = "User"
	QuotaSubjectUserGroup QuotaSubjectType = "UserGroup"
	QuotaSubjectApp       QuotaSubjectType = "App"
)

// StorageQuota is a per-subject byte limit against which FileVersion sizes
// charged to it are summed.
type StorageQuota struct {
	ID                ID
	SubjectType       QuotaSubjectType
	SubjectID         ID
	StorageLocationID ID
	QuotaBytes        int64
}
