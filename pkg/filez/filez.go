// Package filez is the File / File-Version Service (spec §4.5): it
// creates, versions, and deletes files, coordinates downloads, and
// computes the storage path layout backing each version's bytes.
// Grounded on the teacher's storageprovider-facing services
// (internal/http/services/dataprovider) for the "resolve provider, then
// stream bytes" shape, generalized here to a transactional domain
// service instead of an HTTP handler.
package filez

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/filez-project/filez/pkg/errtypes"
	"github.com/filez-project/filez/pkg/events"
	"github.com/filez-project/filez/pkg/model"
	"github.com/filez-project/filez/pkg/store"
	"github.com/filez-project/filez/pkg/storageprovider"
)

// ReclaimTarget names one storage object a failed asynchronous delete
// left behind, for pkg/reconciler's orphan sweep (spec §4.8 supplement)
// to retry. Object listing is not part of the Storage Provider contract
// (spec §4.4 defines only put/put_range/get/head/delete), so orphans are
// tracked here rather than rediscovered by walking the provider.
type ReclaimTarget struct {
	StorageLocationID model.ID
	Path              string
}

// Service is the File/File-Version Service's entry point.
type Service struct {
	Store     store.Store
	Providers *storageprovider.Registry
	Events    *events.Publisher
	FilezApp  model.App // the built-in app that owns version 1 of every file

	pendingMu sync.Mutex
	pending   []ReclaimTarget
}

func New(s store.Store, providers *storageprovider.Registry, pub *events.Publisher, filezApp model.App) *Service {
	return &Service{Store: s, Providers: providers, Events: pub, FilezApp: filezApp}
}

// DrainPendingReclaims removes and returns every ReclaimTarget queued by
// a failed asynchronous delete since the last drain, for the
// reconciler's orphan sweep task to retry.
func (s *Service) DrainPendingReclaims() []ReclaimTarget {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	drained := s.pending
	s.pending = nil
	return drained
}

// RetryReclaim re-attempts a single queued delete, re-queuing it on
// renewed failure.
func (s *Service) RetryReclaim(ctx context.Context, t ReclaimTarget) {
	provider, err := s.Providers.Get(t.StorageLocationID)
	if err != nil {
		s.queueReclaim(t)
		return
	}
	if err := provider.Delete(ctx, t.Path); err != nil {
		s.queueReclaim(t)
	}
}

func (s *Service) queueReclaim(t ReclaimTarget) {
	s.pendingMu.Lock()
	s.pending = append(s.pending, t)
	s.pendingMu.Unlock()
}

// CreateFile implements spec §4.5 "Create file": a File plus its
// version-1 FileVersion, owned by the built-in Filez app.
func (s *Service) CreateFile(ctx context.Context, ownerID model.ID, name, mimeType string, storageQuotaID model.ID) (model.File, model.FileVersion, error) {
	var file model.File
	var version model.FileVersion
	err := s.Store.WithSerializableTx(ctx, func(ctx context.Context) error {
		loc, err := s.Store.GetDefaultStorageLocation(ctx)
		if err != nil {
			return errors.Wrap(err, "filez: resolving default storage location")
		}
		f, err := s.Store.CreateFile(ctx, model.File{
			ID:       model.NewID(),
			OwnerID:  ownerID,
			Name:     name,
			MimeType: mimeType,
		})
		if err != nil {
			return err
		}
		v, err := s.Store.CreateFileVersion(ctx, model.FileVersion{
			ID:                model.NewID(),
			FileID:            f.ID,
			AppID:             s.FilezApp.ID,
			VersionNumber:     1,
			StorageLocationID: loc.ID,
			StorageQuotaID:    storageQuotaID,
			SizeBytes:         0,
			ContentValid:      false,
			UploadState:       model.UploadEmpty,
		})
		if err != nil {
			return err
		}
		file, version = f, v
		return nil
	})
	return file, version, err
}

// CreateVersion implements spec §4.5 "Create additional version": a
// transactional quota check, next-version-number computation, and
// insert, all inside one serializable transaction so concurrent version
// creates for the same (file, app) can never both observe the same max
// version number or both pass a quota check that only one can actually
// satisfy.
func (s *Service) CreateVersion(ctx context.Context, fileID, appID model.ID, sizeBytes int64, expectedSHA256 *string, storageQuotaID model.ID) (model.FileVersion, error) {
	var version model.FileVersion
	err := s.Store.WithSerializableTx(ctx, func(ctx context.Context) error {
		quota, err := s.Store.GetStorageQuota(ctx, storageQuotaID)
		if err != nil {
			return err
		}
		used, err := s.Store.SumSizeForQuota(ctx, storageQuotaID)
		if err != nil {
			return err
		}
		if used+sizeBytes > quota.QuotaBytes {
			return errtypes.Forbidden("storage quota exceeded")
		}

		maxVersion, err := s.Store.MaxVersionNumber(ctx, fileID, appID)
		if err != nil {
			return err
		}

		v, err := s.Store.CreateFileVersion(ctx, model.FileVersion{
			ID:                    model.NewID(),
			FileID:                fileID,
			AppID:                 appID,
			VersionNumber:         maxVersion + 1,
			StorageLocationID:     quota.StorageLocationID,
			StorageQuotaID:        storageQuotaID,
			SizeBytes:             sizeBytes,
			ContentExpectedSHA256: expectedSHA256,
			ContentValid:          false,
			UploadState:           model.UploadEmpty,
		})
		if err != nil {
			return err
		}
		version = v
		return nil
	})
	return version, err
}

// DeleteFile implements spec §4.5 "Delete file": in one transaction it
// deletes every version row, the file's resource-level access policies
// and the file row (tag and file-group membership rows are not deleted),
// then fires off best-effort asynchronous storage reclaim per version. A
// reclaim that fails is queued for the reconciler's storage sweep
// (spec §4.8 supplement) and is not treated as a delete failure.
func (s *Service) DeleteFile(ctx context.Context, fileID model.ID) error {
	var versions []model.FileVersion
	err := s.Store.WithSerializableTx(ctx, func(ctx context.Context) error {
		vs, err := s.Store.DeleteFileVersionsForFile(ctx, fileID)
		if err != nil {
			return err
		}
		versions = vs
		if err := s.Store.DeleteAccessPoliciesForResource(ctx, model.ResourceFile, fileID); err != nil {
			return err
		}
		return s.Store.DeleteFile(ctx, fileID)
	})
	if err != nil {
		return err
	}
	for _, v := range versions {
		s.reclaimStorageAsync(v)
	}
	return nil
}

// reclaimStorageAsync deletes a version's bytes off its storage
// provider without blocking the caller; a failure is queued for the
// reconciler's orphan sweep to retry (spec §4.5 "a failed reclaim
// leaves an orphan that the reconciler re-discovers").
func (s *Service) reclaimStorageAsync(v model.FileVersion) {
	path := storageprovider.ObjectPath(v.FileID, v.AppID, v.VersionNumber)
	target := ReclaimTarget{StorageLocationID: v.StorageLocationID, Path: path}
	go func() {
		provider, err := s.Providers.Get(v.StorageLocationID)
		if err != nil {
			s.queueReclaim(target)
			return
		}
		if err := provider.Delete(context.Background(), path); err != nil {
			s.queueReclaim(target)
		}
	}()
}

// Download implements spec §4.5 "Download". versionNumber <= 0 selects
// the highest-numbered content_valid version owned by the Filez app.
func (s *Service) Download(ctx context.Context, fileID model.ID, versionNumber int, rng *storageprovider.ByteRange) (io.ReadCloser, model.FileVersion, error) {
	var version model.FileVersion
	var err error
	if versionNumber > 0 {
		version, err = s.Store.GetFileVersionByNumber(ctx, fileID, s.FilezApp.ID, versionNumber)
	} else {
		version, err = s.Store.GetLatestValidFileVersion(ctx, fileID, s.FilezApp.ID)
	}
	if err != nil {
		return nil, model.FileVersion{}, err
	}
	if !version.ContentValid {
		return nil, model.FileVersion{}, errtypes.Conflict("version has no committed content")
	}
	provider, err := s.Providers.Get(version.StorageLocationID)
	if err != nil {
		return nil, model.FileVersion{}, err
	}
	path := storageprovider.ObjectPath(version.FileID, version.AppID, version.VersionNumber)
	rc, err := provider.Get(ctx, path, rng)
	if err != nil {
		return nil, model.FileVersion{}, err
	}
	return rc, version, nil
}

// GetMetadata implements the aggregate read endpoint supplemented from
// the original source's get_metadata operation (SPEC_FULL §4.5).
func (s *Service) GetMetadata(ctx context.Context, fileID model.ID) (model.FileMetadata, error) {
	file, err := s.Store.GetFile(ctx, fileID)
	if err != nil {
		return model.FileMetadata{}, err
	}
	tags, err := s.Store.ListTagsForFile(ctx, fileID)
	if err != nil {
		return model.FileMetadata{}, err
	}
	versions, err := s.Store.ListFileVersions(ctx, fileID)
	if err != nil {
		return model.FileMetadata{}, err
	}
	summaries := make([]model.FileVersionSummary, 0, len(versions))
	for _, v := range versions {
		summaries = append(summaries, model.FileVersionSummary{
			AppID:         v.AppID,
			VersionNumber: v.VersionNumber,
			SizeBytes:     v.SizeBytes,
			ContentValid:  v.ContentValid,
			CreatedTime:   v.CreatedTime,
		})
	}
	return model.FileMetadata{File: file, Tags: tags, Versions: summaries}, nil
}

// AttachTag implements the tag-interning get-or-insert requirement
// (spec §3): intern the (key, value) pair if not already known, then
// attach it to the file, all inside one serializable transaction so a
// concurrent intern of the same tag can never race (SPEC_FULL §4.5).
func (s *Service) AttachTag(ctx context.Context, fileID model.ID, key, value string, createdBy model.ID) error {
	return s.Store.WithSerializableTx(ctx, func(ctx context.Context) error {
		if err := s.Store.InternTag(ctx, model.Tag{Key: key, Value: value}); err != nil {
			return err
		}
		return s.Store.AttachTag(ctx, model.FileTag{
			FileID:        fileID,
			Key:           key,
			Value:         value,
			CreatedByUser: createdBy,
			CreatedTime:   time.Now().UTC(),
		})
	})
}
