// Package upload is the Content Upload Protocol (spec §4.6): a TUS-like
// resumable upload state machine where the FileVersion row is the
// upload handle. Grounded on the teacher's
// internal/http/services/dataprovider TUS handler for the HEAD/PATCH
// offset-law shape, generalized from CS3 references to FileVersion rows.
package upload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"

	"github.com/filez-project/filez/pkg/errtypes"
	"github.com/filez-project/filez/pkg/model"
	"github.com/filez-project/filez/pkg/storageprovider"
)

// Store is the slice of store.Store this service needs.
type Store interface {
	GetFileVersion(ctx context.Context, id model.ID) (model.FileVersion, error)
	UpdateFileVersionUpload(ctx context.Context, v model.FileVersion) error
}

// Info is the HEAD response (spec §4.6).
type Info struct {
	StoredBytes   int64
	DeclaredBytes int64
}

// Service implements the resumable upload protocol.
type Service struct {
	Store     Store
	Providers *storageprovider.Registry
	Locker    Locker
}

func New(s Store, providers *storageprovider.Registry, locker Locker) *Service {
	return &Service{Store: s, Providers: providers, Locker: locker}
}

// Head implements "HEAD /versions/{version_id}/content".
func (s *Service) Head(ctx context.Context, versionID model.ID) (Info, error) {
	v, err := s.Store.GetFileVersion(ctx, versionID)
	if err != nil {
		return Info{}, err
	}
	return Info{StoredBytes: v.StoredBytes, DeclaredBytes: v.SizeBytes}, nil
}

// Patch implements "PATCH /versions/{version_id}/content": streams body
// to the provider at offset, validates the offset law, and on reaching
// declared size, validates the digest law and commits the version.
// Returns the new stored-bytes offset on success.
func (s *Service) Patch(ctx context.Context, versionID model.ID, offset int64, body io.Reader) (int64, error) {
	release, err := s.Locker.Acquire(ctx, versionID.String())
	if err != nil {
		return 0, err
	}
	defer release()

	v, err := s.Store.GetFileVersion(ctx, versionID)
	if err != nil {
		return 0, err
	}
	if v.UploadState == model.UploadCommitted || v.UploadState == model.UploadFailed {
		return 0, errtypes.PreconditionFailed("version is no longer accepting uploads")
	}
	if offset != v.StoredBytes {
		return 0, errtypes.OffsetMismatch{Expected: v.StoredBytes, Got: offset}
	}

	provider, err := s.Providers.Get(v.StorageLocationID)
	if err != nil {
		return 0, err
	}
	path := storageprovider.ObjectPath(v.FileID, v.AppID, v.VersionNumber)

	counting := &countingReader{r: body}
	if err := provider.PutRange(ctx, path, offset, counting); err != nil {
		return 0, err
	}

	v.StoredBytes += counting.n
	v.UploadState = model.UploadInProgress

	if v.StoredBytes > v.SizeBytes {
		v.UploadState = model.UploadFailed
		_ = s.Store.UpdateFileVersionUpload(ctx, v)
		return 0, errtypes.OffsetMismatch{Expected: v.SizeBytes, Got: v.StoredBytes}
	}

	if v.StoredBytes == v.SizeBytes {
		// The digest law covers the whole assembled object, not any single
		// PATCH's bytes, so it's checked by reading the object back rather
		// than hashing each chunk as it streams through.
		sum, err := s.digest(ctx, provider, path)
		if err != nil {
			return 0, err
		}
		if v.ContentExpectedSHA256 != nil && *v.ContentExpectedSHA256 != sum {
			v.UploadState = model.UploadFailed
			_ = s.Store.UpdateFileVersionUpload(ctx, v)
			return 0, errtypes.DigestMismatch{Expected: *v.ContentExpectedSHA256, Got: sum}
		}
		v.ContentValid = true
		v.UploadState = model.UploadCommitted
	}

	if err := s.Store.UpdateFileVersionUpload(ctx, v); err != nil {
		return 0, err
	}
	return v.StoredBytes, nil
}

func (s *Service) digest(ctx context.Context, provider storageprovider.Provider, path string) (string, error) {
	rc, err := provider.Get(ctx, path, nil)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	hasher := sha256.New()
	if _, err := io.Copy(hasher, rc); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// ReconcileOnRestart trusts the provider's reported object size as the
// authoritative stored_bytes, correcting drift left by a crash mid-write
// (spec §4.6 "Crash recovery").
func (s *Service) ReconcileOnRestart(ctx context.Context, versionID model.ID) error {
	v, err := s.Store.GetFileVersion(ctx, versionID)
	if err != nil {
		return err
	}
	if v.UploadState != model.UploadInProgress {
		return nil
	}
	provider, err := s.Providers.Get(v.StorageLocationID)
	if err != nil {
		return err
	}
	path := storageprovider.ObjectPath(v.FileID, v.AppID, v.VersionNumber)
	size, err := provider.Head(ctx, path)
	if err != nil {
		// Nothing was ever written; stored_bytes stays 0.
		size = 0
	}
	v.StoredBytes = size
	return s.Store.UpdateFileVersionUpload(ctx, v)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
