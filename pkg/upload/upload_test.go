package upload

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filez-project/filez/pkg/errtypes"
	"github.com/filez-project/filez/pkg/model"
	"github.com/filez-project/filez/pkg/storageprovider"
)

type fakeStore struct {
	versions map[model.ID]model.FileVersion
}

func newFakeStore(v model.FileVersion) *fakeStore {
	return &fakeStore{versions: map[model.ID]model.FileVersion{v.ID: v}}
}

func (s *fakeStore) GetFileVersion(ctx context.Context, id model.ID) (model.FileVersion, error) {
	v, ok := s.versions[id]
	if !ok {
		return model.FileVersion{}, errtypes.NotFound("version")
	}
	return v, nil
}

func (s *fakeStore) UpdateFileVersionUpload(ctx context.Context, v model.FileVersion) error {
	s.versions[v.ID] = v
	return nil
}

type fakeProvider struct {
	objects map[string][]byte
}

func newFakeProvider() *fakeProvider { return &fakeProvider{objects: map[string][]byte{}} }

func (p *fakeProvider) Put(ctx context.Context, path string, r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	p.objects[path] = b
	return nil
}

func (p *fakeProvider) PutRange(ctx context.Context, path string, offset int64, r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	existing := p.objects[path]
	if int64(len(existing)) < offset {
		existing = append(existing, make([]byte, offset-int64(len(existing)))...)
	}
	p.objects[path] = append(existing[:offset], b...)
	return nil
}

func (p *fakeProvider) Get(ctx context.Context, path string, rng *storageprovider.ByteRange) (io.ReadCloser, error) {
	b, ok := p.objects[path]
	if !ok {
		return nil, errtypes.NotFound(path)
	}
	if rng == nil {
		return io.NopCloser(bytes.NewReader(b)), nil
	}
	end := rng.End
	if end == -1 || end >= int64(len(b)) {
		end = int64(len(b)) - 1
	}
	return io.NopCloser(bytes.NewReader(b[rng.Start : end+1])), nil
}

func (p *fakeProvider) Head(ctx context.Context, path string) (int64, error) {
	return int64(len(p.objects[path])), nil
}

func (p *fakeProvider) Delete(ctx context.Context, path string) error {
	delete(p.objects, path)
	return nil
}

func newTestService(t *testing.T, v model.FileVersion) (*Service, *fakeStore) {
	t.Helper()
	store := newFakeStore(v)
	providers := storageprovider.New()
	registerFakeDriver(t, providers, v.StorageLocationID)
	return New(store, providers, NewMemoryLocker()), store
}

// registerFakeDriver installs a fakeProvider under loc by going through
// the registry's normal Install path, the way a real driver would.
func registerFakeDriver(t *testing.T, providers *storageprovider.Registry, locationID model.ID) {
	t.Helper()
	const kind = model.ProviderKind("test-fake")
	storageprovider.Register(kind, func(cfg model.ProviderConfig) (storageprovider.Provider, error) {
		return newFakeProvider(), nil
	})
	require.NoError(t, providers.Install(model.StorageLocation{
		ID:     locationID,
		Name:   "test",
		Status: model.StorageLocationActive,
		Config: model.ProviderConfig{Kind: kind},
	}))
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func TestPatch_OffsetMismatchRejected(t *testing.T) {
	locID := model.NewID()
	v := model.FileVersion{
		ID: model.NewID(), FileID: model.NewID(), AppID: model.NewID(),
		VersionNumber: 1, StorageLocationID: locID, SizeBytes: 10,
	}
	svc, _ := newTestService(t, v)

	_, err := svc.Patch(context.Background(), v.ID, 5, bytes.NewReader([]byte("hello")))
	require.Error(t, err)
	var mismatch errtypes.OffsetMismatch
	assert.ErrorAs(t, err, &mismatch)
}

func TestPatch_SingleShotCommitsOnDigestMatch(t *testing.T) {
	locID := model.NewID()
	content := []byte("hello world")
	sum := sha256Hex(content)
	v := model.FileVersion{
		ID: model.NewID(), FileID: model.NewID(), AppID: model.NewID(),
		VersionNumber: 1, StorageLocationID: locID, SizeBytes: int64(len(content)),
		ContentExpectedSHA256: &sum,
	}
	svc, store := newTestService(t, v)

	stored, err := svc.Patch(context.Background(), v.ID, 0, bytes.NewReader(content))
	require.NoError(t, err)
	assert.EqualValues(t, len(content), stored)

	got := store.versions[v.ID]
	assert.Equal(t, model.UploadCommitted, got.UploadState)
	assert.True(t, got.ContentValid)
}

func TestPatch_MultiChunkDigestCoversWholeObject(t *testing.T) {
	locID := model.NewID()
	content := []byte("the quick brown fox jumps over the lazy dog")
	sum := sha256Hex(content)
	v := model.FileVersion{
		ID: model.NewID(), FileID: model.NewID(), AppID: model.NewID(),
		VersionNumber: 1, StorageLocationID: locID, SizeBytes: int64(len(content)),
		ContentExpectedSHA256: &sum,
	}
	svc, store := newTestService(t, v)

	split := len(content) / 2
	stored, err := svc.Patch(context.Background(), v.ID, 0, bytes.NewReader(content[:split]))
	require.NoError(t, err)
	assert.EqualValues(t, split, stored)
	assert.Equal(t, model.UploadInProgress, store.versions[v.ID].UploadState)

	stored, err = svc.Patch(context.Background(), v.ID, int64(split), bytes.NewReader(content[split:]))
	require.NoError(t, err)
	assert.EqualValues(t, len(content), stored)
	assert.Equal(t, model.UploadCommitted, store.versions[v.ID].UploadState)
}

func TestPatch_DigestMismatchFailsVersion(t *testing.T) {
	locID := model.NewID()
	content := []byte("hello world")
	wrongSum := sha256Hex([]byte("not the same content"))
	v := model.FileVersion{
		ID: model.NewID(), FileID: model.NewID(), AppID: model.NewID(),
		VersionNumber: 1, StorageLocationID: locID, SizeBytes: int64(len(content)),
		ContentExpectedSHA256: &wrongSum,
	}
	svc, store := newTestService(t, v)

	_, err := svc.Patch(context.Background(), v.ID, 0, bytes.NewReader(content))
	require.Error(t, err)
	var mismatch errtypes.DigestMismatch
	assert.ErrorAs(t, err, &mismatch)
	assert.Equal(t, model.UploadFailed, store.versions[v.ID].UploadState)
}

func TestPatch_RejectsWriteAfterCommit(t *testing.T) {
	locID := model.NewID()
	content := []byte("done")
	sum := sha256Hex(content)
	v := model.FileVersion{
		ID: model.NewID(), FileID: model.NewID(), AppID: model.NewID(),
		VersionNumber: 1, StorageLocationID: locID, SizeBytes: int64(len(content)),
		ContentExpectedSHA256: &sum, UploadState: model.UploadCommitted, StoredBytes: int64(len(content)),
	}
	svc, _ := newTestService(t, v)

	_, err := svc.Patch(context.Background(), v.ID, int64(len(content)), bytes.NewReader(nil))
	require.Error(t, err)
	var precond errtypes.PreconditionFailed
	assert.ErrorAs(t, err, &precond)
}
