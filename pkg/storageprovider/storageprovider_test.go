package storageprovider

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filez-project/filez/pkg/errtypes"
	"github.com/filez-project/filez/pkg/model"
)

type nopProvider struct{}

func (nopProvider) Put(ctx context.Context, path string, r io.Reader) error          { return nil }
func (nopProvider) PutRange(ctx context.Context, path string, off int64, r io.Reader) error { return nil }
func (nopProvider) Get(ctx context.Context, path string, rng *ByteRange) (io.ReadCloser, error) {
	return nil, nil
}
func (nopProvider) Head(ctx context.Context, path string) (int64, error) { return 0, nil }
func (nopProvider) Delete(ctx context.Context, path string) error        { return nil }

func TestInstall_RejectsUnregisteredKind(t *testing.T) {
	r := New()
	err := r.Install(model.StorageLocation{ID: model.NewID(), Config: model.ProviderConfig{Kind: model.ProviderKind("nonexistent-kind")}})
	require.Error(t, err)
	var notSupported errtypes.NotSupported
	assert.ErrorAs(t, err, &notSupported)
}

func TestInstallThenGet_ReturnsTheFactoryInstance(t *testing.T) {
	const kind = model.ProviderKind("registry-test-kind")
	Register(kind, func(cfg model.ProviderConfig) (Provider, error) { return nopProvider{}, nil })

	r := New()
	locID := model.NewID()
	require.NoError(t, r.Install(model.StorageLocation{ID: locID, Name: "x", Config: model.ProviderConfig{Kind: kind}}))

	p, err := r.Get(locID)
	require.NoError(t, err)
	assert.Equal(t, nopProvider{}, p)

	loc, ok := r.Location(locID)
	require.True(t, ok)
	assert.Equal(t, "x", loc.Name)
}

func TestGet_NotFoundForUninstalledLocation(t *testing.T) {
	r := New()
	_, err := r.Get(model.NewID())
	require.Error(t, err)
	var nf errtypes.NotFound
	assert.ErrorAs(t, err, &nf)
}

func TestRemove_DropsProviderAndLocation(t *testing.T) {
	const kind = model.ProviderKind("registry-test-kind-2")
	Register(kind, func(cfg model.ProviderConfig) (Provider, error) { return nopProvider{}, nil })

	r := New()
	locID := model.NewID()
	require.NoError(t, r.Install(model.StorageLocation{ID: locID, Config: model.ProviderConfig{Kind: kind}}))
	r.Remove(locID)

	_, err := r.Get(locID)
	assert.Error(t, err)
	_, ok := r.Location(locID)
	assert.False(t, ok)
}

func TestObjectPath_FansOutByFirstThreeUUIDCharacters(t *testing.T) {
	fileID := uuid.MustParse("12345678-1234-1234-1234-123456789abc")
	appID := uuid.MustParse("87654321-4321-4321-4321-cba987654321")

	got := ObjectPath(fileID, appID, 3)
	want := "1/2/3" + "/45678-1234-1234-1234-123456789abc" + "/87654321-4321-4321-4321-cba987654321/v3"
	assert.Equal(t, want, got)
}
