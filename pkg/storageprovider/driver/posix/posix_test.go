package posix

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filez-project/filez/pkg/errtypes"
	"github.com/filez-project/filez/pkg/model"
	"github.com/filez-project/filez/pkg/storageprovider"
)

func newDriver(t *testing.T) *Driver {
	t.Helper()
	drv, err := New(model.ProviderConfig{Posix: &model.PosixConfig{RootDir: t.TempDir()}})
	require.NoError(t, err)
	return drv.(*Driver)
}

func TestNew_RejectsMissingConfig(t *testing.T) {
	_, err := New(model.ProviderConfig{})
	assert.Error(t, err)
}

func TestPutThenGet_RoundTripsContent(t *testing.T) {
	d := newDriver(t)
	ctx := context.Background()

	require.NoError(t, d.Put(ctx, "apps/a/files/f/v1", bytes.NewReader([]byte("hello"))))

	rc, err := d.Get(ctx, "apps/a/files/f/v1", nil)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestGet_NotFoundForMissingObject(t *testing.T) {
	d := newDriver(t)
	_, err := d.Get(context.Background(), "apps/a/files/missing/v1", nil)
	require.Error(t, err)
	var nf errtypes.NotFound
	assert.ErrorAs(t, err, &nf)
}

func TestGet_HonorsByteRange(t *testing.T) {
	d := newDriver(t)
	ctx := context.Background()
	require.NoError(t, d.Put(ctx, "apps/a/files/f/v1", bytes.NewReader([]byte("0123456789"))))

	rc, err := d.Get(ctx, "apps/a/files/f/v1", &storageprovider.ByteRange{Start: 2, End: 4})
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "234", string(data))
}

func TestPutRange_WritesAtOffsetWithoutTruncating(t *testing.T) {
	d := newDriver(t)
	ctx := context.Background()
	require.NoError(t, d.Put(ctx, "apps/a/files/f/v1", bytes.NewReader([]byte("aaaaaaaaaa"))))
	require.NoError(t, d.PutRange(ctx, "apps/a/files/f/v1", 3, bytes.NewReader([]byte("bbb"))))

	rc, err := d.Get(ctx, "apps/a/files/f/v1", nil)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "aaabbbaaaa", string(data))
}

func TestHead_ReportsStoredSize(t *testing.T) {
	d := newDriver(t)
	ctx := context.Background()
	require.NoError(t, d.Put(ctx, "apps/a/files/f/v1", bytes.NewReader([]byte("12345"))))

	size, err := d.Head(ctx, "apps/a/files/f/v1")
	require.NoError(t, err)
	assert.EqualValues(t, 5, size)
}

func TestDelete_ThenGetReturnsNotFound(t *testing.T) {
	d := newDriver(t)
	ctx := context.Background()
	require.NoError(t, d.Put(ctx, "apps/a/files/f/v1", bytes.NewReader([]byte("x"))))
	require.NoError(t, d.Delete(ctx, "apps/a/files/f/v1"))

	_, err := d.Get(ctx, "apps/a/files/f/v1", nil)
	var nf errtypes.NotFound
	assert.ErrorAs(t, err, &nf)
}

func TestDelete_MissingObjectReturnsNotFound(t *testing.T) {
	d := newDriver(t)
	err := d.Delete(context.Background(), "apps/a/files/missing/v1")
	var nf errtypes.NotFound
	assert.ErrorAs(t, err, &nf)
}
