// Package posix implements storageprovider.Provider against a local
// directory tree, grounded on the teacher's pkg/storage/fs/posix driver's
// path-joining and O_CREATE|O_WRONLY idiom, used for development and
// tests in place of a real object store.
package posix

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/filez-project/filez/pkg/errtypes"
	"github.com/filez-project/filez/pkg/model"
	"github.com/filez-project/filez/pkg/storageprovider"
)

func init() {
	storageprovider.Register(model.ProviderPosix, New)
}

type Driver struct {
	rootDir string
}

func New(cfg model.ProviderConfig) (storageprovider.Provider, error) {
	if cfg.Posix == nil {
		return nil, errors.New("posix: missing configuration")
	}
	return &Driver{rootDir: cfg.Posix.RootDir}, nil
}

func (d *Driver) abs(path string) string { return filepath.Join(d.rootDir, filepath.Clean("/"+path)) }

func (d *Driver) Put(ctx context.Context, path string, r io.Reader) error {
	full := d.abs(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return errors.Wrap(err, "posix: creating parent directories")
	}
	f, err := os.OpenFile(full, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o640)
	if err != nil {
		return errors.Wrap(err, "posix: opening object for write")
	}
	defer f.Close()
	_, err = io.Copy(f, r)
	return errors.Wrap(err, "posix: writing object")
}

func (d *Driver) PutRange(ctx context.Context, path string, offset int64, r io.Reader) error {
	full := d.abs(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return errors.Wrap(err, "posix: creating parent directories")
	}
	f, err := os.OpenFile(full, os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return errors.Wrap(err, "posix: opening object for write")
	}
	defer f.Close()
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return errors.Wrap(err, "posix: seeking to offset")
	}
	_, err = io.Copy(f, r)
	return errors.Wrap(err, "posix: writing range")
}

func (d *Driver) Get(ctx context.Context, path string, rng *storageprovider.ByteRange) (io.ReadCloser, error) {
	full := d.abs(path)
	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errtypes.NotFound(path)
		}
		return nil, errors.Wrap(err, "posix: opening object")
	}
	if rng == nil {
		return f, nil
	}
	if _, err := f.Seek(rng.Start, io.SeekStart); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "posix: seeking to range start")
	}
	if rng.End < 0 {
		return f, nil
	}
	return &limitedReadCloser{r: io.LimitReader(f, rng.End-rng.Start+1), c: f}, nil
}

func (d *Driver) Head(ctx context.Context, path string) (int64, error) {
	info, err := os.Stat(d.abs(path))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, errtypes.NotFound(path)
		}
		return 0, errors.Wrap(err, "posix: stat")
	}
	return info.Size(), nil
}

func (d *Driver) Delete(ctx context.Context, path string) error {
	err := os.Remove(d.abs(path))
	if err != nil && os.IsNotExist(err) {
		return errtypes.NotFound(path)
	}
	return errors.Wrap(err, "posix: delete")
}

type limitedReadCloser struct {
	r io.Reader
	c io.Closer
}

func (l *limitedReadCloser) Read(p []byte) (int, error) { return l.r.Read(p) }
func (l *limitedReadCloser) Close() error                { return l.c.Close() }
