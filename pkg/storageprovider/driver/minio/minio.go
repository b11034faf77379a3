// Package minio implements the storageprovider.Provider contract against
// an S3-compatible object store via minio-go, grounded on the teacher's
// pkg/storage/fs/s3ng driver's client-wrapping idiom.
package minio

import (
	"context"
	"io"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"github.com/filez-project/filez/pkg/model"
	"github.com/filez-project/filez/pkg/storageprovider"
)

func init() {
	storageprovider.Register(model.ProviderMinio, New)
}

// Driver stores objects in a single bucket under caller-supplied keys
// (the object path layout is owned by storageprovider.ObjectPath).
type Driver struct {
	client *miniogo.Client
	bucket string
}

// New builds a Driver from a StorageLocation's Minio config.
func New(cfg model.ProviderConfig) (storageprovider.Provider, error) {
	if cfg.Minio == nil {
		return nil, errors.New("minio: missing configuration")
	}
	c := cfg.Minio
	client, err := miniogo.New(c.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(c.AccessKeyID, c.SecretAccessKey, ""),
		Secure: c.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "minio: building client")
	}
	return &Driver{client: client, bucket: c.Bucket}, nil
}

func (d *Driver) Put(ctx context.Context, path string, r io.Reader) error {
	_, err := d.client.PutObject(ctx, d.bucket, path, r, -1, miniogo.PutObjectOptions{})
	return errors.Wrap(err, "minio: put")
}

// PutRange appends to an existing object by composing the existing bytes
// with the new chunk, since S3-compatible stores have no in-place byte
// write: the chunk is staged as a separate "<path>.part" object, merged
// onto the existing object with minio-go's server-side ComposeObject (the
// way the teacher's s3ng driver assembles multi-part uploads), and the
// staged part is then removed.
func (d *Driver) PutRange(ctx context.Context, path string, offset int64, r io.Reader) error {
	if offset == 0 {
		return d.Put(ctx, path, r)
	}
	tmp := path + ".part"
	if _, err := d.client.PutObject(ctx, d.bucket, tmp, r, -1, miniogo.PutObjectOptions{}); err != nil {
		return errors.Wrap(err, "minio: staging range part")
	}
	dst := miniogo.CopyDestOptions{Bucket: d.bucket, Object: path}
	sources := []miniogo.CopySrcOptions{
		{Bucket: d.bucket, Object: path},
		{Bucket: d.bucket, Object: tmp},
	}
	if _, err := d.client.ComposeObject(ctx, dst, sources...); err != nil {
		return errors.Wrap(err, "minio: composing range")
	}
	return errors.Wrap(d.client.RemoveObject(ctx, d.bucket, tmp, miniogo.RemoveObjectOptions{}), "minio: cleaning up staged part")
}

func (d *Driver) Get(ctx context.Context, path string, rng *storageprovider.ByteRange) (io.ReadCloser, error) {
	opts := miniogo.GetObjectOptions{}
	if rng != nil {
		if rng.End < 0 {
			if err := opts.SetRange(rng.Start, 0); err != nil {
				return nil, errors.Wrap(err, "minio: setting range")
			}
		} else if err := opts.SetRange(rng.Start, rng.End); err != nil {
			return nil, errors.Wrap(err, "minio: setting range")
		}
	}
	obj, err := d.client.GetObject(ctx, d.bucket, path, opts)
	if err != nil {
		return nil, errors.Wrap(err, "minio: get")
	}
	return obj, nil
}

func (d *Driver) Head(ctx context.Context, path string) (int64, error) {
	info, err := d.client.StatObject(ctx, d.bucket, path, miniogo.StatObjectOptions{})
	if err != nil {
		return 0, errors.Wrap(err, "minio: head")
	}
	return info.Size, nil
}

func (d *Driver) Delete(ctx context.Context, path string) error {
	return errors.Wrap(d.client.RemoveObject(ctx, d.bucket, path, miniogo.RemoveObjectOptions{}), "minio: delete")
}
