package main

import (
	"context"
	"errors"

	"github.com/filez-project/filez/pkg/config"
	"github.com/filez-project/filez/pkg/model"
	"github.com/filez-project/filez/pkg/store"
	"github.com/filez-project/filez/pkg/storageprovider"
)

// ensureBuiltinApps creates the two built-in App rows a fresh database
// needs (spec §3/§4.1): the reserved public app (model.PublicAppID) matched when a
// request carries no bearer and no recognized Origin, and the "filez" app
// that owns version 1 of every file. Both are idempotent against an
// already-bootstrapped database.
func ensureBuiltinApps(ctx context.Context, s store.Store) (publicApp, filezApp model.App, err error) {
	publicApp, err = s.GetApp(ctx, model.PublicAppID)
	if isNotFound(err) {
		publicApp, err = s.CreateApp(ctx, model.App{
			ID:      model.PublicAppID,
			Name:    "public",
			AppType: model.AppTypeFrontend,
			Trusted: false,
		})
	}
	if err != nil {
		return model.App{}, model.App{}, err
	}

	filezApp, err = findAppByName(ctx, s, model.FilezAppName)
	if isNotFound(err) {
		filezApp, err = s.CreateApp(ctx, model.App{
			ID:      model.NewID(),
			Name:    model.FilezAppName,
			AppType: model.AppTypeBackend,
			Trusted: true,
		})
	}
	if err != nil {
		return model.App{}, model.App{}, err
	}
	return publicApp, filezApp, nil
}

func findAppByName(ctx context.Context, s store.Store, name string) (model.App, error) {
	result, err := s.ListApps(ctx, model.ListRequest{Limit: 1000})
	if err != nil {
		return model.App{}, err
	}
	for _, a := range result.Items {
		if a.Name == name {
			return a, nil
		}
	}
	return model.App{}, notFoundErr{}
}

type notFoundErr struct{}

func (notFoundErr) Error() string { return "not found" }
func (notFoundErr) IsNotFound()   {}

func isNotFound(err error) bool {
	var nf interface{ IsNotFound() }
	return errors.As(err, &nf)
}

// bootstrapDefaultLocation installs a provider for the default
// StorageLocation, creating one from MINIO_* or POSIX_ROOT_DIR settings
// on first run (no declarative reconcile source exists to have created
// one). This is the only provider installed into the registry; the
// reconciler's tasks do not install providers for other locations.
func bootstrapDefaultLocation(ctx context.Context, s store.Store, providers *storageprovider.Registry, cfg config.Config) error {
	loc, err := s.GetDefaultStorageLocation(ctx)
	if isNotFound(err) {
		loc, err = s.CreateStorageLocation(ctx, model.StorageLocation{
			ID:      model.NewID(),
			Name:    "default",
			Default: true,
			Status:  model.StorageLocationActive,
			Config:  defaultProviderConfig(cfg),
		})
	}
	if err != nil {
		return err
	}
	return providers.Install(loc)
}

func defaultProviderConfig(cfg config.Config) model.ProviderConfig {
	if cfg.MinioEndpoint != "" {
		return model.ProviderConfig{
			Kind: model.ProviderMinio,
			Minio: &model.MinioConfig{
				Endpoint:        cfg.MinioEndpoint,
				Bucket:          cfg.MinioBucket,
				AccessKeyID:     cfg.MinioAccessKeyID,
				SecretAccessKey: cfg.MinioSecretAccessKey,
				UseSSL:          cfg.MinioUseSSL,
			},
		}
	}
	return model.ProviderConfig{
		Kind:  model.ProviderPosix,
		Posix: &model.PosixConfig{RootDir: cfg.PosixRootDir},
	}
}
