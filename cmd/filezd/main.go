// Command filezd is the daemon entry point: it loads configuration,
// wires every domain service to the shared store and storage provider
// registry, starts the reconciler's background tasks, and serves the
// HTTP surface until an OS signal asks it to stop. Grounded on
// cmd/revad/runtime's "load config, build services, start servers,
// wait for signal" assembly, trimmed to one process and one server
// instead of a plugin-driven multi-service runtime.
package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"

	filezhttp "github.com/filez-project/filez/internal/http"
	"github.com/filez-project/filez/internal/http/handlers"
	"github.com/filez-project/filez/pkg/accesspolicy"
	"github.com/filez-project/filez/pkg/auth"
	"github.com/filez-project/filez/pkg/auth/credential"
	"github.com/filez-project/filez/pkg/config"
	"github.com/filez-project/filez/pkg/events"
	"github.com/filez-project/filez/pkg/filez"
	"github.com/filez-project/filez/pkg/filez/session"
	"github.com/filez-project/filez/pkg/jobqueue"
	"github.com/filez-project/filez/pkg/log"
	"github.com/filez-project/filez/pkg/model"
	"github.com/filez-project/filez/pkg/oidcdiscovery"
	"github.com/filez-project/filez/pkg/reconciler"
	"github.com/filez-project/filez/pkg/store/sql"
	"github.com/filez-project/filez/pkg/storageprovider"
	_ "github.com/filez-project/filez/pkg/storageprovider/driver/minio"
	_ "github.com/filez-project/filez/pkg/storageprovider/driver/posix"
	"github.com/filez-project/filez/pkg/upload"
	redis "github.com/go-redis/redis/v8"
)

var logger = log.New("filezd")

func main() {
	if err := run(); err != nil {
		logger.Fatal().Err(err).Msg("filezd exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "loading config")
	}
	log.Mode = cfg.LogMode

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	driver, dsn := parseDatabaseURL(cfg.DatabaseURL)
	db, err := sql.Open(ctx, sql.Config{Driver: driver, DSN: dsn})
	if err != nil {
		return errors.Wrap(err, "opening store")
	}

	publicApp, filezApp, err := ensureBuiltinApps(ctx, db)
	if err != nil {
		return errors.Wrap(err, "bootstrapping built-in apps")
	}

	providers := storageprovider.New()
	if err := bootstrapDefaultLocation(ctx, db, providers, cfg); err != nil {
		return errors.Wrap(err, "bootstrapping default storage location")
	}

	pub, err := events.Connect(cfg.JobqueueNATSURL)
	if err != nil {
		return errors.Wrap(err, "connecting to event bus")
	}
	defer pub.Close()

	var locker upload.Locker
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return errors.Wrap(err, "parsing REDIS_URL")
		}
		locker = upload.NewRedisLocker(redis.NewClient(opt), 60*time.Second)
	} else {
		locker = upload.NewMemoryLocker()
	}

	discovery := oidcdiscovery.New(cfg.OIDCIssuer, cfg.OIDCClientID)
	if cfg.OIDCIssuer != "" {
		discovery.Start(ctx)
	}

	resolver := auth.New(db, db, publicApp,
		credential.NewOIDC(discovery),
		credential.NewAPIKey(db),
	)

	policy := accesspolicy.New(db, db, db)
	filezSvc := filez.New(db, providers, pub, filezApp)
	uploadSvc := upload.New(db, providers, locker)
	jobsSvc := jobqueue.New(db, pub)
	sessionsSvc := session.New(db, cfg.SessionTimeout())

	runner := reconciler.New(
		reconciler.LeaseReclaimerTask(db, pub, cfg.JobTimeout()),
		reconciler.OrphanSweepTask(cfg.ReconcileInterval(), filezSvc),
		reconciler.StorageLocationReconcileTask(cfg.ReconcileInterval(), db, func() []model.ID { return nil }),
	)
	runner.Start(ctx)
	defer runner.Stop()

	deps := &handlers.Deps{
		Store:     db,
		Policy:    policy,
		Filez:     filezSvc,
		Upload:    uploadSvc,
		Jobs:      jobsSvc,
		Sessions:  sessionsSvc,
		Providers: providers,
	}
	router := filezhttp.NewRouter(*logger, resolver, deps)
	srv := filezhttp.New("tcp", cfg.HTTPAddr, router, *logger)

	ln, err := net.Listen(srv.Network(), srv.Address())
	if err != nil {
		return errors.Wrap(err, "binding http listener")
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ln) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		return srv.GracefulStop()
	}
}

// parseDatabaseURL splits a "driver://dsn" connection string into the
// driver name and the remainder, defaulting to mysql when no scheme is
// present (a bare DSN is the common production case; sqlite3 is always
// explicit since it's the dev/test driver).
func parseDatabaseURL(raw string) (driver, dsn string) {
	if i := strings.Index(raw, "://"); i >= 0 {
		return raw[:i], raw[i+3:]
	}
	return "mysql", raw
}
