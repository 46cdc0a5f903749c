package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/village-api/internal/repository"
	"github.com/noah-isme/village-api/internal/service"
	"github.com/noah-isme/village-api/pkg/cache"
	"github.com/noah-isme/village-api/pkg/config"
	"github.com/noah-isme/village-api/pkg/database"
	"github.com/noah-isme/village-api/pkg/events"
	"github.com/noah-isme/village-api/pkg/events/kafka"
	"github.com/noah-isme/village-api/pkg/storage"
)

// app is the wired object graph shared by every command.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	metrics   *service.MetricsService
	persister *service.Persister
	village   *service.VillageService
	backup    *service.BackupService
	exports   *service.ExportService

	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logr, metrics: service.NewMetricsService()}

	store, err := a.openStore(ctx)
	if err != nil {
		_ = a.closeResources()
		return nil, err
	}

	seed, err := config.LoadSeed(cfg.SettingsSeedFile)
	if err != nil {
		_ = a.closeResources()
		return nil, err
	}

	exportFiles, err := storage.NewLocalStorage(cfg.ExportDir)
	if err != nil {
		_ = a.closeResources()
		return nil, fmt.Errorf("prepare export dir: %w", err)
	}

	a.persister = service.NewPersister(store, a.metrics, logr, service.PersisterConfig{
		Workers:    cfg.Persist.Workers,
		BufferSize: cfg.Persist.BufferSize,
	})

	a.village = service.NewVillageService(service.VillageServiceParams{
		Store:     store,
		Persister: a.persister,
		Cache:     a.openCache(),
		Metrics:   a.metrics,
		Events:    a.openEvents(),
		Seed:      seed,
		Logger:    logr,
		CacheTTL:  cfg.Dashboard.CacheTTL,
	})
	a.backup = service.NewBackupService(cfg.Backup, a.village, a.metrics, logr)
	a.exports = service.NewExportService(a.village, exportFiles, logr)

	return a, nil
}

func (a *app) openStore(ctx context.Context) (service.SnapshotStore, error) {
	var (
		db  *sqlx.DB
		err error
	)
	switch a.cfg.Store.Driver {
	case config.StoreFile:
		files, err := storage.NewLocalStorage(a.cfg.Store.Dir)
		if err != nil {
			return nil, fmt.Errorf("prepare store dir: %w", err)
		}
		a.logger.Info("snapshot store ready", zap.String("driver", config.StoreFile), zap.String("dir", a.cfg.Store.Dir))
		return repository.NewFileSnapshotRepository(files), nil
	case config.StorePostgres:
		db, err = database.NewPostgres(a.cfg.Database)
	case config.StoreSQLite, "":
		db, err = database.NewSQLite(a.cfg.Store.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store driver %q", a.cfg.Store.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", a.cfg.Store.Driver, err)
	}
	a.closers = append(a.closers, db.Close)

	repo := repository.NewSnapshotRepository(db, a.metrics)
	if err := repo.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate snapshot store: %w", err)
	}
	a.logger.Info("snapshot store ready", zap.String("driver", db.DriverName()))
	return repo, nil
}

// openCache connects Redis when the dashboard cache is enabled. An unreachable
// Redis disables caching instead of failing startup.
func (a *app) openCache() *service.CacheService {
	var client redis.UniversalClient
	if a.cfg.Dashboard.CacheEnabled {
		rc, err := cache.NewRedis(a.cfg.Redis)
		if err != nil {
			a.logger.Warn("dashboard cache disabled", zap.Error(err))
		} else {
			client = rc
			a.closers = append(a.closers, rc.Close)
		}
	}
	repo := repository.NewCacheRepository(client, a.logger)
	return service.NewCacheService(repo, a.metrics, a.cfg.Dashboard.CacheTTL, a.logger, client != nil)
}

func (a *app) openEvents() events.Publisher {
	if !a.cfg.Events.Enabled || len(a.cfg.Events.Brokers) == 0 {
		return events.Nop{}
	}
	pub := kafka.NewPublisher(a.cfg.Events.Brokers, a.cfg.Events.Topic)
	a.closers = append(a.closers, pub.Close)
	a.logger.Info("ledger events enabled", zap.Strings("brokers", a.cfg.Events.Brokers), zap.String("topic", a.cfg.Events.Topic))
	return pub
}

func (a *app) start(ctx context.Context) {
	a.persister.Start(ctx)
}

// close flushes pending snapshots and releases connections.
func (a *app) close(ctx context.Context) error {
	var errs []error
	if a.persister != nil {
		if err := a.persister.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush snapshots: %w", err))
		}
	}
	if err := a.closeResources(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *app) closeResources() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func shutdownContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 15*time.Second)
}
