package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/donoralert/pkg/audit"
	"github.com/dmitrymomot/donoralert/pkg/clock"
	"github.com/dmitrymomot/donoralert/pkg/config"
	"github.com/dmitrymomot/donoralert/pkg/httpserver"
	"github.com/dmitrymomot/donoralert/pkg/jwt"
	"github.com/dmitrymomot/donoralert/pkg/logger"
	"github.com/dmitrymomot/donoralert/pkg/mongo"
	"github.com/dmitrymomot/donoralert/pkg/pg"
	"github.com/dmitrymomot/donoralert/pkg/redis"
	"github.com/dmitrymomot/donoralert/pkg/requestid"
	"github.com/dmitrymomot/donoralert/svc/alert"
	"github.com/dmitrymomot/donoralert/svc/api"
	"github.com/dmitrymomot/donoralert/svc/donor"
	"github.com/dmitrymomot/donoralert/svc/events"
	"github.com/dmitrymomot/donoralert/svc/notification"
	"github.com/dmitrymomot/donoralert/svc/scheduler"
	mongostore "github.com/dmitrymomot/donoralert/svc/storage/mongo"
	"github.com/dmitrymomot/donoralert/svc/storage/postgres"
)

const serviceName = "donoralert"

func main() {
	if err := run(); err != nil {
		slog.Error("donoralert stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run() error {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(
		logger.WithEnvironment(cfg.AppEnv, serviceName),
		logger.WithLevelName(cfg.LogLevel),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clk := clock.System()

	pool, err := pg.Connect(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := pg.Migrate(ctx, pool, cfg.Postgres, log); err != nil {
		return err
	}

	rdb, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	checks := map[string]httpserver.Check{
		"postgres": pg.Healthcheck(pool),
		"redis":    redis.Healthcheck(rdb),
	}

	storeOpts := []postgres.Option{postgres.WithClock(clk)}
	var donors donor.Registry
	switch cfg.Directory {
	case directoryMongo:
		mdb, err := mongo.Connect(ctx, cfg.Mongo)
		if err != nil {
			return err
		}
		defer func() {
			dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			_ = mdb.Client().Disconnect(dctx)
		}()
		dir := mongostore.NewDirectory(mdb.Collection(mongostore.DefaultCollection), mongostore.WithClock(clk))
		if err := dir.EnsureIndexes(ctx); err != nil {
			return err
		}
		storeOpts = append(storeOpts, postgres.WithDirectory(dir))
		donors = dir
		checks["mongo"] = mongo.Healthcheck(mdb)
	case directoryPostgres, "":
	default:
		return fmt.Errorf("unknown DIRECTORY_BACKEND %q", cfg.Directory)
	}

	store := postgres.New(pool, storeOpts...)
	if donors == nil {
		donors = store.Donors()
	}

	auditWriter, closeAudit := audit.NewAsyncWriter(store.Audit(), audit.AsyncOptions{
		BufferSize:   cfg.Audit.BufferSize,
		BatchSize:    cfg.Audit.BatchSize,
		BatchTimeout: cfg.Audit.BatchTimeout,
	})
	defer func() {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := closeAudit(cctx); err != nil {
			log.Error("audit writer close failed", logger.Error(err))
		}
	}()
	auditLog := audit.NewLogger(auditWriter,
		audit.WithRequestIDExtractor(requestid.Extract),
		audit.WithUserIDExtractor(func(ctx context.Context) (string, bool) {
			claims, ok := jwt.GetClaims(ctx)
			if !ok {
				return "", false
			}
			return claims.Subject, true
		}),
		audit.WithNow(clk.Now),
	)

	redisEvents := events.NewRedisPublisher(rdb, events.WithRedisClock(clk))

	alerts := alert.NewService(store.Alerts(), store,
		alert.WithLogger(log.With(logger.Component("alert"))),
		alert.WithClock(clk),
		alert.WithConfig(cfg.Alert),
		alert.WithPublisher(events.Multi{events.NewAuditPublisher(auditLog), redisEvents}),
		alert.WithDeliverer(redisEvents),
	)
	inbox := notification.NewService(store.Notifications(),
		notification.WithLogger(log.With(logger.Component("notification"))),
		notification.WithClock(clk),
		notification.WithRetention(cfg.Jobs.Retention),
	)

	tokens, err := jwt.NewFromConfig(cfg.JWT, jwt.WithClock(clk))
	if err != nil {
		return fmt.Errorf("jwt: %w", err)
	}

	jobs := scheduler.New(
		scheduler.WithCheckInterval(cfg.Jobs.CheckInterval),
		scheduler.WithLogger(log.With(logger.Component("scheduler"))),
		scheduler.WithClock(clk),
		scheduler.WithLocker(scheduler.NewRedisLocker(rdb, serviceName+":jobs:"), cfg.Jobs.LockTTL),
	)
	if err := registerJobs(jobs, cfg.Jobs, alerts, inbox); err != nil {
		return err
	}

	router := api.New(alerts, inbox, tokens,
		api.WithLogger(log.With(logger.Component("api"))),
		api.WithClock(clk),
		api.WithConfig(cfg.API),
		api.WithDonors(donors),
		api.WithHealthChecks(checks),
	).Handler()
	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx, router) })
	g.Go(func() error { return jobs.Start(gctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func registerJobs(s *scheduler.Scheduler, cfg JobsConfig, alerts *alert.Service, inbox *notification.Service) error {
	err := s.AddJob("process-scheduled-alerts", scheduler.EveryInterval(cfg.ScanInterval), func(ctx context.Context) error {
		report, err := alerts.ProcessDue(ctx)
		if err != nil {
			return err
		}
		if report.Failed > 0 {
			return fmt.Errorf("%d of %d due alerts failed", report.Failed, report.Due)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return s.AddJob("cleanup-old-notifications", scheduler.DailyAt(cfg.CleanupHour, cfg.CleanupMinute), inbox.Cleanup)
}
