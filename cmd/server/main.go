// Command server runs the donor matching HTTP service.
//
// Wiring happens here and nowhere else: config, stores, services, transport.
// With no DATABASE_URL the service runs fully in memory, which is how the
// handler tests and local demos exercise it.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"lifeline/internal/audit"
	"lifeline/internal/donor"
	"lifeline/internal/geo"
	jwttoken "lifeline/internal/jwt_token"
	"lifeline/internal/match"
	matchhandler "lifeline/internal/match/handler"
	"lifeline/internal/matching"
	"lifeline/internal/platform/config"
	"lifeline/internal/platform/httpserver"
	"lifeline/internal/platform/logger"
	"lifeline/internal/platform/metrics"
	"lifeline/internal/platform/migrate"
	"lifeline/internal/platform/postgres"
	redisplatform "lifeline/internal/platform/redis"
	"lifeline/internal/request"
	httptransport "lifeline/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}

	var (
		donors   donor.Store
		requests request.Store
		matches  match.Store
	)
	if db != nil {
		defer db.Close()
		if err := migrate.Up(db); err != nil {
			return err
		}
		donors = donor.NewPostgres(db)
		requests = request.NewPostgres(db)
		matches = match.NewPostgres(db)
		log.Info("using postgres stores")
	} else {
		donors = donor.NewMemoryStore()
		requests = request.NewMemoryStore()
		matches = match.NewMemoryStore()
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	redisClient, err := redisplatform.New(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}

	m := metrics.New()
	estimator, err := geo.New()
	if err != nil {
		return err
	}

	finderOpts := []matching.FinderOption{
		matching.WithMetrics(m),
		matching.WithLogger(log),
	}
	var searchCache *matching.Cache
	if redisClient != nil {
		defer redisClient.Close()
		searchCache = matching.NewCache(redisClient.Client, cfg.SearchCacheTTL, log)
		finderOpts = append(finderOpts, matching.WithCache(searchCache))
	}
	finder := matching.NewFinder(donors, estimator, finderOpts...)

	group, groupCtx := errgroup.WithContext(ctx)

	serviceOpts := []match.Option{
		match.WithMetrics(m),
		match.WithLogger(log),
	}
	if searchCache != nil {
		serviceOpts = append(serviceOpts, match.WithCacheInvalidator(searchCache))
	}
	if cfg.KafkaBrokers != "" {
		sink, err := audit.NewKafkaPublisher(strings.Split(cfg.KafkaBrokers, ","), cfg.AuditTopic, log)
		if err != nil {
			return err
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := sink.Close(closeCtx); err != nil {
				log.Error("audit flush failed", "error", err)
			}
		}()

		buffered := audit.NewChannelPublisher(1024, log)
		worker := audit.NewWorker(sink, buffered.Inbox(), log)
		group.Go(func() error {
			err := worker.Run(groupCtx)
			if err == context.Canceled {
				return nil
			}
			return err
		})
		serviceOpts = append(serviceOpts, match.WithAudit(buffered))
		log.Info("audit trail enabled", "topic", cfg.AuditTopic)
	}

	service := match.NewService(matches, donors, requests, serviceOpts...)
	jwtService := jwttoken.NewService(cfg.JWTSigningKey)

	checks := map[string]httptransport.HealthCheck{}
	if db != nil {
		checks["postgres"] = db.PingContext
	}
	if redisClient != nil {
		checks["redis"] = redisClient.Health
	}

	h := matchhandler.New(service, finder, requests, log, jwtService, cfg.MaxSearchDistanceKm)
	router := httptransport.NewRouter([]httptransport.Registrar{h}, checks)
	srv := httpserver.New(cfg.Addr, router)

	group.Go(func() error {
		log.Info("starting lifeline matching service", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
