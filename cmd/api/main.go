package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	amqpad "stay_pricing/internal/adapters/amqp"
	server "stay_pricing/internal/adapters/http_server"
	"stay_pricing/internal/adapters/observability"
	redisad "stay_pricing/internal/adapters/redis"
	"stay_pricing/internal/app"
	"stay_pricing/internal/domain"
	"stay_pricing/internal/shared"
	"stay_pricing/internal/storage/memory"
	mysqlrepo "stay_pricing/internal/storage/mysql"
)

type repository interface {
	domain.HotelRepository
	domain.BookingRepository
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	metricsSrv := observability.Serve(cfg.MetricsAddr, reg)

	// storage
	var (
		repo   repository
		health func(context.Context) error
	)
	if cfg.MySQLDSN != "" {
		dsn, err := mysqlrepo.NormalizeDSN(cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid MYSQL_DSN")
		}
		db, err := sql.Open("mysql", dsn)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("database connection ok")
		repo, health = mysqlrepo.New(db), db.PingContext
	} else {
		log.Warn().Msg("MYSQL_DSN is empty: using the in-memory store, data is lost on restart")
		repo = memory.New()
	}

	// cache
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed, reads fall through to storage")
		}
		cache = rc
	}

	// booking events
	var notifier domain.Notifier = amqpad.Nop{}
	if cfg.AMQPURL != "" {
		pub, err := amqpad.Dial(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatal().Err(err).Msg("amqp connect failed")
		}
		defer pub.Close()
		notifier = pub
	}

	q := app.NewQuoteService(repo, cache, cfg.CacheTTL)
	a := app.NewAdmissionService(q, repo, notifier, app.ParseAdmissionMode(cfg.AdmissionMode))

	// http
	srv := server.New()
	if metricsSrv == nil {
		srv.Mount("/metrics", observability.MetricsHandler(reg))
	}
	srv.MountHandlers(&server.Handlers{Q: q, A: a, Health: health})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("admission_mode", string(a.Mode())).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	// let in-flight booking events go out before the broker connection closes
	a.Wait()
	log.Info().Msg("API stopped")
}
