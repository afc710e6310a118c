package main

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"stay_pricing/internal/adapters/catalog"
	"stay_pricing/internal/adapters/observability"
	redisad "stay_pricing/internal/adapters/redis"
	"stay_pricing/internal/app"
	"stay_pricing/internal/domain"
	"stay_pricing/internal/shared"
	mysqlrepo "stay_pricing/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	log.Info().
		Str("base", cfg.CatalogBase).
		Int("workers", cfg.SyncWorkers).
		Int("hotels", len(cfg.HotelIDs)).
		Msg("catalog sync starting")

	if len(cfg.HotelIDs) == 0 {
		log.Fatal().Msg("CATALOG_HOTEL_IDS is empty, nothing to sync")
	}
	if cfg.MySQLDSN == "" {
		log.Fatal().Msg("MYSQL_DSN is required")
	}

	dsn, err := mysqlrepo.NormalizeDSN(cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid MYSQL_DSN")
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)

	client, err := catalog.New(cfg.CatalogBase, cfg.CatalogKey, cfg.CatalogRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize catalog client")
	}
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rc.Close()
		cache = rc
	}
	syncer := app.NewCatalogSync(client, repo, cache)

	workers := max(1, cfg.SyncWorkers)
	sem := semaphore.NewWeighted(int64(workers))
	var (
		wg     sync.WaitGroup
		failed atomic.Int32
	)
	for _, id := range cfg.HotelIDs {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(hotelID int64) {
			defer wg.Done()
			defer sem.Release(1)

			if err := syncer.SyncHotel(ctx, hotelID); err != nil {
				failed.Add(1)
				log.Warn().Int64("id", hotelID).Err(err).Msg("sync failed")
				return
			}
			log.Info().Int64("id", hotelID).Msg("sync ok")
		}(id)
	}

	wg.Wait()
	log.Info().Int("hotels", len(cfg.HotelIDs)).Int32("failed", failed.Load()).Msg("catalog sync completed")
}
