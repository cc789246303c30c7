package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"roomfinder/internal/adapters/observability"
	"roomfinder/internal/domain"
	"roomfinder/internal/shared"
	mysqlrepo "roomfinder/internal/storage/mysql"
)

// materializer tops up the inventory ledger so every room type has a row for
// each of the next MATERIALIZE_DAYS nights. Existing rows are never touched.
func main() {
	_ = godotenv.Load()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "roomfinder-materializer")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Int("days", cfg.MaterializeDays).
		Int("workers", cfg.MaterializeWorkers).
		Msg("materializer starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	rts, err := repo.AllRoomTypes(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("list room types failed")
	}

	from := time.Now().UTC().Truncate(24 * time.Hour)
	workers := cfg.MaterializeWorkers
	if workers < 1 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var (
		wg       sync.WaitGroup
		inserted atomic.Int64
		failed   atomic.Int64
	)

	for _, rt := range rts {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Msg("materializer interrupted")
			break
		}

		wg.Add(1)
		go func(rt domain.RoomType) {
			defer wg.Done()
			defer sem.Release(1)

			n, err := repo.MaterializeLedger(ctx, rt, from, cfg.MaterializeDays)
			if err != nil {
				failed.Add(1)
				log.Warn().Int64("room_type_id", rt.ID).Err(err).Msg("materialize failed")
				return
			}
			inserted.Add(n)
			log.Debug().Int64("room_type_id", rt.ID).Int64("rows", n).Msg("materialize ok")
		}(rt)
	}

	wg.Wait()
	log.Info().
		Int("room_types", len(rts)).
		Int64("rows_inserted", inserted.Load()).
		Int64("failed", failed.Load()).
		Msg("materialization completed")
	if failed.Load() > 0 {
		os.Exit(1)
	}
}
