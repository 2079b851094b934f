package main

import (
	"context"
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"deal_agent/internal/adapters/observability"
	redisad "deal_agent/internal/adapters/redis"
	"deal_agent/internal/app"
	"deal_agent/internal/shared"
	mysqlrepo "deal_agent/internal/storage/mysql"
)

// One-shot ingestion run, for ops and backfills. The API binary runs the
// same cycle periodically in-process.
func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	if cfg.CSVPath == "" {
		log.Fatal().Msg("INGEST_CSV_PATH is required for a one-shot run")
	}

	log.Info().
		Str("path", cfg.CSVPath).
		Int("workers", cfg.UpsertWorkers).
		Msg("ingestor starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db, cfg.UpsertWorkers)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	ing := app.NewIngestionService(repo, cache, cfg.CSVPath, cfg.IngestInterval)

	res, err := ing.RunOnce(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("ingest failed")
	}
	log.Info().Int("succeeded", res.Succeeded).Int("failed", res.Failed).Msg("ingestion completed")
}
