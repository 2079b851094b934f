package main

import (
	"context"
	"database/sql"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"deal_agent/internal/adapters/gemini"
	server "deal_agent/internal/adapters/http_server"
	"deal_agent/internal/adapters/observability"
	redisad "deal_agent/internal/adapters/redis"
	"deal_agent/internal/adapters/tavily"
	"deal_agent/internal/adapters/weather"
	"deal_agent/internal/app"
	"deal_agent/internal/domain"
	"deal_agent/internal/shared"
	mysqlrepo "deal_agent/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db, cfg.UpsertWorkers)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	var model domain.ModelClient
	if c, err := gemini.New("", cfg.GeminiKey, 2); err == nil {
		model = c
	}
	var search domain.SearchClient
	if c, err := tavily.New("", cfg.TavilyKey, 2); err == nil {
		search = c
	}
	var wx domain.WeatherClient
	if c, err := weather.New("", cfg.OpenWeatherKey, 2); err == nil {
		wx = c
	}

	q := app.NewQueryService(repo, cache, cfg.CacheTTL)
	b := app.NewBundleService(repo)
	c := app.NewChatService(repo, model, search, wx)
	w := app.NewWatchService(repo)

	// ingestion runs as the single in-process background writer
	ing := app.NewIngestionService(repo, cache, cfg.CSVPath, cfg.IngestInterval)
	go ing.Run(ctx)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Q: q, B: b, C: c, W: w})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("shutdown complete")
}
