package main

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"os"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"localspot/internal/adapters/directory"
	server "localspot/internal/adapters/http_server"
	"localspot/internal/adapters/images"
	"localspot/internal/adapters/observability"
	"localspot/internal/adapters/overpass"
	redisad "localspot/internal/adapters/redis"
	"localspot/internal/app"
	"localspot/internal/domain"
	"localspot/internal/shared"
	mysqlstore "localspot/internal/storage/mysql"
)

func main() {
	_ = godotenv.Load()
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// review store
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("review store connection ok")
	store := mysqlstore.New(db)

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	// source connectors; each one is optional, the pipeline fails soft
	var geo domain.GeoTagClient
	if cfg.OverpassBase != "" {
		geo = overpass.New(cfg.OverpassBase, 2)
	}
	var dir domain.DirectoryClient
	if cfg.DirectoryKey != "" {
		c, err := directory.New(cfg.DirectoryBase, cfg.DirectoryKey, 5)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize directory client")
		}
		dir = c
	}
	var resolver domain.ImageResolver
	if cfg.ImagesBase != "" {
		resolver = images.New(cfg.ImagesBase, cache, cfg.ImageCacheTTL)
	}

	catalog := app.NewCatalogService(geo, dir, cache, store, resolver, cfg.CacheTTL)
	if cfg.SnapshotPath != "" {
		snap, err := loadSnapshot(cfg.SnapshotPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.SnapshotPath).Msg("snapshot load failed")
		}
		catalog.UseSnapshot(snap, cfg.SourcesDisabled)
		log.Info().Int("businesses", len(snap)).Bool("sources_disabled", cfg.SourcesDisabled).Msg("offline snapshot loaded")
	}

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Catalog: catalog,
		DefaultQuery: app.CatalogQuery{
			Lat: cfg.CenterLat, Lon: cfg.CenterLon, RadiusM: cfg.RadiusM,
		},
	})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}

func loadSnapshot(path string) ([]domain.Business, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []domain.Business
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
