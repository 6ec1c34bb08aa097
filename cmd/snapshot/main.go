// Command snapshot runs the live aggregation pipeline for a set of centers
// and writes the pre-scored catalog JSON consumed by the offline fallback.
package main

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"localspot/internal/adapters/directory"
	"localspot/internal/adapters/observability"
	"localspot/internal/adapters/overpass"
	"localspot/internal/app"
	"localspot/internal/domain"
	"localspot/internal/shared"
)

type center struct {
	lat, lon float64
	radiusM  int
}

func main() {
	ctx := context.Background()
	_ = godotenv.Load()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	centers := parseCenters(os.Getenv("SNAPSHOT_CENTERS"), cfg)
	out := cfg.SnapshotPath
	if out == "" {
		out = "snapshot.json"
	}
	log.Info().Int("centers", len(centers)).Str("out", out).Msg("snapshot generator starting")

	geo := overpass.New(cfg.OverpassBase, 2)
	var dir domain.DirectoryClient
	if cfg.DirectoryKey != "" {
		c, err := directory.New(cfg.DirectoryBase, cfg.DirectoryKey, 5)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize directory client")
		}
		dir = c
	}

	// no cache, store, or image enrichment in the offline build
	svc := app.NewCatalogService(geo, dir, noopCache{}, nil, nil, 0)

	sem := semaphore.NewWeighted(4)
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		all []domain.Business
	)
	for _, c := range centers {
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}
		wg.Add(1)
		go func(c center) {
			defer wg.Done()
			defer sem.Release(1)

			bs, err := svc.BuildSnapshot(ctx, app.CatalogQuery{Lat: c.lat, Lon: c.lon, RadiusM: c.radiusM})
			if err != nil {
				log.Warn().Err(err).Float64("lat", c.lat).Float64("lon", c.lon).Msg("snapshot build failed")
				return
			}
			mu.Lock()
			all = append(all, bs...)
			mu.Unlock()
			log.Info().Float64("lat", c.lat).Float64("lon", c.lon).Int("businesses", len(bs)).Msg("center done")
		}(c)
	}
	wg.Wait()

	b, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("marshal snapshot failed")
	}
	if err := os.WriteFile(out, b, 0o644); err != nil {
		log.Fatal().Err(err).Msg("write snapshot failed")
	}
	log.Info().Int("businesses", len(all)).Str("out", out).Msg("snapshot written")
}

// SNAPSHOT_CENTERS="lat,lon,radius;lat,lon,radius". Falls back to the
// configured default geography.
func parseCenters(raw string, cfg shared.Config) []center {
	var out []center
	for _, part := range strings.Split(raw, ";") {
		fields := strings.Split(strings.TrimSpace(part), ",")
		if len(fields) != 3 {
			continue
		}
		lat, err1 := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
		lon, err2 := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		radius, err3 := strconv.Atoi(strings.TrimSpace(fields[2]))
		if err1 != nil || err2 != nil || err3 != nil || radius <= 0 {
			log.Warn().Str("center", part).Msg("skipping malformed center")
			continue
		}
		out = append(out, center{lat: lat, lon: lon, radiusM: radius})
	}
	if len(out) == 0 {
		out = append(out, center{lat: cfg.CenterLat, lon: cfg.CenterLon, radiusM: cfg.RadiusM})
	}
	return out
}

type noopCache struct{}

func (noopCache) Get(context.Context, string, any) (bool, error) { return false, nil }
func (noopCache) Set(context.Context, string, any, int) error    { return nil }
func (noopCache) Del(context.Context, string) error              { return nil }
func (noopCache) DelPrefix(context.Context, string) error        { return nil }
