package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/urbanfabric/building-explorer/internal/buildingcache"
	"github.com/urbanfabric/building-explorer/internal/config"
	"github.com/urbanfabric/building-explorer/internal/enrich"
	"github.com/urbanfabric/building-explorer/internal/httpclient"
	"github.com/urbanfabric/building-explorer/internal/logger"
	"github.com/urbanfabric/building-explorer/internal/model"
	"github.com/urbanfabric/building-explorer/internal/nlfilter"
	"github.com/urbanfabric/building-explorer/internal/observability"
	"github.com/urbanfabric/building-explorer/internal/server"
	"github.com/urbanfabric/building-explorer/internal/store"
	"github.com/urbanfabric/building-explorer/internal/upstream"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// .env is optional; system environment wins when absent
	_ = godotenv.Load()

	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   strings.ToLower(os.Getenv("LOG_CONSOLE")) == "true",
		Component: "server",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	observability.ExposeBuildInfo(Version)
	appLog.Info("starting building explorer",
		"addr", cfg.Addr,
		"version", Version,
		"buildings_url", cfg.BuildingsURL,
		"landuse_url", cfg.LandUseURL)

	httpClient := httpclient.NewOutbound()

	buildingsClient, err := upstream.NewBuildingsClient(appLog, httpClient, cfg.BuildingsURL)
	if err != nil {
		appLog.Error("buildings client setup failed", "err", err)
		return 1
	}
	landUseClient, err := upstream.NewLandUseClient(appLog, httpClient, cfg.LandUseURL)
	if err != nil {
		appLog.Error("land-use client setup failed", "err", err)
		return 1
	}

	cache := buildingcache.New(appLog, buildingsClient.Fetch, func(raw []model.RawBuilding) []model.Building {
		return enrich.Buildings(appLog, raw)
	})

	llm := nlfilter.NewLLMExtractor(appLog, cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.Token)
	extractor := nlfilter.NewExtractor(appLog, llm)

	st, err := store.Open(appLog, cfg.DBPath)
	if err != nil {
		appLog.Error("filter store setup failed", "err", err)
		return 1
	}
	defer func() { _ = st.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h := &server.Handlers{
		Logger:    appLog,
		Cache:     cache,
		LandUse:   landUseClient,
		Extractor: extractor,
		Store:     st,
		Limit:     cfg.BuildingsLimit,
		BBox:      config.DowntownBBox,
	}

	if err := server.Run(ctx, cfg, appLog, h); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
