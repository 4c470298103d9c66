// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/urbanfabric/building-explorer/internal/model"
)

// DowntownBBox is the fixed downtown Calgary extent served by the buildings
// endpoints. Not configurable; the frontend camera assumes it.
var DowntownBBox = model.BBox{
	MinLng: -114.0950, MinLat: 51.0400,
	MaxLng: -114.0450, MaxLat: 51.0550,
}

type LLMCfg struct {
	BaseURL string
	Model   string
	Token   string
}

type Config struct {
	Addr           string
	LogLevel       string
	BuildingsURL   string
	LandUseURL     string
	BuildingsLimit int
	CORSOrigins    []string
	DBPath         string
	LLM            LLMCfg
}

func FromEnv() Config {
	return Config{
		Addr:           getenv("ADDR", ":5050"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		BuildingsURL:   getenv("BUILDINGS_URL", "https://data.calgary.ca/resource/cchr-krqg.json"),
		LandUseURL:     getenv("LANDUSE_URL", "https://data.calgary.ca/resource/qe6k-p9nh.json"),
		BuildingsLimit: getint("BUILDINGS_LIMIT", 1000),
		CORSOrigins:    parseList(getenv("CORS_ORIGINS", "http://localhost:3000")),
		DBPath:         getenv("DB_PATH", "filters.db"),
		LLM: LLMCfg{
			BaseURL: getenv("LLM_BASE_URL", "https://router.huggingface.co/hf-inference/models/HuggingFaceTB/SmolLM3-3B/v1"),
			Model:   getenv("LLM_MODEL", "HuggingFaceTB/SmolLM3-3B"),
			Token:   getenv("HUGGINGFACE_API_TOKEN", ""),
		},
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// parse "a,b,c" into a trimmed list, dropping empties
func parseList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
