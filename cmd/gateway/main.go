package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"BookExplorer/internal/gateway"
	"BookExplorer/pkg/kit"
)

func main() {
	service := "gateway"
	log := kit.NewLogger(service)
	defer func() { _ = log.Sync() }()

	port := getenv("PORT", "8080")
	sessionURL := getenv("SESSION_URL", "http://localhost:8081")
	catalogURL := getenv("CATALOG_URL", "http://localhost:8082")
	origins := strings.Split(getenv("ALLOWED_ORIGINS", "http://localhost:3000"), ",")
	metricsToken := os.Getenv("METRICS_TOKEN")

	h, err := gateway.NewHandler(
		gateway.Deps{
			SessionURL:      sessionURL,
			CatalogURL:      catalogURL,
			AllowedOrigins:  origins,
			RateLimit:       getenvInt("RATE_LIMIT", 0),
			RateLimitWindow: getenvInt("RATE_LIMIT_WINDOW", 0),
		},
		gateway.HTTPDeps{
			Log:            log,
			Service:        service,
			Registry:       prometheus.NewRegistry(),
			MetricsEnabled: metricsToken != "",
			MetricsToken:   metricsToken,
		},
	)
	if err != nil {
		log.Fatal("gateway init", zap.Error(err))
	}

	if err := kit.RunHTTPServer(":"+port, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
