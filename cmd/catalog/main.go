package main

import (
	"database/sql"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"BookExplorer/internal/catalog"
	"BookExplorer/internal/scrape"
	"BookExplorer/pkg/kit"
)

func main() {
	service := "catalog"
	log := kit.NewLogger(service)
	defer func() { _ = log.Sync() }()

	port := getenv("PORT", "8082")
	upstream := getenv("UPSTREAM_URL", "https://www.worldofbooks.com")
	metricsToken := os.Getenv("METRICS_TOKEN")

	client, err := scrape.NewClient(upstream)
	if err != nil {
		log.Fatal("bad upstream url", zap.Error(err))
	}

	var index catalog.ProductIndex = catalog.NewMemIndex()
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			log.Fatal("open database", zap.Error(err))
		}
		defer db.Close()
		index = catalog.NewPostgresIndex(db)
		log.Info("using postgres product index")
	} else {
		log.Info("using in-memory product index")
	}

	s := catalog.NewServer(client, index, log)

	h := catalog.NewHandler(s, catalog.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       prometheus.NewRegistry(),
		MetricsEnabled: metricsToken != "",
		MetricsToken:   metricsToken,
	})

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
