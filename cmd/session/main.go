package main

import (
	"database/sql"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"BookExplorer/internal/session"
	"BookExplorer/pkg/kit"
)

func main() {
	service := "session"
	log := kit.NewLogger(service)
	defer func() { _ = log.Sync() }()

	port := getenv("PORT", "8081")
	secret := getenv("SESSION_SECRET", "dev-secret")
	metricsToken := os.Getenv("METRICS_TOKEN")

	var storage session.StorageProvider = session.NewMemStorage()
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			log.Fatal("open database", zap.Error(err))
		}
		defer db.Close()
		storage = session.NewPostgresStorage(db)
		log.Info("using postgres storage")
	} else {
		log.Info("using in-memory storage")
	}

	s := &session.Server{
		Log:     log,
		Storage: storage,
		Tokens:  session.NewTokenMaker(secret),
	}

	h := session.NewHandler(s, session.HTTPDeps{
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
