package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"os"

	"github.com/complaint-register/api/internal/config"
	"github.com/complaint-register/api/internal/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	ctx := context.Background()

	var conn *sql.DB
	switch cfg.DatabaseDriver {
	case db.DriverPostgres:
		conn, err = db.OpenPostgresSQL(cfg.DatabaseURL)
	default:
		conn, err = db.OpenSQLite(ctx, cfg.SQLitePath)
	}
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer conn.Close()

	if err := db.Migrate(ctx, conn, cfg.DatabaseDriver, logger); err != nil {
		log.Fatalf("migrate: %v", err)
	}
}
