package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/complaint-register/api/internal/attachments"
	"github.com/complaint-register/api/internal/complaint"
	"github.com/complaint-register/api/internal/config"
	"github.com/complaint-register/api/internal/db"
	"github.com/complaint-register/api/internal/store"
)

// OpenStore connects the configured database, applies pending migrations and
// returns the complaint store with a function releasing its connections.
func OpenStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (complaint.Store, func(), error) {
	switch cfg.DatabaseDriver {
	case db.DriverPostgres:
		sqlDB, err := db.OpenPostgresSQL(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		err = db.Migrate(ctx, sqlDB, db.DriverPostgres, logger)
		_ = sqlDB.Close()
		if err != nil {
			return nil, nil, err
		}

		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return store.NewPostgres(pool), pool.Close, nil

	case db.DriverSQLite:
		sqlDB, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx, sqlDB, db.DriverSQLite, logger); err != nil {
			_ = sqlDB.Close()
			return nil, nil, err
		}
		return store.NewSQLite(sqlDB), func() { _ = sqlDB.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
}

// OpenAttachments returns the MinIO bucket store when an endpoint is
// configured and the local upload directory otherwise.
func OpenAttachments(ctx context.Context, cfg config.Config) (attachments.Store, error) {
	if cfg.MinIOEndpoint == "" {
		local, err := attachments.NewLocal(cfg.UploadDir)
		if err != nil {
			return nil, err
		}
		return local, nil
	}
	bucket, err := attachments.NewMinIO(ctx, attachments.MinIOConfig{
		Endpoint:  cfg.MinIOEndpoint,
		AccessKey: cfg.MinIOAccessKey,
		SecretKey: cfg.MinIOSecretKey,
		Bucket:    cfg.MinIOBucket,
		UseSSL:    cfg.MinIOUseSSL,
	})
	if err != nil {
		return nil, err
	}
	return bucket, nil
}
