package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fabiosv/aws-resources-mapper/db"
	"github.com/fabiosv/aws-resources-mapper/db/clickhouse"
	"github.com/fabiosv/aws-resources-mapper/db/file"
	"github.com/fabiosv/aws-resources-mapper/db/postgres"
	"github.com/fabiosv/aws-resources-mapper/db/s3"
	"github.com/fabiosv/aws-resources-mapper/pkg/metrics"
	"github.com/fabiosv/aws-resources-mapper/pkg/platform"
)

func encodeOptions(cfg *platform.Config) db.EncodeOptions {
	return db.EncodeOptions{
		Format:   cfg.Output.Format,
		Tagged:   cfg.Output.Tagged,
		Compress: cfg.Output.Compress,
	}
}

// openStore builds the configured graph store, wrapped with metrics.
func openStore(ctx context.Context, cfg *platform.Config, logger zerolog.Logger, reg *metrics.Registry) (db.GraphStore, error) {
	var store db.GraphStore

	switch cfg.Output.Store {
	case "", "file":
		store = file.NewStore(cfg.Output.Dir, encodeOptions(cfg), logger)

	case "s3":
		awsCfg, err := platform.LoadAWSConfig(ctx, cfg.AWS)
		if err != nil {
			return nil, err
		}
		store = s3.NewStore(s3.NewClient(awsCfg, cfg.AWS.Endpoint), s3.Config{
			Bucket: cfg.Output.S3Bucket,
			Prefix: cfg.Output.S3Prefix,
			Encode: encodeOptions(cfg),
		}, logger)

	case "clickhouse":
		ch, err := clickhouse.NewStore(&clickhouse.Config{
			Host:     cfg.ClickHouse.Host,
			Port:     cfg.ClickHouse.Port,
			Database: cfg.ClickHouse.Database,
			Username: cfg.ClickHouse.Username,
			Password: cfg.ClickHouse.Password,
			Debug:    cfg.ClickHouse.Debug,
		}, logger)
		if err != nil {
			return nil, err
		}
		if err := ch.Ping(ctx); err != nil {
			ch.Close()
			return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
		}
		if err := ch.Migrate(ctx); err != nil {
			ch.Close()
			return nil, err
		}
		store = ch

	case "postgres":
		pg, err := postgres.NewStore(cfg.Postgres.DSN, logger)
		if err != nil {
			return nil, err
		}
		if err := pg.Ping(ctx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		store = pg

	default:
		return nil, fmt.Errorf("unknown store: %s", cfg.Output.Store)
	}

	return db.Instrument(store, reg), nil
}
