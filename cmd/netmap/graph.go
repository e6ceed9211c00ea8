package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/fabiosv/aws-resources-mapper/db/s3"
	"github.com/fabiosv/aws-resources-mapper/decision/inventory"
	"github.com/fabiosv/aws-resources-mapper/decision/netgraph"
	"github.com/fabiosv/aws-resources-mapper/pkg/api"
	"github.com/fabiosv/aws-resources-mapper/pkg/metrics"
	"github.com/fabiosv/aws-resources-mapper/pkg/platform"
)

func graphCommand() *cli.Command {
	return &cli.Command{
		Name:  "graph",
		Usage: "Build and persist the network graph of one VPC",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     "vpc",
				Aliases:  []string{"network-id"},
				Usage:    "Network (VPC) identifier",
				Required: true,
				EnvVars:  []string{"NETMAP_VPC"},
			},
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Inventory path, S3 key or http(s) URL (default: <vpc><input-suffix>)",
			},
			&cli.StringFlag{
				Name:  "input-suffix",
				Value: inventory.DefaultInputSuffix,
				Usage: "Suffix joined to the VPC ID to locate the inventory",
			},
			&cli.StringFlag{
				Name:    "s3-bucket",
				Usage:   "Read the inventory from this S3 bucket",
				EnvVars: []string{"NETMAP_S3_BUCKET"},
			},
			&cli.StringFlag{
				Name:    "output-dir",
				Aliases: []string{"o"},
				Value:   ".",
				Usage:   "Directory for the file store",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "json",
				Usage:   "Output format (json, yaml, text)",
			},
			&cli.BoolFlag{
				Name:  "compress",
				Usage: "Snappy-compress the written document",
			},
			&cli.BoolFlag{
				Name:  "tagged",
				Usage: "Write edges with their relationship kind",
			},
			&cli.BoolFlag{
				Name:  "extended",
				Usage: "Also derive NAT gateway, VPC endpoint, peering and RDS cluster edges",
			},
			&cli.BoolFlag{
				Name:  "include-network-node",
				Usage: "Insert the VPC ID as the first node",
			},
			&cli.BoolFlag{
				Name:  "canonicalize-symmetric",
				Usage: "Collapse both directions of security group references into one edge",
			},
			&cli.StringFlag{
				Name:    "store",
				Value:   "file",
				Usage:   "Graph store (file, s3, clickhouse, postgres)",
				EnvVars: []string{"NETMAP_STORE"},
			},
			&cli.StringFlag{
				Name:  "output-bucket",
				Usage: "S3 bucket for the s3 store (default: --s3-bucket)",
			},
			&cli.StringFlag{
				Name:  "output-prefix",
				Usage: "Key prefix for the s3 store",
			},
		}, backendFlags()...),
		Action: runGraph,
	}
}

// backendFlags are shared by graph and serve.
func backendFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "aws-region",
			Usage:   "AWS region",
			EnvVars: []string{"AWS_REGION"},
		},
		&cli.StringFlag{
			Name:    "aws-endpoint",
			Usage:   "Custom S3 endpoint (e.g. a local MinIO)",
			EnvVars: []string{"NETMAP_AWS_ENDPOINT"},
		},
		&cli.StringFlag{
			Name:    "clickhouse-host",
			Value:   "localhost",
			Usage:   "ClickHouse host",
			EnvVars: []string{"CLICKHOUSE_HOST"},
		},
		&cli.IntFlag{
			Name:    "clickhouse-port",
			Value:   9000,
			Usage:   "ClickHouse native port",
			EnvVars: []string{"CLICKHOUSE_PORT"},
		},
		&cli.StringFlag{
			Name:    "clickhouse-database",
			Value:   "netmap",
			Usage:   "ClickHouse database",
			EnvVars: []string{"CLICKHOUSE_DATABASE"},
		},
		&cli.StringFlag{
			Name:    "clickhouse-user",
			Value:   "default",
			Usage:   "ClickHouse user",
			EnvVars: []string{"CLICKHOUSE_USER"},
		},
		&cli.StringFlag{
			Name:    "clickhouse-password",
			Usage:   "ClickHouse password",
			EnvVars: []string{"CLICKHOUSE_PASSWORD"},
		},
		&cli.StringFlag{
			Name:    "postgres-dsn",
			Usage:   "PostgreSQL DSN for the postgres store",
			EnvVars: []string{"NETMAP_POSTGRES_DSN"},
		},
	}
}

func runGraph(c *cli.Context) error {
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return withExit(ExitInputError, err)
	}
	logger := platform.NewLogger(cfg.Log.Level, cfg.Log.Format, c.App.ErrWriter)
	reg := metrics.NewRegistry()

	networkID := c.String("vpc")
	doc, err := loadInventory(ctx, cfg, networkID, logger)
	if err != nil {
		return withExit(ExitInputError, err)
	}

	result, err := netgraph.NewGraphBuilder().
		WithLogger(logger).
		WithMetrics(reg).
		WithExtendedCategories(cfg.Graph.Extended).
		WithNetworkNode(cfg.Graph.IncludeNetworkNode).
		WithSymmetricCanonicalization(cfg.Graph.CanonicalizeSymmetric).
		Build(doc)
	if err != nil {
		return withExit(ExitBuildError, err)
	}

	store, err := openStore(ctx, cfg, logger, reg)
	if err != nil {
		return withExit(ExitPersistError, err)
	}
	defer store.Close()

	location, err := store.Save(ctx, result.Graph)
	if err != nil {
		return withExit(ExitPersistError, err)
	}

	logger.Info().
		Str("build_id", result.BuildID.String()).
		Str("location", location).
		Msg("Network graph saved")

	stats := result.Graph.KindStats()
	for _, kind := range result.Graph.SortedKinds() {
		logger.Debug().Str("kind", string(kind)).Int("edges", stats[kind]).Msg("Edge kind")
	}

	summary := api.GraphSummary{Nodes: len(result.Graph.Nodes), Edges: len(result.Graph.Edges)}
	return json.NewEncoder(c.App.Writer).Encode(summary)
}

// loadInventory picks the inventory source: an http(s) URL, an S3 bucket,
// or the local filesystem.
func loadInventory(ctx context.Context, cfg *platform.Config, networkID string, logger zerolog.Logger) (*inventory.Document, error) {
	loader := inventory.NewLoader(logger)
	key := inventory.InputPath(networkID, cfg.Input.Path, cfg.Input.Suffix)

	switch {
	case strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://"):
		client := platform.NewHTTPClient(cfg.Input.Retries, 30*time.Second, logger)
		return loader.Load(ctx, client, networkID, key)

	case cfg.Input.S3Bucket != "":
		awsCfg, err := platform.LoadAWSConfig(ctx, cfg.AWS)
		if err != nil {
			return nil, err
		}
		src := s3.NewStore(s3.NewClient(awsCfg, cfg.AWS.Endpoint), s3.Config{Bucket: cfg.Input.S3Bucket}, logger)
		return loader.Load(ctx, src, networkID, key)

	default:
		doc, err := loader.LoadFile(networkID, key)
		if err != nil {
			return nil, fmt.Errorf("load inventory: %w", err)
		}
		return doc, nil
	}
}
