package main

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/fabiosv/aws-resources-mapper/api"
	"github.com/fabiosv/aws-resources-mapper/db"
	"github.com/fabiosv/aws-resources-mapper/pkg/metrics"
	"github.com/fabiosv/aws-resources-mapper/pkg/platform"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the network graph API server",
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "Server port",
				EnvVars: []string{"PORT"},
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "Require this value in the X-API-Key header",
				EnvVars: []string{"NETMAP_API_KEY"},
			},
			&cli.StringFlag{
				Name:    "store",
				Usage:   "Graph store used by ?persist=true (file, s3, clickhouse, postgres); unset disables persistence",
				EnvVars: []string{"NETMAP_STORE"},
			},
			&cli.StringFlag{
				Name:  "output-dir",
				Value: ".",
				Usage: "Directory for the file store",
			},
			&cli.StringFlag{
				Name:  "output-bucket",
				Usage: "S3 bucket for the s3 store",
			},
			&cli.StringFlag{
				Name:  "output-prefix",
				Usage: "Key prefix for the s3 store",
			},
			&cli.BoolFlag{
				Name:  "extended",
				Usage: "Derive extended categories by default",
			},
		}, backendFlags()...),
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return withExit(ExitInputError, err)
	}
	logger := platform.InitLogger(cfg.Log.Level, cfg.Log.Format)
	reg := metrics.NewRegistry()

	var store db.GraphStore
	if c.IsSet("store") || c.String("config") != "" {
		store, err = openStore(ctx, cfg, logger, reg)
		if err != nil {
			return withExit(ExitPersistError, err)
		}
		defer store.Close()
	}

	serverCfg := api.DefaultConfig()
	serverCfg.Port = cfg.Server.Port
	serverCfg.APIKey = cfg.Server.APIKey
	serverCfg.Version = version
	serverCfg.Graph = cfg.Graph

	return api.NewServer(serverCfg, store, reg, logger).StartWithGracefulShutdown(ctx)
}
