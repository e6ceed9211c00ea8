package main

import (
	"github.com/urfave/cli/v2"

	"github.com/fabiosv/aws-resources-mapper/pkg/platform"
)

// loadConfig reads the --config file over the defaults, then applies every
// flag the user set explicitly.
func loadConfig(c *cli.Context) (*platform.Config, error) {
	cfg, err := platform.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Log.Format = c.String("log-format")
	}

	setString(c, "input", &cfg.Input.Path)
	setString(c, "input-suffix", &cfg.Input.Suffix)
	setString(c, "s3-bucket", &cfg.Input.S3Bucket)
	setString(c, "output-dir", &cfg.Output.Dir)
	setString(c, "format", &cfg.Output.Format)
	setString(c, "store", &cfg.Output.Store)
	setString(c, "output-bucket", &cfg.Output.S3Bucket)
	setString(c, "output-prefix", &cfg.Output.S3Prefix)
	setString(c, "aws-region", &cfg.AWS.Region)
	setString(c, "aws-endpoint", &cfg.AWS.Endpoint)
	setString(c, "postgres-dsn", &cfg.Postgres.DSN)
	setString(c, "clickhouse-host", &cfg.ClickHouse.Host)
	setString(c, "clickhouse-database", &cfg.ClickHouse.Database)
	setString(c, "clickhouse-user", &cfg.ClickHouse.Username)
	setString(c, "clickhouse-password", &cfg.ClickHouse.Password)
	setString(c, "api-key", &cfg.Server.APIKey)

	if c.IsSet("clickhouse-port") {
		cfg.ClickHouse.Port = c.Int("clickhouse-port")
	}
	if c.IsSet("port") {
		cfg.Server.Port = c.Int("port")
	}

	setBool(c, "compress", &cfg.Output.Compress)
	setBool(c, "tagged", &cfg.Output.Tagged)
	setBool(c, "extended", &cfg.Graph.Extended)
	setBool(c, "include-network-node", &cfg.Graph.IncludeNetworkNode)
	setBool(c, "canonicalize-symmetric", &cfg.Graph.CanonicalizeSymmetric)

	// The output bucket defaults to the input bucket.
	if cfg.Output.S3Bucket == "" {
		cfg.Output.S3Bucket = cfg.Input.S3Bucket
	}

	return cfg, cfg.Validate()
}

func setString(c *cli.Context, name string, target *string) {
	if c.IsSet(name) {
		*target = c.String(name)
	}
}

func setBool(c *cli.Context, name string, target *bool) {
	if c.IsSet(name) {
		*target = c.Bool(name)
	}
}
