package platform

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Config is the file-backed configuration for the CLI and the API server.
// Explicitly set CLI flags take precedence over values read from the file.
type Config struct {
	Log        LogConfig        `yaml:"log"`
	Input      InputConfig      `yaml:"input"`
	Graph      GraphConfig      `yaml:"graph"`
	Output     OutputConfig     `yaml:"output"`
	AWS        AWSConfig        `yaml:"aws"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Server     ServerConfig     `yaml:"server"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

// InputConfig locates the inventory document produced by the collector.
type InputConfig struct {
	Path     string `yaml:"path"`
	Suffix   string `yaml:"suffix" validate:"required"`
	S3Bucket string `yaml:"s3_bucket"`
	Retries  int    `yaml:"retries" validate:"min=0,max=10"`
}

type GraphConfig struct {
	Extended              bool `yaml:"extended"`
	IncludeNetworkNode    bool `yaml:"include_network_node"`
	CanonicalizeSymmetric bool `yaml:"canonicalize_symmetric"`
}

type OutputConfig struct {
	Store    string `yaml:"store" validate:"oneof=file s3 clickhouse postgres"`
	Dir      string `yaml:"dir"`
	Format   string `yaml:"format" validate:"oneof=json yaml text"`
	Tagged   bool   `yaml:"tagged"`
	Compress bool   `yaml:"compress"`
	S3Bucket string `yaml:"s3_bucket"`
	S3Prefix string `yaml:"s3_prefix"`
}

type AWSConfig struct {
	Region          string `yaml:"region"`
	Profile         string `yaml:"profile"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" validate:"required_with=AccessKeyID"`
	Endpoint        string `yaml:"endpoint" validate:"omitempty,url"`
}

type ClickHouseConfig struct {
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port" validate:"min=1,max=65535"`
	Database string `yaml:"database" validate:"required"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type ServerConfig struct {
	Port   int    `yaml:"port" validate:"min=1,max=65535"`
	APIKey string `yaml:"api_key"`
}

// DefaultConfig returns default development configuration
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "console"},
		Input: InputConfig{
			Suffix:  "_network_report.json",
			Retries: 2,
		},
		Output: OutputConfig{
			Store:  "file",
			Dir:    ".",
			Format: "json",
		},
		ClickHouse: ClickHouseConfig{
			Host:     "localhost",
			Port:     9000,
			Database: "netmap",
			Username: "default",
		},
		Server: ServerConfig{Port: 8080},
	}
}

// LoadConfig reads a YAML file over the defaults, then applies environment
// overrides for secrets and deployment settings. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	c.ClickHouse.Password = GetEnv("CLICKHOUSE_PASSWORD", c.ClickHouse.Password)
	c.Postgres.DSN = GetEnv("DATABASE_URL", c.Postgres.DSN)
	c.Server.APIKey = GetEnv("NETMAP_API_KEY", c.Server.APIKey)
	c.Server.Port = GetEnvInt("PORT", c.Server.Port)
	c.Input.Retries = GetEnvInt("NETMAP_INPUT_RETRIES", c.Input.Retries)
	c.Output.Compress = GetEnvBool("NETMAP_COMPRESS", c.Output.Compress)
}

// Validate checks field constraints and store-specific requirements.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}

	switch c.Output.Store {
	case "s3":
		if c.Output.S3Bucket == "" {
			return fmt.Errorf("output.s3_bucket is required for the s3 store")
		}
	case "postgres":
		if c.Postgres.DSN == "" {
			return fmt.Errorf("postgres.dsn is required for the postgres store")
		}
	}
	return nil
}

func formatValidationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// GetEnv returns the environment value for key or defaultVal when unset.
func GetEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func GetEnvInt(key string, defaultVal int) int {
	if val, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func GetEnvBool(key string, defaultVal bool) bool {
	if val, exists := os.LookupEnv(key); exists {
		if strings.ToLower(val) == "true" || val == "1" {
			return true
		}
		return false
	}
	return defaultVal
}
