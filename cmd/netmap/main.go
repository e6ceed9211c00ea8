// netmap builds a network relationship graph from a VPC inventory report.
//
// Usage:
//
//	netmap graph --vpc vpc-0abc [--input report.json] [--store file|s3|clickhouse|postgres]
//	netmap serve --port 8080
//	netmap version
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	apperrors "github.com/fabiosv/aws-resources-mapper/pkg/errors"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Exit codes for CI/CD integration
const (
	ExitSuccess      = 0
	ExitFailure      = 1
	ExitInputError   = 10
	ExitBuildError   = 11
	ExitPersistError = 12
)

// exitError tags an error with the process exit code it maps to.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func withExit(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	var pe *apperrors.PersistError
	if errors.As(err, &pe) {
		return ExitPersistError
	}
	if apperrors.IsNotLoaded(err) {
		return ExitInputError
	}
	return ExitFailure
}

func main() {
	app := newApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "netmap",
		Usage:     "Derive a VPC network relationship graph from an inventory report",
		Version:   fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Writer:    stdout,
		ErrWriter: stderr,

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"NETMAP_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "console",
				Usage:   "Log format (console, json)",
				EnvVars: []string{"NETMAP_LOG_FORMAT"},
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file",
				EnvVars: []string{"NETMAP_CONFIG"},
			},
		},

		Commands: []*cli.Command{
			graphCommand(),
			serveCommand(),
			versionCommand(),
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(c *cli.Context) error {
			fmt.Fprintf(c.App.Writer, "netmap %s (commit: %s, built: %s)\n", version, commit, date)
			return nil
		},
	}
}
