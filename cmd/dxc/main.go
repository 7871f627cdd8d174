package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/dxbc/internal/logger"
)

var (
	configFile string
	logLevel   string
	logFormat  string
)

func main() {
	app := &cli.Command{
		Name:  "dxc",
		Usage: "Inspect and build DXContainer (DXBC) shader binaries",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Usage:       "path to config file",
				Value:       configPath(),
				Destination: &configFile,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error)",
				Value:       "info",
				Destination: &logLevel,
			},
			&cli.StringFlag{
				Name:        "log-format",
				Usage:       "log format (pretty, text, json)",
				Value:       logger.FormatPretty,
				Destination: &logFormat,
			},
		},
		Before: setup,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			inspectCmd(),
			dumpCmd(),
			buildCmd(),
			versionCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the config file and installs the logger in the context.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	appConfig = LoadConfig(configFile)
	applyConfig(cmd, appConfig)

	level, err := logger.ParseLevel(logLevel)
	if err != nil {
		return ctx, cli.Exit(fmt.Sprintf("error: %v", err), 2)
	}
	log, err := logger.NewFormat(logFormat, os.Stderr, level)
	if err != nil {
		return ctx, cli.Exit(fmt.Sprintf("error: %v", err), 2)
	}
	return logger.WithContext(ctx, log), nil
}
