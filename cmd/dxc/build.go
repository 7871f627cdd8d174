package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/dxbc/internal/dxcyaml"
	"github.com/samcharles93/dxbc/internal/logger"
	"github.com/samcharles93/dxbc/pkg/dxc"
)

func buildCmd() *cli.Command {
	var (
		outPath string
		noCheck bool
	)

	return &cli.Command{
		Name:      "build",
		Usage:     "Assemble a DXContainer from a YAML description",
		ArgsUsage: "<file.yaml>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "output container path",
				Required:    true,
				Destination: &outPath,
			},
			&cli.BoolFlag{
				Name:        "no-check",
				Usage:       "write the container even if it does not parse back (for malformed fixtures)",
				Destination: &noCheck,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			src := cmd.Args().First()
			if src == "" {
				return cli.Exit("error: missing YAML path", 1)
			}
			in, err := os.ReadFile(src)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: read %s: %v", src, err), 1)
			}

			out, err := dxcyaml.Build(in)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %s: %v", src, err), 1)
			}

			if _, err := dxc.Create(out); err != nil {
				if !noCheck {
					return cli.Exit(fmt.Sprintf("error: %s does not describe a valid container: %v", src, err), 1)
				}
				log.Warn("writing invalid container", "err", err)
			}

			if err := os.WriteFile(outPath, out, 0o644); err != nil {
				return cli.Exit(fmt.Sprintf("error: write %s: %v", outPath, err), 1)
			}
			log.Info("wrote container", "path", outPath, "bytes", len(out))
			return nil
		},
	}
}
