package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/dxbc/internal/logger"
)

func dumpCmd() *cli.Command {
	var (
		indent          bool
		withFingerprint bool
		outPath         string
	)

	return &cli.Command{
		Name:      "dump",
		Usage:     "Print a decoded DXContainer as JSON",
		ArgsUsage: "<file.dxbc>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "indent", Usage: "indent the JSON output", Value: true, Destination: &indent},
			&cli.BoolFlag{Name: "fingerprint", Aliases: []string{"f"}, Usage: "include a BLAKE3 digest of each part", Destination: &withFingerprint},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write to file instead of stdout", Destination: &outPath},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			if appConfig.JSONIndent != nil && !cmd.IsSet("indent") {
				indent = *appConfig.JSONIndent
			}

			path := cmd.Args().First()
			if path == "" {
				return cli.Exit("error: missing container path", 1)
			}
			c, err := openContainer(log, path)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			data, err := marshalReport(buildReport(log, path, c, withFingerprint), indent)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: encode json: %v", err), 1)
			}

			if outPath == "" {
				_, err = os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				return cli.Exit(fmt.Sprintf("error: write %s: %v", outPath, err), 1)
			}
			log.Info("wrote json", "path", outPath, "bytes", len(data))
			return nil
		},
	}
}

func marshalReport(r report, indent bool) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if indent {
		data, err = json.MarshalIndent(r, "", "  ")
	} else {
		data, err = json.Marshal(r)
	}
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
