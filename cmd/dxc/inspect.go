package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/dxbc/internal/logger"
	"github.com/samcharles93/dxbc/pkg/dxc"
)

func inspectCmd() *cli.Command {
	var (
		showFingerprint bool
		showResources   bool
		showSignatures  bool
		showAll         bool
	)

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Print the structure of a DXContainer file",
		ArgsUsage: "<file.dxbc>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "fingerprint", Aliases: []string{"f"}, Usage: "print a BLAKE3 digest of each part", Destination: &showFingerprint},
			&cli.BoolFlag{Name: "resources", Usage: "list PSV resource bindings", Destination: &showResources},
			&cli.BoolFlag{Name: "signatures", Usage: "list signature parameters", Destination: &showSignatures},
			&cli.BoolFlag{Name: "all", Usage: "show everything", Destination: &showAll},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			if showAll {
				showFingerprint, showResources, showSignatures = true, true, true
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

			r := buildReport(log, path, c, showFingerprint)
			printReport(os.Stdout, r, showResources, showSignatures)
			return nil
		},
	}
}

// openContainer opens and validates path, logging the failure.
func openContainer(log logger.Logger, path string) (*dxc.Container, error) {
	c, err := dxc.Open(path)
	if err != nil {
		log.Error("invalid container", "path", path, "err", err)
		return nil, cli.Exit(fmt.Sprintf("error: %s: %v", path, err), 1)
	}
	log.Debug("parsed container", "path", path, "parts", c.Len(), "bytes", len(c.Data()))
	return c, nil
}

func printReport(w io.Writer, r report, showResources, showSignatures bool) {
	fmt.Fprintf(w, "DXContainer: %s (%d bytes)\n", r.Path, r.Size)
	fmt.Fprintf(w, "  version:    %s\n", r.Header.Version)
	fmt.Fprintf(w, "  digest:     %s\n", r.Header.Digest)
	fmt.Fprintf(w, "  file size:  %d\n", r.Header.FileSize)
	fmt.Fprintf(w, "  parts:      %d\n", r.Header.PartCount)
	if r.Header.Magic != dxc.Magic {
		fmt.Fprintf(w, "  magic:      %q (not %s)\n", r.Header.Magic, dxc.Magic)
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  #\tNAME\tOFFSET\tSIZE\tBLAKE3")
	for _, p := range r.Parts {
		fp := p.Fingerprint
		if fp == "" {
			fp = "-"
		}
		fmt.Fprintf(tw, "  %d\t%s\t%d\t%d\t%s\n", p.Index, printable(p.Name), p.Offset, p.Size, fp)
	}
	_ = tw.Flush()

	if p := r.Program; p != nil {
		fmt.Fprintf(w, "\nProgram: shader model %s, %s shader, DXIL %s, %d bytes of bitcode\n",
			p.Version, p.ShaderKind, p.DXILVersion, p.BitcodeSize)
	}
	if r.Features != nil {
		fmt.Fprintf(w, "Feature flags: %s\n", *r.Features)
	}
	if h := r.Hash; h != nil {
		fmt.Fprintf(w, "Shader hash: %s (includes source: %t)\n", h.Digest, h.IncludesSource)
	}

	if psv := r.PSV; psv != nil {
		fmt.Fprintf(w, "\nPipeline state validation v%d: wave lanes %d..%d, %d resources\n",
			psv.Version, psv.MinWaveLaneCount, psv.MaxWaveLaneCount, len(psv.Resources))
		if psv.NumThreads != nil {
			fmt.Fprintf(w, "  threads:    %d x %d x %d\n", psv.NumThreads[0], psv.NumThreads[1], psv.NumThreads[2])
		}
		if psv.EntryName != "" {
			fmt.Fprintf(w, "  entry:      %s\n", psv.EntryName)
		}
		if showResources && len(psv.Resources) > 0 {
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "  TYPE\tSPACE\tBOUNDS\tKIND\tFLAGS")
			for _, res := range psv.Resources {
				fmt.Fprintf(tw, "  %s\t%d\t%d..%d\t%d\t%#x\n", res.Type, res.Space, res.LowerBound, res.UpperBound, res.Kind, res.Flags)
			}
			_ = tw.Flush()
		}
	}

	if showSignatures {
		names := make([]string, 0, len(r.Signature))
		for name := range r.Signature {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			fmt.Fprintf(w, "\nSignature %s:\n", name)
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "  NAME\tINDEX\tSV\tTYPE\tREG\tMASK\tPRECISION")
			for _, p := range r.Signature[name] {
				fmt.Fprintf(tw, "  %s\t%d\t%s\t%s\t%d\t%s\t%s\n",
					p.Name, p.Index, p.SystemValue, p.CompType, p.Register, maskString(p.Mask), p.MinPrecision)
			}
			_ = tw.Flush()
		}
	}
}

// maskString renders a component mask as xyzw with unused lanes blank.
func maskString(m uint8) string {
	var sb strings.Builder
	for i, c := range "xyzw" {
		if m&(1<<i) != 0 {
			sb.WriteRune(c)
		} else {
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}

func printable(name string) string {
	for _, c := range []byte(name) {
		if c < 0x20 || c > 0x7e {
			return fmt.Sprintf("%q", name)
		}
	}
	return name
}
