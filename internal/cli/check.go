package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	rrepr "github.com/qri-io/rrepr-go"
	"github.com/qri-io/rrepr-go/pyeval"
)

// errMismatch is returned when a literal does not evaluate back to the
// container it was rendered from
var errMismatch = errors.New("literal does not reproduce the reduced container")

func (c *CLI) checkCommand() *cobra.Command {
	var opts sampleOpts

	cmd := &cobra.Command{
		Use:   "check [file, directory or -]...",
		Short: "Render each document and verify the literal evaluates back to the reduced container",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}
			return runCheck(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), args, cfg)
		},
	}

	opts.register(cmd)
	return cmd
}

func runCheck(ctx context.Context, r io.Reader, w io.Writer, args []string, cfg rrepr.Config) error {
	logger := loggerFromContext(ctx)
	targets, err := findTargets(args, r)
	if err != nil {
		return err
	}

	ev := pyeval.New(cfg.Names)
	rng := rrepr.NewRand(cfg.Seed)
	var failed int
	for _, t := range targets {
		ds, err := rrepr.LoadContainer(t.store, t.key)
		if err != nil {
			return err
		}
		sel, err := rrepr.Select(ds.Dims(), cfg.Size, rng)
		if err != nil {
			return err
		}
		reduced, lit, err := rrepr.Render(ds, sel, append(cfg.Options(), rrepr.WithLogger(logger))...)
		if err != nil {
			return fmt.Errorf("%s: %w", t, err)
		}

		got, err := ev.Evaluate(ctx, lit)
		switch {
		case err != nil:
			logger.Error("evaluating literal", "document", t, "err", err)
			failed++
		case !rrepr.Equal(got, reduced):
			logger.Error("evaluated container differs", "document", t)
			logger.Debug("literal", "text", lit)
			failed++
		default:
			fmt.Fprintf(w, "%s: ok %s\n", t, formatSizes(rrepr.Sizes(got)))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d documents", errMismatch, failed, len(targets))
	}
	return nil
}

// formatSizes writes sizes as "(a: 2, b: 3)" with names sorted
func formatSizes(sizes map[string]int) string {
	names := make([]string, 0, len(sizes))
	for n := range sizes {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("%s: %d", n, sizes[n])
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
