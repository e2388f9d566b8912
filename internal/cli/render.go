package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	rrepr "github.com/qri-io/rrepr-go"
)

// documentExts are the extensions of container documents once any
// compression extension is stripped
var documentExts = map[string]bool{".json": true, ".yaml": true, ".yml": true}

// writeClipboard is replaced in tests
var writeClipboard = clipboard.WriteAll

// sampleOpts holds the flags shared by render and check. Flags left unset
// keep the value from --config, or the defaults.
type sampleOpts struct {
	config    string
	size      int
	seed      uint64
	precision int
}

func (o *sampleOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.config, "config", "", "TOML file with rendering options")
	cmd.Flags().IntVarP(&o.size, "size", "n", rrepr.DefaultSize, "maximum positions kept per dimension")
	cmd.Flags().Uint64Var(&o.seed, "seed", 0, "seed for reproducible sampling")
	cmd.Flags().IntVarP(&o.precision, "precision", "p", rrepr.NoRounding, "round floats to this many decimals (negative keeps full precision)")
}

// resolve merges the config file with the flags the user set
func (o *sampleOpts) resolve(cmd *cobra.Command) (rrepr.Config, error) {
	cfg := rrepr.DefaultConfig()
	if o.config != "" {
		var err error
		if cfg, err = rrepr.LoadConfig(o.config); err != nil {
			return cfg, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("size") {
		cfg.Size = o.size
	}
	if flags.Changed("seed") {
		seed := o.seed
		cfg.Seed = &seed
	}
	if flags.Changed("precision") {
		cfg.Precision = o.precision
	}
	return cfg, cfg.Validate()
}

// target is one container document in a store
type target struct {
	store rrepr.Store
	key   string
}

func (t target) String() string {
	return rrepr.DocumentKey(t.key)
}

// stdinKey names the document read from standard input
const stdinKey = "stdin"

// findTargets expands each argument into documents: a file names itself, a
// directory every document below it, and "-" the document on stdin
func findTargets(args []string, stdin io.Reader) ([]target, error) {
	var (
		out     []target
		readStd bool
	)
	for _, arg := range args {
		if arg == "-" {
			if readStd {
				return nil, fmt.Errorf("standard input given more than once")
			}
			readStd = true
			s := rrepr.NewMemoryStore()
			if err := s.Put(stdinKey, stdin); err != nil {
				return nil, fmt.Errorf("reading standard input: %w", err)
			}
			out = append(out, target{store: s, key: stdinKey})
			continue
		}
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			s, err := rrepr.NewLocalStore(filepath.Dir(arg))
			if err != nil {
				return nil, err
			}
			out = append(out, target{store: s, key: filepath.Base(arg)})
			continue
		}

		s, err := rrepr.NewLocalStore(arg)
		if err != nil {
			return nil, err
		}
		keys, err := s.Keys()
		if err != nil {
			return nil, err
		}
		var found bool
		for _, k := range keys {
			if isDocument(k) {
				out = append(out, target{store: s, key: k})
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("%s: no container documents found", arg)
		}
	}
	return out, nil
}

func isDocument(key string) bool {
	return documentExts[strings.ToLower(path.Ext(rrepr.DocumentKey(key)))]
}

type renderOpts struct {
	sampleOpts
	copy bool
	out  string
}

// outputKey is the key a document's literal is written under with --out
func outputKey(key string) string {
	key = rrepr.DocumentKey(key)
	return strings.TrimSuffix(key, path.Ext(key)) + ".py"
}

func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [file, directory or -]...",
		Short: "Print a sampled constructor literal for each container document",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}
			return runRender(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), args, cfg, opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVar(&opts.copy, "copy", false, "also copy the output to the clipboard")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "write each literal to a .py file in this directory instead of printing it")
	return cmd
}

func runRender(ctx context.Context, r io.Reader, w io.Writer, args []string, cfg rrepr.Config, opts renderOpts) error {
	logger := loggerFromContext(ctx)
	targets, err := findTargets(args, r)
	if err != nil {
		return err
	}

	var dest rrepr.Store
	if opts.out != "" {
		if dest, err = rrepr.NewLocalStore(opts.out); err != nil {
			return err
		}
	}

	var b strings.Builder
	for i, t := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		ds, err := rrepr.LoadContainer(t.store, t.key)
		if err != nil {
			return err
		}
		logger.Debug("loaded", "document", t, "type", ds.Type(), "dims", ds.Dims())

		lit, err := rrepr.Repr(ds, append(cfg.Options(), rrepr.WithLogger(logger))...)
		if err != nil {
			return fmt.Errorf("%s: %w", t, err)
		}
		if dest != nil {
			key := outputKey(t.key)
			if err := dest.Put(key, strings.NewReader(lit+"\n")); err != nil {
				return err
			}
			logger.Info("wrote", "document", t, "file", key)
		}
		if len(targets) > 1 {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "# %s\n", t)
		}
		b.WriteString(lit)
		b.WriteString("\n")
	}

	if dest == nil {
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	if opts.copy {
		if err := writeClipboard(b.String()); err != nil {
			return fmt.Errorf("copying to clipboard: %w", err)
		}
		logger.Info("copied to clipboard", "bytes", b.Len())
	}
	return nil
}
