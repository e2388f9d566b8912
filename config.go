package rrepr

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the file form of the rendering options, e.g.
//
//	size = 3
//	seed = 42
//	precision = 1
//
//	[names]
//	dataset = "xarray.Dataset"
type Config struct {
	Size      int     `toml:"size"`
	Seed      *uint64 `toml:"seed"`
	Precision int     `toml:"precision"`
	LineWidth int     `toml:"line_width"`
	Indent    int     `toml:"indent"`
	Names     Names   `toml:"names"`
}

func DefaultConfig() Config {
	return Config{
		Size:      DefaultSize,
		Precision: NoRounding,
		LineWidth: DefaultLineWidth,
		Indent:    DefaultIndent,
		Names:     DefaultNames(),
	}
}

// DecodeConfig parses TOML over the defaults. Unknown keys are rejected.
func DecodeConfig(data string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("%w: %s", ErrConfiguration, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return cfg, fmt.Errorf("%w: unknown keys %s", ErrConfiguration, strings.Join(keys, ", "))
	}
	return cfg, cfg.Validate()
}

func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultConfig(), err
	}
	cfg, err := DecodeConfig(string(data))
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	return newOptions(c.Options()).check()
}

// Options converts c to rendering options
func (c Config) Options() []Option {
	opts := []Option{
		WithSize(c.Size),
		WithPrecision(c.Precision),
		WithLineWidth(c.LineWidth),
		WithIndent(c.Indent),
		WithNames(c.Names),
	}
	if c.Seed != nil {
		opts = append(opts, WithSeed(*c.Seed))
	}
	return opts
}
