// Package config loads .codetrivia.toml settings.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"
)

// FileName is the configuration file looked up in the analysed directory.
const FileName = ".codetrivia.toml"

// DefaultMaxFileSize is the largest source file parsed by default.
const DefaultMaxFileSize = 1 << 20

// Config holds every tunable of a run.
type Config struct {
	// Workers is the number of projects analysed at once; 0 means one per CPU.
	Workers               int         `toml:"workers"`
	MaxFileSize           int64       `toml:"max_file_size"`
	Exclude               []string    `toml:"exclude"`
	BoundaryAwareAncestry bool        `toml:"boundary_aware_ancestry"`
	LogLevel              string      `toml:"log_level"`
	Composition           Composition `toml:"composition"`
	Usings                Usings      `toml:"usings"`
}

// Composition configures the composition command.
type Composition struct {
	Format string `toml:"format"` // "xml" or "toon"
}

// Usings configures the usings command.
type Usings struct {
	Format string `toml:"format"` // "text" or "toon"
}

// Defaults returns the configuration used when no file is present.
func Defaults() Config {
	return Config{
		MaxFileSize: DefaultMaxFileSize,
		Exclude:     []string{"**/bin/**", "**/obj/**"},
		LogLevel:    "info",
		Composition: Composition{Format: "xml"},
		Usings:      Usings{Format: "text"},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
// Keys the file does not set keep their default values; unknown keys are an
// error.
func Load(path string) (Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return cfg, fmt.Errorf("parsing %s:%d:%d: %w", path, row, col, err)
		}
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Locate returns the configuration path for target: explicit when set,
// otherwise FileName inside target (or inside its directory when target is a
// file).
func Locate(target, explicit string) string {
	if explicit != "" {
		return explicit
	}
	dir := target
	if info, err := os.Stat(target); err == nil && !info.IsDir() {
		dir = filepath.Dir(target)
	}
	return filepath.Join(dir, FileName)
}

// EffectiveWorkers resolves the zero value of Workers to the CPU count.
func (c Config) EffectiveWorkers() int {
	if c.Workers == 0 {
		return runtime.NumCPU()
	}
	return c.Workers
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("max_file_size must be positive, got %d", c.MaxFileSize)
	}
	for _, pat := range c.Exclude {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("invalid exclude pattern %q", pat)
		}
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.Composition.Format {
	case "xml", "toon":
	default:
		return fmt.Errorf("unknown composition format %q", c.Composition.Format)
	}
	switch c.Usings.Format {
	case "text", "toon":
	default:
		return fmt.Errorf("unknown usings format %q", c.Usings.Format)
	}
	return nil
}

// ParseLevel maps a log_level value to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return level, fmt.Errorf("invalid log_level %q", s)
	}
	return level, nil
}
