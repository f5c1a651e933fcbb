package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/slowsigma/CodeTrivia/internal/config"
)

const (
	sentinelStart = "# codetrivia:start"
	sentinelEnd   = "# codetrivia:end"
)

// newInitCmd implements `codetrivia init`, which writes (or updates) the
// default settings block of a .codetrivia.toml file.
func newInitCmd(stdout, stderr io.Writer) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write the default settings to .codetrivia.toml",
		Long: `Write the default codetrivia settings to .codetrivia.toml in dir. The
settings are wrapped in sentinel comments so they can be updated in place on
subsequent runs without touching surrounding content. Creates the file if it
does not exist.

dir defaults to the current directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			section, err := generateSection()
			if err != nil {
				return err
			}

			// --dry-run with no dir: just print the section itself.
			if dryRun && len(args) == 0 {
				_, _ = fmt.Fprintln(stdout, section)
				return nil
			}

			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			path := filepath.Join(dir, config.FileName)

			existing, _ := os.ReadFile(path)
			updated := applySection(string(existing), section)

			if dryRun {
				_, _ = fmt.Fprint(stdout, updated)
				return nil
			}

			if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}

			_, _ = fmt.Fprintf(stderr, "wrote codetrivia settings to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying the file")
	return cmd
}

// generateSection returns the sentinel-wrapped default settings.
func generateSection() (string, error) {
	body, err := toml.Marshal(config.Defaults())
	if err != nil {
		return "", fmt.Errorf("encoding defaults: %w", err)
	}
	header := `# Settings read by codetrivia for projects under this directory.
# workers = 0 analyses one project per CPU. Command-line flags override
# every value here.
`
	return sentinelStart + "\n" + header + strings.TrimRight(string(body), "\n") + "\n" + sentinelEnd, nil
}

// applySection inserts section into content, replacing an existing sentinel
// block if present. Otherwise the section is placed first, since top-level
// TOML keys must precede any table in the file.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	if content == "" {
		return section + "\n"
	}
	return section + "\n\n" + content
}
