// codetrivia extracts the type composition of a C# solution and counts
// namespace usage across it.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/slowsigma/CodeTrivia/internal/aggregate"
	"github.com/slowsigma/CodeTrivia/internal/config"
	"github.com/slowsigma/CodeTrivia/internal/csharp"
	"github.com/slowsigma/CodeTrivia/internal/discover"
	"github.com/slowsigma/CodeTrivia/internal/model"
	"github.com/slowsigma/CodeTrivia/internal/toon"
	"github.com/slowsigma/CodeTrivia/internal/xmldoc"
)

var version = "dev"

const (
	msgNoComposition = "No compatible projects were loaded."
	msgNoUsings      = "No projects were loaded or compatible with 'using ...' counts."
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

// globalFlags are the persistent flags shared by every analysis command.
type globalFlags struct {
	config      string
	workers     int
	verbose     bool
	maxFileSize int64
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "codetrivia",
		Short: "Type composition and namespace usage of C# solutions",
		Long: `codetrivia walks every C# project of a solution and reports either the
composition graph of its declared types (nested types, files and outbound
type references) or a histogram of referenced namespaces.

A path may name a .sln file, a .csproj file or a directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&g.config, "config", "", "configuration file (default: .codetrivia.toml next to the input)")
	pf.IntVar(&g.workers, "workers", 0, "projects analysed at once (0: one per CPU)")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "log debug output")
	pf.Int64Var(&g.maxFileSize, "max-file-size", config.DefaultMaxFileSize, "skip source files larger than this many bytes")

	root.AddCommand(
		newCompositionCmd(g, stdout, stderr),
		newUsingsCmd(g, stdout, stderr),
		newInitCmd(stdout, stderr),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				_, _ = fmt.Fprintf(stdout, "codetrivia %s\n", version)
			},
		},
	)
	return root
}

// session is the resolved configuration of one analysis command.
type session struct {
	target string
	cfg    config.Config
	log    *slog.Logger
}

func (g *globalFlags) session(cmd *cobra.Command, args []string, stderr io.Writer) (*session, error) {
	target := "."
	if len(args) > 0 {
		target = args[0]
	}

	cfg, err := config.Load(config.Locate(target, g.config))
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Workers = g.workers
	}
	if flags.Changed("max-file-size") {
		cfg.MaxFileSize = g.maxFileSize
	}
	if g.verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	return &session{target: target, cfg: cfg, log: log}, nil
}

// source discovers the solution and wraps its projects for aggregation. A
// path without projects yields an empty source.
func (s *session) source() (model.SolutionSource, error) {
	layout, err := discover.Solution(s.target, discover.Options{
		Exclude:     s.cfg.Exclude,
		MaxFileSize: s.cfg.MaxFileSize,
		Logger:      s.log,
	})
	if errors.Is(err, discover.ErrNoProjects) {
		s.log.Debug("no projects found", "path", s.target)
		return model.SolutionSource{}, nil
	}
	if err != nil {
		return model.SolutionSource{}, fmt.Errorf("discovering projects: %w", err)
	}

	src := model.SolutionSource{FilePath: layout.Solution}
	for _, p := range layout.Projects {
		info := model.ProjectInfo{Name: p.Name, Assembly: p.Assembly, FilePath: p.Path}
		if !p.Compilable {
			src.Projects = append(src.Projects, csharp.Unsupported(info))
			continue
		}
		src.Projects = append(src.Projects, csharp.NewProject(info, layout.Root, p.Files, csharp.WithLogger(s.log)))
	}
	s.log.Debug("discovered solution", "root", layout.Root, "solution", layout.Solution, "projects", len(layout.Projects))
	return src, nil
}

func (s *session) options() aggregate.Options {
	return aggregate.Options{
		Workers:       s.cfg.EffectiveWorkers(),
		BoundaryAware: s.cfg.BoundaryAwareAncestry,
		Logger:        s.log,
	}
}

// openOutput returns stdout, or the named file when path is set.
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output: %w", err)
	}
	return f, f.Close, nil
}

func newCompositionCmd(g *globalFlags, stdout, stderr io.Writer) *cobra.Command {
	var (
		format        string
		boundaryAware bool
		output        string
	)
	cmd := &cobra.Command{
		Use:   "composition [path]",
		Short: "Write the type composition graph of a solution",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.session(cmd, args, stderr)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("format") {
				s.cfg.Composition.Format = format
			}
			if cmd.Flags().Changed("boundary-aware") {
				s.cfg.BoundaryAwareAncestry = boundaryAware
			}
			if err := s.cfg.Validate(); err != nil {
				return err
			}

			src, err := s.source()
			if err != nil {
				return err
			}
			sol, stats, err := aggregate.Composition(cmd.Context(), src, s.options())
			if err != nil {
				return err
			}
			if stats.Projects == 0 {
				_, _ = fmt.Fprintln(stderr, msgNoComposition)
				return nil
			}
			if stats.Trees == 0 {
				s.log.Info("no source files in compatible projects", "projects", stats.Projects)
				return nil
			}

			w, closeOut, err := openOutput(output, stdout)
			if err != nil {
				return err
			}
			if err := writeComposition(w, sol, s.cfg.Composition.Format); err != nil {
				_ = closeOut()
				return err
			}
			if err := closeOut(); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
			s.log.Info("composition written", "projects", stats.Projects, "trees", stats.Trees, "types", stats.Types)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "xml", "output format: xml|toon")
	cmd.Flags().BoolVar(&boundaryAware, "boundary-aware", false, "only suppress references nested under the declaring type")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func writeComposition(w io.Writer, sol *model.Solution, format string) error {
	switch format {
	case "toon":
		_, err := fmt.Fprintln(w, toon.EncodeComposition(sol))
		return err
	default:
		return xmldoc.Encode(w, sol)
	}
}

func newUsingsCmd(g *globalFlags, stdout, stderr io.Writer) *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "usings [path]",
		Short: "Count symbol references per namespace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.session(cmd, args, stderr)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("format") {
				s.cfg.Usings.Format = format
			}
			if err := s.cfg.Validate(); err != nil {
				return err
			}

			src, err := s.source()
			if err != nil {
				return err
			}
			usage, err := aggregate.Usings(cmd.Context(), src, s.options())
			if err != nil {
				return err
			}
			if usage.Projects == 0 {
				_, _ = fmt.Fprintln(stderr, msgNoUsings)
				return nil
			}

			w, closeOut, err := openOutput(output, stdout)
			if err != nil {
				return err
			}
			text := formatUsage(usage)
			if s.cfg.Usings.Format == "toon" {
				text = toon.EncodeUsage(usage) + "\n"
			}
			if _, err := io.WriteString(w, text); err != nil {
				_ = closeOut()
				return fmt.Errorf("writing output: %w", err)
			}
			if err := closeOut(); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
			s.log.Info("usings written", "projects", usage.Projects, "trees", usage.Trees, "namespaces", len(usage.Counts))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "output format: text|toon")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

// formatUsage renders the histogram as CRLF-separated "namespace @ count"
// lines under a two-line header, with no trailing separator.
func formatUsage(u *model.Usage) string {
	lines := make([]string, 0, len(u.Counts))
	for _, ns := range u.Namespaces() {
		lines = append(lines, fmt.Sprintf("%s @ %d", ns, u.Counts[ns]))
	}
	return fmt.Sprintf("Total Projects: %d\r\nTree Count: %d\r\n", u.Projects, u.Trees) +
		strings.Join(lines, "\r\n")
}
