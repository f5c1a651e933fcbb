package csharp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/slowsigma/CodeTrivia/internal/lang"
	"github.com/slowsigma/CodeTrivia/internal/model"
)

// Project is a C# project whose sources are parsed with tree-sitter. It
// implements model.Project.
type Project struct {
	info       model.ProjectInfo
	root       string
	files      []string
	compilable bool
	logger     *slog.Logger
}

// ProjectOption configures a Project.
type ProjectOption func(*Project)

// WithLogger sets the logger used for per-file warnings.
func WithLogger(l *slog.Logger) ProjectOption {
	return func(p *Project) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewProject returns a project over files, given as slash-separated paths
// relative to root.
func NewProject(info model.ProjectInfo, root string, files []string, opts ...ProjectOption) *Project {
	p := &Project{info: info, root: root, files: files, compilable: true, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Unsupported returns a project that is part of a solution but has no C#
// compilation.
func Unsupported(info model.ProjectInfo) *Project {
	return &Project{info: info, logger: slog.Default()}
}

// Info implements model.Project.
func (p *Project) Info() model.ProjectInfo { return p.info }

// Compile parses every source file and returns one document per file, all
// sharing a project-wide oracle. Unreadable files are logged and skipped.
func (p *Project) Compile(ctx context.Context) ([]model.Document, error) {
	if !p.compilable {
		return nil, fmt.Errorf("%s: %w", p.info.FilePath, model.ErrNotCompilable)
	}

	parser := lang.Languages["csharp"].NewParser()
	defer parser.Close()

	var parsed []*File
	for _, rel := range p.files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		src, err := os.ReadFile(filepath.Join(p.root, filepath.FromSlash(rel)))
		if err != nil {
			p.logger.Warn("skipping unreadable file", "project", p.info.Name, "path", rel, "error", err)
			continue
		}
		f, err := Parse(ctx, parser, rel, src)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			p.logger.Warn("skipping unparsable file", "project", p.info.Name, "path", rel, "error", err)
			continue
		}
		if f.HasErrors {
			p.logger.Debug("file has syntax errors", "project", p.info.Name, "path", rel, "line", firstErrorLine(f.Root))
		}
		parsed = append(parsed, f)
	}

	oracle := NewOracle(NewIndex(p.info.Assembly, parsed))
	docs := make([]model.Document, len(parsed))
	for i, f := range parsed {
		docs[i] = model.Document{Root: f.Root, FilePath: f.Path, Oracle: oracle}
	}
	return docs, nil
}
