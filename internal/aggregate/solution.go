package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/slowsigma/CodeTrivia/internal/graph"
	"github.com/slowsigma/CodeTrivia/internal/model"
	"github.com/slowsigma/CodeTrivia/internal/usings"
)

// Options configures a solution pass.
type Options struct {
	// Workers is the number of projects processed at once. Values below 2
	// process projects sequentially.
	Workers int
	// BoundaryAware switches ancestry suppression to the "."-boundary check.
	BoundaryAware bool
	Logger        *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Stats summarizes a composition pass.
type Stats struct {
	Projects int
	Trees    int
	Types    int
}

// Composition aggregates every compilable project of src into one solution
// graph. Projects appear in enumeration order regardless of Workers.
func Composition(ctx context.Context, src model.SolutionSource, opts Options) (*model.Solution, Stats, error) {
	type composed struct {
		project *model.ProjectNode
		trees   int
		types   int
	}

	results, err := forEachProject(ctx, src, opts, func(info model.ProjectInfo, docs []model.Document) composed {
		b := graph.NewBuilder(graph.WithBoundaryAware(opts.BoundaryAware))
		agg := NewAggregator(b)
		for _, doc := range docs {
			eachTree(opts.logger(), info, doc, agg.Walk)
		}
		opts.logger().Debug("aggregated project", "project", info.Name, "trees", len(docs), "types", b.Len())
		return composed{project: b.Project(info), trees: len(docs), types: b.Len()}
	})
	if err != nil {
		return nil, Stats{}, err
	}

	sol := &model.Solution{FilePath: src.FilePath}
	var stats Stats
	for _, r := range results {
		if !r.ok {
			continue
		}
		sol.Projects = append(sol.Projects, r.value.project)
		stats.Projects++
		stats.Trees += r.value.trees
		stats.Types += r.value.types
	}
	return sol, stats, nil
}

// Usings counts namespace references across every compilable project of src.
func Usings(ctx context.Context, src model.SolutionSource, opts Options) (*model.Usage, error) {
	results, err := forEachProject(ctx, src, opts, func(info model.ProjectInfo, docs []model.Document) *model.Usage {
		u := model.NewUsage()
		c := usings.NewCounter(u)
		for _, doc := range docs {
			eachTree(opts.logger(), info, doc, c.Count)
		}
		u.Projects = 1
		u.Trees = len(docs)
		opts.logger().Debug("counted project", "project", info.Name, "trees", len(docs), "namespaces", len(u.Counts))
		return u
	})
	if err != nil {
		return nil, err
	}

	total := model.NewUsage()
	for _, r := range results {
		if r.ok {
			usings.Merge(total, r.value)
		}
	}
	return total, nil
}

type projectResult[T any] struct {
	value T
	ok    bool
}

// eachTree applies fn to one document. A panic is logged and the tree is left
// with whatever fn recorded before it; sibling trees are unaffected.
func eachTree(log *slog.Logger, info model.ProjectInfo, doc model.Document, fn func(model.Document)) {
	_, err := guard(func() (struct{}, error) {
		fn(doc)
		return struct{}{}, nil
	})
	if err != nil {
		log.Warn("failed to aggregate tree", "project", info.Name, "path", doc.FilePath, "error", err)
	}
}

// forEachProject compiles every project and applies fn to its documents.
// A project that fails to compile, or whose Compile or fn panics, is logged
// and left out; its siblings are unaffected. Only context cancellation is
// returned.
func forEachProject[T any](
	ctx context.Context,
	src model.SolutionSource,
	opts Options,
	fn func(model.ProjectInfo, []model.Document) T,
) ([]projectResult[T], error) {
	results := make([]projectResult[T], len(src.Projects))
	log := opts.logger()

	process := func(ctx context.Context, i int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		p := src.Projects[i]
		info := p.Info()

		docs, err := guard(func() ([]model.Document, error) { return p.Compile(ctx) })
		switch {
		case errors.Is(err, model.ErrNotCompilable):
			log.Debug("skipping project", "project", info.Name, "reason", err)
			return nil
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			log.Warn("failed to compile project", "project", info.Name, "path", info.FilePath, "error", err)
			return nil
		}

		value, err := guard(func() (T, error) { return fn(info, docs), nil })
		if err != nil {
			log.Warn("failed to aggregate project", "project", info.Name, "path", info.FilePath, "error", err)
			return nil
		}
		results[i] = projectResult[T]{value: value, ok: true}
		return nil
	}

	if opts.Workers < 2 {
		for i := range src.Projects {
			if err := process(ctx, i); err != nil {
				return nil, err
			}
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i := range src.Projects {
		g.Go(func() error { return process(gctx, i) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// guard runs fn and turns a panic into an error.
func guard[T any](fn func() (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
