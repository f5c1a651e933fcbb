// Package aggregate walks syntax trees and accumulates the composition graph
// and the namespace histogram of a solution.
package aggregate

import (
	"strings"

	"github.com/slowsigma/CodeTrivia/internal/graph"
	"github.com/slowsigma/CodeTrivia/internal/model"
)

// Aggregator walks the documents of one project into a single graph.Builder.
// It is not safe for concurrent use.
type Aggregator struct {
	builder *graph.Builder
	oracle  model.Oracle
	file    string
}

// NewAggregator returns an Aggregator that accumulates into b.
func NewAggregator(b *graph.Builder) *Aggregator {
	return &Aggregator{builder: b}
}

// Walk aggregates one syntax tree. Declarations found in doc attach to the
// project root; references outside any declaration are dropped.
func (a *Aggregator) Walk(doc model.Document) {
	if doc.Root == nil || doc.Oracle == nil {
		return
	}
	a.oracle = doc.Oracle
	a.file = doc.FilePath
	a.walk(doc.Root, graph.Root, "")
}

// walk visits n with the innermost open declaration (container, scope).
// The scope only ever flows down to descendants.
func (a *Aggregator) walk(n model.Node, container graph.NodeID, scope string) {
	if n.IsImportDirective() {
		return
	}

	if decl := a.oracle.DeclaredSymbol(n); isTypeDeclaration(decl) {
		id, _ := a.builder.EnsureNode(container, decl, a.file)
		a.walkChildren(n, id, a.builder.Identity(id))
		return
	}

	if ref := a.oracle.ReferencedSymbol(n); isReference(ref) && scope != "" {
		a.builder.AddReference(container, ref)
	}
	a.walkChildren(n, container, scope)
}

func (a *Aggregator) walkChildren(n model.Node, container graph.NodeID, scope string) {
	for _, child := range n.Children() {
		a.walk(child, container, scope)
	}
}

func isTypeDeclaration(s *model.Symbol) bool {
	return s != nil && s.Kind == model.KindNamedType && strings.TrimSpace(s.Name) != ""
}

// isReference reports whether a referenced symbol is worth classifying.
func isReference(s *model.Symbol) bool {
	return s != nil && !model.IsSynthetic(s) && s.Kind != model.KindNamespace
}
