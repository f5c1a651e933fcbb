// Package usings counts symbol references per containing namespace.
package usings

import "github.com/slowsigma/CodeTrivia/internal/model"

// Counter accumulates namespace counts into a histogram. It is not safe for
// concurrent use.
type Counter struct {
	usage *model.Usage
}

// NewCounter returns a Counter that accumulates into u.
func NewCounter(u *model.Usage) *Counter {
	if u.Counts == nil {
		u.Counts = make(map[string]int)
	}
	return &Counter{usage: u}
}

// Count adds one to the namespace of every symbol referenced below the root of
// doc. Repeated uses count repeatedly.
func (c *Counter) Count(doc model.Document) {
	if doc.Root == nil || doc.Oracle == nil {
		return
	}
	for _, child := range doc.Root.Children() {
		c.visit(child, doc.Oracle)
	}
}

func (c *Counter) visit(n model.Node, oracle model.Oracle) {
	if s := oracle.ReferencedSymbol(n); counts(s) {
		c.usage.Counts[s.Namespace.Name]++
	}
	for _, child := range n.Children() {
		c.visit(child, oracle)
	}
}

func counts(s *model.Symbol) bool {
	return s != nil &&
		!model.IsSynthetic(s) &&
		s.Kind != model.KindNamespace &&
		s.Namespace != nil
}

// Merge adds the counts and totals of src to dst.
func Merge(dst, src *model.Usage) {
	if dst.Counts == nil {
		dst.Counts = make(map[string]int, len(src.Counts))
	}
	dst.Projects += src.Projects
	dst.Trees += src.Trees
	for ns, n := range src.Counts {
		dst.Counts[ns] += n
	}
}
