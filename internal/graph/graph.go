// Package graph builds the per-project composition graph of declared types
// and their outbound references.
package graph

import (
	"strings"

	"github.com/slowsigma/CodeTrivia/internal/model"
	"github.com/slowsigma/CodeTrivia/internal/shape"
)

// NodeID addresses a declared type inside one Builder.
type NodeID int

// Root is the project container. Top-level declarations attach to it.
const Root NodeID = -1

type typeNode struct {
	id       string
	name     string
	kind     string
	access   string
	files    []string
	refs     []model.Reference
	children []NodeID
}

// Builder holds the declared types of one project in a flat arena keyed by
// identity. It is not safe for concurrent use.
type Builder struct {
	nodes         []typeNode
	index         map[string]NodeID
	roots         []NodeID
	dedup         *Deduplicator
	boundaryAware bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithBoundaryAware makes ancestry suppression require a "." (or the end of
// the string) right after the owner identity, so "N.Foo" no longer
// suppresses "N.FooBar".
func WithBoundaryAware(on bool) Option {
	return func(b *Builder) { b.boundaryAware = on }
}

// NewBuilder returns an empty Builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		index: make(map[string]NodeID),
		dedup: NewDeduplicator(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Len returns the number of declared types.
func (b *Builder) Len() int { return len(b.nodes) }

// Identity returns the identity of a declared type, or "" for Root.
func (b *Builder) Identity(id NodeID) string {
	if id < 0 || int(id) >= len(b.nodes) {
		return ""
	}
	return b.nodes[id].id
}

// EnsureNode returns the node for the declared symbol sym. The first sighting
// creates the node under container and records the references derived from
// sym itself; later sightings only append file. The bool result reports
// whether the node was created.
func (b *Builder) EnsureNode(container NodeID, sym *model.Symbol, file string) (NodeID, bool) {
	identity := model.Identity(sym)
	if id, ok := b.index[identity]; ok {
		b.nodes[id].files = append(b.nodes[id].files, file)
		return id, false
	}

	id := NodeID(len(b.nodes))
	b.nodes = append(b.nodes, typeNode{
		id:     identity,
		name:   model.QualifiedName(sym),
		kind:   string(sym.Kind),
		access: string(sym.Accessibility),
		files:  []string{file},
	})
	b.index[identity] = id
	if container == Root {
		b.roots = append(b.roots, id)
	} else {
		b.nodes[container].children = append(b.nodes[container].children, id)
	}

	b.AddReference(id, sym)
	return id, true
}

// AddReference records sym, and the symbols it is composed of, as references
// of owner. Each identity is recorded at most once per owner, and identities
// under the owner's own identity are suppressed.
func (b *Builder) AddReference(owner NodeID, sym *model.Symbol) {
	if owner < 0 || int(owner) >= len(b.nodes) {
		return
	}
	b.addReference(owner, sym, nil)
}

func (b *Builder) addReference(owner NodeID, sym *model.Symbol, stack []*model.Symbol) {
	for _, s := range stack {
		if s == sym {
			return // cyclic symbol graph
		}
	}

	c := shape.Classify(sym)
	switch c.Shape {
	case shape.Other:
		return
	case shape.Array:
		b.recordArray(owner, sym)
	default:
		if c.Records {
			b.recordNamed(owner, sym)
		}
	}

	if len(c.Constituents) == 0 {
		return
	}
	stack = append(stack, sym)
	for _, part := range c.Constituents {
		b.addReference(owner, part, stack)
	}
}

func (b *Builder) recordNamed(owner NodeID, sym *model.Symbol) {
	identity := model.Identity(sym)
	if b.suppressed(owner, identity) {
		return
	}
	b.addEdge(owner, identity, model.NamespaceName(sym), sym)
}

// recordArray records the array type itself. An array symbol without a
// namespace or name contributes no edge of its own.
func (b *Builder) recordArray(owner NodeID, sym *model.Symbol) {
	ns := model.NamespaceName(sym)
	if ns == "" || sym.Name == "" {
		return
	}
	b.addEdge(owner, ns+"."+sym.Name, ns, sym)
}

func (b *Builder) addEdge(owner NodeID, identity, ns string, sym *model.Symbol) {
	if !b.dedup.Record(owner, identity) {
		return
	}
	b.nodes[owner].refs = append(b.nodes[owner].refs, model.Reference{
		ID:        identity,
		Assembly:  sym.Assembly,
		Namespace: ns,
		Type:      sym.Name,
	})
}

// suppressed reports whether identity lies under owner's identity.
func (b *Builder) suppressed(owner NodeID, identity string) bool {
	prefix := b.nodes[owner].id
	if !strings.HasPrefix(identity, prefix) {
		return false
	}
	if !b.boundaryAware {
		return true
	}
	rest := identity[len(prefix):]
	return rest == "" || rest[0] == '.'
}

// Project materializes the graph into the output tree for one project.
// Declarations, files and references keep their insertion order.
func (b *Builder) Project(info model.ProjectInfo) *model.ProjectNode {
	p := &model.ProjectNode{
		Name:     info.Name,
		Assembly: info.Assembly,
		FilePath: info.FilePath,
	}
	for _, id := range b.roots {
		p.Types = append(p.Types, b.materialize(id))
	}
	return p
}

func (b *Builder) materialize(id NodeID) *model.TypeNode {
	n := &b.nodes[id]
	tn := &model.TypeNode{
		ID:     n.id,
		Name:   n.name,
		Kind:   n.kind,
		Access: n.access,
		Files:  append([]string(nil), n.files...),
	}
	if len(n.refs) > 0 {
		tn.References = make([]model.Reference, len(n.refs))
		for i, r := range n.refs {
			r.Assembly = model.LogicalAssembly(r.Assembly)
			tn.References[i] = r
		}
	}
	for _, child := range n.children {
		tn.Types = append(tn.Types, b.materialize(child))
	}
	return tn
}
