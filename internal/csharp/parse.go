// Package csharp approximates a C# semantic model on top of tree-sitter
// syntax trees: a project-wide declaration index and an oracle that resolves
// syntax nodes to symbols.
package csharp

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/slowsigma/CodeTrivia/internal/lang"
	"github.com/slowsigma/CodeTrivia/internal/model"
)

// Node is a named syntax node copied out of a tree-sitter tree. Nodes stay
// valid after the tree-sitter tree is closed.
type Node struct {
	Type  string
	Start uint32
	End   uint32
	Line  int // 1-based

	file     *File
	parent   *Node
	kids     []*Node
	name     *Node // the "name" field child, if any
	imports  bool
	declName bool
}

// File is one parsed source file.
type File struct {
	Path      string
	Source    []byte
	Root      *Node
	HasErrors bool
}

// referenceParents are node types whose "name" child names something that
// already exists instead of introducing a new name.
var referenceParents = map[string]struct{}{
	"qualified_name":                {},
	"alias_qualified_name":          {},
	"generic_name":                  {},
	"member_access_expression":      {},
	"member_binding_expression":     {},
	"conditional_access_expression": {},
	"invocation_expression":         {},
	"attribute":                     {},
}

// Parse parses src and materializes its named nodes. The parser must be set
// to the C# grammar.
func Parse(ctx context.Context, parser *sitter.Parser, path string, src []byte) (*File, error) {
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	defer tree.Close()

	cs := lang.Languages["csharp"]
	root := tree.RootNode()
	f := &File{Path: path, Source: src, HasErrors: root.HasError()}
	f.Root = f.materialize(cs, root, nil)
	return f, nil
}

func (f *File) materialize(cs *lang.Language, tn *sitter.Node, parent *Node) *Node {
	n := &Node{
		Type:    tn.Type(),
		Start:   tn.StartByte(),
		End:     tn.EndByte(),
		Line:    int(tn.StartPoint().Row) + 1,
		file:    f,
		parent:  parent,
		imports: cs.IsImportDirective(tn.Type()),
	}

	nameField := tn.ChildByFieldName("name")
	count := int(tn.NamedChildCount())
	n.kids = make([]*Node, 0, count)
	for i := 0; i < count; i++ {
		child := tn.NamedChild(i)
		if child == nil {
			continue
		}
		kid := f.materialize(cs, child, n)
		if nameField != nil && sameNode(child, nameField) {
			n.name = kid
			if _, ref := referenceParents[n.Type]; !ref && kid.Type == "identifier" {
				kid.declName = true
			}
		}
		n.kids = append(n.kids, kid)
	}
	if n.name == nil && (n.Type == "type_parameter" || n.Type == "variable_declarator") {
		// Older grammars carry these names without a field.
		if id := n.child("identifier"); id != nil {
			id.declName = true
		}
	}
	return n
}

func sameNode(a, b *sitter.Node) bool {
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

// Children implements model.Node.
func (n *Node) Children() []model.Node {
	out := make([]model.Node, len(n.kids))
	for i, k := range n.kids {
		out[i] = k
	}
	return out
}

// IsImportDirective implements model.Node.
func (n *Node) IsImportDirective() bool { return n.imports }

// Text returns the source text spanned by the node.
func (n *Node) Text() string {
	return string(n.file.Source[n.Start:n.End])
}

// Name returns the "name" field child, or nil.
func (n *Node) Name() *Node { return n.name }

func (n *Node) first() *Node {
	if len(n.kids) == 0 {
		return nil
	}
	return n.kids[0]
}

func (n *Node) last() *Node {
	if len(n.kids) == 0 {
		return nil
	}
	return n.kids[len(n.kids)-1]
}

// child returns the first named child of the given type.
func (n *Node) child(typ string) *Node {
	for _, k := range n.kids {
		if k.Type == typ {
			return k
		}
	}
	return nil
}

// isRightOf reports whether n is the last named child of a parent of one of
// the given types.
func (n *Node) isRightOf(types ...string) bool {
	p := n.parent
	if p == nil || p.last() != n || len(p.kids) < 2 {
		return false
	}
	for _, t := range types {
		if p.Type == t {
			return true
		}
	}
	return false
}

// firstErrorLine returns the line of the first ERROR node below n, or 0.
func firstErrorLine(n *Node) int {
	line := 0
	walk(n, func(k *Node) bool {
		if line != 0 {
			return false
		}
		if k.Type == "ERROR" {
			line = k.Line
			return false
		}
		return true
	})
	return line
}

// walk calls fn for n and every descendant in pre-order. Returning false skips
// the node's subtree.
func walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, k := range n.kids {
		walk(k, fn)
	}
}
