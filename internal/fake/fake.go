// Package fake provides hand-built syntax trees and resolution oracles for
// tests that need no real front end.
package fake

import "github.com/slowsigma/CodeTrivia/internal/model"

// Node is a syntax node with a label for debugging.
type Node struct {
	Label  string
	Import bool
	Kids   []*Node
}

// N returns a node with the given children.
func N(label string, kids ...*Node) *Node {
	return &Node{Label: label, Kids: kids}
}

// Using returns an import directive node.
func Using(label string, kids ...*Node) *Node {
	return &Node{Label: label, Import: true, Kids: kids}
}

// Children implements model.Node.
func (n *Node) Children() []model.Node {
	out := make([]model.Node, len(n.Kids))
	for i, k := range n.Kids {
		out[i] = k
	}
	return out
}

// IsImportDirective implements model.Node.
func (n *Node) IsImportDirective() bool { return n.Import }

// Oracle answers from fixed tables keyed by node.
type Oracle struct {
	Declared   map[*Node]*model.Symbol
	Referenced map[*Node]*model.Symbol
}

// NewOracle returns an empty Oracle.
func NewOracle() *Oracle {
	return &Oracle{
		Declared:   make(map[*Node]*model.Symbol),
		Referenced: make(map[*Node]*model.Symbol),
	}
}

// Declare makes n declare s and returns n.
func (o *Oracle) Declare(n *Node, s *model.Symbol) *Node {
	o.Declared[n] = s
	return n
}

// Reference makes n reference s and returns n.
func (o *Oracle) Reference(n *Node, s *model.Symbol) *Node {
	o.Referenced[n] = s
	return n
}

// DeclaredSymbol implements model.Oracle.
func (o *Oracle) DeclaredSymbol(n model.Node) *model.Symbol {
	fn, ok := n.(*Node)
	if !ok {
		return nil
	}
	return o.Declared[fn]
}

// ReferencedSymbol implements model.Oracle.
func (o *Oracle) ReferencedSymbol(n model.Node) *model.Symbol {
	fn, ok := n.(*Node)
	if !ok {
		return nil
	}
	return o.Referenced[fn]
}

// Namespace returns a namespace symbol.
func Namespace(name string) *model.Symbol {
	return &model.Symbol{Kind: model.KindNamespace, Name: name}
}

// Type returns a public named type symbol.
func Type(ns *model.Symbol, name, assembly string) *model.Symbol {
	return &model.Symbol{
		Kind:          model.KindNamedType,
		Name:          name,
		Namespace:     ns,
		Assembly:      assembly,
		Accessibility: model.Public,
	}
}

// Nested returns a named type symbol nested in outer.
func Nested(outer *model.Symbol, name string) *model.Symbol {
	s := Type(outer.Namespace, name, outer.Assembly)
	s.ContainingType = outer
	return s
}
