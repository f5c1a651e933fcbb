// Package model defines core data structures for codetrivia.
package model

import (
	"context"
	"errors"
)

// SymbolKind is the broad category of a resolved symbol.
type SymbolKind string

const (
	KindNamespace     SymbolKind = "Namespace"
	KindNamedType     SymbolKind = "NamedType"
	KindArrayType     SymbolKind = "ArrayType"
	KindTypeParameter SymbolKind = "TypeParameter"
	KindMethod        SymbolKind = "Method"
	KindField         SymbolKind = "Field"
	KindProperty      SymbolKind = "Property"
	KindOther         SymbolKind = "Other"
)

// Accessibility is the declared accessibility of a symbol.
type Accessibility string

const (
	NotApplicable        Accessibility = "NotApplicable"
	Private              Accessibility = "Private"
	ProtectedAndInternal Accessibility = "ProtectedAndInternal"
	Protected            Accessibility = "Protected"
	Internal             Accessibility = "Internal"
	ProtectedOrInternal  Accessibility = "ProtectedOrInternal"
	Public               Accessibility = "Public"
)

// GlobalNamespace is the display name of the unnamed root namespace.
const GlobalNamespace = "<global namespace>"

// Symbol is a resolved symbol handed out by an Oracle. It is read-only to
// everything downstream of the oracle.
//
// Namespace symbols carry their full dotted display name in Name.
type Symbol struct {
	Kind           SymbolKind
	Name           string
	Namespace      *Symbol
	ContainingType *Symbol
	Assembly       string
	Accessibility  Accessibility

	IsTuple         bool
	TupleUnderlying *Symbol
	TupleElements   []*Symbol

	IsGeneric      bool
	TypeArguments  []*Symbol
	TypeParameters []*Symbol

	IsArray     bool
	ElementType *Symbol
}

// Node is one syntax node of a parsed tree.
type Node interface {
	Children() []Node
	// IsImportDirective reports whether the node is a using/import directive.
	IsImportDirective() bool
}

// Oracle resolves syntax nodes to symbols. Both methods return nil when the
// node declares or references nothing.
type Oracle interface {
	DeclaredSymbol(n Node) *Symbol
	ReferencedSymbol(n Node) *Symbol
}

// Document is one syntax tree of a compilation together with its oracle.
type Document struct {
	Root     Node
	FilePath string
	Oracle   Oracle
}

// ProjectInfo carries the attributes of a project node. They are not
// interpreted during aggregation.
type ProjectInfo struct {
	Name     string
	Assembly string
	FilePath string
}

// ErrNotCompilable is returned by Project.Compile for projects that have no
// compilation. Such projects are skipped without being counted.
var ErrNotCompilable = errors.New("project does not support compilation")

// Project is one compilation unit of a solution.
type Project interface {
	Info() ProjectInfo
	Compile(ctx context.Context) ([]Document, error)
}

// SolutionSource is the enumerated input of one analysis pass.
type SolutionSource struct {
	FilePath string
	Projects []Project
}

// StaticProject is a Project whose documents are already available.
type StaticProject struct {
	ProjectInfo
	Documents []Document
	Err       error
}

// Info returns the project attributes.
func (p *StaticProject) Info() ProjectInfo { return p.ProjectInfo }

// Compile returns the fixed documents or the fixed error.
func (p *StaticProject) Compile(context.Context) ([]Document, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Documents, nil
}

// Reference is one outbound type use recorded on a declared type.
type Reference struct {
	ID        string
	Assembly  string // logical assembly name
	Namespace string
	Type      string
}

// TypeNode is a declared type with its declaration sites, references and
// nested types.
type TypeNode struct {
	ID         string
	Name       string
	Kind       string
	Access     string
	Files      []string
	References []Reference
	Types      []*TypeNode
}

// ProjectNode is the composition of one project.
type ProjectNode struct {
	Name     string
	Assembly string
	FilePath string
	Types    []*TypeNode
}

// Solution is the composition of a whole solution, ready for serialization.
type Solution struct {
	FilePath string
	Projects []*ProjectNode
}
