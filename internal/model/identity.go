package model

import (
	"sort"
	"strings"
)

// SyntheticMarker prefixes compiler-synthesized member names such as ".ctor".
const SyntheticMarker = "."

// BaseRuntime is the logical assembly that base runtime library aliases map to.
const BaseRuntime = "Microsoft.Net"

// QualifiedName returns the symbol name prefixed by its enclosing type names.
func QualifiedName(s *Symbol) string {
	if s.ContainingType == nil {
		return s.Name
	}
	return QualifiedName(s.ContainingType) + "." + s.Name
}

// NamespaceName returns the display name of the containing namespace, or ""
// when there is none.
func NamespaceName(s *Symbol) string {
	if s.Namespace == nil {
		return ""
	}
	return s.Namespace.Name
}

// Identity returns the addressing key of a named type: containing namespace,
// then the qualified name. Two symbols with equal identities are the same node.
func Identity(s *Symbol) string {
	return NamespaceName(s) + "." + QualifiedName(s)
}

// IsSynthetic reports whether the symbol name carries the synthetic marker.
func IsSynthetic(s *Symbol) bool {
	return strings.HasPrefix(s.Name, SyntheticMarker)
}

// LogicalAssembly folds base runtime library aliases into BaseRuntime.
func LogicalAssembly(assembly string) string {
	switch assembly {
	case "mscorelib", "netstandard":
		return BaseRuntime
	default:
		return assembly
	}
}

// Usage is the solution-wide namespace histogram.
type Usage struct {
	Projects int
	Trees    int
	Counts   map[string]int
}

// NewUsage returns an empty histogram.
func NewUsage() *Usage {
	return &Usage{Counts: make(map[string]int)}
}

// Namespaces returns the counted namespaces in ascending order.
func (u *Usage) Namespaces() []string {
	names := make([]string, 0, len(u.Counts))
	for ns := range u.Counts {
		names = append(names, ns)
	}
	sort.Strings(names)
	return names
}
