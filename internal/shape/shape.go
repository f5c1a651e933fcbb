// Package shape classifies resolved symbols by the structure that matters for
// reference recording.
package shape

import "github.com/slowsigma/CodeTrivia/internal/model"

// Shape is the structural category of a symbol.
type Shape int

const (
	Other Shape = iota
	Named
	Generic
	Tuple
	Array
)

var shapeNames = [...]string{"other", "named", "generic", "tuple", "array"}

func (s Shape) String() string {
	if int(s) < len(shapeNames) {
		return shapeNames[s]
	}
	return "unknown"
}

// Classification is the result of Classify.
type Classification struct {
	Shape Shape
	// Records is true when the symbol itself should be recorded as a named
	// reference. Arrays are recorded through their own path.
	Records bool
	// Constituents are the symbols to recurse into, in order.
	Constituents []*model.Symbol
}

// Classify returns the shape of s and the constituents to expand. It never
// fails; unrecognized symbols are Other.
func Classify(s *model.Symbol) Classification {
	switch {
	case s == nil:
		return Classification{Shape: Other}
	case s.IsArray:
		c := Classification{Shape: Array}
		if s.ElementType != nil {
			c.Constituents = []*model.Symbol{s.ElementType}
		}
		return c
	case s.Kind != model.KindNamedType:
		return Classification{Shape: Other}
	}

	c := Classification{Shape: Named, Records: s.Name != ""}

	// Underlying tuple representations are generic too; the tuple path wins.
	if s.IsTuple && s.TupleUnderlying != nil {
		c.Shape = Tuple
		c.Constituents = make([]*model.Symbol, 0, 1+len(s.TupleElements))
		c.Constituents = append(c.Constituents, s.TupleUnderlying)
		c.Constituents = append(c.Constituents, s.TupleElements...)
		return c
	}

	if s.IsGeneric {
		c.Shape = Generic
		c.Constituents = make([]*model.Symbol, 0, len(s.TypeArguments)+len(s.TypeParameters))
		c.Constituents = append(c.Constituents, s.TypeArguments...)
		c.Constituents = append(c.Constituents, s.TypeParameters...)
	}
	return c
}
