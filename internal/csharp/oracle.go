package csharp

import (
	"strings"

	"github.com/slowsigma/CodeTrivia/internal/lang"
	"github.com/slowsigma/CodeTrivia/internal/model"
)

// Oracle resolves nodes of one project's files against its Index. Results
// are memoized so a node always resolves to the same symbol. An Oracle is
// not safe for concurrent use.
type Oracle struct {
	idx  *Index
	memo map[*Node]*model.Symbol
}

// NewOracle returns an Oracle over idx.
func NewOracle(idx *Index) *Oracle {
	return &Oracle{idx: idx, memo: make(map[*Node]*model.Symbol)}
}

// DeclaredSymbol implements model.Oracle. Type, method and namespace
// declarations declare symbols.
func (o *Oracle) DeclaredSymbol(n model.Node) *model.Symbol {
	cn, ok := n.(*Node)
	if !ok {
		return nil
	}
	return o.idx.declared[cn]
}

// ReferencedSymbol implements model.Oracle.
func (o *Oracle) ReferencedSymbol(n model.Node) *model.Symbol {
	cn, ok := n.(*Node)
	if !ok || cn == nil {
		return nil
	}
	return o.ref(cn)
}

func (o *Oracle) ref(n *Node) *model.Symbol {
	if n == nil || n.declName {
		return nil
	}
	if s, ok := o.memo[n]; ok {
		return s
	}
	s := o.resolve(n)
	o.memo[n] = s
	return s
}

func (o *Oracle) resolve(n *Node) *model.Symbol {
	switch n.Type {
	case "predefined_type":
		name, ok := predefinedTypes[strings.TrimSpace(n.Text())]
		if !ok {
			return nil
		}
		return o.idx.fw.lookup("System", name, 0)

	case "identifier":
		if n.isRightOf("qualified_name", "alias_qualified_name", "member_access_expression") {
			return o.ref(n.parent)
		}
		if p := n.parent; p != nil {
			switch {
			case p.Type == "generic_name" && p.first() == n:
				return o.ref(p)
			case p.Type == "attribute" && p.first() == n:
				return o.attributeType(n)
			case p.Type == "alias_qualified_name":
				return nil
			}
		}
		return o.simple(n, n.Text(), 0, nil)

	case "generic_name":
		if n.isRightOf("qualified_name", "alias_qualified_name", "member_access_expression") {
			return o.ref(n.parent)
		}
		name, arity, args := o.nameParts(n)
		return o.simple(n, name, arity, args)

	case "qualified_name":
		if p := n.parent; p != nil && p.Type == "attribute" && p.first() == n {
			return o.attributeType(n)
		}
		return o.qualified(n, "")

	case "alias_qualified_name":
		if !strings.HasPrefix(lang.StripWhitespace(n.Text()), "global::") {
			return nil
		}
		name, arity, args := o.nameParts(n.last())
		return o.member(o.idx.namespaceSymbol(""), name, arity, args)

	case "member_access_expression":
		left := o.ref(n.first())
		if left == nil {
			return nil
		}
		name, arity, args := o.nameParts(n.last())
		if s := o.member(left, name, arity, args); s != nil {
			return s
		}
		if left.Kind != model.KindNamedType {
			return nil
		}
		kind := model.KindProperty
		if p := n.parent; p != nil && p.Type == "invocation_expression" && p.first() == n {
			kind = model.KindMethod
		}
		return &model.Symbol{
			Kind:           kind,
			Name:           name,
			Namespace:      left.Namespace,
			ContainingType: left,
			Assembly:       left.Assembly,
		}

	case "array_type":
		elem := o.ref(n.first())
		if elem == nil {
			return nil
		}
		return &model.Symbol{Kind: model.KindArrayType, IsArray: true, ElementType: elem}

	case "nullable_type":
		inner := o.ref(n.first())
		if inner == nil || !o.idx.isValueType(inner) {
			return inner
		}
		return construct(o.idx.fw.lookup("System", "Nullable", 1), []*model.Symbol{inner})

	case "tuple_type":
		return o.tuple(n)

	case "object_creation_expression":
		return constructor(o.ref(n.first()))

	case "attribute":
		return constructor(o.attributeType(n.first()))
	}
	return nil
}

// nameParts splits a simple name into its identifier, arity and resolved
// type arguments.
func (o *Oracle) nameParts(n *Node) (string, int, []*model.Symbol) {
	if n == nil {
		return "", 0, nil
	}
	if n.Type != "generic_name" {
		return n.Text(), 0, nil
	}
	id := n.child("identifier")
	if id == nil {
		return "", 0, nil
	}
	list := n.child("type_argument_list")
	if list == nil {
		return id.Text(), 0, nil
	}
	if len(list.kids) == 0 {
		// Unbound form such as Dictionary<,>.
		return id.Text(), strings.Count(list.Text(), ",") + 1, nil
	}
	args := make([]*model.Symbol, len(list.kids))
	for i, k := range list.kids {
		args[i] = o.ref(k)
	}
	return id.Text(), len(list.kids), args
}

func (o *Oracle) qualified(n *Node, suffix string) *model.Symbol {
	left := o.ref(n.first())
	if left == nil {
		return nil
	}
	name, arity, args := o.nameParts(n.last())
	return o.member(left, name+suffix, arity, args)
}

// attributeType resolves an attribute name, trying the Attribute suffix when
// the name itself does not resolve.
func (o *Oracle) attributeType(n *Node) *model.Symbol {
	if n == nil {
		return nil
	}
	switch n.Type {
	case "identifier":
		if s := o.simple(n, n.Text(), 0, nil); isType(s) {
			return s
		}
		return o.simple(n, n.Text()+"Attribute", 0, nil)
	case "qualified_name":
		if s := o.qualified(n, ""); isType(s) {
			return s
		}
		return o.qualified(n, "Attribute")
	}
	return o.ref(n)
}

func isType(s *model.Symbol) bool {
	return s != nil && s.Kind == model.KindNamedType
}

func constructor(t *model.Symbol) *model.Symbol {
	if !isType(t) {
		return nil
	}
	return &model.Symbol{
		Kind:           model.KindMethod,
		Name:           ".ctor",
		Namespace:      t.Namespace,
		ContainingType: t,
		Assembly:       t.Assembly,
	}
}

func (o *Oracle) tuple(n *Node) *model.Symbol {
	var elems []*model.Symbol
	for _, k := range n.kids {
		if k.Type != "tuple_element" {
			continue
		}
		if e := o.ref(k.first()); e != nil {
			elems = append(elems, e)
		}
	}
	def := o.idx.fw.lookup("System", "ValueTuple", len(elems))
	if def == nil || len(elems) == 0 {
		return nil
	}
	underlying := construct(def, elems)
	t := *underlying
	t.IsTuple = true
	t.TupleUnderlying = underlying
	t.TupleElements = elems
	return &t
}

// member looks name up inside a namespace or type symbol.
func (o *Oracle) member(left *model.Symbol, name string, arity int, args []*model.Symbol) *model.Symbol {
	if left == nil || name == "" {
		return nil
	}
	switch left.Kind {
	case model.KindNamespace:
		ns := namespaceKey(left)
		if s := o.idx.Lookup(ns, name, arity); s != nil {
			return instantiate(s, arity, args)
		}
		if arity == 0 {
			return o.idx.namespaceSymbol(joinNamespace(ns, name))
		}
	case model.KindNamedType:
		if s := o.nested(left, name, arity); s != nil {
			return instantiate(s, arity, args)
		}
	}
	return nil
}

func (o *Oracle) nested(outer *model.Symbol, name string, arity int) *model.Symbol {
	return o.idx.Lookup(namespaceKey(outer.Namespace), model.QualifiedName(outer)+"."+name, arity)
}

func instantiate(s *model.Symbol, arity int, args []*model.Symbol) *model.Symbol {
	if arity == 0 || len(args) == 0 {
		return s
	}
	return construct(s, args)
}

// scope is the lexical context of a node.
type scope struct {
	namespace  string
	types      []*model.Symbol // innermost first
	typeParams [][]*model.Symbol
	file       *fileScope
}

func (o *Oracle) scopeOf(n *Node) scope {
	var sc scope
	nsFound := false
	for a := n.parent; a != nil; a = a.parent {
		if tps, ok := o.idx.typeParams[a]; ok {
			sc.typeParams = append(sc.typeParams, tps)
		}
		s := o.idx.declared[a]
		if s == nil {
			continue
		}
		switch s.Kind {
		case model.KindNamedType:
			sc.types = append(sc.types, s)
		case model.KindNamespace:
			if !nsFound {
				sc.namespace = o.idx.nsNames[a]
				nsFound = true
			}
		}
	}
	sc.file = o.idx.files[n.file]
	if !nsFound && sc.file != nil {
		sc.namespace = sc.file.namespace
	}
	return sc
}

// simple resolves an unqualified name the way C# name lookup does: type
// parameters, nested types of enclosing types, the enclosing namespaces,
// aliases, then using directives.
func (o *Oracle) simple(n *Node, name string, arity int, args []*model.Symbol) *model.Symbol {
	if name == "" {
		return nil
	}
	sc := o.scopeOf(n)

	if arity == 0 {
		for _, tps := range sc.typeParams {
			for _, tp := range tps {
				if tp.Name == name {
					return tp
				}
			}
		}
	}
	for _, t := range sc.types {
		if s := o.nested(t, name, arity); s != nil {
			return instantiate(s, arity, args)
		}
	}
	for ns := sc.namespace; ; ns = parentNamespace(ns) {
		if s := o.idx.Lookup(ns, name, arity); s != nil {
			return instantiate(s, arity, args)
		}
		if arity == 0 {
			if s := o.idx.namespaceSymbol(joinNamespace(ns, name)); s != nil {
				return s
			}
		}
		if ns == "" {
			break
		}
	}

	scopes := []*usingScope{&o.idx.global}
	if sc.file != nil {
		scopes = append([]*usingScope{&sc.file.usingScope}, scopes...)
	}
	if arity == 0 {
		for _, us := range scopes {
			if target, ok := us.aliases[name]; ok {
				return o.dotted(target)
			}
		}
	}
	for _, us := range scopes {
		for _, ns := range us.namespaces {
			if s := o.idx.Lookup(ns, name, arity); s != nil {
				return instantiate(s, arity, args)
			}
		}
	}
	for _, us := range scopes {
		for _, st := range us.statics {
			if t := o.dotted(st); isType(t) {
				if s := o.nested(t, name, arity); s != nil {
					return instantiate(s, arity, args)
				}
			}
		}
	}
	return nil
}

// dotted resolves a fully qualified, non-generic name such as an alias target.
func (o *Oracle) dotted(target string) *model.Symbol {
	if target == "" || strings.ContainsAny(target, "<>[]") {
		return nil
	}
	cur := o.idx.namespaceSymbol("")
	for _, seg := range strings.Split(target, ".") {
		if cur = o.member(cur, seg, 0, nil); cur == nil {
			return nil
		}
	}
	return cur
}
