package csharp

import (
	"regexp"
	"strings"

	"github.com/slowsigma/CodeTrivia/internal/lang"
	"github.com/slowsigma/CodeTrivia/internal/model"
)

var usingRe = regexp.MustCompile(`^(global\s+)?using\s+(static\s+)?(?:unsafe\s+)?(?:([\p{L}_@][\p{L}\p{N}_]*)\s*=\s*)?(.+?)\s*;?$`)

// Index is the project-wide table of declared namespaces and types.
type Index struct {
	assembly string
	fw       *framework

	namespaces map[string]*model.Symbol // keyed by dotted name, "" is global
	types      map[string]*model.Symbol // keyed by typeKey
	valueTypes map[*model.Symbol]bool
	interfaces map[*model.Symbol]bool
	explicit   map[*model.Symbol]bool // accessibility came from a modifier

	declared   map[*Node]*model.Symbol
	typeParams map[*Node][]*model.Symbol
	nsNames    map[*Node]string

	files  map[*File]*fileScope
	global usingScope
}

type usingScope struct {
	namespaces []string
	statics    []string
	aliases    map[string]string
}

type fileScope struct {
	namespace string // file-scoped namespace, if any
	usingScope
}

// NewIndex collects the declarations of every file of one project.
func NewIndex(assembly string, files []*File) *Index {
	idx := &Index{
		assembly:   assembly,
		fw:         baseLibrary(),
		namespaces: make(map[string]*model.Symbol),
		types:      make(map[string]*model.Symbol),
		valueTypes: make(map[*model.Symbol]bool),
		interfaces: make(map[*model.Symbol]bool),
		explicit:   make(map[*model.Symbol]bool),
		declared:   make(map[*Node]*model.Symbol),
		typeParams: make(map[*Node][]*model.Symbol),
		nsNames:    make(map[*Node]string),
		files:      make(map[*File]*fileScope),
		global:     usingScope{aliases: make(map[string]string)},
	}
	idx.namespace("")

	cs := lang.Languages["csharp"]
	for _, f := range files {
		if f == nil || f.Root == nil {
			continue
		}
		fs := &fileScope{usingScope: usingScope{aliases: make(map[string]string)}}
		idx.files[f] = fs
		idx.collect(cs, f.Root, "", nil, fs)
	}
	return idx
}

func (idx *Index) collect(cs *lang.Language, n *Node, ns string, outer *model.Symbol, fs *fileScope) {
	for _, k := range n.kids {
		switch {
		case k.Type == "using_directive":
			idx.addUsing(k, fs)
		case k.Type == "namespace_declaration":
			full := joinNamespace(ns, namespaceName(k))
			idx.declareNamespace(k, full)
			idx.collect(cs, k, full, nil, fs)
		case k.Type == "file_scoped_namespace_declaration":
			// Members follow the declaration as siblings.
			ns = joinNamespace(ns, namespaceName(k))
			fs.namespace = ns
			idx.declareNamespace(k, ns)
			idx.collect(cs, k, ns, nil, fs)
		case cs.IsTypeDeclaration(k.Type):
			sym := idx.declareType(k, ns, outer)
			if sym == nil {
				idx.collect(cs, k, ns, outer, fs)
				continue
			}
			idx.collect(cs, k, ns, sym, fs)
		case k.Type == "method_declaration", k.Type == "constructor_declaration",
			k.Type == "local_function_statement":
			idx.declareMethod(k, ns, outer)
			idx.collect(cs, k, ns, outer, fs)
		default:
			idx.collect(cs, k, ns, outer, fs)
		}
	}
}

func namespaceName(n *Node) string {
	name := n.Name()
	if name == nil {
		if name = n.child("qualified_name"); name == nil {
			name = n.child("identifier")
		}
	}
	if name == nil {
		return ""
	}
	return strings.TrimPrefix(lang.StripWhitespace(name.Text()), "global::")
}

func joinNamespace(outer, name string) string {
	switch {
	case outer == "":
		return name
	case name == "":
		return outer
	default:
		return outer + "." + name
	}
}

func parentNamespace(ns string) string {
	if i := strings.LastIndexByte(ns, '.'); i >= 0 {
		return ns[:i]
	}
	return ""
}

// namespace interns the symbol of a project namespace and its parents.
func (idx *Index) namespace(name string) *model.Symbol {
	if s, ok := idx.namespaces[name]; ok {
		return s
	}
	display := name
	if name == "" {
		display = model.GlobalNamespace
	}
	s := &model.Symbol{Kind: model.KindNamespace, Name: display}
	idx.namespaces[name] = s
	if name != "" {
		idx.namespace(parentNamespace(name))
	}
	return s
}

func (idx *Index) declareNamespace(n *Node, full string) {
	idx.declared[n] = idx.namespace(full)
	idx.nsNames[n] = full
}

func (idx *Index) declareType(n *Node, ns string, outer *model.Symbol) *model.Symbol {
	nameNode := n.Name()
	if nameNode == nil {
		nameNode = n.child("identifier")
	}
	if nameNode == nil {
		return nil
	}
	name := nameNode.Text()
	params := typeParameterNames(n)

	qualified := name
	if outer != nil {
		qualified = model.QualifiedName(outer) + "." + name
	}
	key := typeKey(ns, qualified, len(params))
	access, explicit := accessibility(n, outer, idx.interfaces[outer])

	sym, ok := idx.types[key]
	if !ok {
		sym = &model.Symbol{
			Kind:           model.KindNamedType,
			Name:           name,
			Namespace:      idx.namespace(ns),
			ContainingType: outer,
			Assembly:       idx.assembly,
			Accessibility:  access,
			IsGeneric:      len(params) > 0,
		}
		for _, p := range params {
			sym.TypeParameters = append(sym.TypeParameters, &model.Symbol{
				Kind:           model.KindTypeParameter,
				Name:           p,
				Namespace:      sym.Namespace,
				ContainingType: sym,
				Assembly:       idx.assembly,
			})
		}
		idx.types[key] = sym
		switch {
		case n.Type == "struct_declaration", n.Type == "enum_declaration", n.Type == "record_struct_declaration":
			idx.valueTypes[sym] = true
		case n.Type == "record_declaration" && isRecordStruct(n, nameNode):
			idx.valueTypes[sym] = true
		case n.Type == "interface_declaration":
			idx.interfaces[sym] = true
		}
	}
	if explicit && !idx.explicit[sym] {
		// Partial declarations may carry the modifier on any part.
		sym.Accessibility = access
		idx.explicit[sym] = true
	}

	idx.declared[n] = sym
	if len(sym.TypeParameters) > 0 {
		idx.typeParams[n] = sym.TypeParameters
	}
	return sym
}

func isRecordStruct(n, name *Node) bool {
	header := string(n.file.Source[n.Start:name.Start])
	for _, word := range strings.Fields(header) {
		if word == "struct" {
			return true
		}
	}
	return false
}

func (idx *Index) declareMethod(n *Node, ns string, outer *model.Symbol) {
	name := ".ctor"
	if n.Type != "constructor_declaration" {
		nameNode := n.Name()
		if nameNode == nil {
			return
		}
		name = nameNode.Text()
	}
	access, _ := accessibility(n, outer, idx.interfaces[outer])
	sym := &model.Symbol{
		Kind:           model.KindMethod,
		Name:           name,
		Namespace:      idx.namespace(ns),
		ContainingType: outer,
		Assembly:       idx.assembly,
		Accessibility:  access,
	}
	idx.declared[n] = sym

	var params []*model.Symbol
	for _, p := range typeParameterNames(n) {
		params = append(params, &model.Symbol{
			Kind:           model.KindTypeParameter,
			Name:           p,
			Namespace:      sym.Namespace,
			ContainingType: outer,
			Assembly:       idx.assembly,
		})
	}
	if len(params) > 0 {
		idx.typeParams[n] = params
	}
}

func typeParameterNames(n *Node) []string {
	list := n.child("type_parameter_list")
	if list == nil {
		return nil
	}
	var names []string
	for _, tp := range list.kids {
		if tp.Type != "type_parameter" {
			continue
		}
		name := tp.Name()
		if name == nil {
			name = tp.child("identifier")
		}
		if name != nil {
			names = append(names, name.Text())
		}
	}
	return names
}

// accessibility maps declaration modifiers to an accessibility. The second
// result reports whether a modifier was present.
func accessibility(n *Node, outer *model.Symbol, inInterface bool) (model.Accessibility, bool) {
	mods := make(map[string]bool)
	for _, k := range n.kids {
		if k.Type == "modifier" {
			mods[strings.TrimSpace(k.Text())] = true
		}
	}
	switch {
	case mods["public"]:
		return model.Public, true
	case mods["protected"] && mods["internal"]:
		return model.ProtectedOrInternal, true
	case mods["private"] && mods["protected"]:
		return model.ProtectedAndInternal, true
	case mods["protected"]:
		return model.Protected, true
	case mods["internal"], mods["file"]:
		return model.Internal, true
	case mods["private"]:
		return model.Private, true
	case outer == nil:
		return model.Internal, false
	case inInterface:
		return model.Public, false
	default:
		return model.Private, false
	}
}

func (idx *Index) addUsing(n *Node, fs *fileScope) {
	m := usingRe.FindStringSubmatch(lang.CollapseWhitespace(n.Text()))
	if m == nil {
		return
	}
	scope := &fs.usingScope
	if m[1] != "" {
		scope = &idx.global
	}
	target := strings.TrimPrefix(lang.StripWhitespace(m[4]), "global::")
	switch {
	case m[3] != "":
		scope.aliases[m[3]] = target
	case m[2] != "":
		scope.statics = append(scope.statics, target)
	default:
		scope.namespaces = append(scope.namespaces, target)
	}
}

// Lookup returns the project or framework type ns.qualified with the given
// arity. ns is the dotted namespace name, "" for the global namespace.
func (idx *Index) Lookup(ns, qualified string, arity int) *model.Symbol {
	if s, ok := idx.types[typeKey(ns, qualified, arity)]; ok {
		return s
	}
	return idx.fw.lookup(ns, qualified, arity)
}

// namespaceSymbol returns the symbol of a known namespace, or nil.
func (idx *Index) namespaceSymbol(name string) *model.Symbol {
	if s, ok := idx.namespaces[name]; ok {
		return s
	}
	return idx.fw.namespaces[name]
}

func (idx *Index) isValueType(s *model.Symbol) bool {
	return idx.valueTypes[s] || idx.fw.valueTypes[s]
}

// namespaceKey returns the dotted name of a namespace symbol, "" for global.
func namespaceKey(ns *model.Symbol) string {
	if ns == nil || ns.Name == model.GlobalNamespace {
		return ""
	}
	return ns.Name
}
