package csharp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowsigma/CodeTrivia/internal/lang"
	"github.com/slowsigma/CodeTrivia/internal/model"
)

// parseAll parses sources keyed by path and indexes them as one project.
func parseAll(t *testing.T, sources ...string) ([]*File, *Oracle) {
	t.Helper()
	parser := lang.Languages["csharp"].NewParser()
	defer parser.Close()

	var files []*File
	for i := 0; i+1 < len(sources); i += 2 {
		f, err := Parse(context.Background(), parser, sources[i], []byte(sources[i+1]))
		require.NoError(t, err)
		files = append(files, f)
	}
	return files, NewOracle(NewIndex("Shop", files))
}

// find returns the last node in pre-order with the given type and text.
func find(t *testing.T, root *Node, typ, text string) *Node {
	t.Helper()
	var found *Node
	walk(root, func(n *Node) bool {
		if n.Type == typ && n.Text() == text {
			found = n
		}
		return true
	})
	require.NotNil(t, found, "no %s %q", typ, text)
	return found
}

// decl returns the first declaration of the given type whose name is name.
func decl(t *testing.T, root *Node, typ, name string) *Node {
	t.Helper()
	var found *Node
	walk(root, func(n *Node) bool {
		if found == nil && n.Type == typ && n.Name() != nil && n.Name().Text() == name {
			found = n
		}
		return found == nil
	})
	require.NotNil(t, found, "no %s named %q", typ, name)
	return found
}

func identity(s *model.Symbol) string {
	if s == nil {
		return "<nil>"
	}
	return model.Identity(s)
}

func TestParseMaterializesNamedNodes(t *testing.T) {
	t.Parallel()

	files, _ := parseAll(t, "a.cs", "using System;\nnamespace App { class Order { } }\n")
	root := files[0].Root
	assert.Equal(t, "compilation_unit", root.Type)
	assert.Nil(t, root.parent)
	assert.False(t, files[0].HasErrors)

	using := root.kids[0]
	assert.Equal(t, "using_directive", using.Type)
	assert.True(t, using.IsImportDirective())
	assert.False(t, root.IsImportDirective())

	class := find(t, root, "class_declaration", "class Order { }")
	require.NotNil(t, class.Name())
	assert.Equal(t, "Order", class.Name().Text())
	assert.True(t, class.Name().declName)
	assert.Equal(t, 2, class.Line)
	assert.Len(t, class.Children(), len(class.kids))
}

func TestFirstErrorLine(t *testing.T) {
	t.Parallel()

	root := &Node{Type: "compilation_unit", Line: 1}
	class := &Node{Type: "class_declaration", Line: 1, parent: root}
	class.kids = []*Node{{Type: "ERROR", Line: 4, parent: class}}
	root.kids = []*Node{class, {Type: "ERROR", Line: 9, parent: root}}
	assert.Equal(t, 4, firstErrorLine(root), "pre-order: the nested error comes first")

	files, _ := parseAll(t, "ok.cs", "class Ok { }\n")
	assert.Equal(t, 0, firstErrorLine(files[0].Root))
}

func TestIndexDeclarations(t *testing.T) {
	t.Parallel()

	files, o := parseAll(t,
		"Invoice.cs", `namespace Shop.Billing;

partial class Invoice<T>
{
    T amount;
}
`,
		"Invoice.Items.cs", `namespace Shop.Billing
{
    public partial class Invoice<T>
    {
        private class Item { }
        interface IRule { class Nested { } }
    }

    struct Money { }
}
`)

	invoice := o.DeclaredSymbol(decl(t, files[0].Root, "class_declaration", "Invoice"))
	require.NotNil(t, invoice)
	assert.Equal(t, "Shop.Billing.Invoice", model.Identity(invoice))
	assert.Equal(t, model.Public, invoice.Accessibility, "the explicit modifier on any part wins")
	assert.Equal(t, "Shop", invoice.Assembly)
	require.Len(t, invoice.TypeParameters, 1)
	assert.Equal(t, "T", invoice.TypeParameters[0].Name)

	idx := o.idx
	assert.Same(t, invoice, o.DeclaredSymbol(decl(t, files[1].Root, "class_declaration", "Invoice")), "partial declarations share one symbol")
	assert.Same(t, invoice, idx.Lookup("Shop.Billing", "Invoice", 1))
	assert.Nil(t, idx.Lookup("Shop.Billing", "Invoice", 0))

	item := idx.Lookup("Shop.Billing", "Invoice.Item", 0)
	require.NotNil(t, item)
	assert.Equal(t, model.Private, item.Accessibility)
	assert.Same(t, invoice, item.ContainingType)
	assert.Equal(t, "Invoice.Item", model.QualifiedName(item))

	rule := idx.Lookup("Shop.Billing", "Invoice.IRule", 0)
	require.NotNil(t, rule)
	assert.Equal(t, model.Private, rule.Accessibility)
	nested := idx.Lookup("Shop.Billing", "Invoice.IRule.Nested", 0)
	require.NotNil(t, nested)
	assert.Equal(t, model.Public, nested.Accessibility, "interface members default to public")

	money := idx.Lookup("Shop.Billing", "Money", 0)
	require.NotNil(t, money)
	assert.Equal(t, model.Internal, money.Accessibility)
	assert.True(t, idx.isValueType(money))

	// T inside the class body is the type parameter.
	tp := o.ReferencedSymbol(find(t, files[0].Root, "identifier", "T"))
	require.NotNil(t, tp)
	assert.Equal(t, model.KindTypeParameter, tp.Kind)
	assert.Same(t, invoice.TypeParameters[0], tp)
}

func TestGlobalNamespace(t *testing.T) {
	t.Parallel()

	files, o := parseAll(t, "Program.cs", "class Program { }\n")
	sym := o.DeclaredSymbol(decl(t, files[0].Root, "class_declaration", "Program"))
	require.NotNil(t, sym)
	assert.Equal(t, model.GlobalNamespace, sym.Namespace.Name)
	assert.Equal(t, "<global namespace>.Program", model.Identity(sym))
	assert.Equal(t, model.Internal, sym.Accessibility)
}

const resolveSource = `using System;
using System.Text;
using Col = System.Collections.Generic;
using Ord = Shop.Order;

namespace Shop
{
    [Serializable]
    public class Order
    {
        Col.List<int> a;
        Ord b;
        StringBuilder c;
        System.IO.Stream d;
        Dictionary<string, int> f;
        int? g;
        string? h;

        void M()
        {
            var x = Environment.NewLine;
            var y = new Order();
        }
    }
}
`

func TestOracleResolvesReferences(t *testing.T) {
	t.Parallel()

	files, o := parseAll(t, "Order.cs", resolveSource)
	root := files[0].Root
	ref := func(typ, text string) *model.Symbol {
		return o.ReferencedSymbol(find(t, root, typ, text))
	}

	list := ref("qualified_name", "Col.List<int>")
	require.NotNil(t, list)
	assert.Equal(t, "System.Collections.Generic.List", model.Identity(list))
	assert.Equal(t, FrameworkAssembly, list.Assembly)
	assert.True(t, list.IsGeneric)
	require.Len(t, list.TypeArguments, 1)
	assert.Equal(t, "System.Int32", model.Identity(list.TypeArguments[0]))

	assert.Equal(t, "Shop.Order", identity(ref("identifier", "Ord")))
	assert.Equal(t, "System.Text.StringBuilder", identity(ref("identifier", "StringBuilder")))
	assert.Equal(t, "System.IO.Stream", identity(ref("qualified_name", "System.IO.Stream")))
	assert.Nil(t, ref("generic_name", "Dictionary<string, int>"), "no using brings Dictionary into scope")

	nullable := ref("nullable_type", "int?")
	require.NotNil(t, nullable)
	assert.Equal(t, "System.Nullable", model.Identity(nullable))
	require.Len(t, nullable.TypeArguments, 1)
	assert.Equal(t, "System.Int32", model.Identity(nullable.TypeArguments[0]))
	assert.Equal(t, "System.String", identity(ref("nullable_type", "string?")), "nullable reference types are the type itself")

	newLine := ref("member_access_expression", "Environment.NewLine")
	require.NotNil(t, newLine)
	assert.Equal(t, model.KindProperty, newLine.Kind)
	assert.Equal(t, "System", model.NamespaceName(newLine))
	assert.Equal(t, "System.Environment", identity(newLine.ContainingType))

	ctor := ref("object_creation_expression", "new Order()")
	require.NotNil(t, ctor)
	assert.True(t, model.IsSynthetic(ctor))
	assert.Equal(t, "Shop.Order", identity(ctor.ContainingType))

	attr := ref("identifier", "Serializable")
	assert.Equal(t, "System.SerializableAttribute", identity(attr))

	ns := ref("identifier", "System")
	require.NotNil(t, ns)
	assert.Equal(t, model.KindNamespace, ns.Kind)

	assert.Nil(t, ref("identifier", "x"), "locals do not resolve")

	order := o.DeclaredSymbol(decl(t, root, "class_declaration", "Order"))
	require.NotNil(t, order)
	assert.Same(t, order, ctor.ContainingType)
	shop := o.DeclaredSymbol(decl(t, root, "namespace_declaration", "Shop"))
	require.NotNil(t, shop)
	assert.Equal(t, model.KindNamespace, shop.Kind)
	assert.Equal(t, "Shop", shop.Name)
}

func TestOracleCompositeTypes(t *testing.T) {
	t.Parallel()

	files, o := parseAll(t, "Grid.cs", `using System.Collections.Generic;

namespace Shop
{
    class Grid
    {
        int[] cells;
        (int, string) pair;
        List<Grid>[] rows;
    }
}
`)
	root := files[0].Root

	arr := o.ReferencedSymbol(find(t, root, "array_type", "int[]"))
	require.NotNil(t, arr)
	assert.Equal(t, model.KindArrayType, arr.Kind)
	assert.True(t, arr.IsArray)
	assert.Nil(t, arr.Namespace)
	assert.Equal(t, "System.Int32", identity(arr.ElementType))

	tuple := o.ReferencedSymbol(find(t, root, "tuple_type", "(int, string)"))
	require.NotNil(t, tuple)
	assert.True(t, tuple.IsTuple)
	require.NotNil(t, tuple.TupleUnderlying)
	assert.Equal(t, "System.ValueTuple", model.Identity(tuple.TupleUnderlying))
	require.Len(t, tuple.TupleElements, 2)
	assert.Equal(t, "System.Int32", identity(tuple.TupleElements[0]))
	assert.Equal(t, "System.String", identity(tuple.TupleElements[1]))

	rows := o.ReferencedSymbol(find(t, root, "array_type", "List<Grid>[]"))
	require.NotNil(t, rows)
	require.NotNil(t, rows.ElementType)
	assert.Equal(t, "System.Collections.Generic.List", identity(rows.ElementType))
	require.Len(t, rows.ElementType.TypeArguments, 1)
	assert.Equal(t, "Shop.Grid", identity(rows.ElementType.TypeArguments[0]))

	// Memoized: the same node always yields the same symbol.
	assert.Same(t, arr, o.ReferencedSymbol(find(t, root, "array_type", "int[]")))
}

func TestOracleIgnoresForeignNodes(t *testing.T) {
	t.Parallel()

	_, o := parseAll(t, "a.cs", "class A { }")
	assert.Nil(t, o.ReferencedSymbol(nil))
	assert.Nil(t, o.DeclaredSymbol(nil))
}

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestProjectCompile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "Shop/Order.cs", "namespace Shop { public class Order { Line l; } }")
	writeFile(t, dir, "Shop/Line.cs", "namespace Shop { public class Line { } }")

	info := model.ProjectInfo{Name: "Shop", Assembly: "Shop", FilePath: "Shop/Shop.csproj"}
	p := NewProject(info, dir, []string{"Shop/Line.cs", "Shop/Missing.cs", "Shop/Order.cs"})
	assert.Equal(t, info, p.Info())

	docs, err := p.Compile(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2, "unreadable files are skipped")
	assert.Equal(t, "Shop/Line.cs", docs[0].FilePath)
	assert.Equal(t, "Shop/Order.cs", docs[1].FilePath)
	assert.Same(t, docs[0].Oracle, docs[1].Oracle)

	// Order.cs resolves Line declared in a sibling file.
	root := docs[1].Root.(*Node)
	line := docs[1].Oracle.ReferencedSymbol(find(t, root, "identifier", "Line"))
	assert.Equal(t, "Shop.Line", identity(line))
}

func TestProjectCompileCancelled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.cs", "class A { }")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewProject(model.ProjectInfo{Name: "A"}, dir, []string{"a.cs"}).Compile(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestUnsupportedProject(t *testing.T) {
	t.Parallel()

	p := Unsupported(model.ProjectInfo{Name: "Docs", FilePath: "Docs/Docs.vbproj"})
	_, err := p.Compile(context.Background())
	require.ErrorIs(t, err, model.ErrNotCompilable)
}
