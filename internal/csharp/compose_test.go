package csharp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowsigma/CodeTrivia/internal/aggregate"
	"github.com/slowsigma/CodeTrivia/internal/graph"
	"github.com/slowsigma/CodeTrivia/internal/model"
	"github.com/slowsigma/CodeTrivia/internal/usings"
)

const orderSource = `using System;
using System.Collections.Generic;

namespace Shop
{
    public class Order
    {
        private List<Line> lines = new List<Line>();
        public string Name { get; set; }
        public int[] Totals;
        public (int, string) Pair;
        public DateTime? Shipped;

        public class Line
        {
            public Order Parent;
        }

        public string Print()
        {
            Console.WriteLine(Name);
            return Name;
        }
    }
}
`

func TestComposeParsedProject(t *testing.T) {
	t.Parallel()

	files, o := parseAll(t, "Order.cs", orderSource)
	b := graph.NewBuilder()
	agg := aggregate.NewAggregator(b)
	agg.Walk(model.Document{Root: files[0].Root, FilePath: "Order.cs", Oracle: o})
	p := b.Project(model.ProjectInfo{Name: "Shop", Assembly: "Shop"})

	require.Len(t, p.Types, 1)
	order := p.Types[0]
	assert.Equal(t, "Shop.Order", order.ID)
	assert.Equal(t, "Public", order.Access)
	assert.Equal(t, []string{"Order.cs"}, order.Files)

	var ids, assemblies []string
	for _, r := range order.References {
		ids = append(ids, r.ID)
		assemblies = append(assemblies, r.Assembly)
	}
	assert.Equal(t, []string{
		"System.Collections.Generic.List",
		"System.String",
		"System.Int32",
		"System.ValueTuple",
		"System.Nullable",
		"System.DateTime",
		"System.Console",
	}, ids, "nested types and self references are suppressed")
	for _, a := range assemblies {
		assert.Equal(t, model.BaseRuntime, a)
	}

	require.Len(t, order.Types, 1)
	line := order.Types[0]
	assert.Equal(t, "Shop.Order.Line", line.ID)
	assert.Equal(t, "Order.Line", line.Name)
	require.Len(t, line.References, 1)
	assert.Equal(t, model.Reference{ID: "Shop.Order", Assembly: "Shop", Namespace: "Shop", Type: "Order"}, line.References[0])
}

func TestCountParsedProject(t *testing.T) {
	t.Parallel()

	files, o := parseAll(t, "Program.cs", `using System;

class Program
{
    static int Main()
    {
        Console.WriteLine("hi");
        Console.WriteLine("there");
        return 0;
    }
}
`)
	u := model.NewUsage()
	usings.NewCounter(u).Count(model.Document{Root: files[0].Root, FilePath: "Program.cs", Oracle: o})

	// int, then Console, the WriteLine access and its name for each call.
	assert.Equal(t, map[string]int{"System": 7}, u.Counts)
}
