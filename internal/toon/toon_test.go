package toon

import (
	"strings"
	"testing"

	"github.com/slowsigma/CodeTrivia/internal/model"
)

func TestEncodeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", `""`},
		{"simple", "hello", "hello"},
		{"leading space", " hello", `" hello"`},
		{"trailing space", "hello ", `"hello "`},
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"carriage return", "a\rb", `"a\rb"`},
		{"true keyword", "true", `"true"`},
		{"True keyword", "True", `"True"`},
		{"false keyword", "false", `"false"`},
		{"null keyword", "null", `"null"`},
		{"integer", "42", "42"},
		{"negative integer", "-1", "-1"},
		{"float", "3.14", "3.14"},
		{"zero", "0", "0"},
		{"leading zero invalid", "01", "01"},
		{"comma", "a,b", `"a,b"`},
		{"colon", "a:b", `"a:b"`},
		{"quote", `a"b`, `"a\"b"`},
		{"backslash", `a\b`, `"a\\b"`},
		{"bracket", "a[b", `"a[b"`},
		{"brace", "a{b", `"a{b"`},
		{"dash prefix", "-foo", `"-foo"`},
		{"path", "src/Order.cs", "src/Order.cs"},
		{"identity", "App.Order.Line", "App.Order.Line"},
		{"global namespace", "<global namespace>.Program", "<global namespace>.Program"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := encodeValue(tt.in)
			if got != tt.want {
				t.Errorf("encodeValue(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEncodeComposition(t *testing.T) {
	t.Parallel()

	sol := &model.Solution{
		FilePath: "Shop.sln",
		Projects: []*model.ProjectNode{
			{
				Name:     "Shop",
				Assembly: "Shop.Core",
				FilePath: "src/Shop.csproj",
				Types: []*model.TypeNode{
					{
						ID:     "Shop.Order",
						Name:   "Order",
						Kind:   "NamedType",
						Access: "Public",
						Files:  []string{"Order.cs", "Order.Part.cs"},
						References: []model.Reference{
							{ID: "System.String", Assembly: "Microsoft.Net", Namespace: "System", Type: "String"},
						},
						Types: []*model.TypeNode{
							{
								ID:     "Shop.Order.Line",
								Name:   "Order.Line",
								Kind:   "NamedType",
								Access: "Private",
								Files:  []string{"Order.cs"},
								References: []model.Reference{
									{ID: "Shop.Order", Assembly: "Shop.Core", Namespace: "Shop", Type: "Order"},
								},
							},
						},
					},
				},
			},
		},
	}

	got := EncodeComposition(sol)
	want := []string{
		"solution: Shop.sln",
		"projects[1]{name,assembly,path}:",
		"  Shop,Shop.Core,src/Shop.csproj",
		"types[2]{project,id,name,access,files}:",
		"  Shop,Shop.Order,Order,Public,Order.cs Order.Part.cs",
		"  Shop,Shop.Order.Line,Order.Line,Private,Order.cs",
		"references[2]{owner,id,assembly,namespace,type}:",
		"  Shop.Order,System.String,Microsoft.Net,System,String",
		"  Shop.Order.Line,Shop.Order,Shop.Core,Shop,Order",
	}

	lines := strings.Split(got, "\n")
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), got)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestEncodeCompositionEmpty(t *testing.T) {
	t.Parallel()

	got := EncodeComposition(&model.Solution{})
	if !strings.HasPrefix(got, `solution: ""`) {
		t.Errorf("expected quoted empty solution path, got:\n%s", got)
	}
	if !strings.Contains(got, "projects[0]{name,assembly,path}:") {
		t.Errorf("expected empty projects section, got:\n%s", got)
	}
	if !strings.Contains(got, "references[0]{owner,id,assembly,namespace,type}:") {
		t.Errorf("expected empty references section, got:\n%s", got)
	}
}

func TestEncodeUsage(t *testing.T) {
	t.Parallel()

	u := &model.Usage{
		Projects: 1,
		Trees:    2,
		Counts:   map[string]int{"System.Linq": 2, "System.Collections": 6},
	}

	got := EncodeUsage(u)
	want := "projects: 1\ntrees: 2\nnamespaces[2]{namespace,count}:\n  System.Collections,6\n  System.Linq,2"
	if got != want {
		t.Errorf("EncodeUsage:\ngot:\n%s\nwant:\n%s", got, want)
	}
}
