package lang

import "github.com/smacker/go-tree-sitter/csharp"

func init() {
	Languages["csharp"] = &Language{
		Name:             "csharp",
		Extensions:       []string{".cs"},
		lang:             csharp.GetLanguage(),
		ImportDirectives: []string{"using_directive"},
		TypeDeclarations: []string{
			"class_declaration",
			"struct_declaration",
			"interface_declaration",
			"enum_declaration",
			"record_declaration",
			"record_struct_declaration",
			"delegate_declaration",
		},
	}
}
