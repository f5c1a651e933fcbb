// Package toon implements TOON (Token-Oriented Object Notation) encoding of
// composition graphs and namespace usage reports.
package toon

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/slowsigma/CodeTrivia/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// EncodeComposition flattens a solution graph into TOON tables. Nested types
// are listed depth-first after their container.
func EncodeComposition(sol *model.Solution) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("solution: %s", encodeValue(sol.FilePath)))

	var projectRows, typeRows, refRows [][]string
	for _, p := range sol.Projects {
		projectRows = append(projectRows, []string{p.Name, p.Assembly, p.FilePath})

		var visit func(tn *model.TypeNode)
		visit = func(tn *model.TypeNode) {
			typeRows = append(typeRows, []string{
				p.Name,
				tn.ID,
				tn.Name,
				tn.Access,
				strings.Join(tn.Files, " "),
			})
			for _, r := range tn.References {
				refRows = append(refRows, []string{tn.ID, r.ID, r.Assembly, r.Namespace, r.Type})
			}
			for _, child := range tn.Types {
				visit(child)
			}
		}
		for _, tn := range p.Types {
			visit(tn)
		}
	}

	parts = append(parts, formatTabular("projects", []string{"name", "assembly", "path"}, projectRows))
	parts = append(parts, formatTabular("types", []string{"project", "id", "name", "access", "files"}, typeRows))
	parts = append(parts, formatTabular("references", []string{"owner", "id", "assembly", "namespace", "type"}, refRows))

	return strings.Join(parts, "\n")
}

// EncodeUsage encodes a namespace histogram sorted by namespace.
func EncodeUsage(u *model.Usage) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("projects: %d", u.Projects))
	parts = append(parts, fmt.Sprintf("trees: %d", u.Trees))

	var rows [][]string
	for _, ns := range u.Namespaces() {
		rows = append(rows, []string{ns, fmt.Sprintf("%d", u.Counts[ns])})
	}
	parts = append(parts, formatTabular("namespaces", []string{"namespace", "count"}, rows))

	return strings.Join(parts, "\n")
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
