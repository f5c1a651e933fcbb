// Package xmldoc serializes a composition graph as a nested-element XML
// document.
package xmldoc

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"

	"github.com/slowsigma/CodeTrivia/internal/model"
)

// emptyElement matches an element with attributes only. Attribute values
// written by encoding/xml never contain quotes or angle brackets.
var emptyElement = regexp.MustCompile(`<([\w.]+)((?: [\w.:]+="[^"]*")*)></([\w.]+)>`)

type solution struct {
	XMLName  xml.Name  `xml:"Solution"`
	FilePath string    `xml:"FilePath,attr"`
	Projects []project `xml:"Project"`
}

type project struct {
	Name     string     `xml:"Name,attr"`
	Assembly string     `xml:"Assembly,attr"`
	FilePath string     `xml:"FilePath,attr"`
	Types    []declared `xml:",any"`
}

// declared is named after the kind of the declaration.
type declared struct {
	XMLName    xml.Name
	ID         string      `xml:"id,attr"`
	Name       string      `xml:"Name,attr"`
	Kind       string      `xml:"Kind,attr"`
	Access     string      `xml:"Access,attr"`
	Files      []file      `xml:"File"`
	References []reference `xml:"Reference"`
	Types      []declared  `xml:",any"`
}

type file struct {
	FilePath string `xml:"FilePath,attr"`
}

type reference struct {
	ID        string `xml:"id,attr"`
	Assembly  string `xml:"Assembly,attr"`
	Namespace string `xml:"Namespace,attr"`
	Type      string `xml:"Type,attr"`
}

// Encode writes sol to w as an indented XML document. Elements without
// children are self-closing.
func Encode(w io.Writer, sol *model.Solution) error {
	doc := solution{FilePath: sol.FilePath}
	for _, p := range sol.Projects {
		doc.Projects = append(doc.Projects, project{
			Name:     p.Name,
			Assembly: p.Assembly,
			FilePath: p.FilePath,
			Types:    convert(p.Types),
		})
	}

	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding composition: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding composition: %w", err)
	}
	out := append(selfClose(buf.Bytes()), '\n')
	_, err := w.Write(out)
	return err
}

func selfClose(doc []byte) []byte {
	return emptyElement.ReplaceAllFunc(doc, func(m []byte) []byte {
		sub := emptyElement.FindSubmatch(m)
		if !bytes.Equal(sub[1], sub[3]) {
			return m
		}
		out := make([]byte, 0, len(m))
		out = append(out, '<')
		out = append(out, sub[1]...)
		out = append(out, sub[2]...)
		return append(out, " />"...)
	})
}

func convert(types []*model.TypeNode) []declared {
	if len(types) == 0 {
		return nil
	}
	out := make([]declared, 0, len(types))
	for _, tn := range types {
		kind := tn.Kind
		if kind == "" {
			kind = string(model.KindNamedType)
		}
		d := declared{
			XMLName: xml.Name{Local: kind},
			ID:      tn.ID,
			Name:    tn.Name,
			Kind:    kind,
			Access:  tn.Access,
			Types:   convert(tn.Types),
		}
		for _, f := range tn.Files {
			d.Files = append(d.Files, file{FilePath: f})
		}
		for _, r := range tn.References {
			d.References = append(d.References, reference(r))
		}
		out = append(out, d)
	}
	return out
}
