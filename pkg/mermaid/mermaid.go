// Package mermaid renders contract models as a Mermaid classDiagram.
package mermaid

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/l3aro/go-sclass/pkg/contract"
)

// Edge is an inheritance arrow from Parent to Child.
type Edge struct {
	Parent string
	Child  string
}

func (e Edge) String() string {
	return e.Parent + " <|-- " + e.Child
}

// Options tune rendering.
type Options struct {
	// DisableParamTypes renders parameters by name only.
	DisableParamTypes bool
}

// FormatVersion changes whenever Render output changes for the same
// input. Cached diagrams from another version are never reused.
const FormatVersion = "1"

// Title derives a diagram title from an input path: its base name up to
// the first dot, so Foo.t.sol is titled Foo.
func Title(inputPath string) string {
	base := filepath.Base(inputPath)
	if i := strings.Index(base, "."); i > 0 {
		return base[:i]
	}
	return base
}

// Render writes the diagram. Class blocks keep the order of contracts and
// edges keep the order given.
func Render(title string, contracts []*contract.Contract, edges []Edge, opts Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "---\ntitle: %s Class Diagram\n---\nclassDiagram\n", title)

	for _, c := range contracts {
		fmt.Fprintf(&b, "\n\tclass %s {\n", c.ClassName)
		for _, f := range c.Fields {
			fmt.Fprintf(&b, "\t\t%s %s %s\n", f.Visibility.Glyph(), f.Type, f.Name)
		}
		for _, m := range c.Mappings {
			fmt.Fprintf(&b, "\t\t%s mapping(%s => %s) %s\n", m.Visibility.Glyph(), m.Key, m.Value, m.Name)
		}
		for _, m := range c.Methods {
			b.WriteString("\t\t")
			b.WriteString(MethodLine(m, opts))
			b.WriteByte('\n')
		}
		b.WriteString("\t}\n")
	}

	for _, e := range edges {
		fmt.Fprintf(&b, "\n\t%s\n", e)
	}
	return b.String()
}

// MethodLine renders one method without indentation.
func MethodLine(m contract.Method, opts Options) string {
	line := fmt.Sprintf("%s%s %s(%s)", m.Visibility.Glyph(), m.StateMutability.Glyph(), m.Name, params(m.Params, opts))
	if m.ReturnType != "" {
		line += " returns (" + m.ReturnType + ")"
	}
	return line
}

// params renders a parameter list. Unnamed parameters show their type even
// when types are disabled.
func params(ps []contract.Param, opts Options) string {
	parts := make([]string, 0, len(ps))
	for _, p := range ps {
		switch {
		case p.Name == "":
			parts = append(parts, p.Type)
		case opts.DisableParamTypes:
			parts = append(parts, p.Name)
		default:
			parts = append(parts, p.Type+" "+p.Name)
		}
	}
	return strings.Join(parts, ", ")
}
