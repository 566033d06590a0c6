package contract

import (
	"fmt"
	"strings"
)

// Warning is a naming-convention finding on one member. Warnings never
// change the diagram.
type Warning struct {
	Contract   string
	Member     string
	Kind       string
	Visibility Visibility
}

func (w Warning) String() string {
	return fmt.Sprintf("%s %s %s.%s should start with an underscore", w.Visibility, w.Kind, w.Contract, w.Member)
}

// Lint reports internal and private members whose names do not start
// with "_".
func Lint(c *Contract) []Warning {
	var out []Warning
	check := func(kind, name string, vis Visibility) {
		if vis != VisibilityInternal && vis != VisibilityPrivate {
			return
		}
		if strings.HasPrefix(name, "_") {
			return
		}
		out = append(out, Warning{Contract: c.ClassName, Member: name, Kind: kind, Visibility: vis})
	}

	for _, f := range c.Fields {
		check("variable", f.Name, f.Visibility)
	}
	for _, m := range c.Mappings {
		check("mapping", m.Name, m.Visibility)
	}
	for _, m := range c.Methods {
		check("function", m.Name, m.Visibility)
	}
	return out
}
