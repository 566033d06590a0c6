package contract

import (
	"fmt"
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/l3aro/go-sclass/pkg/solidity"
)

// ErrUnhandledTypeName is returned for type names the diagram cannot
// express, such as function types.
var ErrUnhandledTypeName = errors.New("unhandled type name")

// ParseTypeName renders a type-name node. A nil node renders as "empty".
// User-defined types lose their qualification; mapping keys keep it.
func ParseTypeName(n *solidity.Node) (string, error) {
	if n == nil {
		return "empty", nil
	}

	switch n.Kind {
	case solidity.KindElementaryType:
		return elementarySpelling(n), nil
	case solidity.KindMappingType:
		m := solidity.MappingType{Node: n}
		value, err := ParseTypeName(m.ValueType())
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("mapping(%s => %s)", mappingKeyName(m.KeyType()), value), nil
	case solidity.KindUserDefinedTypeName:
		items := solidity.IdentifierPath{Node: n.Child(solidity.KindIdentifierPath)}.Items()
		if len(items) == 0 {
			return "", errors.Errorf("%w: empty user-defined type", ErrUnhandledTypeName)
		}
		return items[len(items)-1], nil
	case solidity.KindArrayTypeName:
		elem, err := ParseTypeName(solidity.ArrayTypeName{Node: n}.Operand())
		if err != nil {
			return "", err
		}
		return elem + "[]", nil
	default:
		return "", errors.Errorf("%w: %s %q", ErrUnhandledTypeName, n.Kind, n.Unparse())
	}
}

func elementarySpelling(n *solidity.Node) string {
	terms := n.Terminals()
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		parts = append(parts, t.Text())
	}
	return strings.Join(parts, " ")
}

func mappingKeyName(n *solidity.Node) string {
	if n.Kind == solidity.KindIdentifierPath {
		return strings.Join(solidity.IdentifierPath{Node: n}.Items(), ".")
	}
	return elementarySpelling(n)
}

// ParseVisibility maps a visibility keyword to its value. Anything else,
// including "", is internal.
func ParseVisibility(raw string) Visibility {
	switch raw {
	case "external":
		return VisibilityExternal
	case "public":
		return VisibilityPublic
	case "private":
		return VisibilityPrivate
	default:
		return VisibilityInternal
	}
}

// ParseStateMutability maps a mutability keyword to its value. Anything
// else is mutative.
func ParseStateMutability(raw string) StateMutability {
	switch raw {
	case "view":
		return View
	case "pure":
		return Pure
	case "constant":
		return Constant
	case "payable":
		return Payable
	default:
		return Mutative
	}
}

// visibilityOf scans a declaration header. The last visibility keyword wins.
func visibilityOf(attrs []solidity.Attribute) Visibility {
	raw := ""
	for _, a := range attrs {
		switch a.Kind {
		case solidity.AttributeOverride, solidity.AttributeModifierInvocation:
			continue
		case solidity.AttributeVisibility:
			raw = a.Keyword
		}
	}
	return ParseVisibility(raw)
}

func mutabilityOf(attrs []solidity.Attribute) StateMutability {
	raw := ""
	for _, a := range attrs {
		switch a.Kind {
		case solidity.AttributeOverride, solidity.AttributeModifierInvocation:
			continue
		case solidity.AttributeMutability:
			raw = a.Keyword
		}
	}
	return ParseStateMutability(raw)
}

// returnTypeOf lists return parameters by name when named and by type
// otherwise. A function without a returns clause yields "".
func returnTypeOf(fn solidity.FunctionDefinition) (string, error) {
	returns := fn.Returns()
	if len(returns) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(returns))
	for _, r := range returns {
		if name := r.ParamName(); name != "" {
			parts = append(parts, name)
			continue
		}
		typ, err := ParseTypeName(r.TypeName())
		if err != nil {
			return "", err
		}
		parts = append(parts, typ)
	}
	return strings.Join(parts, ", "), nil
}

func paramsOf(fn solidity.FunctionDefinition) ([]Param, error) {
	params := fn.Parameters()
	out := make([]Param, 0, len(params))
	for _, p := range params {
		typ, err := ParseTypeName(p.TypeName())
		if err != nil {
			return nil, err
		}
		out = append(out, Param{Type: typ, Name: p.ParamName()})
	}
	return out, nil
}
