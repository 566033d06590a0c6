// Package contract holds the rendering-ready model of a Solidity contract
// and the decoders that build it from parsed declarations.
package contract

import (
	"github.com/l3aro/go-sclass/pkg/solidity"
)

// Visibility of a state variable or function.
type Visibility int

const (
	VisibilityInternal Visibility = iota
	VisibilityExternal
	VisibilityPublic
	VisibilityPrivate
)

func (v Visibility) String() string {
	switch v {
	case VisibilityExternal:
		return "external"
	case VisibilityPublic:
		return "public"
	case VisibilityPrivate:
		return "private"
	default:
		return "internal"
	}
}

// Glyph is the symbol the diagram shows for v.
func (v Visibility) Glyph() string {
	switch v {
	case VisibilityExternal, VisibilityPublic:
		return "❗"
	case VisibilityPrivate:
		return "🔒"
	default:
		return "⚙️"
	}
}

// MarshalText encodes v as its keyword.
func (v Visibility) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// StateMutability of a function. The zero value is a plain state-changing
// function.
type StateMutability int

const (
	Mutative StateMutability = iota
	View
	Pure
	Constant
	Payable
)

func (m StateMutability) String() string {
	switch m {
	case View:
		return "view"
	case Pure:
		return "pure"
	case Constant:
		return "constant"
	case Payable:
		return "payable"
	default:
		return ""
	}
}

// Glyph is the symbol the diagram shows after the visibility glyph.
func (m StateMutability) Glyph() string {
	switch m {
	case View:
		return "👀"
	case Pure:
		return "🧮"
	case Constant:
		return "ℏ"
	case Payable:
		return "💰"
	default:
		return ""
	}
}

// MarshalText encodes m as its keyword, "" for mutative.
func (m StateMutability) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Field is a non-mapping state variable.
type Field struct {
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	Visibility Visibility `json:"visibility"`
}

// Mapping is a mapping-typed state variable. Key and Value are rendered
// type names; Value may itself be a mapping.
type Mapping struct {
	Name       string     `json:"name"`
	Key        string     `json:"key"`
	Value      string     `json:"value"`
	Visibility Visibility `json:"visibility"`
}

// Param is one function parameter. Name is empty for unnamed parameters.
type Param struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

// Method is a function, receive or fallback function.
type Method struct {
	Name            string          `json:"name"`
	Params          []Param         `json:"params"`
	ReturnType      string          `json:"returnType,omitempty"`
	Visibility      Visibility      `json:"visibility"`
	StateMutability StateMutability `json:"stateMutability"`
}

// Contract is the diagram model of one contract, interface or library.
type Contract struct {
	ClassName string            `json:"className"`
	Kind      solidity.NodeKind `json:"-"`
	Fields    []Field           `json:"fields"`
	Mappings  []Mapping         `json:"mappings"`
	Methods   []Method          `json:"methods"`

	// InheritsFrom lists the resolved bases in declaration order.
	InheritsFrom []*solidity.Definition `json:"-"`
}
