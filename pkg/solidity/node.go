package solidity

import "strings"

// NodeKind is the syntactic kind of a tree node.
type NodeKind int

const (
	KindTerminal NodeKind = iota
	KindSourceUnit
	KindPragmaDirective
	KindImportDirective
	KindUsingDirective
	KindContractDefinition
	KindInterfaceDefinition
	KindLibraryDefinition
	KindInheritanceSpecifier
	KindInheritanceType
	KindIdentifierPath
	KindStateVariableDefinition
	KindStateVariableAttributes
	KindConstantDefinition
	KindFunctionDefinition
	KindConstructorDefinition
	KindReceiveFunctionDefinition
	KindFallbackFunctionDefinition
	KindModifierDefinition
	KindFunctionAttributes
	KindModifierInvocation
	KindOverrideSpecifier
	KindParameters
	KindReturnsDeclaration
	KindParameter
	KindElementaryType
	KindMappingType
	KindMappingKey
	KindMappingValue
	KindArrayTypeName
	KindUserDefinedTypeName
	KindFunctionType
	KindStructDefinition
	KindStructMember
	KindEnumDefinition
	KindEventDefinition
	KindErrorDefinition
	KindUserDefinedValueTypeDefinition
	KindBlock
	KindExpression
)

var kindNames = map[NodeKind]string{
	KindTerminal:                       "Terminal",
	KindSourceUnit:                     "SourceUnit",
	KindPragmaDirective:                "PragmaDirective",
	KindImportDirective:                "ImportDirective",
	KindUsingDirective:                 "UsingDirective",
	KindContractDefinition:             "ContractDefinition",
	KindInterfaceDefinition:            "InterfaceDefinition",
	KindLibraryDefinition:              "LibraryDefinition",
	KindInheritanceSpecifier:           "InheritanceSpecifier",
	KindInheritanceType:                "InheritanceType",
	KindIdentifierPath:                 "IdentifierPath",
	KindStateVariableDefinition:        "StateVariableDefinition",
	KindStateVariableAttributes:        "StateVariableAttributes",
	KindConstantDefinition:             "ConstantDefinition",
	KindFunctionDefinition:             "FunctionDefinition",
	KindConstructorDefinition:          "ConstructorDefinition",
	KindReceiveFunctionDefinition:      "ReceiveFunctionDefinition",
	KindFallbackFunctionDefinition:     "FallbackFunctionDefinition",
	KindModifierDefinition:             "ModifierDefinition",
	KindFunctionAttributes:             "FunctionAttributes",
	KindModifierInvocation:             "ModifierInvocation",
	KindOverrideSpecifier:              "OverrideSpecifier",
	KindParameters:                     "Parameters",
	KindReturnsDeclaration:             "ReturnsDeclaration",
	KindParameter:                      "Parameter",
	KindElementaryType:                 "ElementaryType",
	KindMappingType:                    "MappingType",
	KindMappingKey:                     "MappingKey",
	KindMappingValue:                   "MappingValue",
	KindArrayTypeName:                  "ArrayTypeName",
	KindUserDefinedTypeName:            "UserDefinedTypeName",
	KindFunctionType:                   "FunctionType",
	KindStructDefinition:               "StructDefinition",
	KindStructMember:                   "StructMember",
	KindEnumDefinition:                 "EnumDefinition",
	KindEventDefinition:                "EventDefinition",
	KindErrorDefinition:                "ErrorDefinition",
	KindUserDefinedValueTypeDefinition: "UserDefinedValueTypeDefinition",
	KindBlock:                          "Block",
	KindExpression:                     "Expression",
}

func (k NodeKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Unknown"
}

// IsContractLike reports whether k is a contract, interface or library.
func (k NodeKind) IsContractLike() bool {
	return k == KindContractDefinition || k == KindInterfaceDefinition || k == KindLibraryDefinition
}

// IsFunctionLike reports whether k is a function-shaped definition:
// keyword, optional name, parameters, attributes, optional returns, body.
func (k NodeKind) IsFunctionLike() bool {
	switch k {
	case KindFunctionDefinition, KindConstructorDefinition, KindReceiveFunctionDefinition,
		KindFallbackFunctionDefinition, KindModifierDefinition:
		return true
	}
	return false
}

// Node is a concrete syntax tree node. Terminals carry a Token; every other
// node spans its children.
type Node struct {
	Kind     NodeKind
	Token    Token
	Children []*Node
	Parent   *Node

	// Name is the identifier terminal naming a declaration, or nil.
	Name *Node

	file *File
	pos  int
}

// File returns the file the node was parsed from.
func (n *Node) File() *File { return n.file }

// IsTerminal reports whether n is a token leaf.
func (n *Node) IsTerminal() bool { return n.Kind == KindTerminal }

// Start is the byte offset of the first token under n.
func (n *Node) Start() int {
	if n.IsTerminal() {
		return n.Token.Start
	}
	if len(n.Children) > 0 {
		return n.Children[0].Start()
	}
	return n.pos
}

// End is the byte offset just past the last token under n.
func (n *Node) End() int {
	if n.IsTerminal() {
		return n.Token.End
	}
	if len(n.Children) > 0 {
		return n.Children[len(n.Children)-1].End()
	}
	return n.pos
}

// Text returns the token text of a terminal, or "" for other nodes.
func (n *Node) Text() string {
	if n == nil || !n.IsTerminal() {
		return ""
	}
	return n.Token.Text
}

// Unparse renders the node back to its source text, including any
// whitespace and comments between its tokens.
func (n *Node) Unparse() string {
	if n == nil || n.file == nil {
		return ""
	}
	return strings.TrimSpace(string(n.file.Source[n.Start():n.End()]))
}

// Child returns the first direct child of the given kind.
func (n *Node) Child(kind NodeKind) *Node {
	for _, c := range n.Children {
		if c.Kind == kind {
			return c
		}
	}
	return nil
}

// ChildrenOf returns the direct children of the given kind.
func (n *Node) ChildrenOf(kind NodeKind) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Terminals returns the leaves under n in source order.
func (n *Node) Terminals() []*Node {
	var out []*Node
	n.walk(func(c *Node) bool {
		if c.IsTerminal() {
			out = append(out, c)
		}
		return true
	})
	return out
}

// Cursor returns a cursor over the terminals under n.
func (n *Node) Cursor() *Cursor {
	return &Cursor{terminals: n.Terminals(), idx: -1}
}

// Enclosing returns the nearest ancestor for which match is true.
func (n *Node) Enclosing(match func(NodeKind) bool) *Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if match(p.Kind) {
			return p
		}
	}
	return nil
}

// walk visits n and its descendants depth first; returning false from
// visit skips the node's children.
func (n *Node) walk(visit func(*Node) bool) {
	if !visit(n) {
		return
	}
	for _, c := range n.Children {
		c.walk(visit)
	}
}

func (n *Node) add(children ...*Node) *Node {
	for _, c := range children {
		if c == nil {
			continue
		}
		c.Parent = n
		n.Children = append(n.Children, c)
	}
	return n
}

// Cursor iterates over the terminals of a subtree in source order.
type Cursor struct {
	terminals []*Node
	idx       int
}

// GoToNextTerminal advances to the next terminal and reports whether one exists.
func (c *Cursor) GoToNextTerminal() bool {
	if c.idx < len(c.terminals) {
		c.idx++
	}
	return c.idx < len(c.terminals)
}

// GoToNextTerminalWithKind advances to the next terminal whose token is of
// the given kind.
func (c *Cursor) GoToNextTerminalWithKind(kind TokenKind) bool {
	for c.GoToNextTerminal() {
		if c.terminals[c.idx].Token.Kind == kind {
			return true
		}
	}
	return false
}

// Node returns the terminal under the cursor, or nil when the cursor is not
// positioned on one.
func (c *Cursor) Node() *Node {
	if c.idx < 0 || c.idx >= len(c.terminals) {
		return nil
	}
	return c.terminals[c.idx]
}

// Reset moves the cursor back before the first terminal.
func (c *Cursor) Reset() { c.idx = -1 }
