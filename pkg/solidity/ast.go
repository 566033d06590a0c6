package solidity

// AttributeKind is the closed set of things that may appear in a function
// or state variable header.
type AttributeKind int

const (
	AttributeVisibility AttributeKind = iota
	AttributeMutability
	AttributeVirtual
	AttributeOverride
	AttributeModifierInvocation
	AttributeConstant
	AttributeImmutable
	AttributeTransient
)

func (k AttributeKind) String() string {
	switch k {
	case AttributeVisibility:
		return "visibility"
	case AttributeMutability:
		return "mutability"
	case AttributeVirtual:
		return "virtual"
	case AttributeOverride:
		return "override"
	case AttributeModifierInvocation:
		return "modifier"
	case AttributeConstant:
		return "constant"
	case AttributeImmutable:
		return "immutable"
	case AttributeTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Attribute is one entry of a declaration header. Keyword is the keyword
// text for keyword attributes and empty for overrides and modifier
// invocations.
type Attribute struct {
	Kind    AttributeKind
	Keyword string
	Node    *Node
}

func classifyAttribute(owner NodeKind, n *Node) (Attribute, bool) {
	switch n.Kind {
	case KindOverrideSpecifier:
		return Attribute{Kind: AttributeOverride, Node: n}, true
	case KindModifierInvocation:
		return Attribute{Kind: AttributeModifierInvocation, Node: n}, true
	case KindTerminal:
	default:
		return Attribute{}, false
	}

	kw := n.Text()
	a := Attribute{Keyword: kw, Node: n}
	switch kw {
	case "public", "private", "internal", "external":
		a.Kind = AttributeVisibility
	case "pure", "view", "payable":
		a.Kind = AttributeMutability
	case "constant":
		// constant is a mutability keyword on pre-0.5 functions
		if owner.IsFunctionLike() {
			a.Kind = AttributeMutability
		} else {
			a.Kind = AttributeConstant
		}
	case "virtual":
		a.Kind = AttributeVirtual
	case "immutable":
		a.Kind = AttributeImmutable
	case "transient":
		a.Kind = AttributeTransient
	default:
		return Attribute{}, false
	}
	return a, true
}

func attributesOf(owner *Node, container NodeKind) []Attribute {
	c := owner.Child(container)
	if c == nil {
		return nil
	}
	attrs := make([]Attribute, 0, len(c.Children))
	for _, n := range c.Children {
		if a, ok := classifyAttribute(owner.Kind, n); ok {
			attrs = append(attrs, a)
		}
	}
	return attrs
}

// ContractDefinition wraps a contract, interface or library node.
type ContractDefinition struct{ *Node }

// AsContract wraps n when it is contract-like.
func AsContract(n *Node) (ContractDefinition, bool) {
	if n == nil || !n.Kind.IsContractLike() {
		return ContractDefinition{}, false
	}
	return ContractDefinition{n}, true
}

// InheritanceTypes returns the identifier paths of the inheritance list in
// declaration order.
func (c ContractDefinition) InheritanceTypes() []IdentifierPath {
	spec := c.Child(KindInheritanceSpecifier)
	if spec == nil {
		return nil
	}
	var out []IdentifierPath
	for _, t := range spec.ChildrenOf(KindInheritanceType) {
		out = append(out, IdentifierPath{t.Child(KindIdentifierPath)})
	}
	return out
}

// InheritanceSpecifier returns the `is ...` node, or nil.
func (c ContractDefinition) InheritanceSpecifier() *Node {
	return c.Child(KindInheritanceSpecifier)
}

// IsAbstract reports whether the contract is declared abstract.
func (c ContractDefinition) IsAbstract() bool {
	return len(c.Children) > 0 && c.Children[0].Text() == "abstract"
}

// FunctionDefinition wraps any function-like node: functions, constructors,
// receive and fallback functions, and modifiers.
type FunctionDefinition struct{ *Node }

// AsFunction wraps n when it is function-like.
func AsFunction(n *Node) (FunctionDefinition, bool) {
	if n == nil || !n.Kind.IsFunctionLike() {
		return FunctionDefinition{}, false
	}
	return FunctionDefinition{n}, true
}

// Parameters returns the declared parameters.
func (f FunctionDefinition) Parameters() []Parameter {
	return parametersOf(f.Child(KindParameters))
}

// Returns returns the return parameters, or nil when there is no returns clause.
func (f FunctionDefinition) Returns() []Parameter {
	r := f.Child(KindReturnsDeclaration)
	if r == nil {
		return nil
	}
	return parametersOf(r.Child(KindParameters))
}

// Attributes returns the header attributes in source order.
func (f FunctionDefinition) Attributes() []Attribute {
	return attributesOf(f.Node, KindFunctionAttributes)
}

// StateVariableDefinition wraps a state variable or file-level constant.
type StateVariableDefinition struct{ *Node }

// AsStateVariable wraps n when it is a variable definition.
func AsStateVariable(n *Node) (StateVariableDefinition, bool) {
	if n == nil || (n.Kind != KindStateVariableDefinition && n.Kind != KindConstantDefinition) {
		return StateVariableDefinition{}, false
	}
	return StateVariableDefinition{n}, true
}

// TypeName returns the declared type node.
func (v StateVariableDefinition) TypeName() *Node { return v.Children[0] }

// Attributes returns the header attributes in source order.
func (v StateVariableDefinition) Attributes() []Attribute {
	return attributesOf(v.Node, KindStateVariableAttributes)
}

// Parameter wraps a parameter node.
type Parameter struct{ *Node }

func parametersOf(params *Node) []Parameter {
	if params == nil {
		return nil
	}
	var out []Parameter
	for _, p := range params.ChildrenOf(KindParameter) {
		out = append(out, Parameter{p})
	}
	return out
}

// TypeName returns the parameter's type node.
func (p Parameter) TypeName() *Node { return p.Children[0] }

// ParamName returns the parameter name, or "" when unnamed.
func (p Parameter) ParamName() string { return p.Name.Text() }

// MappingType wraps a mapping type node.
type MappingType struct{ *Node }

// KeyType returns the key's type: an ElementaryType or an IdentifierPath.
func (m MappingType) KeyType() *Node {
	return m.Child(KindMappingKey).Children[0]
}

// ValueType returns the value's type node.
func (m MappingType) ValueType() *Node {
	return m.Child(KindMappingValue).Children[0]
}

// ArrayTypeName wraps an array type node.
type ArrayTypeName struct{ *Node }

// Operand returns the element type.
func (a ArrayTypeName) Operand() *Node { return a.Children[0] }

// IdentifierPath wraps a dotted name such as `Lib.Struct`.
type IdentifierPath struct{ *Node }

// Items returns the path segments.
func (p IdentifierPath) Items() []string {
	var out []string
	for _, t := range p.ChildrenOf(KindTerminal) {
		if t.Token.Kind == TokenIdentifier {
			out = append(out, t.Text())
		}
	}
	return out
}

// Identifiers returns the identifier terminals of the path.
func (p IdentifierPath) Identifiers() []*Node {
	var out []*Node
	for _, t := range p.ChildrenOf(KindTerminal) {
		if t.Token.Kind == TokenIdentifier {
			out = append(out, t)
		}
	}
	return out
}
