package solidity

import (
	"gitlab.com/tozd/go/errors"
)

// File is one parsed source file of a compilation unit.
type File struct {
	ID     string
	Source []byte
	Tree   *Node
}

// Cursor returns a cursor over every terminal of the file.
func (f *File) Cursor() *Cursor { return f.Tree.Cursor() }

// Location is a byte span inside a file.
type Location struct {
	File  string
	Start int
	End   int
}

// DefinitionID is the stable identity of a declaration: two handles for the
// same declaration always compare equal.
type DefinitionID Location

// Definition is a declaration known to the binding graph.
type Definition struct {
	file   *File
	node   *Node
	name   *Node
	anchor *Node
}

// ID returns the declaration's stable identity.
func (d *Definition) ID() DefinitionID {
	return DefinitionID{File: d.file.ID, Start: d.node.Start(), End: d.node.End()}
}

// Kind returns the syntactic kind of the declaration.
func (d *Definition) Kind() NodeKind { return d.node.Kind }

// Node returns the declaration's defining node (its definiens).
func (d *Definition) Node() *Node { return d.node }

// NameNode returns the identifier terminal naming the declaration, or nil for
// unnamed declarations such as constructors.
func (d *Definition) NameNode() *Node { return d.name }

// File returns the file holding the declaration.
func (d *Definition) File() *File { return d.file }

// NameLocation is the span of the name, or of the introducing keyword when
// the declaration has no name.
func (d *Definition) NameLocation() Location {
	return Location{File: d.file.ID, Start: d.anchor.Start(), End: d.anchor.End()}
}

// DefiniensLocation is the span of the whole declaration.
func (d *Definition) DefiniensLocation() Location {
	return Location{File: d.file.ID, Start: d.node.Start(), End: d.node.End()}
}

// Reference is an identifier occurrence naming zero or more declarations.
type Reference struct {
	Terminal    *Node
	Definitions []*Definition
}

type scope map[string][]*Definition

func (s scope) add(name string, d *Definition) {
	s[name] = append(s[name], d)
}

// Unit is a compilation unit: a set of parsed files plus the binding graph
// over them. Imports are not resolved; names not found in a file fall back to
// declarations from the unit's other files.
type Unit struct {
	byID    map[string]*File
	anchors map[*Node]*Definition
	scopes  map[*Node]scope
	global  scope
}

// NewUnit returns an empty compilation unit.
func NewUnit() *Unit {
	return &Unit{
		byID:    make(map[string]*File),
		anchors: make(map[*Node]*Definition),
		scopes:  make(map[*Node]scope),
		global:  make(scope),
	}
}

// ParseFile parses a single source into a fresh unit.
func ParseFile(id string, src []byte) (*Unit, error) {
	u := NewUnit()
	if _, err := u.AddFile(id, src); err != nil {
		return nil, err
	}
	return u, nil
}

// AddFile parses src and adds it to the unit under id.
func (u *Unit) AddFile(id string, src []byte) (*File, error) {
	if _, exists := u.byID[id]; exists {
		return nil, errors.Errorf("file %q already in compilation unit", id)
	}
	f := &File{ID: id, Source: src}
	tree, err := parse(f)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	f.Tree = tree
	u.byID[id] = f
	u.bind(f)
	return f, nil
}

// File returns the file with the given id, or nil.
func (u *Unit) File(id string) *File { return u.byID[id] }

// DefinitionAt returns the declaration whose defining occurrence is the
// terminal under the cursor, or nil.
func (u *Unit) DefinitionAt(c *Cursor) *Definition {
	n := c.Node()
	if n == nil {
		return nil
	}
	return u.anchors[n]
}

// ReferenceAt resolves the identifier under the cursor when it sits in a
// reference position (a type name, inheritance list, modifier invocation or
// override list). It returns nil for any other terminal.
func (u *Unit) ReferenceAt(c *Cursor) *Reference {
	n := c.Node()
	if n == nil || n.Token.Kind != TokenIdentifier || n.Parent == nil || n.Parent.Kind != KindIdentifierPath {
		return nil
	}
	path := n.Parent
	switch path.Parent.Kind {
	case KindInheritanceType, KindUserDefinedTypeName, KindMappingKey, KindModifierInvocation, KindOverrideSpecifier:
	default:
		return nil
	}

	var defs []*Definition
	first := true
	for _, seg := range path.ChildrenOf(KindTerminal) {
		if seg.Token.Kind != TokenIdentifier {
			continue
		}
		switch {
		case first:
			defs = u.lookupLexical(path, seg.Text())
			first = false
		case len(defs) == 1 && defs[0].Kind().IsContractLike():
			defs = u.scopes[defs[0].node][seg.Text()]
		default:
			defs = nil
		}
		if seg == n {
			break
		}
	}
	return &Reference{Terminal: n, Definitions: defs}
}

// lookupLexical resolves the first segment of a path. Inheritance lists are
// resolved in file scope; everything else looks in the enclosing contract
// first.
func (u *Unit) lookupLexical(path *Node, name string) []*Definition {
	if path.Parent.Kind != KindInheritanceType {
		if c := path.Enclosing(NodeKind.IsContractLike); c != nil {
			if defs := u.scopes[c][name]; len(defs) > 0 {
				return defs
			}
		}
	}
	if defs := u.scopes[path.file.Tree][name]; len(defs) > 0 {
		return defs
	}
	return u.global[name]
}

func (u *Unit) bind(f *File) {
	fileScope := make(scope)
	u.scopes[f.Tree] = fileScope

	for _, top := range f.Tree.Children {
		d := u.define(f, top)
		if d == nil {
			continue
		}
		if d.name != nil {
			fileScope.add(d.name.Text(), d)
			u.global.add(d.name.Text(), d)
		}
		if top.Kind.IsContractLike() {
			members := make(scope)
			u.scopes[top] = members
			for _, m := range top.Children {
				if md := u.define(f, m); md != nil && md.name != nil {
					members.add(md.name.Text(), md)
				}
			}
		}
	}
}

// define registers n, and the parameters of function-like n, as
// declarations. It returns the declaration for n itself, or nil.
func (u *Unit) define(f *File, n *Node) *Definition {
	switch n.Kind {
	case KindContractDefinition, KindInterfaceDefinition, KindLibraryDefinition,
		KindStateVariableDefinition, KindConstantDefinition,
		KindStructDefinition, KindEnumDefinition, KindEventDefinition, KindErrorDefinition,
		KindUserDefinedValueTypeDefinition:
	case KindFunctionDefinition, KindConstructorDefinition, KindReceiveFunctionDefinition,
		KindFallbackFunctionDefinition, KindModifierDefinition:
		for _, params := range n.ChildrenOf(KindParameters) {
			u.defineParameters(f, params)
		}
		if r := n.Child(KindReturnsDeclaration); r != nil {
			u.defineParameters(f, r.Child(KindParameters))
		}
	default:
		return nil
	}

	anchor := n.Name
	if anchor == nil {
		anchor = firstKeyword(n)
	}
	d := &Definition{file: f, node: n, name: n.Name, anchor: anchor}
	u.anchors[anchor] = d
	return d
}

func (u *Unit) defineParameters(f *File, params *Node) {
	if params == nil {
		return
	}
	for _, p := range params.ChildrenOf(KindParameter) {
		if p.Name == nil {
			continue
		}
		u.anchors[p.Name] = &Definition{file: f, node: p, name: p.Name, anchor: p.Name}
	}
}

func firstKeyword(n *Node) *Node {
	for _, c := range n.Children {
		if c.IsTerminal() {
			return c
		}
	}
	return n
}
