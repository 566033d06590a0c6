package solidity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func definitionsIn(u *Unit, f *File) []*Definition {
	var out []*Definition
	c := f.Cursor()
	for c.GoToNextTerminalWithKind(TokenIdentifier) {
		if d := u.DefinitionAt(c); d != nil {
			out = append(out, d)
		}
	}
	return out
}

func TestDefinitionAt(t *testing.T) {
	src := `contract A {
    uint256 public x;
    constructor(uint256 seed) { x = seed; }
    function f(uint256 a, uint256) external returns (uint256 r) { uint256 local = a; r = local; }
}`
	unit, err := ParseFile("A.sol", []byte(src))
	require.NoError(t, err)

	defs := definitionsIn(unit, unit.File("A.sol"))

	type def struct {
		kind NodeKind
		name string
	}
	var got []def
	for _, d := range defs {
		got = append(got, def{d.Kind(), d.NameNode().Text()})
	}

	// Locals inside bodies and unnamed parameters are not declarations.
	assert.Equal(t, []def{
		{KindContractDefinition, "A"},
		{KindStateVariableDefinition, "x"},
		{KindConstructorDefinition, ""},
		{KindParameter, "seed"},
		{KindFunctionDefinition, "f"},
		{KindParameter, "a"},
		{KindParameter, "r"},
	}, got)

	ctor := defs[2]
	assert.Nil(t, ctor.NameNode())
	assert.Equal(t, "constructor", src[ctor.NameLocation().Start:ctor.NameLocation().End])
}

func TestDefinitionIDIsStable(t *testing.T) {
	src := []byte("contract A {}\ncontract B is A {}")
	unit, err := ParseFile("AB.sol", src)
	require.NoError(t, err)

	first := definitionsIn(unit, unit.File("AB.sol"))
	second := definitionsIn(unit, unit.File("AB.sol"))
	require.Len(t, first, 2)
	assert.Equal(t, first[0].ID(), second[0].ID())
	assert.NotEqual(t, first[0].ID(), first[1].ID())
	assert.Equal(t, DefinitionID{File: "AB.sol", Start: 0, End: 13}, first[0].ID())
}

func referencesIn(u *Unit, n *Node) []*Reference {
	var out []*Reference
	c := n.Cursor()
	for c.GoToNextTerminalWithKind(TokenIdentifier) {
		if r := u.ReferenceAt(c); r != nil {
			out = append(out, r)
		}
	}
	return out
}

func TestReferenceAt(t *testing.T) {
	src := `library Lib { struct S { uint256 v; } }
contract Base {}
contract Child is Base {
    struct Local { bool ok; }
    Lib.S public s;
    Local public l;
    Missing public m;
    uint256 public plain;
}`
	unit, err := ParseFile("Ref.sol", []byte(src))
	require.NoError(t, err)

	child := unit.File("Ref.sol").Tree.Children[2]
	refs := referencesIn(unit, child)

	type ref struct {
		name  string
		kinds []NodeKind
	}
	var got []ref
	for _, r := range refs {
		var kinds []NodeKind
		for _, d := range r.Definitions {
			kinds = append(kinds, d.Kind())
		}
		got = append(got, ref{r.Terminal.Text(), kinds})
	}

	assert.Equal(t, []ref{
		{"Base", []NodeKind{KindContractDefinition}},
		{"Lib", []NodeKind{KindLibraryDefinition}},
		{"S", []NodeKind{KindStructDefinition}},
		{"Local", []NodeKind{KindStructDefinition}},
		{"Missing", nil},
	}, got)
}

func TestReferenceAtAmbiguous(t *testing.T) {
	src := `contract A {}
contract A {}
contract C is A {}`
	unit, err := ParseFile("Dup.sol", []byte(src))
	require.NoError(t, err)

	c, ok := AsContract(unit.File("Dup.sol").Tree.Children[2])
	require.True(t, ok)

	refs := referencesIn(unit, c.InheritanceSpecifier())
	require.Len(t, refs, 1)
	assert.Len(t, refs[0].Definitions, 2)
}

func TestReferenceAcrossFiles(t *testing.T) {
	unit := NewUnit()
	_, err := unit.AddFile("Base.sol", []byte("contract Base {}"))
	require.NoError(t, err)
	child, err := unit.AddFile("Child.sol", []byte("contract Child is Base {}"))
	require.NoError(t, err)

	refs := referencesIn(unit, child.Tree)
	require.Len(t, refs, 1)
	require.Len(t, refs[0].Definitions, 1)
	assert.Equal(t, "Base.sol", refs[0].Definitions[0].File().ID)

	_, err = unit.AddFile("Base.sol", []byte("contract Other {}"))
	assert.Error(t, err)
}
