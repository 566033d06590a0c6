// Package definitions finds declarations in a parsed compilation unit and
// resolves the names and kinds the diagram builder works with.
package definitions

import (
	"gitlab.com/tozd/go/errors"

	"github.com/l3aro/go-sclass/pkg/solidity"
)

var (
	// ErrAmbiguousReference is returned when an inheritance entry resolves
	// to more than one declaration.
	ErrAmbiguousReference = errors.New("reference resolves to more than one definition")

	// ErrUnexpectedKind is returned when a declaration of the wrong kind is
	// passed where a specific kind is required.
	ErrUnexpectedKind = errors.New("unexpected definition kind")
)

// Scope bounds a search: a whole file, or the subtree of one declaration.
type Scope struct {
	file *solidity.File
	root *solidity.Node
}

// FileScope searches every terminal of f.
func FileScope(f *solidity.File) Scope {
	return Scope{file: f, root: f.Tree}
}

// DefinitionScope searches the subtree of d.
func DefinitionScope(d *solidity.Definition) Scope {
	return Scope{file: d.File(), root: d.Node()}
}

// GetName returns the declared name, "fallback" for an old-style unnamed
// fallback function, and "" for constructors.
func GetName(d *solidity.Definition) string {
	if n := d.NameNode(); n != nil {
		return n.Text()
	}
	if d.Kind() == solidity.KindFallbackFunctionDefinition {
		return "fallback"
	}
	return ""
}

// GetKind returns the syntactic kind of the declaration.
func GetKind(d *solidity.Definition) solidity.NodeKind {
	return d.Kind()
}

// FindDefinitionsOfKinds walks scope once and returns each declaration of
// one of the given kinds, in source order, at most once.
//
// A declaration is only reported when both its name and its body live in
// the scope's file.
func FindDefinitionsOfKinds(unit *solidity.Unit, scope Scope, kinds ...solidity.NodeKind) []*solidity.Definition {
	if scope.root == nil || len(kinds) == 0 {
		return nil
	}
	want := make(map[solidity.NodeKind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}

	var out []*solidity.Definition
	seen := make(map[solidity.DefinitionID]bool)
	c := scope.root.Cursor()
	for c.GoToNextTerminalWithKind(solidity.TokenIdentifier) {
		d := unit.DefinitionAt(c)
		if d == nil || !want[d.Kind()] {
			continue
		}
		if d.NameLocation().File != scope.file.ID || d.DefiniensLocation().File != scope.file.ID {
			continue
		}
		if seen[d.ID()] {
			continue
		}
		seen[d.ID()] = true
		out = append(out, d)
	}
	return out
}

// FindContracts returns every contract, interface and library declared in f.
func FindContracts(unit *solidity.Unit, f *solidity.File) []*solidity.Definition {
	return FindDefinitionsOfKinds(unit, FileScope(f),
		solidity.KindContractDefinition,
		solidity.KindInterfaceDefinition,
		solidity.KindLibraryDefinition,
	)
}

// FindStateVariables returns the state variables declared directly in the
// body of contract.
func FindStateVariables(unit *solidity.Unit, contract *solidity.Definition) ([]*solidity.Definition, error) {
	if err := requireContractLike(contract); err != nil {
		return nil, err
	}
	return directMembers(contract, FindDefinitionsOfKinds(unit, DefinitionScope(contract),
		solidity.KindStateVariableDefinition,
	)), nil
}

// FindFunctions returns the functions, constructors, and receive and
// fallback functions declared directly in the body of contract. Modifiers
// are not included.
func FindFunctions(unit *solidity.Unit, contract *solidity.Definition) ([]*solidity.Definition, error) {
	if err := requireContractLike(contract); err != nil {
		return nil, err
	}
	return directMembers(contract, FindDefinitionsOfKinds(unit, DefinitionScope(contract),
		solidity.KindFunctionDefinition,
		solidity.KindConstructorDefinition,
		solidity.KindReceiveFunctionDefinition,
		solidity.KindFallbackFunctionDefinition,
	)), nil
}

// FindInheritanceIdentifiers resolves the base list of contract in
// declaration order. Bases that resolve to nothing are skipped.
func FindInheritanceIdentifiers(unit *solidity.Unit, contract *solidity.Definition) ([]*solidity.Definition, error) {
	c, ok := solidity.AsContract(contract.Node())
	if !ok {
		return nil, errors.Errorf("%w: %s is not contract-like", ErrUnexpectedKind, contract.Kind())
	}
	spec := c.InheritanceSpecifier()
	if spec == nil {
		return nil, nil
	}

	var bases []*solidity.Definition
	cur := spec.Cursor()
	for cur.GoToNextTerminalWithKind(solidity.TokenIdentifier) {
		ref := unit.ReferenceAt(cur)
		if ref == nil || !isLastSegment(ref.Terminal) {
			continue
		}
		switch len(ref.Definitions) {
		case 0:
		case 1:
			bases = append(bases, ref.Definitions[0])
		default:
			return nil, errors.Errorf("%w: %q in %s", ErrAmbiguousReference, ref.Terminal.Text(), GetName(contract))
		}
	}
	return bases, nil
}

func requireContractLike(d *solidity.Definition) error {
	if d == nil || !d.Kind().IsContractLike() {
		kind := "nil"
		if d != nil {
			kind = d.Kind().String()
		}
		return errors.Errorf("%w: %s is not contract-like", ErrUnexpectedKind, kind)
	}
	return nil
}

func directMembers(contract *solidity.Definition, defs []*solidity.Definition) []*solidity.Definition {
	out := defs[:0]
	for _, d := range defs {
		if d.Node().Parent == contract.Node() {
			out = append(out, d)
		}
	}
	return out
}

// isLastSegment reports whether t is the final identifier of its path, so
// `Lib.Base` contributes Base and not Lib.
func isLastSegment(t *solidity.Node) bool {
	ids := solidity.IdentifierPath{Node: t.Parent}.Identifiers()
	return len(ids) > 0 && ids[len(ids)-1] == t
}
