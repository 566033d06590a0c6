package definitions

import (
	"github.com/l3aro/go-sclass/pkg/solidity"
)

// ParsedDefinition is a declaration with its name and kind resolved.
type ParsedDefinition struct {
	Name       string
	Kind       solidity.NodeKind
	Definition *solidity.Definition
}

// Parse resolves the name and kind of d.
func Parse(d *solidity.Definition) ParsedDefinition {
	return ParsedDefinition{Name: GetName(d), Kind: GetKind(d), Definition: d}
}

// ParsedContractDefinition is a contract-like declaration together with its
// direct members and resolved bases.
type ParsedContractDefinition struct {
	ParsedDefinition

	Variables    []ParsedDefinition
	Functions    []ParsedDefinition
	InheritsFrom []*solidity.Definition
}

// ParseContractDefinition collects the state variables, functions and bases
// of a contract-like declaration.
func ParseContractDefinition(unit *solidity.Unit, d *solidity.Definition) (*ParsedContractDefinition, error) {
	vars, err := FindStateVariables(unit, d)
	if err != nil {
		return nil, err
	}
	fns, err := FindFunctions(unit, d)
	if err != nil {
		return nil, err
	}
	bases, err := FindInheritanceIdentifiers(unit, d)
	if err != nil {
		return nil, err
	}

	parsed := &ParsedContractDefinition{
		ParsedDefinition: Parse(d),
		Variables:        make([]ParsedDefinition, 0, len(vars)),
		Functions:        make([]ParsedDefinition, 0, len(fns)),
		InheritsFrom:     bases,
	}
	for _, v := range vars {
		parsed.Variables = append(parsed.Variables, Parse(v))
	}
	for _, f := range fns {
		parsed.Functions = append(parsed.Functions, Parse(f))
	}
	return parsed, nil
}
