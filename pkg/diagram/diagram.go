// Package diagram runs the extraction pipeline: it finds the contracts of
// a file, filters them, builds their models and renders the diagram.
package diagram

import (
	"gitlab.com/tozd/go/errors"

	"github.com/l3aro/go-sclass/pkg/contract"
	"github.com/l3aro/go-sclass/pkg/definitions"
	"github.com/l3aro/go-sclass/pkg/filter"
	"github.com/l3aro/go-sclass/pkg/mermaid"
	"github.com/l3aro/go-sclass/pkg/solidity"
)

// Result is the outcome of one run over one file.
type Result struct {
	Title     string
	Diagram   string
	Contracts []*contract.Contract
	Edges     []mermaid.Edge

	// Excluded names the contracts the policy left out.
	Excluded []string
	Warnings []contract.Warning
}

// Generator holds the read-only state shared by runs.
type Generator struct {
	policy  *filter.Policy
	builder *contract.Builder
	render  mermaid.Options
}

// New returns a Generator applying policy. A nil policy keeps everything.
func New(policy *filter.Policy, render mermaid.Options) (*Generator, error) {
	if policy == nil {
		var err error
		if policy, err = filter.NewPolicy(filter.Config{}, nil); err != nil {
			return nil, err
		}
	}
	return &Generator{
		policy:  policy,
		builder: contract.NewBuilder(policy),
		render:  render,
	}, nil
}

// GenerateSource parses src as a single-file unit and renders it, titled
// after path.
func (g *Generator) GenerateSource(path string, src []byte) (*Result, error) {
	unit, err := solidity.ParseFile(path, src)
	if err != nil {
		return nil, err
	}
	return g.Generate(unit, path, mermaid.Title(path))
}

// Generate renders the contracts declared in the unit's file fileID.
func (g *Generator) Generate(unit *solidity.Unit, fileID, title string) (*Result, error) {
	file := unit.File(fileID)
	if file == nil {
		return nil, errors.Errorf("file %q is not part of the compilation unit", fileID)
	}

	res := &Result{Title: title}

	var kept []*solidity.Definition
	for _, d := range definitions.FindContracts(unit, file) {
		if g.policy.ShouldIncludeContract(definitions.GetName(d), definitions.GetKind(d)) {
			kept = append(kept, d)
			continue
		}
		res.Excluded = append(res.Excluded, definitions.GetName(d))
	}

	built := make(map[solidity.DefinitionID]bool, len(kept))
	names := make(map[string]bool, len(kept))
	for _, d := range kept {
		name := definitions.GetName(d)
		if built[d.ID()] || names[name] {
			continue
		}
		parsed, err := definitions.ParseContractDefinition(unit, d)
		if err != nil {
			return nil, err
		}
		c, err := g.builder.Build(parsed)
		if err != nil {
			return nil, err
		}
		built[d.ID()] = true
		names[name] = true
		res.Contracts = append(res.Contracts, c)
		res.Warnings = append(res.Warnings, contract.Lint(c)...)
	}

	seen := make(map[string]bool)
	for _, c := range res.Contracts {
		for _, base := range c.InheritsFrom {
			if !built[base.ID()] {
				continue
			}
			e := mermaid.Edge{Parent: definitions.GetName(base), Child: c.ClassName}
			if seen[e.String()] {
				continue
			}
			seen[e.String()] = true
			res.Edges = append(res.Edges, e)
		}
	}

	res.Diagram = mermaid.Render(title, res.Contracts, res.Edges, g.render)
	return res, nil
}
