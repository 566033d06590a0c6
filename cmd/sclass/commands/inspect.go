package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/l3aro/go-sclass/internal/log"
	"github.com/l3aro/go-sclass/pkg/contract"
	"github.com/l3aro/go-sclass/pkg/definitions"
	"github.com/l3aro/go-sclass/pkg/solidity"
)

// ContractView is the inspect output for one contract-like declaration.
type ContractView struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Abstract bool   `json:"abstract,omitempty"`
	Location string `json:"location"`

	// DeclaredBases is the inheritance list as written; InheritsFrom holds
	// the bases that resolved inside the file.
	DeclaredBases []string `json:"declaredBases"`
	InheritsFrom  []string `json:"inheritsFrom"`

	Fields   []MemberView `json:"fields"`
	Mappings []MemberView `json:"mappings"`
	Methods  []MemberView `json:"methods"`

	Warnings []string `json:"warnings,omitempty"`
}

// MemberView is one rendered member with its decoded attributes.
type MemberView struct {
	Name       string `json:"name"`
	Type       string `json:"type,omitempty"`
	Visibility string `json:"visibility"`
	Mutability string `json:"mutability,omitempty"`
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.sol>",
	Short: "Dump the parsed contract models",
	Long: `Parses a Solidity file and prints every contract, interface and library
it declares as the model the diagram is drawn from: members with decoded
types, visibility and mutability, resolved bases and naming warnings. No
filters are applied.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		views, err := inspectSource(args[0], src)
		if err != nil {
			return err
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), views)
		}
		return printViews(cmd.OutOrStdout(), views)
	},
}

func inspectSource(path string, src []byte) ([]ContractView, error) {
	unit, err := solidity.ParseFile(path, src)
	if err != nil {
		return nil, err
	}

	builder := contract.NewBuilder(nil)
	views := []ContractView{}
	for _, d := range definitions.FindContracts(unit, unit.File(path)) {
		parsed, err := definitions.ParseContractDefinition(unit, d)
		if err != nil {
			return nil, err
		}
		c, err := builder.Build(parsed)
		if err != nil {
			return nil, err
		}
		views = append(views, contractView(d, c))
	}
	return views, nil
}

func contractView(d *solidity.Definition, c *contract.Contract) ContractView {
	loc := d.NameLocation()
	v := ContractView{
		Name:          c.ClassName,
		Kind:          c.Kind.String(),
		Location:      fmt.Sprintf("%s:%d", loc.File, loc.Start),
		DeclaredBases: []string{},
		InheritsFrom:  []string{},
		Fields:        []MemberView{},
		Mappings:      []MemberView{},
		Methods:       []MemberView{},
	}
	if cd, ok := solidity.AsContract(d.Node()); ok {
		v.Abstract = cd.IsAbstract()
		for _, path := range cd.InheritanceTypes() {
			v.DeclaredBases = append(v.DeclaredBases, path.Unparse())
		}
	}
	for _, base := range c.InheritsFrom {
		v.InheritsFrom = append(v.InheritsFrom, definitions.GetName(base))
	}
	for _, f := range c.Fields {
		v.Fields = append(v.Fields, MemberView{Name: f.Name, Type: f.Type, Visibility: f.Visibility.String()})
	}
	for _, m := range c.Mappings {
		v.Mappings = append(v.Mappings, MemberView{
			Name:       m.Name,
			Type:       fmt.Sprintf("mapping(%s => %s)", m.Key, m.Value),
			Visibility: m.Visibility.String(),
		})
	}
	for _, m := range c.Methods {
		v.Methods = append(v.Methods, MemberView{
			Name:       m.Name,
			Type:       m.ReturnType,
			Visibility: m.Visibility.String(),
			Mutability: m.StateMutability.String(),
		})
	}
	for _, w := range contract.Lint(c) {
		v.Warnings = append(v.Warnings, w.String())
	}
	return v
}

func printViews(w io.Writer, views []ContractView) error {
	p := pp.New()
	p.SetExportedOnly(true)
	p.SetColoringEnabled(log.IsTerminal(w))
	p.SetOutput(w)
	_, err := p.Println(views)
	return err
}

func init() {
	inspectCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	RootCmd.AddCommand(inspectCmd)
}
