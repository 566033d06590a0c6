package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-sclass/internal/mmdc"
	"github.com/l3aro/go-sclass/pkg/abi"
	"github.com/l3aro/go-sclass/pkg/contract"
	"github.com/l3aro/go-sclass/pkg/mermaid"
)

var abiCmd = &cobra.Command{
	Use:   "abi <file.json>",
	Short: "Render a class diagram from a compiled ABI",
	Long: `Reads a JSON ABI, or a Hardhat/Foundry build artifact holding one, and
renders the contract's external interface. Useful for deployed contracts
whose source is not at hand.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := applyGenerateFlags(cmd, cfg); err != nil {
			return err
		}

		r, err := newRunner(cfg, false, cmd.OutOrStdout())
		if err != nil {
			return err
		}

		d, err := r.diagramForABI(args[0])
		if err != nil {
			return err
		}
		return r.emit(cmd.Context(), d, mmdc.OutputPath(args[0], cfg.Output.Path, cfg.Output.Format))
	},
}

func (r *runner) diagramForABI(path string) (string, error) {
	c, err := abi.ReadFile(path, r.policy)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	logger.Debug("abi loaded", "file", path, "contract", c.ClassName, "methods", len(c.Methods))

	opts := mermaid.Options{DisableParamTypes: r.cfg.DisableFunctionParamType}
	return mermaid.Render(mermaid.Title(path), []*contract.Contract{c}, nil, opts), nil
}

func init() {
	f := abiCmd.Flags()
	f.StringP("output", "o", "", "Output file (default: stdout for mmd, <input>.<format> otherwise)")
	f.StringP("format", "f", "", "Output format (mmd, svg, png, pdf, md)")
	f.StringP("theme", "t", "", "Mermaid theme (default, forest, dark, neutral)")
	f.StringArray("exclude-functions", nil, "Regular expression of function names to leave out (can repeat)")
	f.StringSlice("include-functions", nil, "Function names always kept (can repeat)")
	f.Bool("disable-param-types", false, "Render function parameters without types")
	RootCmd.AddCommand(abiCmd)
}
