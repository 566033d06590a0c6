package commands

import (
	"fmt"
	"os"

	"github.com/rs/xid"
	"github.com/spf13/cobra"

	"github.com/l3aro/go-sclass/internal/config"
	"github.com/l3aro/go-sclass/internal/log"
)

// RootCmd represents the base command. With a path argument it generates
// a class diagram.
var RootCmd = &cobra.Command{
	Use:   "sclass <file.sol|dir> [flags]",
	Short: "sclass - Solidity contracts to Mermaid class diagrams",
	Long: `sclass reads Solidity source files and writes a Mermaid classDiagram of
the contracts, interfaces and libraries they declare.

A directory argument renders every .sol file below it.

Commands:
  collections  List the contract collections available for exclusion
  abi          Render a diagram from a compiled ABI
  inspect      Dump the parsed contract models
  init         Create a configuration file interactively
  doctor       Check configuration, collections and the Mermaid CLI

Use "sclass [command] --help" for more information about a command.`,
	Args:              cobra.MaximumNArgs(1),
	SilenceUsage:      true,
	PersistentPreRunE: setupLogger,
}

// logger is set up before any command runs.
var logger = log.Default()

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	// Assigned here rather than in the literal to avoid an initialization
	// cycle: runGenerate reads RootCmd.Version for the cache key.
	RootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runGenerate(cmd, args[0])
	}

	pf := RootCmd.PersistentFlags()
	pf.String("config", "", "Config file path (default: project then global config)")
	pf.String("collections-dir", "", "Directory of extra <name>.json collections")
	pf.BoolP("verbose", "v", false, "Verbose logging")
	pf.Bool("json-logs", false, "Log as JSON")

	addGenerateFlags(RootCmd)
}

func addGenerateFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("output", "o", "", "Output file (default: stdout for mmd, <input>.<format> otherwise)")
	f.StringP("format", "f", "", "Output format (mmd, svg, png, pdf, md)")
	f.StringP("theme", "t", "", "Mermaid theme (default, forest, dark, neutral)")
	f.Bool("exclude-interfaces", false, "Leave interfaces out")
	f.Bool("exclude-libraries", false, "Leave libraries out")
	f.StringSlice("exclude", nil, "Contract names to leave out (can repeat)")
	f.StringSlice("include", nil, "Contract names always kept (can repeat)")
	f.StringArray("exclude-functions", nil, "Regular expression of function names to leave out (can repeat)")
	f.StringSlice("include-functions", nil, "Function names always kept (can repeat)")
	f.StringSlice("collection", nil, "Collections of contracts to leave out (can repeat)")
	f.Bool("disable-param-types", false, "Render function parameters without types")
	f.String("cache-dir", "", "Diagram cache directory")
	f.Bool("no-cache", false, "Do not read or write the diagram cache")
	f.Int("concurrency", 0, "Files rendered at once in directory mode")
}

func setupLogger(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonLogs, _ := cmd.Flags().GetBool("json-logs")

	level := log.InfoLevel
	if verbose || os.Getenv("SCLASS_VERBOSE") == "true" {
		level = log.DebugLevel
	}
	logger = log.New(log.LoggerConfig{Level: level, JSONOutput: jsonLogs}).
		With("run", xid.New().String())
	return nil
}

// loadConfig loads --config when given, the layered configuration
// otherwise, then applies the persistent flags shared by every command.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if cmd.Flags().Changed("collections-dir") {
		cfg.CollectionsDir, _ = cmd.Flags().GetString("collections-dir")
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose, _ = cmd.Flags().GetBool("verbose")
	}
	if cfg.Verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return cfg, nil
}
