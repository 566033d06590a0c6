package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/l3aro/go-sclass/internal/config"
	"github.com/l3aro/go-sclass/internal/healthcheck"
	"github.com/l3aro/go-sclass/pkg/collections"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize sclass configuration interactively",
	Long: `Guides you through setting up sclass configuration step by step.
Creates a config file with output settings and exclusion rules.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit()
	},
}

func runInit() error {
	cfg := config.DefaultConfig()

	// === SECTION 1: Output ===
	format := string(cfg.Output.Format)
	theme := string(cfg.Output.Theme)
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Output format").
				Description("mmd prints Mermaid text; svg, png and pdf need the Mermaid CLI (npx mmdc)").
				Options(formatOptions()...).
				Value(&format),
			huh.NewSelect[string]().
				Title("Mermaid theme").
				Options(themeOptions()...).
				Value(&theme),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	cfg.Output.Format = config.Format(format)
	cfg.Output.Theme = config.Theme(theme)

	// === SECTION 2: Exclusions ===
	table, err := collections.Load("")
	if err != nil {
		return err
	}

	var kinds []string
	var excludedCollections []string
	var excludedContracts string
	var functionPatterns string
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Leave out whole kinds of contracts").
				Options(
					huh.NewOption("Interfaces", "interfaces"),
					huh.NewOption("Libraries", "libraries"),
				).
				Value(&kinds),
			huh.NewMultiSelect[string]().
				Title("Leave out contracts from these collections").
				Description("Inherited library contracts often clutter a diagram").
				Options(huh.NewOptions(table.Names()...)...).
				Value(&excludedCollections),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Contract names to leave out (comma separated, optional)").
				Placeholder("Ownable, ReentrancyGuard").
				Value(&excludedContracts),
			huh.NewInput().
				Title("Function name patterns to leave out (comma separated regexps, optional)").
				Placeholder("^_, ^supportsInterface$").
				Value(&functionPatterns),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	for _, k := range kinds {
		switch k {
		case "interfaces":
			cfg.Exclude.Contracts.Interfaces = true
		case "libraries":
			cfg.Exclude.Contracts.Libraries = true
		}
	}
	cfg.Exclude.Contracts.Collections = append(cfg.Exclude.Contracts.Collections, excludedCollections...)
	cfg.Exclude.Contracts.Contracts = append(cfg.Exclude.Contracts.Contracts, splitInput(excludedContracts)...)
	cfg.Exclude.Functions.RegExps = append(cfg.Exclude.Functions.RegExps, splitInput(functionPatterns)...)

	withTypes := true
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Render function parameters").
				Affirmative("With types").
				Negative("Names only").
				Value(&withTypes),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	cfg.DisableFunctionParamType = !withTypes

	// === SECTION 3: Config Location ===
	var saveLocationChoice string
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Save Configuration").
				Description("Where to save the configuration file?").
				Options(
					huh.NewOption("Project (./.sclass/config.yaml)", "project"),
					huh.NewOption("Global (~/.sclass/config.yaml)", "global"),
				).
				Value(&saveLocationChoice),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	configPath := config.ProjectConfigPath()
	if saveLocationChoice == "global" {
		configPath = config.GlobalConfigPath()
	}

	// Check if config already exists
	if fileExists(configPath) {
		var overwrite bool
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Config file exists").
					Description(fmt.Sprintf("Overwrite existing config at %s?", configPath)).
					Affirmative("Overwrite").
					Negative("Cancel").
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if !overwrite {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	// Validate config before saving
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// Show config preview
	fmt.Println("\n=== Configuration Preview ===")
	fmt.Printf("Config path: %s\n", configPath)
	fmt.Printf("Format: %s\n", cfg.Output.Format)
	fmt.Printf("Theme: %s\n", cfg.Output.Theme)
	fmt.Printf("Exclude interfaces: %t\n", cfg.Exclude.Contracts.Interfaces)
	fmt.Printf("Exclude libraries: %t\n", cfg.Exclude.Contracts.Libraries)
	if len(cfg.Exclude.Contracts.Collections) > 0 {
		fmt.Printf("Excluded collections: %s\n", strings.Join(cfg.Exclude.Contracts.Collections, ", "))
	}
	if len(cfg.Exclude.Contracts.Contracts) > 0 {
		fmt.Printf("Excluded contracts: %s\n", strings.Join(cfg.Exclude.Contracts.Contracts, ", "))
	}
	if len(cfg.Exclude.Functions.RegExps) > 0 {
		fmt.Printf("Excluded functions: %s\n", strings.Join(cfg.Exclude.Functions.RegExps, ", "))
	}
	fmt.Printf("Parameter types: %t\n", !cfg.DisableFunctionParamType)
	fmt.Println("================================")

	// Save config
	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("Configuration saved to: %s\n", configPath)

	// === SECTION 4: Health Check ===
	fmt.Println("\n=== Running Health Check ===")

	loadedCfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("loading saved config: %w", err)
	}

	result, err := healthcheck.Check(loadedCfg, configPath, configPath)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	fmt.Printf("\nConfig Scope: %s\n", result.SavedScope)
	if result.SavedScope == "global" {
		fmt.Printf("Config Path: %s\n\n", configPath)
	} else {
		absPath, _ := filepath.Abs(configPath)
		fmt.Printf("Config Path: %s\n\n", absPath)
	}
	displayDoctorResult(os.Stdout, result)

	fmt.Println("\n=== Initialization Complete ===")
	return nil
}

func formatOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(config.Formats))
	for _, f := range config.Formats {
		opts = append(opts, huh.NewOption(string(f), string(f)))
	}
	return opts
}

func themeOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(config.Themes))
	for _, t := range config.Themes {
		opts = append(opts, huh.NewOption(string(t), string(t)))
	}
	return opts
}

// splitInput splits a comma separated answer, dropping blanks.
func splitInput(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func init() {
	RootCmd.AddCommand(initCmd)
}
