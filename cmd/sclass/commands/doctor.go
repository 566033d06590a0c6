package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-sclass/internal/config"
	"github.com/l3aro/go-sclass/internal/healthcheck"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks on configuration, collections and the Mermaid CLI",
	Long: `Checks the configuration, loads the contract collections and verifies
that the Mermaid CLI needed for svg, png and pdf output can be started.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, configPath, err := loadConfigWithPath(cmd)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		result, err := healthcheck.Check(cfg, configPath, configPath)
		if err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}

		displayDoctorResult(cmd.OutOrStdout(), result)

		if !result.Healthy() {
			return fmt.Errorf("health check failed: one or more components are not usable")
		}
		return nil
	},
}

// loadConfigWithPath loads the config the way generation does and reports
// which file won. The path is empty when only defaults apply.
func loadConfigWithPath(cmd *cobra.Command) (*config.Config, string, error) {
	effectivePath, _ := cmd.Flags().GetString("config")
	if effectivePath == "" {
		switch {
		case fileExists(config.ProjectConfigPath()):
			effectivePath = config.ProjectConfigPath()
		case fileExists(config.GlobalConfigPath()):
			effectivePath = config.GlobalConfigPath()
		}
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, "", err
	}
	return cfg, effectivePath, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func displayDoctorResult(w io.Writer, result *healthcheck.HealthCheckResult) {
	if result.EffectivePath == "" {
		fmt.Fprintf(w, "Using config: defaults (no config file found)\n\n")
	} else {
		fmt.Fprintf(w, "Using config: %s (%s)\n\n", result.EffectivePath, result.EffectiveScope)
	}

	for _, c := range result.Components() {
		fmt.Fprintf(w, "%s:\n", c.Name)
		if c.Detail != "" {
			fmt.Fprintf(w, "  %s\n", c.Detail)
		}
		fmt.Fprintf(w, "  Status: %s %s\n", formatStatusIcon(c.Status), c.Status)
		if c.Error != "" {
			fmt.Fprintf(w, "  Error: %s\n", c.Error)
		}
	}
}

func formatStatusIcon(status string) string {
	switch status {
	case healthcheck.StatusReady:
		return "✓"
	case healthcheck.StatusWarning:
		return "!"
	case healthcheck.StatusDisabled:
		return "-"
	case healthcheck.StatusError:
		return "✗"
	default:
		return "?"
	}
}

func init() {
	RootCmd.AddCommand(doctorCmd)
}
