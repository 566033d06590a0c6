package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-sclass/pkg/collections"
)

var collectionsCmd = &cobra.Command{
	Use:   "collections [name]",
	Short: "List contract collections",
	Long: `Lists the collections that --collection can exclude: the built-in ones
plus any <name>.json file in the collections directory. With a name, prints
the contracts of that collection.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		table, err := collections.Load(cfg.CollectionsDir)
		if err != nil {
			return err
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		name := ""
		if len(args) > 0 {
			name = args[0]
		}
		return printCollections(cmd.OutOrStdout(), table, name, jsonOutput)
	},
}

func printCollections(w io.Writer, table *collections.Table, name string, jsonOutput bool) error {
	if name != "" {
		members, ok := table.Lookup(name)
		if !ok {
			return fmt.Errorf("unknown collection %q (available: %s)", name, strings.Join(table.Names(), ", "))
		}
		if jsonOutput {
			return writeJSON(w, members)
		}
		for _, m := range members {
			fmt.Fprintln(w, m)
		}
		return nil
	}

	if jsonOutput {
		all := make(map[string][]string)
		for _, n := range table.Names() {
			all[n], _ = table.Lookup(n)
		}
		return writeJSON(w, all)
	}
	for _, n := range table.Names() {
		members, _ := table.Lookup(n)
		fmt.Fprintf(w, "%-16s %d contracts\n", n, len(members))
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func init() {
	collectionsCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	RootCmd.AddCommand(collectionsCmd)
}
