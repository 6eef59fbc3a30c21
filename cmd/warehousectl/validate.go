package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"warehouse-route-service/internal/scenario"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Check scenario or seed files without running them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		failed := 0
		for _, path := range args {
			doc, err := scenario.Load(path)
			if err != nil {
				fmt.Fprintf(out, "✗ %s: %v\n", path, err)
				failed++
				continue
			}
			fmt.Fprintf(out, "✓ %s: %d nodes, %d edges, %d shelves, %d orders\n",
				path, len(doc.Nodes), len(doc.Edges), len(doc.Shelves), len(doc.Orders))
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files invalid", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
