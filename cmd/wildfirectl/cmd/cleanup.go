package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"wildfire/internal/scanner"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Expire active alerts past their expiry time",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := scanner.Cleanup(ctx, a.Store, a.Clock, a.Logger)
		if err != nil {
			return err
		}
		if output == "json" {
			return printJSON(cmd.OutOrStdout(), map[string]int64{"updated": n})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Expired %d alerts\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}
