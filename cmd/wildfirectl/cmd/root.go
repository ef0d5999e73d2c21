// Package cmd contains the wildfirectl commands.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"wildfire/internal/app"
	"wildfire/internal/config"
)

var (
	configPath string
	output     string
)

var rootCmd = &cobra.Command{
	Use:   "wildfirectl",
	Short: "Operate the Nepal wildfire risk service",
	Long: `wildfirectl runs risk scans, expires alerts and manages accounts against
the same store and models the API server uses.

Examples:
  # Score every monitored location without storing alerts
  wildfirectl scan --dry-run

  # Expire alerts past their expiry time
  wildfirectl cleanup

  # Predict fire occurrence for one observation
  wildfirectl predict --lat 27.5 --lon 84.4 --temperature 35 --humidity 20`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./config.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "output format (table, json)")
}

// openApp loads the configuration and wires the service components
func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, cfg.NewLogger(), clockwork.NewRealClock())
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func checkOutput() error {
	switch output {
	case "table", "json":
		return nil
	default:
		return fmt.Errorf("invalid output format %q (use table or json)", output)
	}
}
