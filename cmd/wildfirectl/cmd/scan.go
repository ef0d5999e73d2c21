package cmd

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"wildfire/internal/models"
	"wildfire/internal/scanner"
)

var scanDryRun bool

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a risk scan over every monitored location",
	Long: `Fetch current weather for each monitored location, score it with the
risk classifier and store an alert for every high-risk location.

With --dry-run nothing is stored.`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().BoolVar(&scanDryRun, "dry-run", false, "score locations without creating alerts")
}

func runScan(cmd *cobra.Command, args []string) error {
	if err := checkOutput(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	summary, err := a.Scanner.Run(ctx, a.Config.Locations, scanner.Options{CreateAlerts: !scanDryRun})
	if err != nil {
		return err
	}

	if output == "json" {
		return printJSON(cmd.OutOrStdout(), summary)
	}
	return printSummary(cmd.OutOrStdout(), summary)
}

func printSummary(out io.Writer, s *models.ScanSummary) error {
	fmt.Fprintf(out, "Scanned %d locations, created %d alerts\n\n", s.TotalScanned, s.AlertsCreated)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FOREST\tDISTRICT\tRISK\tPROBABILITY\tTEMP\tHUMIDITY\tWIND\tRAIN")
	for _, r := range s.Results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.3f\t%.1f\t%.0f\t%.1f\t%.1f\n",
			r.Forest, r.District, r.FireRisk, r.Probability,
			r.WeatherData.Temperature, r.WeatherData.Humidity,
			r.WeatherData.WindSpeed, r.WeatherData.Precipitation)
	}
	return w.Flush()
}
