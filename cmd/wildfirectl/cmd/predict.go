package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"wildfire/internal/models"
)

var predictInput models.ManualInput

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict fire occurrence for a single observation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkOutput(); err != nil {
			return err
		}
		a, err := openApp(context.Background())
		if err != nil {
			return err
		}
		defer a.Close()

		pred, err := a.Manual.Predict(predictInput)
		if err != nil {
			return err
		}
		if output == "json" {
			return printJSON(cmd.OutOrStdout(), pred)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Risk:        %s (%s)\n", pred.RiskLevel, pred.Confidence)
		fmt.Fprintf(out, "Probability: %.3f\n", pred.Probability)
		fmt.Fprintf(out, "VPD:         %.3f kPa\n", pred.Input.VPD)
		fmt.Fprintln(out, pred.RiskMessage)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(predictCmd)

	f := predictCmd.Flags()
	f.Float64Var(&predictInput.Latitude, "lat", 0, "latitude")
	f.Float64Var(&predictInput.Longitude, "lon", 0, "longitude")
	f.Float64Var(&predictInput.Temperature, "temperature", 0, "air temperature in °C")
	f.Float64Var(&predictInput.Humidity, "humidity", 0, "relative humidity in %")
	f.Float64Var(&predictInput.WindSpeed, "wind", 0, "wind speed in km/h")
	f.Float64Var(&predictInput.Precipitation, "precipitation", 0, "precipitation in mm")
	f.Float64Var(&predictInput.Elevation, "elevation", 0, "elevation in m")
}
