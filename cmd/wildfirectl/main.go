// Package main is the entry point for the wildfire operator CLI.
package main

import (
	"os"

	"wildfire/cmd/wildfirectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
