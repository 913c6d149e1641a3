package main

import (
	"fmt"
	"os"

	"github.com/philipparndt/gobim/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gobim",
	Short: "A BIM model viewer server and inspection tool",
	Long: `gobim serves building models to browser clients and answers element
queries from the command line. Models are loaded from JSON index files
exported by an upstream IFC pipeline; the server adds clipping, visibility,
measurement and property filtering on top.`,
	Version: version.GetVersion(),
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
