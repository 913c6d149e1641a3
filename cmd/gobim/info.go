package main

import (
	"context"
	"fmt"
	"os"

	"github.com/philipparndt/gobim/internal/scene"
	"github.com/philipparndt/gobim/pkg/geometry"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info [file]",
	Short: "Display general information about a model index file",
	Long:  "Show element count, bounding box, dimensions, and class and storey breakdowns for a model index file.",
	Args:  cobra.ExactArgs(1),
	Run:   runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) {
	filename := args[0]

	provider := scene.NewMemoryProvider()
	model, err := provider.Load(context.Background(), filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading model file: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Model Information")
	fmt.Println("=================")
	if model.Name != "" {
		fmt.Printf("Name: %s\n", model.Name)
	}
	fmt.Printf("File: %s\n\n", filename)

	fmt.Println("Model Statistics:")
	fmt.Printf("  Elements: %d\n\n", len(model.Elements))

	size := model.Bounds.Size()
	fmt.Println("Bounding Box:")
	fmt.Printf("  Min: %s\n", formatVector(model.Bounds.Min))
	fmt.Printf("  Max: %s\n", formatVector(model.Bounds.Max))
	fmt.Printf("  Center: %s\n\n", formatVector(model.Bounds.Center()))

	fmt.Println("Dimensions:")
	fmt.Printf("  Width (X): %.3f m\n", size.X)
	fmt.Printf("  Depth (Y): %.3f m\n", size.Y)
	fmt.Printf("  Height (Z): %.3f m\n", size.Z)
	fmt.Printf("  Diagonal: %.3f m\n\n", model.Bounds.Diagonal())

	fmt.Println("Classes:")
	for _, group := range model.ClassGroups() {
		fmt.Printf("  %s: %d\n", group.Label, group.Count)
	}
	fmt.Println()

	fmt.Println("Storeys:")
	for _, group := range model.StoreyGroups() {
		fmt.Printf("  %s: %d\n", group.Label, group.Count)
	}
}

func formatVector(v geometry.Vector3) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X, v.Y, v.Z)
}
