package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/osmdoc/internal/core/domain"
	"github.com/custodia-labs/osmdoc/internal/core/ports/driving"
)

var (
	convertPretty        bool
	convertStreetRewrite string
	convertOutput        string
)

var convertCmd = &cobra.Command{
	Use:   "convert <extract>",
	Short: "Convert an extract into newline-delimited documents",
	Long: `Streams the nodes and ways of an OpenStreetMap extract through the element
shaper and writes one JSON document per element to <extract>.json.

Supported inputs: .osm, .osm.gz, .osm.bz2 and .osm.pbf.

Any element missing a required attribute, or input that cannot be parsed,
aborts the conversion and removes the partial output.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().BoolVar(&convertPretty, "pretty", false, "indent each document by two spaces")
	convertCmd.Flags().StringVar(&convertStreetRewrite, "street-rewrite", "",
		"street suffix expansion: positional or textual")
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "output path (default <extract>.json)")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	if convertService == nil {
		return errors.New("convert service not configured")
	}
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	opts := convertOptions(cmd, args[0], settings.Convert)

	result, err := convert(cmd, opts)
	if err != nil {
		return err
	}
	printConvertResult(cmd, result)
	return nil
}

// convertOptions applies the convert flags to the configured settings.
func convertOptions(cmd *cobra.Command, input string, settings domain.ConvertSettings) driving.ConvertOptions {
	if cmd.Flags().Changed("pretty") {
		settings.Pretty = convertPretty
	}
	if cmd.Flags().Changed("street-rewrite") {
		settings.StreetRewrite = domain.StreetRewrite(convertStreetRewrite)
	}
	return driving.ConvertOptions{
		Input:    input,
		Output:   convertOutput,
		Settings: settings,
	}
}

func convert(cmd *cobra.Command, opts driving.ConvertOptions) (*domain.ConvertResult, error) {
	p := newProgress()
	opts.Progress = func(s domain.ConvertStats) {
		p.Update("converted %d documents", s.Documents())
	}
	result, err := convertService.Convert(cmd.Context(), opts)
	p.Done()
	if err != nil {
		return nil, fmt.Errorf("convert failed: %w", err)
	}
	return result, nil
}

func printConvertResult(cmd *cobra.Command, result *domain.ConvertResult) {
	cmd.Printf("Converted %s -> %s\n", result.Input, result.Output)
	cmd.Printf("  Points: %d\n", result.Stats.Points)
	cmd.Printf("  Paths:  %d\n", result.Stats.Paths)
	cmd.Printf("  Bytes:  %d\n", result.Stats.Bytes)
}
