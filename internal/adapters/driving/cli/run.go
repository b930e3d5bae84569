package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <extract>",
	Short: "Convert, load and analyse an extract in one pass",
	Long: `Converts the extract to <extract>.json, replaces the configured collection
with its documents and runs the query battery.

With --store memory the collection lives only for the duration of the
command.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&convertPretty, "pretty", false, "indent each document by two spaces")
	runCmd.Flags().StringVar(&convertStreetRewrite, "street-rewrite", "",
		"street suffix expansion: positional or textual")
	runCmd.Flags().IntVar(&loadBatchSize, "batch-size", 0, "documents per insert (default from settings)")
	addAnalysisFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	if convertService == nil || loadService == nil || analysisService == nil {
		return errors.New("services not configured")
	}
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	analysis, err := analysisOptions(cmd, settings)
	if err != nil {
		return err
	}

	converted, err := convert(cmd, convertOptions(cmd, args[0], settings.Convert))
	if err != nil {
		return err
	}
	printConvertResult(cmd, converted)

	loaded, err := load(cmd, loadOptions(cmd, converted.Output, settings.Store, true))
	if err != nil {
		return err
	}
	printLoadResult(cmd, loaded)
	cmd.Println()

	return analyze(cmd, analysis)
}
