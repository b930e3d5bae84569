package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/osmdoc/internal/core/domain"
	"github.com/custodia-labs/osmdoc/internal/core/ports/driving"
)

var (
	loadDrop      bool
	loadBatchSize int
)

var loadCmd = &cobra.Command{
	Use:   "load <documents.json>",
	Short: "Load converted documents into the document store",
	Long: `Streams a file written by convert (compact or pretty) into the configured
collection in batches. Documents without an _id are given one.`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().BoolVar(&loadDrop, "drop", false, "empty the collection first")
	loadCmd.Flags().IntVar(&loadBatchSize, "batch-size", 0, "documents per insert (default from settings)")
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	if loadService == nil {
		return errors.New("load service not configured")
	}
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}

	result, err := load(cmd, loadOptions(cmd, args[0], settings.Store, loadDrop))
	if err != nil {
		return err
	}
	printLoadResult(cmd, result)
	return nil
}

// loadOptions applies the load flags to the configured store settings.
func loadOptions(cmd *cobra.Command, input string, store domain.StoreSettings, drop bool) driving.LoadOptions {
	if f := cmd.Flags().Lookup("batch-size"); f != nil && f.Changed {
		store.BatchSize = loadBatchSize
	}
	return driving.LoadOptions{
		Input: input,
		Drop:  drop,
		Store: store,
	}
}

func load(cmd *cobra.Command, opts driving.LoadOptions) (*domain.LoadResult, error) {
	p := newProgress()
	opts.Progress = func(n int64) {
		p.Update("inserted %d documents", n)
	}
	result, err := loadService.Load(cmd.Context(), opts)
	p.Done()
	if err != nil {
		return nil, fmt.Errorf("load failed: %w", err)
	}
	return result, nil
}

func printLoadResult(cmd *cobra.Command, result *domain.LoadResult) {
	if result.Dropped {
		cmd.Printf("Dropped collection %q\n", result.Collection)
	}
	cmd.Printf("Loaded %d documents into %q (%d batches)\n", result.Inserted, result.Collection, result.Batches)
}
