package cli

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/osmdoc/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change the persisted settings used by convert, load and analyze.

Flags given on the command line override these values for one run.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Long: `Change and persist one setting. Run 'osmdoc settings keys' for the list
of keys.

Examples:
  osmdoc settings set convert.pretty true
  osmdoc settings set analysis.geofence_compare lexical
  osmdoc settings set store.collection ann_arbor`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Convert]")
	cmd.Printf("  Pretty: %s\n", yesNo(settings.Convert.Pretty))
	cmd.Printf("  Street rewrite: %s\n", settings.Convert.StreetRewrite.Description())
	cmd.Println()

	cmd.Println("[Store]")
	cmd.Printf("  Driver: %s\n", settings.Store.Driver)
	if settings.Store.Driver == domain.StoreDriverSQLite {
		path := settings.Store.Path
		if path == "" {
			path = "(default)"
		}
		cmd.Printf("  Data directory: %s\n", path)
	}
	cmd.Printf("  Collection: %s\n", settings.Store.Collection)
	cmd.Printf("  Batch size: %d\n", settings.Store.BatchSize)
	cmd.Println()

	cmd.Println("[Analysis]")
	cmd.Printf("  Reference: %s, %s\n",
		formatFloat(settings.Analysis.ReferenceLat), formatFloat(settings.Analysis.ReferenceLon))
	cmd.Printf("  Geofence: %s\n", settings.Analysis.GeofenceCompare.Description())

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) && !isKnownKey(key) {
			return fmt.Errorf("%w (known keys: %s)", err, strings.Join(settingsService.Keys(), ", "))
		}
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	cmd.Printf("Set %s = %s\n", key, value)
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	for _, k := range settingsService.Keys() {
		cmd.Println(k)
	}
	return nil
}

func isKnownKey(key string) bool {
	return slices.Contains(settingsService.Keys(), key)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
