package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// newLedgerCmd creates the 'ledger' subcommand for inspecting which report
// dates have already been processed.
func newLedgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "List processed report dates",
		Long: `Prints every entry in the processed-history ledger, sorted by date
key, with the timestamp and archive path recorded at download time.`,

		RunE: runLedgerCommand,
	}
	return cmd
}

func runLedgerCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	led, err := appInstance.Ledger()
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	entries := led.Entries()
	if len(entries) == 0 {
		cmd.Println("ledger is empty")
		return nil
	}

	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		rec := entries[key]
		cmd.Printf("%s\t%s\t%s\n", key, rec.DownloadedAt, rec.Path)
	}
	return nil
}
