package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Aggregates a GitHub user's public statistics and outputs them as JSON",
	Long: `Aggregates the display name, stars, forks, public contributions, lines changed and
language breakdown of a GitHub user, and outputs the result in JSON format.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runStats(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to aggregate stats: %v\n", err)
			os.Exit(1)
		}
	},
}

// runStats holds the command body so its deferred cleanup runs before Run exits.
func runStats(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger(cmd)
	session := newSession()
	defer session.CloseIdleConnections()

	aggregator, err := newAggregator(cmd, session, logger)
	if err != nil {
		return fmt.Errorf("failed to set up aggregator: %w", err)
	}

	includeCalendar, _ := cmd.Flags().GetBool("calendar")
	stopProgress := startProgress(cmd, "Aggregating GitHub stats...")
	results, err := aggregator.Aggregate(ctx, includeCalendar)
	stopProgress()
	if err != nil {
		return err
	}

	// Marshal the results into a pretty-printed JSON string.
	jsonData, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results to JSON: %w", err)
	}

	// Print the final JSON to standard output.
	fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
	return nil
}

func init() {
	addAggregatorFlags(statsCmd)
	statsCmd.Flags().Bool("calendar", false, "Also query the contribution calendar total over GraphQL")
}
