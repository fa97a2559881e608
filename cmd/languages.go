package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/montanaflynn/stats"
	"github.com/naka-gawa/github-profile-stats/internal/domain"
	"github.com/spf13/cobra"
)

// languageRow is one line of the languages output.
type languageRow struct {
	Name    string  `json:"name"`
	Size    int     `json:"size"`
	Percent float64 `json:"percent"`
}

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "Outputs a GitHub user's language breakdown, largest first",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runLanguages(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to fetch language breakdown: %v\n", err)
			os.Exit(1)
		}
	},
}

func runLanguages(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger(cmd)
	session := newSession()
	defer session.CloseIdleConnections()

	aggregator, err := newAggregator(cmd, session, logger)
	if err != nil {
		return fmt.Errorf("failed to set up aggregator: %w", err)
	}

	stopProgress := startProgress(cmd, "Fetching languages...")
	breakdown, err := aggregator.FetchLanguageBreakdown(ctx)
	stopProgress()
	if err != nil {
		return err
	}

	top, _ := cmd.Flags().GetInt("top")
	jsonData, err := json.MarshalIndent(languageRows(breakdown, top), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results to JSON: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
	return nil
}

// languageRows ranks the breakdown and keeps the first top entries (all when top <= 0).
// Percentages are rounded to two decimal places.
func languageRows(breakdown domain.LanguageBreakdown, top int) []languageRow {
	ranked := breakdown.Ranked()
	if top > 0 && top < len(ranked) {
		ranked = ranked[:top]
	}
	rows := make([]languageRow, 0, len(ranked))
	for _, share := range ranked {
		percent, err := stats.Round(share.Proportion, 2)
		if err != nil {
			percent = share.Proportion
		}
		rows = append(rows, languageRow{Name: share.Name, Size: share.Size, Percent: percent})
	}
	return rows
}

func init() {
	addAggregatorFlags(languagesCmd)
	languagesCmd.Flags().Int("top", 0, "Only output the N largest languages (0 outputs all)")
}
