// Package cmd wires the github-profile-stats commands together.
package cmd

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "github-profile-stats",
		Short: "Summarize a GitHub user's public profile as JSON.",
		Long: `github-profile-stats collects a user's public GitHub statistics
(stars, forks, contributions, lines changed, language breakdown) and prints them as JSON.
Repositories and languages can be excluded, and forked repositories can be ignored.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolP("verbose", "v", false, "Log every request to standard error")
	root.AddCommand(statsCmd, languagesCmd)
	return root
}

// Execute runs the command line and reports whether it succeeded.
func Execute() error {
	return newRootCmd().Execute()
}
