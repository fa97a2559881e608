package cmd

import (
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/naka-gawa/github-profile-stats/internal/config"
	"github.com/naka-gawa/github-profile-stats/internal/domain"
	"github.com/naka-gawa/github-profile-stats/internal/gateway"
	"github.com/naka-gawa/github-profile-stats/internal/usecase"
	"github.com/spf13/cobra"
)

// addAggregatorFlags registers the flags shared by every command that runs the aggregator.
// Each flag overrides the matching environment setting only when given explicitly.
func addAggregatorFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("user", "u", "", "Target GitHub user name (defaults to $GITHUB_ACTOR)")
	cmd.Flags().StringSlice("exclude-repos", nil, "Repository names to leave out (comma separated)")
	cmd.Flags().StringSlice("exclude-langs", nil, "Language names to leave out (comma separated)")
	cmd.Flags().Bool("ignore-forks", false, "Skip forked repositories")
	cmd.Flags().Int("concurrency", 1, "Maximum number of per-repository requests in flight")
	cmd.Flags().Float64("rps", 0, "Maximum requests per second (0 means unlimited)")
	cmd.Flags().Duration("timeout", 30*time.Second, "Timeout for a single request")
	cmd.Flags().Duration("rate-limit-wait", 0, "Longest single sleep allowed when GitHub's secondary rate limit is hit (0 fails instead)")
	cmd.Flags().Bool("progress", false, "Show a spinner on standard error while fetching")
}

// newLogger discards all logs unless --verbose is set.
func newLogger(cmd *cobra.Command) *log.Logger {
	verbose, _ := cmd.InheritedFlags().GetBool("verbose")
	logger := log.New(io.Discard, "", log.LstdFlags)
	if verbose {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

// newSession returns the HTTP session shared by every request of one command run.
// The caller owns it and must call CloseIdleConnections when done.
func newSession() *http.Client {
	return &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
}

// resolveConfig loads the environment config, lets explicitly given flags override it,
// and checks the merged result again.
func resolveConfig(cmd *cobra.Command, loader *config.Loader) (config.Config, error) {
	cfg, err := loader.Load()
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("user") {
		cfg.User, _ = flags.GetString("user")
	}
	if flags.Changed("exclude-repos") {
		cfg.ExcludedRepos, _ = flags.GetStringSlice("exclude-repos")
	}
	if flags.Changed("exclude-langs") {
		cfg.ExcludedLangs, _ = flags.GetStringSlice("exclude-langs")
	}
	if flags.Changed("ignore-forks") {
		cfg.IgnoreForkedRepos, _ = flags.GetBool("ignore-forks")
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency, _ = flags.GetInt("concurrency")
	}
	if flags.Changed("rps") {
		cfg.RequestsPerSecond, _ = flags.GetFloat64("rps")
	}
	if flags.Changed("timeout") {
		cfg.RequestTimeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("rate-limit-wait") {
		cfg.SecondaryRateLimitWait, _ = flags.GetDuration("rate-limit-wait")
	}

	if err := loader.Check(cfg); err != nil {
		return cfg, err
	}
	if cfg.User == "" {
		return cfg, errors.New("no user given: pass --user or set GITHUB_ACTOR")
	}
	return cfg, nil
}

// newAggregator injects a gateway built from the resolved config into the aggregator.
func newAggregator(cmd *cobra.Command, session *http.Client, logger *log.Logger) (*usecase.StatsAggregator, error) {
	cfg, err := resolveConfig(cmd, config.NewLoader(config.DefaultPrefix, logger))
	if err != nil {
		return nil, err
	}

	githubGateway, err := gateway.NewGitHubGateway(cfg.Token, session, logger,
		gateway.WithBaseURL(cfg.APIURL),
		gateway.WithGraphQLURL(cfg.GraphQLURL),
		gateway.WithRequestTimeout(cfg.RequestTimeout),
		gateway.WithRequestRate(cfg.RequestsPerSecond),
		gateway.WithSecondaryRateLimitWait(cfg.SecondaryRateLimitWait),
	)
	if err != nil {
		return nil, err
	}

	filters := domain.NewExclusionFilters(cfg.ExcludedRepos, cfg.ExcludedLangs, cfg.IgnoreForkedRepos)
	return usecase.NewStatsAggregator(githubGateway, cfg.User, filters, logger, usecase.WithConcurrency(cfg.Concurrency)), nil
}

// startProgress shows a spinner when --progress is set. The returned func stops it.
func startProgress(cmd *cobra.Command, suffix string) func() {
	progress, _ := cmd.Flags().GetBool("progress")
	if !progress {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + suffix
	s.Start()
	return s.Stop
}
