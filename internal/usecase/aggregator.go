// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"log"
	"sync"

	"github.com/naka-gawa/github-profile-stats/internal/domain"
	"github.com/naka-gawa/github-profile-stats/internal/gateway"
	"golang.org/x/sync/errgroup"
)

// StatsAggregator computes summary statistics for a single GitHub user.
// Nothing is cached: every accessor repeats all of its requests.
type StatsAggregator struct {
	fetcher     gateway.Fetcher
	username    string
	filters     domain.ExclusionFilters
	concurrency int
	logger      *log.Logger
}

// Option configures a StatsAggregator.
type Option func(*StatsAggregator)

// WithConcurrency bounds how many per-repository requests may be in flight at once.
// The default of 1 issues them strictly one after another.
func WithConcurrency(n int) Option {
	return func(a *StatsAggregator) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// NewStatsAggregator creates a new StatsAggregator instance.
func NewStatsAggregator(fetcher gateway.Fetcher, username string, filters domain.ExclusionFilters, logger *log.Logger, opts ...Option) *StatsAggregator {
	a := &StatsAggregator{
		fetcher:     fetcher,
		username:    username,
		filters:     filters,
		concurrency: 1,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FetchDisplayName returns the profile name, falling back to the username when it is unset.
func (a *StatsAggregator) FetchDisplayName(ctx context.Context) (string, error) {
	name, err := a.fetcher.FetchUserName(ctx, a.username)
	if err != nil {
		return "", err
	}
	if name == "" {
		return a.username, nil
	}
	return name, nil
}

// FetchRepositories pages through the user's repositories until an empty page
// and returns the ones that pass the exclusion filters, in the order GitHub lists them.
func (a *StatsAggregator) FetchRepositories(ctx context.Context) ([]*domain.Repository, error) {
	var repos []*domain.Repository
	for page := 1; ; page++ {
		result, err := a.fetcher.FetchRepositoryPage(ctx, a.username, page)
		if err != nil {
			return nil, err
		}
		if len(result) == 0 {
			break
		}
		for _, repo := range result {
			if a.filters.ExcludesRepository(repo) {
				continue
			}
			repos = append(repos, repo)
		}
	}
	a.logger.Printf("Usecase: %d repositories after filtering.\n", len(repos))
	return repos, nil
}

func (a *StatsAggregator) FetchStargazerCount(ctx context.Context) (int, error) {
	repos, err := a.FetchRepositories(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, repo := range repos {
		total += repo.StargazersCount
	}
	return total, nil
}

func (a *StatsAggregator) FetchForkCount(ctx context.Context) (int, error) {
	repos, err := a.FetchRepositories(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, repo := range repos {
		total += repo.ForksCount
	}
	return total, nil
}

// FetchContributionCount approximates contributions by the size of the first page
// of the public events feed.
func (a *StatsAggregator) FetchContributionCount(ctx context.Context) (int, error) {
	return a.fetcher.FetchPublicEventCount(ctx, a.username)
}

// FetchCalendarContributionCount returns the total shown on the profile's contribution calendar.
func (a *StatsAggregator) FetchCalendarContributionCount(ctx context.Context) (int, error) {
	return a.fetcher.FetchCalendarContributions(ctx, a.username)
}

// FetchViewCount is not implemented and always returns 0 without making a request.
func (a *StatsAggregator) FetchViewCount(ctx context.Context) (int, error) {
	return 0, nil
}

// FetchLinesChanged sums additions and deletions over every repository's detail resource.
// Missing fields count as zero. On failure no partial sum is returned.
func (a *StatsAggregator) FetchLinesChanged(ctx context.Context) (domain.LinesChanged, error) {
	repos, err := a.FetchRepositories(ctx)
	if err != nil {
		return domain.LinesChanged{}, err
	}

	var (
		mu    sync.Mutex
		lines domain.LinesChanged
	)
	err = a.forEachRepository(ctx, repos, func(ctx context.Context, repo *domain.Repository) error {
		stats, err := a.fetcher.FetchRepositoryStats(ctx, repo.URL)
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		lines.Additions += stats.GetAdditions()
		lines.Deletions += stats.GetDeletions()
		return nil
	})
	if err != nil {
		return domain.LinesChanged{}, err
	}
	return lines, nil
}

// FetchLanguageBreakdown accumulates language sizes over every repository,
// skipping excluded languages, and computes each language's share of the total.
func (a *StatsAggregator) FetchLanguageBreakdown(ctx context.Context) (domain.LanguageBreakdown, error) {
	repos, err := a.FetchRepositories(ctx)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	totals := make(map[string]int)
	err = a.forEachRepository(ctx, repos, func(ctx context.Context, repo *domain.Repository) error {
		langs, err := a.fetcher.FetchLanguages(ctx, repo.LanguagesURL)
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		for lang, size := range langs {
			if a.filters.ExcludesLanguage(lang) {
				continue
			}
			totals[lang] += size
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return domain.NewLanguageBreakdown(totals), nil
}

// forEachRepository runs fn for every repository with at most a.concurrency calls in flight.
// Once a call fails, the remaining ones are skipped and the first error is returned.
func (a *StatsAggregator) forEachRepository(ctx context.Context, repos []*domain.Repository, fn func(ctx context.Context, repo *domain.Repository) error) error {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(a.concurrency)
	for _, repo := range repos {
		repo := repo
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			return fn(egCtx, repo)
		})
	}
	return eg.Wait()
}
