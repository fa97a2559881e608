package usecase

import (
	"context"

	"github.com/naka-gawa/github-profile-stats/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Aggregate collects every statistic for the user.
// The accessors run concurrently; each still fetches the repository list on its own.
// The `includeCalendar` flag controls whether the GraphQL contribution calendar is queried.
func (a *StatsAggregator) Aggregate(ctx context.Context, includeCalendar bool) (*domain.ProfileStats, error) {
	a.logger.Println("Usecase: Starting data aggregation...")

	var stats domain.ProfileStats

	// Use an errgroup to fetch all data concurrently.
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		var err error
		stats.Name, err = a.FetchDisplayName(egCtx)
		return err
	})

	eg.Go(func() error {
		var err error
		stats.Stargazers, err = a.FetchStargazerCount(egCtx)
		return err
	})

	eg.Go(func() error {
		var err error
		stats.Forks, err = a.FetchForkCount(egCtx)
		return err
	})

	eg.Go(func() error {
		var err error
		stats.Contributions, err = a.FetchContributionCount(egCtx)
		return err
	})

	eg.Go(func() error {
		var err error
		stats.Views, err = a.FetchViewCount(egCtx)
		return err
	})

	eg.Go(func() error {
		var err error
		stats.LinesChanged, err = a.FetchLinesChanged(egCtx)
		return err
	})

	eg.Go(func() error {
		var err error
		stats.Languages, err = a.FetchLanguageBreakdown(egCtx)
		return err
	})

	// Only query the calendar if requested.
	if includeCalendar {
		eg.Go(func() error {
			count, err := a.FetchCalendarContributionCount(egCtx)
			if err != nil {
				return err
			}
			stats.CalendarContributions = &count
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	a.logger.Println("Usecase: Aggregation complete.")
	return &stats, nil
}
