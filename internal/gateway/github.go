// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/naka-gawa/github-profile-stats/internal/domain"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
)

// RepositoryPageSize is the number of repositories requested per page.
const RepositoryPageSize = 100

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
// Every method maps to exactly one request.
type Fetcher interface {
	// FetchUserName returns the profile display name, or "" when the user has none.
	FetchUserName(ctx context.Context, user string) (string, error)
	FetchRepositoryPage(ctx context.Context, user string, page int) ([]*domain.Repository, error)
	FetchRepositoryStats(ctx context.Context, statsURL string) (*domain.RepositoryStats, error)
	FetchLanguages(ctx context.Context, languagesURL string) (map[string]int, error)
	FetchPublicEventCount(ctx context.Context, user string) (int, error)
	FetchCalendarContributions(ctx context.Context, user string) (int, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        *log.Logger
}

// contributionCalendarQuery reads the contribution total shown on the profile page.
type contributionCalendarQuery struct {
	User struct {
		ContributionsCollection struct {
			ContributionCalendar struct {
				TotalContributions githubv4.Int
			}
		}
	} `graphql:"user(login: $login)"`
}

type options struct {
	baseURL                string
	graphqlURL             string
	requestTimeout         time.Duration
	requestsPerSecond      float64
	secondaryRateLimitWait time.Duration
}

// Option configures a GitHubGateway.
type Option func(*options)

// WithBaseURL points the REST client at another API root, e.g. a GitHub Enterprise host.
// Unless WithGraphQLURL is also given, GraphQL requests go to "<base>/graphql",
// or to "/api/graphql" when the base ends in "/api/v3/".
func WithBaseURL(baseURL string) Option {
	return func(o *options) { o.baseURL = baseURL }
}

// WithGraphQLURL sets the GraphQL endpoint.
func WithGraphQLURL(graphqlURL string) Option {
	return func(o *options) { o.graphqlURL = graphqlURL }
}

// WithRequestTimeout bounds every single request. Zero keeps the session's timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithRequestRate throttles outgoing requests to at most rps per second. Zero means unlimited.
func WithRequestRate(rps float64) Option {
	return func(o *options) { o.requestsPerSecond = rps }
}

// WithSecondaryRateLimitWait lets the gateway sleep through GitHub's secondary rate limit
// as long as a single sleep does not exceed d. Zero disables waiting.
func WithSecondaryRateLimitWait(d time.Duration) Option {
	return func(o *options) { o.secondaryRateLimitWait = d }
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
// The session is shared, not owned: its Transport carries the requests and the caller
// remains responsible for releasing it.
func NewGitHubGateway(token string, session *http.Client, logger *log.Logger, opts ...Option) (*GitHubGateway, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if session == nil {
		session = http.DefaultClient
	}

	transport := session.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if o.secondaryRateLimitWait > 0 {
		rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(transport, github_ratelimit.WithSingleSleepLimit(o.secondaryRateLimitWait, nil))
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
		}
		transport = rateLimitWaiter
	}
	if o.requestsPerSecond > 0 {
		transport = &throttleTransport{base: transport, limiter: rate.NewLimiter(rate.Limit(o.requestsPerSecond), 1)}
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "token"})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   &headerTransport{base: &statusTransport{base: transport}},
			Source: ts,
		},
		CheckRedirect: sameHostRedirect(session.CheckRedirect),
		Jar:           session.Jar,
		Timeout:       session.Timeout,
	}
	if o.requestTimeout > 0 {
		httpClient.Timeout = o.requestTimeout
	}

	restClient := github.NewClient(httpClient)
	graphqlURL := o.graphqlURL
	if o.baseURL != "" {
		baseURL, err := url.Parse(o.baseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse base URL: %w", err)
		}
		if !strings.HasSuffix(baseURL.Path, "/") {
			baseURL.Path += "/"
		}
		restClient.BaseURL = baseURL
		if graphqlURL == "" {
			graphqlURL = graphqlEndpoint(baseURL)
		}
	}

	graphqlClient := githubv4.NewClient(httpClient)
	if graphqlURL != "" {
		graphqlClient = githubv4.NewEnterpriseClient(graphqlURL, httpClient)
	}

	return &GitHubGateway{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		logger:        logger,
	}, nil
}

func (g *GitHubGateway) FetchUserName(ctx context.Context, user string) (string, error) {
	g.logger.Printf("Fetching profile of %s...\n", user)
	// Users.Get maps "" to the token owner's /user, so the path is built here.
	var profile github.User
	if err := g.getJSON(ctx, "users/"+url.PathEscape(user), &profile); err != nil {
		return "", wrapErr(err, "failed to fetch user profile")
	}
	return profile.GetName(), nil
}

func (g *GitHubGateway) FetchRepositoryPage(ctx context.Context, user string, page int) ([]*domain.Repository, error) {
	g.logger.Printf("  Fetching repositories page %d...\n", page)
	opts := &github.RepositoryListByUserOptions{
		ListOptions: github.ListOptions{PerPage: RepositoryPageSize, Page: page},
	}
	result, _, err := g.restClient.Repositories.ListByUser(ctx, user, opts)
	if err != nil {
		return nil, wrapErr(err, "failed to list repositories")
	}
	repos := make([]*domain.Repository, 0, len(result))
	for _, r := range result {
		repos = append(repos, &domain.Repository{
			Name:            r.GetName(),
			Fork:            r.GetFork(),
			StargazersCount: r.GetStargazersCount(),
			ForksCount:      r.GetForksCount(),
			URL:             r.GetURL(),
			LanguagesURL:    r.GetLanguagesURL(),
		})
	}
	return repos, nil
}

func (g *GitHubGateway) FetchRepositoryStats(ctx context.Context, statsURL string) (*domain.RepositoryStats, error) {
	g.logger.Printf("  Fetching repository stats %s...\n", statsURL)
	var stats domain.RepositoryStats
	if err := g.getJSON(ctx, statsURL, &stats); err != nil {
		return nil, wrapErr(err, "failed to fetch repository stats")
	}
	return &stats, nil
}

func (g *GitHubGateway) FetchLanguages(ctx context.Context, languagesURL string) (map[string]int, error) {
	g.logger.Printf("  Fetching languages %s...\n", languagesURL)
	langs := make(map[string]int)
	if err := g.getJSON(ctx, languagesURL, &langs); err != nil {
		return nil, wrapErr(err, "failed to fetch languages")
	}
	return langs, nil
}

// FetchPublicEventCount counts the events on the first page of the user's public feed.
func (g *GitHubGateway) FetchPublicEventCount(ctx context.Context, user string) (int, error) {
	g.logger.Println("Fetching public events...")
	events, _, err := g.restClient.Activity.ListEventsPerformedByUser(ctx, user, true, nil)
	if err != nil {
		return 0, wrapErr(err, "failed to list public events")
	}
	return len(events), nil
}

// FetchCalendarContributions reads the contribution calendar total over GraphQL.
func (g *GitHubGateway) FetchCalendarContributions(ctx context.Context, user string) (int, error) {
	g.logger.Println("Fetching contribution calendar using GraphQL API...")
	var q contributionCalendarQuery
	variables := map[string]interface{}{"login": githubv4.String(user)}
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return 0, wrapErr(err, "failed to execute GraphQL query for contribution calendar")
	}
	return int(q.User.ContributionsCollection.ContributionCalendar.TotalContributions), nil
}

// getJSON issues a GET against an absolute or base-relative URL and decodes the body into v.
// A 202 Accepted is a success; whatever body came with it is decoded.
func (g *GitHubGateway) getJSON(ctx context.Context, urlStr string, v interface{}) error {
	req, err := g.restClient.NewRequest(http.MethodGet, urlStr, nil)
	if err != nil {
		return err
	}
	_, err = g.restClient.Do(ctx, req, v)
	var accepted *github.AcceptedError
	if errors.As(err, &accepted) {
		if len(strings.TrimSpace(string(accepted.Raw))) == 0 {
			return nil
		}
		return json.Unmarshal(accepted.Raw, v)
	}
	return err
}

// wrapErr returns an *HTTPError as is and annotates anything else.
// go-github answers some calls itself once a rate limit is known to be exhausted;
// those synthetic 403s are reported as HTTPError too.
func wrapErr(err error, msg string) error {
	if httpErr, ok := asHTTPError(err); ok {
		return httpErr
	}
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return httpErrorFromResponse(rateErr.Response, rateErr.Message)
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return httpErrorFromResponse(abuseErr.Response, abuseErr.Message)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// graphqlEndpoint derives the GraphQL URL from a REST base URL.
// GitHub Enterprise serves REST under /api/v3/ and GraphQL under /api/graphql.
func graphqlEndpoint(baseURL *url.URL) string {
	if strings.HasSuffix(baseURL.Path, "/api/v3/") {
		u := *baseURL
		u.Path = strings.TrimSuffix(u.Path, "v3/") + "graphql"
		return u.String()
	}
	return baseURL.JoinPath("graphql").String()
}

// sameHostRedirect refuses redirects that leave the original host, since every hop
// carries the token. Other redirects go through next, if any.
func sameHostRedirect(next func(req *http.Request, via []*http.Request) error) func(req *http.Request, via []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= 10 {
			return errors.New("stopped after 10 redirects")
		}
		if req.URL.Host != via[0].URL.Host {
			return fmt.Errorf("refusing redirect from %s to %s", via[0].URL.Host, req.URL.Host)
		}
		if next != nil {
			return next(req, via)
		}
		return nil
	}
}
