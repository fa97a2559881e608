// Package domain contains the core data structures and domain logic for the application.
package domain

// Repository is a single repository owned by the queried user, as listed by GitHub.
// Only the fields used for aggregation are kept.
type Repository struct {
	Name            string `json:"name"`
	Fork            bool   `json:"fork"`
	StargazersCount int    `json:"stargazers_count"`
	ForksCount      int    `json:"forks_count"`
	URL             string `json:"url"`
	LanguagesURL    string `json:"languages_url"`
}

// RepositoryStats is the subset of a repository detail resource that carries line counts.
// Both fields are optional in the response.
type RepositoryStats struct {
	Additions *int `json:"additions,omitempty"`
	Deletions *int `json:"deletions,omitempty"`
}

// GetAdditions returns the Additions field if it's non-nil, zero value otherwise.
func (s *RepositoryStats) GetAdditions() int {
	if s == nil || s.Additions == nil {
		return 0
	}
	return *s.Additions
}

// GetDeletions returns the Deletions field if it's non-nil, zero value otherwise.
func (s *RepositoryStats) GetDeletions() int {
	if s == nil || s.Deletions == nil {
		return 0
	}
	return *s.Deletions
}

// LinesChanged holds the summed additions and deletions across repositories.
type LinesChanged struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
}

// ProfileStats is the full set of aggregates for one user.
// It is the core domain entity of this application.
type ProfileStats struct {
	Name                  string            `json:"name"`
	Stargazers            int               `json:"stargazers"`
	Forks                 int               `json:"forks"`
	Contributions         int               `json:"contributions"`
	CalendarContributions *int              `json:"calendar_contributions,omitempty"`
	Views                 int               `json:"views"`
	LinesChanged          LinesChanged      `json:"lines_changed"`
	Languages             LanguageBreakdown `json:"languages"`
}
