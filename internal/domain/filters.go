package domain

// ExclusionFilters decides which repositories and languages are left out of every aggregate.
// The zero value excludes nothing.
type ExclusionFilters struct {
	repos       map[string]struct{}
	langs       map[string]struct{}
	ignoreForks bool
}

// NewExclusionFilters builds the filter sets. The input slices are copied.
func NewExclusionFilters(repos, langs []string, ignoreForks bool) ExclusionFilters {
	return ExclusionFilters{
		repos:       toSet(repos),
		langs:       toSet(langs),
		ignoreForks: ignoreForks,
	}
}

// ExcludesRepository reports whether repo is excluded by name or, when forks are ignored, by being a fork.
func (f ExclusionFilters) ExcludesRepository(repo *Repository) bool {
	if _, ok := f.repos[repo.Name]; ok {
		return true
	}
	return f.ignoreForks && repo.Fork
}

// ExcludesLanguage reports whether the language is left out of the breakdown.
func (f ExclusionFilters) ExcludesLanguage(name string) bool {
	_, ok := f.langs[name]
	return ok
}

// IgnoresForks reports whether forked repositories are skipped.
func (f ExclusionFilters) IgnoresForks() bool {
	return f.ignoreForks
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
