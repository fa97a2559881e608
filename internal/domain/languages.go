package domain

import (
	"sort"

	"github.com/montanaflynn/stats"
)

// LanguageStat is one entry of a LanguageBreakdown.
// Color is never set here; it is left for whoever renders the breakdown.
type LanguageStat struct {
	Size       int     `json:"size"`
	Proportion float64 `json:"prop"`
	Color      *string `json:"color"`
}

// LanguageBreakdown maps a language name to its accumulated size and share.
type LanguageBreakdown map[string]LanguageStat

// LanguageShare is a named LanguageStat, used for ordered output.
type LanguageShare struct {
	Name string `json:"name"`
	LanguageStat
}

// NewLanguageBreakdown turns per-language byte totals into a breakdown.
// Proportions are percentages of the grand total; a zero total is treated as 1
// so an empty or all-zero input yields 0% everywhere instead of NaN.
func NewLanguageBreakdown(totals map[string]int) LanguageBreakdown {
	sizes := make(stats.Float64Data, 0, len(totals))
	for _, size := range totals {
		sizes = append(sizes, float64(size))
	}
	total, err := stats.Sum(sizes)
	if err != nil || total == 0 {
		total = 1
	}

	breakdown := make(LanguageBreakdown, len(totals))
	for lang, size := range totals {
		breakdown[lang] = LanguageStat{
			Size:       size,
			Proportion: float64(size) * 100 / total,
		}
	}
	return breakdown
}

// TotalSize returns the sum of all language sizes.
func (b LanguageBreakdown) TotalSize() int {
	total := 0
	for _, stat := range b {
		total += stat.Size
	}
	return total
}

// Ranked returns the languages ordered by size, largest first. Ties are broken by name.
func (b LanguageBreakdown) Ranked() []LanguageShare {
	shares := make([]LanguageShare, 0, len(b))
	for name, stat := range b {
		shares = append(shares, LanguageShare{Name: name, LanguageStat: stat})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Size != shares[j].Size {
			return shares[i].Size > shares[j].Size
		}
		return shares[i].Name < shares[j].Name
	})
	return shares
}
