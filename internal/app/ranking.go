package app

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"roomfinder/internal/domain"
	"roomfinder/internal/shared"
)

type scored struct {
	domain.HotelCandidate
	relevance int
	rating    float64
}

type ranker struct{ w shared.ScoreWeights }

// relevance is the weighted feature bonus plus keyword-to-name similarity.
func (r ranker) relevance(c domain.HotelCandidate, f domain.SearchFilters) int {
	score := 0
	if f.HasWindow && c.HasWindow {
		score += r.w.Window
	}
	if f.HasBreakfast && c.HasBreakfast {
		score += r.w.Breakfast
	}
	if f.ChildrenFriendly && c.ChildrenFriendly {
		score += r.w.Children
	}
	if f.Keyword != "" {
		score += nameSimilarity(c.Name, f.Keyword, r.w.Name)
	}
	return score
}

// nameSimilarity scores 0..max: a substring hit scores max, otherwise the
// normalized edit distance between name and keyword.
func nameSimilarity(name, keyword string, max int) int {
	n := strings.ToLower(strings.TrimSpace(name))
	k := strings.ToLower(strings.TrimSpace(keyword))
	if n == "" || k == "" || max <= 0 {
		return 0
	}
	if strings.Contains(n, k) {
		return max
	}
	longest := utf8.RuneCountInString(n)
	if kl := utf8.RuneCountInString(k); kl > longest {
		longest = kl
	}
	d := levenshtein.ComputeDistance(n, k)
	sim := 1 - float64(d)/float64(longest)
	if sim <= 0 {
		return 0
	}
	return int(math.Round(sim * float64(max)))
}

func ratingScore(c domain.HotelCandidate) float64 {
	return c.Score * math.Log(float64(c.ReviewCount)+10)
}

func (r ranker) rank(cands []domain.HotelCandidate, f domain.SearchFilters) []scored {
	out := make([]scored, 0, len(cands))
	for _, c := range cands {
		out = append(out, scored{HotelCandidate: c, relevance: r.relevance(c, f), rating: ratingScore(c)})
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j], f.Sort) })
	return out
}

func less(a, b scored, mode domain.SortMode) bool {
	switch mode {
	case domain.SortPriceLow, domain.SortPriceHigh:
		if a.MinPrice != b.MinPrice {
			if mode == domain.SortPriceLow {
				return a.MinPrice < b.MinPrice
			}
			return a.MinPrice > b.MinPrice
		}
		if a.relevance != b.relevance {
			return a.relevance > b.relevance
		}
	case domain.SortRating:
		if a.rating != b.rating {
			return a.rating > b.rating
		}
		if a.relevance != b.relevance {
			return a.relevance > b.relevance
		}
	default:
		if a.relevance != b.relevance {
			return a.relevance > b.relevance
		}
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.ReviewCount != b.ReviewCount {
			return a.ReviewCount > b.ReviewCount
		}
	}
	return a.ID < b.ID
}
