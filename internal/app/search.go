package app

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"roomfinder/internal/adapters/observability"
	"roomfinder/internal/domain"
	"roomfinder/internal/shared"
)

const searchCachePrefix = "search:"

const (
	TierExact  = "exact"
	TierStatic = "static"
	TierGlobal = "global"
)

type SearchService struct {
	repo          domain.SearchRepository
	cache         domain.Cache
	cacheTTL      time.Duration
	rank          ranker
	maxCandidates int
}

func NewSearchService(r domain.SearchRepository, c domain.Cache, ttl time.Duration, w shared.ScoreWeights, maxCandidates int) *SearchService {
	if maxCandidates <= 0 {
		maxCandidates = 500
	}
	return &SearchService{repo: r, cache: c, cacheTTL: ttl, rank: ranker{w: w}, maxCandidates: maxCandidates}
}

type tier struct {
	name     string
	query    func(context.Context, domain.TierQuery) ([]domain.HotelCandidate, error)
	fallback bool // results go to recommendations
}

// tiers lists the strategies in the order they are tried.
func (s *SearchService) tiers(f domain.SearchFilters) []tier {
	var ts []tier
	dated := !f.Dates.IsZero()
	if dated {
		ts = append(ts, tier{name: TierExact, query: s.repo.SearchExact})
	}
	ts = append(ts,
		tier{name: TierStatic, query: s.repo.SearchStatic, fallback: dated},
		tier{name: TierGlobal, query: s.repo.SearchGlobal, fallback: true},
	)
	return ts
}

// Search never fails: tier errors are logged and treated as empty results.
func (s *SearchService) Search(ctx context.Context, f domain.SearchFilters) domain.SearchResult {
	f = NormalizeFilters(f)

	key := searchCacheKey(f)
	if s.cache != nil && key != "" {
		var cached domain.SearchResult
		if ok, err := s.cache.Get(ctx, key, &cached); err != nil {
			log.Warn().Err(err).Msg("search cache get failed")
		} else if ok {
			return cached
		}
	}

	out := s.search(ctx, f)

	if s.cache != nil && key != "" && s.cacheTTL > 0 {
		if err := s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds())); err != nil {
			log.Warn().Err(err).Msg("search cache set failed")
		}
	}
	return out
}

// InventoryChanged drops cached search pages; any of them may now overstate availability.
func (s *SearchService) InventoryChanged(ctx context.Context, ev domain.InventoryChanged) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DelPrefix(ctx, searchCachePrefix); err != nil {
		log.Warn().Err(err).Int64("hotel_id", ev.HotelID).Msg("search cache invalidation failed")
	}
}

func (s *SearchService) search(ctx context.Context, f domain.SearchFilters) domain.SearchResult {
	out := domain.SearchResult{
		ExactMatches:    []domain.HotelItem{},
		Recommendations: []domain.HotelItem{},
		AIContext:       []domain.AIContextItem{},
	}
	shown := map[int64]bool{}

	for _, t := range s.tiers(f) {
		cands, err := t.query(ctx, s.tierQuery(t.name, f, shown))
		if err != nil {
			observability.ObserveTier(t.name, "error")
			log.Warn().Err(err).Str("tier", t.name).Str("city", f.City).Msg("search tier failed; falling through")
			continue
		}
		page := s.page(cands, f, shown)
		if len(page) == 0 {
			observability.ObserveTier(t.name, "empty")
			continue
		}
		observability.ObserveTier(t.name, "hit")

		for _, c := range page {
			shown[c.ID] = true
			item := toItem(c.HotelCandidate, t.fallback)
			if t.fallback {
				out.Recommendations = append(out.Recommendations, item)
			} else {
				out.ExactMatches = append(out.ExactMatches, item)
			}
			out.AIContext = append(out.AIContext, domain.AIContextItem{
				ID: item.ID, Name: item.Name, MinPrice: item.MinPrice, Tags: item.Tags,
			})
		}
		if len(page) == f.Limit {
			next := f.Cursor + f.Limit
			out.NextCursor = &next
		}
		break
	}
	out.Total = len(out.ExactMatches) + len(out.Recommendations)
	return out
}

func (s *SearchService) tierQuery(name string, f domain.SearchFilters, shown map[int64]bool) domain.TierQuery {
	limit := s.maxCandidates
	if need := f.Cursor + f.Limit; need > limit {
		limit = need
	}
	q := domain.TierQuery{City: f.City, Sort: f.Sort, Limit: limit}
	for id := range shown {
		q.Exclude = append(q.Exclude, id)
	}
	if name == TierGlobal {
		return q
	}
	q.Keyword = f.Keyword
	q.GuestCount = f.GuestCount
	q.Rooms = f.Rooms
	q.MinPrice = domain.ToMinor(f.MinPrice)
	q.MaxPrice = domain.ToMinor(f.MaxPrice)
	if name == TierExact {
		q.Dates = f.Dates
	}
	return q
}

// page ranks the tier's candidates and cuts [cursor, cursor+limit).
func (s *SearchService) page(cands []domain.HotelCandidate, f domain.SearchFilters, shown map[int64]bool) []scored {
	fresh := cands[:0:0]
	for _, c := range cands {
		if !shown[c.ID] {
			fresh = append(fresh, c)
		}
	}
	ranked := s.rank.rank(fresh, f)
	if f.Cursor >= len(ranked) {
		return nil
	}
	end := f.Cursor + f.Limit
	if end > len(ranked) {
		end = len(ranked)
	}
	return ranked[f.Cursor:end]
}

func toItem(c domain.HotelCandidate, fallback bool) domain.HotelItem {
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	return domain.HotelItem{
		ID:          c.ID,
		Name:        c.Name,
		Address:     c.Address,
		City:        c.City,
		CoverImage:  c.CoverImage,
		Tags:        tags,
		PriceDesc:   priceDesc(c.MinPrice),
		Score:       c.Score,
		ReviewCount: c.ReviewCount,
		MinPrice:    domain.ToMajor(c.MinPrice),
		IsFallback:  fallback,
	}
}

func priceDesc(minor int64) string {
	if minor <= 0 {
		return "price on request"
	}
	return "from " + strconv.FormatFloat(domain.ToMajor(minor), 'f', -1, 64)
}

// searchCacheKey hashes the normalized filters.
func searchCacheKey(f domain.SearchFilters) string {
	b, err := json.Marshal(struct {
		domain.SearchFilters
		From, To string
	}{f, f.Dates.From(), f.Dates.To()})
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal filters for cache key")
		return ""
	}
	sum := sha1.Sum(b)
	return fmt.Sprintf("%s%s", searchCachePrefix, hex.EncodeToString(sum[:]))
}
