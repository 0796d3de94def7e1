package moviebot

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/goblincore/moviebot/internal/logging"
	"github.com/goblincore/moviebot/internal/metrics"
)

// RecommendationCount is how many titles a recommendation lists.
const RecommendationCount = 5

// Fetcher returns printable candidate titles for a genre, consulting the
// cache before the content source.
type Fetcher struct {
	source ContentSource
	cache  CandidateCache // may be nil
	ttl    time.Duration
}

// NewFetcher creates a Fetcher. cache may be nil.
func NewFetcher(source ContentSource, cache CandidateCache, ttl time.Duration) *Fetcher {
	return &Fetcher{source: source, cache: cache, ttl: ttl}
}

func cacheKey(genre string) string {
	return "moviebot:candidates:" + strings.ToLower(strings.TrimSpace(genre))
}

// Fetch returns the filtered, ordered title list for genre. The list may be empty.
func (f *Fetcher) Fetch(ctx context.Context, genre string) ([]string, error) {
	key := cacheKey(genre)

	if f.cache != nil {
		titles, ok, err := f.cache.Get(ctx, key)
		switch {
		case err != nil:
			metrics.CandidateCache.WithLabelValues("error").Inc()
			logging.Ctx(ctx).Warn().Err(err).Str("genre", genre).Msg("candidate cache read failed")
		case ok:
			metrics.CandidateCache.WithLabelValues("hit").Inc()
			return FilterCandidates(titles), nil
		default:
			metrics.CandidateCache.WithLabelValues("miss").Inc()
		}
	}

	raw, err := f.source.FetchTitles(ctx, genre)
	if err != nil {
		metrics.ExternalFailures.WithLabelValues("content", string(KindOf(err))).Inc()
		return nil, external("content", err)
	}

	if f.cache != nil && len(raw) > 0 {
		if err := f.cache.Set(ctx, key, raw, f.ttl); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("genre", genre).Msg("candidate cache write failed")
		}
	}
	return FilterCandidates(raw), nil
}

// FilterCandidates keeps the titles made only of printable ASCII (letters,
// digits, punctuation, whitespace), in source order, dropping blanks and
// exact duplicates.
func FilterCandidates(titles []string) []string {
	out := make([]string, 0, len(titles))
	seen := make(map[string]struct{}, len(titles))
	for _, t := range titles {
		if strings.TrimSpace(t) == "" || !isPrintable(t) {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func isPrintable(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 0x20 && c <= 0x7e:
		case c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f':
		default:
			return false
		}
	}
	return true
}

// SampleCandidates picks n distinct entries from titles uniformly at random.
// Fewer than n titles yields *InsufficientCandidatesError.
func SampleCandidates(titles []string, n int) ([]string, error) {
	if len(titles) < n {
		return nil, &InsufficientCandidatesError{Have: len(titles), Need: n}
	}
	idx := rand.Perm(len(titles))[:n]
	out := make([]string, n)
	for i, j := range idx {
		out[i] = titles[j]
	}
	return out, nil
}

// Refresh bypasses the cache read, fetches genre from the source and stores
// the raw list. It returns how many raw titles were cached.
func (f *Fetcher) Refresh(ctx context.Context, genre string) (int, error) {
	raw, err := f.source.FetchTitles(ctx, genre)
	if err != nil {
		metrics.ExternalFailures.WithLabelValues("content", string(KindOf(err))).Inc()
		return 0, external("content", err)
	}
	if f.cache == nil || len(raw) == 0 {
		return len(raw), nil
	}
	if err := f.cache.Set(ctx, cacheKey(genre), raw, f.ttl); err != nil {
		return 0, err
	}
	return len(raw), nil
}
