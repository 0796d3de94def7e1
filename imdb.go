package moviebot

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

const (
	defaultIMDbBaseURL   = "https://www.imdb.com"
	defaultIMDbUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	imdbTitleSelector    = ".lister-item-header a, h3.ipc-title__text"
)

var rankPrefix = regexp.MustCompile(`^\d+\.\s+`)

// IMDbSource scrapes feature-film titles from IMDb's advanced title search.
// Implements ContentSource.
type IMDbSource struct {
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
}

// IMDbOption configures an IMDbSource.
type IMDbOption func(*IMDbSource)

// WithIMDbBaseURL overrides the site root (default: https://www.imdb.com).
func WithIMDbBaseURL(u string) IMDbOption {
	return func(s *IMDbSource) { s.baseURL = strings.TrimRight(u, "/") }
}

// WithIMDbUserAgent sets the User-Agent header sent with every request.
func WithIMDbUserAgent(ua string) IMDbOption {
	return func(s *IMDbSource) { s.userAgent = ua }
}

// WithIMDbTimeout sets the per-request client timeout (default: 15s).
func WithIMDbTimeout(d time.Duration) IMDbOption {
	return func(s *IMDbSource) { s.client.Timeout = d }
}

// WithIMDbRateLimit caps outbound requests (default: 1 per second, burst 2).
func WithIMDbRateLimit(every time.Duration, burst int) IMDbOption {
	return func(s *IMDbSource) { s.limiter = rate.NewLimiter(rate.Every(every), burst) }
}

// NewIMDbSource creates a scraper with default settings.
func NewIMDbSource(opts ...IMDbOption) *IMDbSource {
	s := &IMDbSource{
		baseURL:   defaultIMDbBaseURL,
		userAgent: defaultIMDbUserAgent,
		client:    &http.Client{Timeout: 15 * time.Second},
		limiter:   rate.NewLimiter(rate.Every(time.Second), 2),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *IMDbSource) searchURL(genre string) string {
	q := url.Values{}
	q.Set("title_type", "feature")
	q.Set("genres", strings.ToLower(strings.TrimSpace(genre)))
	q.Set("start", "1")
	q.Set("ref_", "adv_nxt")
	return s.baseURL + "/search/title/?" + q.Encode()
}

// FetchTitles returns the raw titles listed on the first result page for genre.
func (s *IMDbSource) FetchTitles(ctx context.Context, genre string) ([]string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("imdb: rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.searchURL(genre), nil)
	if err != nil {
		return nil, fmt.Errorf("imdb: new request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("imdb: http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("imdb: search returned %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("imdb: parse: %w", err)
	}
	return extractTitles(doc), nil
}

func extractTitles(doc *goquery.Document) []string {
	var titles []string
	doc.Find(imdbTitleSelector).Each(func(_ int, sel *goquery.Selection) {
		t := strings.TrimSpace(sel.Text())
		t = rankPrefix.ReplaceAllString(t, "")
		if t != "" {
			titles = append(titles, t)
		}
	})
	return titles
}
