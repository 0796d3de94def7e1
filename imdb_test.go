package moviebot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const legacyPage = `<html><body>
<div class="lister-item"><h3 class="lister-item-header"><span>1.</span><a href="/title/tt1">Heat</a></h3></div>
<div class="lister-item"><h3 class="lister-item-header"><span>2.</span><a href="/title/tt2">Alien</a></h3></div>
</body></html>`

const currentPage = `<html><body><ul>
<li><h3 class="ipc-title__text">1. The Matrix</h3></li>
<li><h3 class="ipc-title__text">2. Inception</h3></li>
<li><h3 class="ipc-title__text">10. Arrival</h3></li>
</ul></body></html>`

func TestIMDbSourceFetchTitles(t *testing.T) {
	tests := []struct {
		name string
		page string
		want []string
	}{
		{"legacy layout", legacyPage, []string{"Heat", "Alien"}},
		{"current layout", currentPage, []string{"The Matrix", "Inception", "Arrival"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath, gotUA string
			var gotQuery map[string][]string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotQuery = r.URL.Query()
				gotUA = r.Header.Get("User-Agent")
				w.Write([]byte(tt.page))
			}))
			defer srv.Close()

			src := NewIMDbSource(WithIMDbBaseURL(srv.URL), WithIMDbUserAgent("test-agent"), WithIMDbRateLimit(time.Millisecond, 10))
			got, err := src.FetchTitles(context.Background(), "Sci-Fi")
			if err != nil {
				t.Fatal(err)
			}
			if gotPath != "/search/title/" {
				t.Errorf("path = %q", gotPath)
			}
			if gotQuery["genres"][0] != "sci-fi" || gotQuery["title_type"][0] != "feature" {
				t.Errorf("query = %v", gotQuery)
			}
			if gotUA != "test-agent" {
				t.Errorf("user agent = %q", gotUA)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIMDbSourceNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	src := NewIMDbSource(WithIMDbBaseURL(srv.URL))
	if _, err := src.FetchTitles(context.Background(), "drama"); err == nil {
		t.Fatal("expected error on 503")
	}
}
