package moviebot

import "testing"

func TestNormalizeGenre(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Comedy", "comedy"},
		{"  HORROR ", "horror"},
		{"sci fi", "sci-fi"},
		{"Science Fiction", "sci-fi"},
		{"romcom", "romance"},
		{"I like funny movies", "comedy"},
		{"something scary please", "horror"},
		{"film noir", "film-noir"},
		{"kids", "family"},
		{"bollywood", "bollywood"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeGenre(tt.in); got != tt.want {
			t.Errorf("NormalizeGenre(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeGenreWholeWords(t *testing.T) {
	// "war" must not match inside "award".
	if got := NormalizeGenre("award winners"); got != "award winners" {
		t.Errorf("got %q", got)
	}
}
