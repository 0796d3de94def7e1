package moviebot

import (
	"strings"
)

// genreSignals maps each content-source genre key to the phrases that point at it.
// Order matters: earlier genres win ties.
var genreSignals = []struct {
	key     string
	signals []string
}{
	{"sci-fi", []string{"sci-fi", "sci fi", "scifi", "science fiction", "science-fiction", "space", "futuristic", "cyberpunk"}},
	{"animation", []string{"animation", "animated", "cartoon", "anime", "pixar"}},
	{"documentary", []string{"documentary", "documentaries", "docu", "true story"}},
	{"romance", []string{"romance", "romantic", "romcom", "rom-com", "rom com", "love story"}},
	{"comedy", []string{"comedy", "comedies", "funny", "humor", "humour", "sitcom", "laugh"}},
	{"horror", []string{"horror", "scary", "slasher", "zombie", "creepy", "spooky"}},
	{"thriller", []string{"thriller", "suspense", "psychological"}},
	{"action", []string{"action", "explosions", "martial arts", "superhero"}},
	{"adventure", []string{"adventure", "quest", "treasure"}},
	{"fantasy", []string{"fantasy", "magic", "wizard", "dragons", "fairy tale"}},
	{"mystery", []string{"mystery", "mysteries", "whodunit", "detective"}},
	{"crime", []string{"crime", "gangster", "heist", "mafia", "mob"}},
	{"drama", []string{"drama", "dramas", "dramatic"}},
	{"family", []string{"family", "kids", "children"}},
	{"musical", []string{"musical", "musicals"}},
	{"music", []string{"music", "concert", "band"}},
	{"war", []string{"war", "military", "battle"}},
	{"western", []string{"western", "westerns", "cowboy"}},
	{"history", []string{"history", "historical", "period piece"}},
	{"biography", []string{"biography", "biopic", "biographical"}},
	{"sport", []string{"sport", "sports", "football", "boxing", "baseball"}},
	{"film-noir", []string{"film-noir", "film noir", "noir"}},
}

// NormalizeGenre maps a free-form genre mention to a content-source genre key.
// Input that matches no known genre is returned lower-cased and trimmed.
func NormalizeGenre(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return ""
	}

	for _, g := range genreSignals {
		if lower == g.key {
			return g.key
		}
	}

	padded := " " + strings.NewReplacer(",", " ", ".", " ", "!", " ", "?", " ", "'s", " ").Replace(lower) + " "

	best, bestScore := "", 0
	for _, g := range genreSignals {
		score := 0
		for _, s := range g.signals {
			if strings.Contains(padded, " "+s+" ") {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = g.key, score
		}
	}
	if best == "" {
		return lower
	}
	return best
}
