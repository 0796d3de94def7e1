package moviebot

import (
	"fmt"
	"strings"
)

// AgeTier is the content-appropriateness class derived from a user's age.
type AgeTier int

const (
	TierKids  AgeTier = iota // age < 10
	TierTeen                 // 10 <= age < 18
	TierAdult                // age >= 18
)

const (
	teenMinAge  = 10
	adultMinAge = 18
)

func (t AgeTier) String() string {
	switch t {
	case TierKids:
		return "kids"
	case TierTeen:
		return "teen"
	default:
		return "adult"
	}
}

// ClassifyAge is the single age-tier rule used by every personalized prompt.
func ClassifyAge(age int) AgeTier {
	switch {
	case age < teenMinAge:
		return TierKids
	case age < adultMinAge:
		return TierTeen
	default:
		return TierAdult
	}
}

// ComposePrompt builds the recommendation prompt for age and genre.
func ComposePrompt(age int, genre string) string {
	switch ClassifyAge(age) {
	case TierKids:
		return fmt.Sprintf("Recommend kids' movies for a %d-year-old who loves %s movies.", age, genre)
	case TierTeen:
		return fmt.Sprintf("Recommend teen (non-adult) movies for a %d-year-old who loves %s movies.", age, genre)
	default:
		return fmt.Sprintf("Recommend movies for an adult (%d years old) who loves %s movies.", age, genre)
	}
}

// RecommendationRequest is the per-invocation input of a personalized recommendation.
type RecommendationRequest struct {
	Genre    string
	Age      int
	FreeText string // optional extra wish from the user
}

// Prompt composes the tiered prompt and appends the free-text wish, if any.
func (r RecommendationRequest) Prompt() string {
	p := ComposePrompt(r.Age, r.Genre)
	if extra := strings.TrimSpace(r.FreeText); extra != "" {
		p += " The user also said: " + extra
	}
	return p
}
