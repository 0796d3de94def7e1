package moviebot

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Slot names read or written by the actions.
const (
	SlotMovieGenre     = "movie_genre"
	SlotName           = "name"
	SlotLastName       = "last_name"
	SlotAge            = "age"
	SlotEmail          = "email"
	SlotFavouriteGenre = "favourite_genre"
	SlotUserProfileID  = "user_profile_id"
	SlotGeneratedText  = "generated_text"
	SlotIDName         = "id_name"
	SlotIDLastName     = "id_last_name"
	SlotUpdatingField  = "updating_field"
)

// Intent is the intent detected by the dialogue manager for the latest message.
type Intent struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Message is the latest user message.
type Message struct {
	Text   string `json:"text"`
	Intent Intent `json:"intent"`
}

// ConversationState is the read-only view of a conversation handed to an action.
type ConversationState struct {
	SenderID      string         `json:"sender_id"`
	Slots         map[string]any `json:"slots"`
	LatestMessage Message        `json:"latest_message"`
}

// Slot returns the raw slot value, or nil if unset.
func (s *ConversationState) Slot(name string) any {
	if s == nil || s.Slots == nil {
		return nil
	}
	return s.Slots[name]
}

// SlotString returns a trimmed string slot. Non-string values are formatted;
// nil and blank values return ok=false.
func (s *ConversationState) SlotString(name string) (string, bool) {
	v := s.Slot(name)
	if v == nil {
		return "", false
	}
	var str string
	switch t := v.(type) {
	case string:
		str = t
	case float64:
		str = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		str = fmt.Sprint(t)
	}
	str = strings.TrimSpace(str)
	return str, str != ""
}

// SlotInt parses a slot holding an integer. Accepts ints, integral floats,
// json.Number and numeric strings.
func (s *ConversationState) SlotInt(name string) (int, error) {
	v := s.Slot(name)
	if v == nil {
		return 0, &MissingSlotError{Slot: name}
	}
	return parseInt(v)
}

func parseInt(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) || math.IsNaN(t) {
			return 0, fmt.Errorf("not an integer: %v", t)
		}
		return int(t), nil
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, err
		}
		return int(n), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(t))
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

// EventType identifies a state mutation requested from the dialogue manager.
type EventType string

const (
	EventSlot    EventType = "slot"
	EventRestart EventType = "restart"
)

// Event is a single state mutation. Value may be nil to clear a slot.
type Event struct {
	Type  EventType
	Name  string
	Value any
}

// SlotSet builds a slot mutation.
func SlotSet(name string, value any) Event {
	return Event{Type: EventSlot, Name: name, Value: value}
}

// Restart asks the dialogue manager to reset the conversation.
func Restart() Event {
	return Event{Type: EventRestart}
}

// Result is what an action hands back to the dialogue manager.
type Result struct {
	Events   []Event
	Messages []string
}

func reply(text string, events ...Event) Result {
	return Result{Events: events, Messages: []string{text}}
}

// Profile is the durable record of an end user, one per UserID.
type Profile struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id" validate:"required"`
	Name           string    `json:"name" validate:"max=100"`
	LastName       string    `json:"last_name" validate:"max=100"`
	Age            int       `json:"age" validate:"min=0,max=120"`
	Email          string    `json:"email" validate:"omitempty,email"`
	FavouriteGenre string    `json:"favourite_genre" validate:"max=50"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ProfileFields are the five user-editable fields written by an upsert.
type ProfileFields struct {
	Name           string
	LastName       string
	Age            int
	Email          string
	FavouriteGenre string
}

// Fields returns the user-editable part of p.
func (p *Profile) Fields() ProfileFields {
	return ProfileFields{
		Name:           p.Name,
		LastName:       p.LastName,
		Age:            p.Age,
		Email:          p.Email,
		FavouriteGenre: p.FavouriteGenre,
	}
}

// Config holds Bot initialization parameters.
type Config struct {
	DBPath            string        // SQLite path used when ProfileStore is nil (default: ./data/moviebot.db)
	OpenAIAPIKey      string        // Builds an OpenAI generator when Generator is nil
	OpenAIModel       string        // default: gpt-4o-mini
	MaxOutputTokens   int           // default: 50
	StoreTimeout      time.Duration // per store call (default 5s)
	ContentTimeout    time.Duration // per content fetch (default 15s)
	GenerationTimeout time.Duration // per generation request (default 30s)
	CandidateTTL      time.Duration // cache lifetime of scraped lists (default 6h)
	WarmGenres        []string      // genres prefetched by the warm worker
	WarmInterval      time.Duration // 0 disables the warm worker

	// Collaborators. Nil values are replaced with defaults by Init.
	ProfileStore  ProfileStore
	ContentSource ContentSource
	Generator     Generator
	Cache         CandidateCache
}

// ApplyDefaults fills zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.DBPath == "" {
		c.DBPath = "./data/moviebot.db"
	}
	if c.OpenAIModel == "" {
		c.OpenAIModel = "gpt-4o-mini"
	}
	if c.MaxOutputTokens == 0 {
		c.MaxOutputTokens = 50
	}
	if c.StoreTimeout == 0 {
		c.StoreTimeout = 5 * time.Second
	}
	if c.ContentTimeout == 0 {
		c.ContentTimeout = 15 * time.Second
	}
	if c.GenerationTimeout == 0 {
		c.GenerationTimeout = 30 * time.Second
	}
	if c.CandidateTTL == 0 {
		c.CandidateTTL = 6 * time.Hour
	}
}
