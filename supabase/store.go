// Package supabase stores user profiles in a Supabase (PostgREST) table.
package supabase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/supabase-community/supabase-go"

	"github.com/goblincore/moviebot"
)

const defaultTable = "user_profiles"

// Config holds Supabase connection configuration.
type Config struct {
	URL    string
	APIKey string
	Table  string // default: user_profiles
}

// Store implements moviebot.ProfileStore on a Supabase table with a unique
// user_id column.
type Store struct {
	client *supabase.Client
	table  string
}

// profileRow is the table layout. id and timestamps are assigned by the database.
type profileRow struct {
	ID             int64      `json:"id,omitempty"`
	UserID         string     `json:"user_id"`
	Name           string     `json:"name"`
	LastName       string     `json:"last_name"`
	Age            int        `json:"age"`
	Email          string     `json:"email"`
	FavouriteGenre string     `json:"favourite_genre"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

func (r profileRow) profile() *moviebot.Profile {
	p := &moviebot.Profile{
		ID:             strconv.FormatInt(r.ID, 10),
		UserID:         r.UserID,
		Name:           r.Name,
		LastName:       r.LastName,
		Age:            r.Age,
		Email:          r.Email,
		FavouriteGenre: r.FavouriteGenre,
	}
	if r.CreatedAt != nil {
		p.CreatedAt = *r.CreatedAt
	}
	if r.UpdatedAt != nil {
		p.UpdatedAt = *r.UpdatedAt
	}
	return p
}

// New creates a Store.
func New(cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("supabase API key is required")
	}
	if cfg.Table == "" {
		cfg.Table = defaultTable
	}

	client, err := supabase.NewClient(cfg.URL, cfg.APIKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return &Store{client: client, table: cfg.Table}, nil
}

// FindByUserID implements moviebot.ProfileStore.
func (s *Store) FindByUserID(ctx context.Context, userID string) (*moviebot.Profile, error) {
	var rows []profileRow
	err := execute(ctx, func() error {
		_, err := s.client.From(s.table).
			Select("*", "", false).
			Eq("user_id", userID).
			ExecuteTo(&rows)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get profile by user id: %w", err)
	}
	if len(rows) == 0 {
		return nil, moviebot.ErrProfileNotFound
	}
	return rows[0].profile(), nil
}

// FindByName implements moviebot.ProfileStore. ilike narrows the rows on the
// server; the exact case-insensitive comparison happens here.
func (s *Store) FindByName(ctx context.Context, name, lastName string) (*moviebot.Profile, error) {
	var rows []profileRow
	err := execute(ctx, func() error {
		_, err := s.client.From(s.table).
			Select("*", "", false).
			Ilike("name", escapeLike(name)).
			Ilike("last_name", escapeLike(lastName)).
			ExecuteTo(&rows)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get profile by name: %w", err)
	}

	var best *profileRow
	for i := range rows {
		r := &rows[i]
		if !strings.EqualFold(r.Name, name) || !strings.EqualFold(r.LastName, lastName) {
			continue
		}
		if best == nil || r.ID < best.ID {
			best = r
		}
	}
	if best == nil {
		return nil, moviebot.ErrProfileNotFound
	}
	return best.profile(), nil
}

// Upsert implements moviebot.ProfileStore.
func (s *Store) Upsert(ctx context.Context, userID string, f moviebot.ProfileFields) (*moviebot.Profile, error) {
	now := time.Now().UTC()
	row := profileRow{
		UserID:         userID,
		Name:           f.Name,
		LastName:       f.LastName,
		Age:            f.Age,
		Email:          f.Email,
		FavouriteGenre: f.FavouriteGenre,
		UpdatedAt:      &now,
	}

	var rows []profileRow
	err := execute(ctx, func() error {
		_, err := s.client.From(s.table).
			Upsert(row, "user_id", "representation", "").
			ExecuteTo(&rows)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}
	if len(rows) == 0 {
		return s.FindByUserID(ctx, userID)
	}
	return rows[0].profile(), nil
}

// execute runs a PostgREST call and gives up when ctx ends. The client takes
// no context, so an abandoned call finishes in the background and its result
// is dropped.
func execute(ctx context.Context, call func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() { done <- call() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements moviebot.ProfileStore. The HTTP client holds no resources.
func (s *Store) Close() error {
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`, `*`, `\*`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
