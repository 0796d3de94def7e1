package moviebot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteTimeLayout = "2006-01-02 15:04:05"

// SQLiteStore is the default ProfileStore, backed by a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("moviebot: mkdir %s: %w", filepath.Dir(path), err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("moviebot: open db: %w", err)
	}

	// Single connection avoids write contention for our scale
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("moviebot: migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return err
	}

	var version int
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version); err != nil {
		return err
	}

	if version < 1 {
		if _, err := s.db.Exec(`
			CREATE TABLE IF NOT EXISTS user_profiles (
				id              INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id         TEXT    NOT NULL UNIQUE,
				name            TEXT    NOT NULL DEFAULT '',
				last_name       TEXT    NOT NULL DEFAULT '',
				age             INTEGER NOT NULL DEFAULT 0,
				email           TEXT    NOT NULL DEFAULT '',
				favourite_genre TEXT    NOT NULL DEFAULT '',
				created_at      TEXT    NOT NULL DEFAULT (datetime('now')),
				updated_at      TEXT    NOT NULL DEFAULT (datetime('now'))
			);
			CREATE INDEX IF NOT EXISTS idx_profiles_name ON user_profiles(LOWER(name), LOWER(last_name));
		`); err != nil {
			return err
		}
		if _, err := s.db.Exec(`INSERT INTO schema_version (version) VALUES (1)`); err != nil {
			return err
		}
	}

	if version < 2 {
		if err := s.migrateFoldedNames(); err != nil {
			return err
		}
	}

	return nil
}

// migrateFoldedNames adds name_fold / last_name_fold. SQLite's LOWER only
// folds ASCII, so the folded forms are computed in Go and stored.
func (s *SQLiteStore) migrateFoldedNames() error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		ALTER TABLE user_profiles ADD COLUMN name_fold TEXT NOT NULL DEFAULT '';
		ALTER TABLE user_profiles ADD COLUMN last_name_fold TEXT NOT NULL DEFAULT '';
		DROP INDEX IF EXISTS idx_profiles_name;
		CREATE INDEX IF NOT EXISTS idx_profiles_name_fold ON user_profiles(name_fold, last_name_fold);
	`); err != nil {
		return err
	}

	type nameRow struct {
		id             int64
		name, lastName string
	}
	rows, err := tx.Query(`SELECT id, name, last_name FROM user_profiles`)
	if err != nil {
		return err
	}
	var existing []nameRow
	for rows.Next() {
		var r nameRow
		if err := rows.Scan(&r.id, &r.name, &r.lastName); err != nil {
			rows.Close()
			return err
		}
		existing = append(existing, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, r := range existing {
		if _, err := tx.Exec(`UPDATE user_profiles SET name_fold = ?, last_name_fold = ? WHERE id = ?`,
			foldName(r.name), foldName(r.lastName), r.id); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (2)`); err != nil {
		return err
	}
	return tx.Commit()
}

// foldName is the case-insensitive form used for name lookups.
func foldName(s string) string {
	return strings.ToLower(s)
}

const profileSelectCols = `id, user_id, name, last_name, age, email, favourite_genre, created_at, updated_at`

func scanProfile(row *sql.Row) (*Profile, error) {
	var p Profile
	var id int64
	var created, updated string
	err := row.Scan(&id, &p.UserID, &p.Name, &p.LastName, &p.Age, &p.Email, &p.FavouriteGenre, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	p.ID = strconv.FormatInt(id, 10)
	p.CreatedAt, _ = time.Parse(sqliteTimeLayout, created)
	p.UpdatedAt, _ = time.Parse(sqliteTimeLayout, updated)
	return &p, nil
}

// FindByUserID returns the profile owned by userID.
func (s *SQLiteStore) FindByUserID(ctx context.Context, userID string) (*Profile, error) {
	return scanProfile(s.db.QueryRowContext(ctx,
		`SELECT `+profileSelectCols+` FROM user_profiles WHERE user_id = ?`, userID))
}

// FindByName returns the oldest profile whose name and last name both match,
// ignoring case.
func (s *SQLiteStore) FindByName(ctx context.Context, name, lastName string) (*Profile, error) {
	return scanProfile(s.db.QueryRowContext(ctx, `
		SELECT `+profileSelectCols+` FROM user_profiles
		WHERE name_fold = ? AND last_name_fold = ?
		ORDER BY id ASC LIMIT 1`,
		foldName(name), foldName(lastName)))
}

// Upsert writes all five fields for userID, inserting the row if needed.
func (s *SQLiteStore) Upsert(ctx context.Context, userID string, f ProfileFields) (*Profile, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_profiles (user_id, name, last_name, age, email, favourite_genre, name_fold, last_name_fold)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			name = excluded.name,
			last_name = excluded.last_name,
			name_fold = excluded.name_fold,
			last_name_fold = excluded.last_name_fold,
			age = excluded.age,
			email = excluded.email,
			favourite_genre = excluded.favourite_genre,
			updated_at = datetime('now')`,
		userID, f.Name, f.LastName, f.Age, f.Email, f.FavouriteGenre, foldName(f.Name), foldName(f.LastName),
	)
	if err != nil {
		return nil, err
	}
	return s.FindByUserID(ctx, userID)
}

// Count returns the number of stored profiles.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_profiles`).Scan(&n)
	return n, err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
