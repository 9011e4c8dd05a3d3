package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/rendis/proximo/internal/model"
)

type Store struct {
	db *sql.DB
	mu sync.Mutex
}

func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}

	// Optimize for write throughput
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=-64000",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	if err := createSchema(db); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS providers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		slug TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		raw_location TEXT,
		city TEXT,
		state TEXT,
		lat REAL,
		lng REAL,
		rating REAL,
		rating_count INTEGER,
		tags TEXT,
		price_usd REAL,
		phone TEXT,
		photo_url TEXT,
		badges TEXT,
		available INTEGER NOT NULL DEFAULT 0,
		offers_travel INTEGER NOT NULL DEFAULT 0,
		featured INTEGER NOT NULL DEFAULT 0,
		incall INTEGER NOT NULL DEFAULT 0,
		outcall INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_providers_coords ON providers(lat, lng);
	CREATE INDEX IF NOT EXISTS idx_providers_city ON providers(city);
	CREATE INDEX IF NOT EXISTS idx_providers_rating ON providers(rating);
	CREATE INDEX IF NOT EXISTS idx_providers_price ON providers(price_usd);
	`
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// InsertBatch upserts a page of providers in one transaction. Re-syncing
// refreshes existing rows rather than duplicating them; the returned count
// covers both inserts and updates.
func (s *Store) InsertBatch(providers []model.Provider) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning tx: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO providers
		(slug, name, raw_location, city, state, lat, lng, rating, rating_count,
		 tags, price_usd, phone, photo_url, badges,
		 available, offers_travel, featured, incall, outcall)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(slug) DO UPDATE SET
			name=excluded.name, raw_location=excluded.raw_location,
			city=excluded.city, state=excluded.state,
			lat=excluded.lat, lng=excluded.lng,
			rating=excluded.rating, rating_count=excluded.rating_count,
			tags=excluded.tags, price_usd=excluded.price_usd,
			phone=excluded.phone, photo_url=excluded.photo_url,
			badges=excluded.badges, available=excluded.available,
			offers_travel=excluded.offers_travel, featured=excluded.featured,
			incall=excluded.incall, outcall=excluded.outcall
	`)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("preparing stmt: %w", err)
	}
	defer stmt.Close()

	stored := 0
	for _, p := range providers {
		if p.ID == "" {
			continue
		}
		var lat, lng any
		if p.HasCoords {
			lat, lng = p.Lat, p.Lng
		}
		_, err := stmt.Exec(
			p.ID, p.Name, p.RawLocation, p.City, p.State, lat, lng,
			p.Rating, p.RatingCount,
			strings.Join(p.Tags, ","), p.PriceUSD, p.Phone, p.PhotoURL,
			strings.Join(p.Badges, ","),
			p.Available, p.OffersTravel, p.Featured, p.Incall, p.Outcall,
		)
		if err != nil {
			continue
		}
		stored++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing tx: %w", err)
	}

	return stored, nil
}

// LoadProviders reads every stored provider back, ordered by name. NULL
// coordinates come back as HasCoords=false so callers can tell "never
// placed" apart from "at the origin".
func (s *Store) LoadProviders() ([]model.Provider, error) {
	rows, err := s.db.Query(`
		SELECT slug, name, raw_location, city, state, lat, lng, rating,
		       rating_count, tags, price_usd, phone, photo_url, badges,
		       available, offers_travel, featured, incall, outcall
		FROM providers ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying providers: %w", err)
	}
	defer rows.Close()

	var out []model.Provider
	for rows.Next() {
		var p model.Provider
		var lat, lng sql.NullFloat64
		var tags, badges string
		if err := rows.Scan(
			&p.ID, &p.Name, &p.RawLocation, &p.City, &p.State, &lat, &lng,
			&p.Rating, &p.RatingCount, &tags, &p.PriceUSD, &p.Phone,
			&p.PhotoURL, &badges,
			&p.Available, &p.OffersTravel, &p.Featured, &p.Incall, &p.Outcall,
		); err != nil {
			return nil, fmt.Errorf("scanning provider: %w", err)
		}
		if lat.Valid && lng.Valid {
			p.Lat, p.Lng, p.HasCoords = lat.Float64, lng.Float64, true
		}
		p.Tags = splitList(tags)
		p.Badges = splitList(badges)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	model.MarkTop(out)
	return out, nil
}

func (s *Store) Count() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM providers").Scan(&count)
	return count, err
}

func (s *Store) Close() error {
	return s.db.Close()
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
