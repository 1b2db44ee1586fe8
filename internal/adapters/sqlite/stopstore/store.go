package stopstore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/tripdraft/itinerary-api/internal/domain"
	"github.com/tripdraft/itinerary-api/internal/ports/out/stopstore"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is a SQLite implementation of stopstore.Store backed by the
// places and day_places tables.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database (used by
// tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "itinerary.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`); err != nil {
		return err
	}

	applied := map[int]bool{}
	rows, err := s.db.Query(`SELECT version FROM schema_version`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return err
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			return fmt.Errorf("bad migration filename %q: %w", name, err)
		}
		if applied[version] {
			continue
		}
		body, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return err
		}
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		for _, stmt := range strings.Split(string(body), ";") {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			if _, err := tx.Exec(stmt); err != nil {
				tx.Rollback()
				return fmt.Errorf("applying %s: %w", name, err)
			}
		}
		if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, version); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) AddStop(ctx context.Context, dayID domain.DayID, data stopstore.AddStopData, sortOrder int) (stopstore.AddedStop, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stopstore.AddedStop{}, err
	}
	defer tx.Rollback()

	var placeID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM places WHERE name = ? AND lat = ? AND lng = ?`,
		data.Title, data.Lat, data.Lng,
	).Scan(&placeID)
	switch {
	case err == sql.ErrNoRows:
		placeID = uuid.NewString()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO places (id, name, lat, lng) VALUES (?, ?, ?, ?)`,
			placeID, data.Title, data.Lat, data.Lng,
		); err != nil {
			return stopstore.AddedStop{}, fmt.Errorf("insert place: %w", err)
		}
	case err != nil:
		return stopstore.AddedStop{}, fmt.Errorf("find place: %w", err)
	}

	dayPlaceID := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO day_places (id, day_id, place_id, sort_order, notes, cost_cents)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		dayPlaceID, string(dayID), placeID, sortOrder, data.Note, costToCents(data.Cost),
	); err != nil {
		return stopstore.AddedStop{}, fmt.Errorf("insert day place: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return stopstore.AddedStop{}, err
	}
	return stopstore.AddedStop{
		DayPlaceID: domain.DayPlaceID(dayPlaceID),
		PlaceID:    domain.PlaceID(placeID),
	}, nil
}

func (s *Store) RemoveStop(ctx context.Context, dayPlaceID domain.DayPlaceID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM day_places WHERE id = ?`, string(dayPlaceID))
	if err != nil {
		return fmt.Errorf("delete day place: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return stopstore.ErrNotFound
	}
	return nil
}

func (s *Store) ReorderStops(ctx context.Context, dayID domain.DayID, dayPlaceIDs []domain.DayPlaceID, sortOrders []int) error {
	if len(dayPlaceIDs) != len(sortOrders) {
		return stopstore.ErrLengthMismatch
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, id := range dayPlaceIDs {
		res, err := tx.ExecContext(ctx,
			`UPDATE day_places SET sort_order = ? WHERE id = ? AND day_id = ?`,
			sortOrders[i], string(id), string(dayID),
		)
		if err != nil {
			return fmt.Errorf("update sort order: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return stopstore.ErrNotFound
		}
	}
	return tx.Commit()
}

func (s *Store) ListDayStops(ctx context.Context, dayID domain.DayID) ([]stopstore.PersistedStop, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT dp.id, dp.place_id, p.name, p.lat, p.lng, dp.notes, dp.cost_cents, dp.sort_order
		FROM day_places dp
		JOIN places p ON p.id = dp.place_id
		WHERE dp.day_id = ?
		ORDER BY dp.sort_order, dp.id`,
		string(dayID),
	)
	if err != nil {
		return nil, fmt.Errorf("list day stops: %w", err)
	}
	defer rows.Close()

	out := make([]stopstore.PersistedStop, 0)
	for rows.Next() {
		var (
			dpID, placeID, name string
			lat, lng            float64
			notes               sql.NullString
			costCents           sql.NullInt64
			sortOrder           int
		)
		if err := rows.Scan(&dpID, &placeID, &name, &lat, &lng, &notes, &costCents, &sortOrder); err != nil {
			return nil, err
		}
		p := stopstore.PersistedStop{
			DayPlaceID: domain.DayPlaceID(dpID),
			PlaceID:    domain.PlaceID(placeID),
			Title:      name,
			Lat:        lat,
			Lng:        lng,
			SortOrder:  sortOrder,
		}
		if notes.Valid {
			n := notes.String
			p.Note = &n
		}
		if costCents.Valid {
			c := float64(costCents.Int64) / 100
			p.Cost = &c
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func costToCents(cost *float64) *int64 {
	if cost == nil {
		return nil
	}
	c := int64(*cost*100 + 0.5)
	return &c
}
