package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/tripdraft/itinerary-api/internal/adapters/postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS places (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	lat  DOUBLE PRECISION NOT NULL,
	lng  DOUBLE PRECISION NOT NULL,
	UNIQUE (name, lat, lng)
);

CREATE TABLE IF NOT EXISTS day_places (
	id         TEXT PRIMARY KEY,
	day_id     TEXT NOT NULL,
	place_id   TEXT NOT NULL REFERENCES places(id),
	sort_order INTEGER NOT NULL,
	notes      TEXT,
	cost_cents BIGINT
);

CREATE INDEX IF NOT EXISTS idx_day_places_day ON day_places(day_id, sort_order);
`

// OpenMigratedPool connects to the database named by TEST_DATABASE_URL and
// applies the schema. Tests that need Postgres are skipped when the variable
// is unset so the suite stays runnable without infrastructure.
func OpenMigratedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping postgres tests")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, dsn, postgres.PoolOptions{})
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(ctx, schema); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return pool
}
