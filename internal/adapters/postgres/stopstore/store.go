package stopstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/tripdraft/itinerary-api/internal/adapters/postgres"
	"github.com/tripdraft/itinerary-api/internal/domain"
	"github.com/tripdraft/itinerary-api/internal/ports/out/stopstore"
)

// Store is a Postgres implementation of stopstore.Store.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) AddStop(ctx context.Context, dayID domain.DayID, data stopstore.AddStopData, sortOrder int) (stopstore.AddedStop, error) {
	if s.pool == nil {
		return stopstore.AddedStop{}, errors.New("nil postgres pool")
	}

	added, err := s.addStop(ctx, dayID, data, sortOrder)
	if pgErr, ok := postgres.AsPgError(err); ok && pgErr.Code == postgres.UniqueViolationCode {
		// Concurrent insert won the (name, lat, lng) race; the retry's
		// select finds the winner's row.
		return s.addStop(ctx, dayID, data, sortOrder)
	}
	return added, err
}

func (s *Store) addStop(ctx context.Context, dayID domain.DayID, data stopstore.AddStopData, sortOrder int) (stopstore.AddedStop, error) {
	var added stopstore.AddedStop
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var placeID string
		err := tx.QueryRow(ctx,
			`SELECT id FROM places WHERE name = $1 AND lat = $2 AND lng = $3`,
			data.Title, data.Lat, data.Lng,
		).Scan(&placeID)
		if errors.Is(err, pgx.ErrNoRows) {
			placeID = uuid.NewString()
			if _, err := tx.Exec(ctx,
				`INSERT INTO places (id, name, lat, lng) VALUES ($1, $2, $3, $4)`,
				placeID, data.Title, data.Lat, data.Lng,
			); err != nil {
				return fmt.Errorf("insert place: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("find place: %w", err)
		}

		dayPlaceID := uuid.NewString()
		if _, err := tx.Exec(ctx,
			`INSERT INTO day_places (id, day_id, place_id, sort_order, notes, cost_cents)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			dayPlaceID, string(dayID), placeID, sortOrder, data.Note, costToCents(data.Cost),
		); err != nil {
			return fmt.Errorf("insert day place: %w", err)
		}

		added = stopstore.AddedStop{
			DayPlaceID: domain.DayPlaceID(dayPlaceID),
			PlaceID:    domain.PlaceID(placeID),
		}
		return nil
	})
	if err != nil {
		return stopstore.AddedStop{}, err
	}
	return added, nil
}

func (s *Store) RemoveStop(ctx context.Context, dayPlaceID domain.DayPlaceID) error {
	if s.pool == nil {
		return errors.New("nil postgres pool")
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM day_places WHERE id = $1`, string(dayPlaceID))
	if err != nil {
		return fmt.Errorf("delete day place: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return stopstore.ErrNotFound
	}
	return nil
}

func (s *Store) ReorderStops(ctx context.Context, dayID domain.DayID, dayPlaceIDs []domain.DayPlaceID, sortOrders []int) error {
	if s.pool == nil {
		return errors.New("nil postgres pool")
	}
	if len(dayPlaceIDs) != len(sortOrders) {
		return stopstore.ErrLengthMismatch
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for i, id := range dayPlaceIDs {
			tag, err := tx.Exec(ctx,
				`UPDATE day_places SET sort_order = $1 WHERE id = $2 AND day_id = $3`,
				sortOrders[i], string(id), string(dayID),
			)
			if err != nil {
				return fmt.Errorf("update sort order: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return stopstore.ErrNotFound
			}
		}
		return nil
	})
}

func (s *Store) ListDayStops(ctx context.Context, dayID domain.DayID) ([]stopstore.PersistedStop, error) {
	if s.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := s.pool.Query(ctx, `
		SELECT dp.id, dp.place_id, p.name, p.lat, p.lng, dp.notes, dp.cost_cents, dp.sort_order
		FROM day_places dp
		JOIN places p ON p.id = dp.place_id
		WHERE dp.day_id = $1
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
			notes               *string
			costCents           *int64
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
			Note:       notes,
			SortOrder:  sortOrder,
		}
		if costCents != nil {
			c := float64(*costCents) / 100
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
