package optimize

import (
	"errors"
	"fmt"

	"github.com/tripdraft/itinerary-api/internal/domain"
)

// ErrOrderMismatch indicates the optimizer's returned order does not cover the
// stops that were sent, typically because the day changed while the request
// was in flight.
var ErrOrderMismatch = errors.New("optimization result doesn't match current stops")

// Move is a single-element move: take the stop at From and insert it at To.
type Move struct {
	From int
	To   int
}

// ApplyOrder returns stops rearranged into the optimizer's id order. It never
// mutates the input. A returned order whose cardinality differs from the input
// is a data-integrity error, not a truncation.
func ApplyOrder(stops []domain.Stop, order []domain.StopID) ([]domain.Stop, error) {
	byID := make(map[domain.StopID]domain.Stop, len(stops))
	for _, s := range stops {
		byID[s.ID] = s
	}

	out := make([]domain.Stop, 0, len(order))
	for _, id := range order {
		if s, ok := byID[id]; ok {
			out = append(out, s)
		}
	}
	if len(out) != len(stops) {
		return nil, fmt.Errorf("%w: got %d of %d stops", ErrOrderMismatch, len(out), len(stops))
	}
	return out, nil
}

// GenerateMoves decomposes a target ordering into the sequence of
// single-element moves that transforms stops into targetOrder. Each planned
// move is simulated on a working copy so subsequent From indices stay correct.
// Stops already in place produce no move; target ids not present are skipped.
func GenerateMoves(stops []domain.Stop, targetOrder []domain.StopID) []Move {
	working := append([]domain.Stop(nil), stops...)
	var moves []Move

	for targetIdx, targetID := range targetOrder {
		currentIdx := -1
		for i, s := range working {
			if s.ID == targetID {
				currentIdx = i
				break
			}
		}
		// Unknown target ids shift later positions, so clamp the insertion
		// point to the working slice.
		to := targetIdx
		if max := len(working) - 1; to > max {
			to = max
		}
		if currentIdx == -1 || currentIdx == to {
			continue
		}
		moves = append(moves, Move{From: currentIdx, To: to})

		moved := working[currentIdx]
		working = append(working[:currentIdx], working[currentIdx+1:]...)
		working = append(working[:to], append([]domain.Stop{moved}, working[to:]...)...)
	}
	return moves
}
