package httpapi

import (
	"time"

	"github.com/tripdraft/itinerary-api/internal/app/itinerary"
	"github.com/tripdraft/itinerary-api/internal/domain"
)

type stopDTO struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Lat        float64  `json:"lat"`
	Lng        float64  `json:"lng"`
	Note       *string  `json:"note,omitempty"`
	Cost       *float64 `json:"cost,omitempty"`
	DayPlaceID string   `json:"dayPlaceId,omitempty"`
	PlaceID    string   `json:"placeId,omitempty"`
}

type dayDTO struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Stops        []stopDTO `json:"stops"`
	DistanceText string    `json:"distanceText,omitempty"`
	DurationText string    `json:"durationText,omitempty"`
	Cost         float64   `json:"cost"`
}

type tripDTO struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Days           []dayDTO `json:"days"`
	ActiveDayIndex int      `json:"activeDayIndex"`
	TotalCost      float64  `json:"totalCost"`
}

type notificationDTO struct {
	ID          string `json:"id"`
	Severity    string `json:"severity"`
	Title       string `json:"title"`
	Message     string `json:"message"`
	DurationMS  int64  `json:"durationMs,omitempty"`
	ActionLabel string `json:"actionLabel,omitempty"`
}

type operationDTO struct {
	ID    string    `json:"id"`
	Kind  string    `json:"kind"`
	DayID string    `json:"dayId"`
	At    time.Time `json:"at"`
}

func toTripDTO(t domain.Trip) tripDTO {
	out := tripDTO{
		ID:             string(t.ID),
		Title:          t.Title,
		Days:           make([]dayDTO, len(t.Days)),
		ActiveDayIndex: t.ActiveDayIndex,
		TotalCost:      t.TotalCost(),
	}
	for i, d := range t.Days {
		out.Days[i] = toDayDTO(d)
	}
	return out
}

func toDayDTO(d domain.Day) dayDTO {
	out := dayDTO{
		ID:           string(d.ID),
		Title:        d.Title,
		Stops:        make([]stopDTO, len(d.Stops)),
		DistanceText: d.DistanceText,
		DurationText: d.DurationText,
		Cost:         d.Cost(),
	}
	for i, s := range d.Stops {
		out.Stops[i] = stopDTO{
			ID:         string(s.ID),
			Title:      s.Title,
			Lat:        s.Lat,
			Lng:        s.Lng,
			Note:       s.Note,
			Cost:       s.Cost,
			DayPlaceID: string(s.DayPlaceID),
			PlaceID:    string(s.PlaceID),
		}
	}
	return out
}

func toNotificationDTOs(ns []domain.Notification) []notificationDTO {
	out := make([]notificationDTO, len(ns))
	for i, n := range ns {
		out[i] = notificationDTO{
			ID:         string(n.ID),
			Severity:   string(n.Severity),
			Title:      n.Title,
			Message:    n.Message,
			DurationMS: n.Duration.Milliseconds(),
		}
		if n.Action != nil {
			out[i].ActionLabel = n.Action.Label
		}
	}
	return out
}

func toOperationDTOs(ops []itinerary.OperationInfo) []operationDTO {
	out := make([]operationDTO, len(ops))
	for i, op := range ops {
		out[i] = operationDTO{
			ID:    string(op.ID),
			Kind:  string(op.Kind),
			DayID: string(op.DayID),
			At:    op.At,
		}
	}
	return out
}
