package routeopt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/tripdraft/itinerary-api/internal/domain"
	"github.com/tripdraft/itinerary-api/internal/ports/out/optimizer"
)

// Client calls an external route-optimization HTTP service.
type Client struct {
	client *resty.Client
}

// NewClient builds a client for the optimizer service at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	return &Client{client: c}
}

type optimizeRequestPlace struct {
	ID   string  `json:"id"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Name string  `json:"name,omitempty"`
}

type optimizeRequest struct {
	DayID      string                 `json:"day_id"`
	Places     []optimizeRequestPlace `json:"places"`
	TravelMode string                 `json:"travel_mode"`
}

type optimizeResponse struct {
	Order         []string  `json:"order"`
	Distances     []float64 `json:"distances"`
	Durations     []float64 `json:"durations"`
	TotalDistance float64   `json:"total_distance"`
	TotalDuration float64   `json:"total_duration"`
}

func (c *Client) Optimize(ctx context.Context, dayID domain.DayID, places []optimizer.Place, mode optimizer.TravelMode) (optimizer.Route, error) {
	req := optimizeRequest{
		DayID:      string(dayID),
		Places:     make([]optimizeRequestPlace, len(places)),
		TravelMode: string(mode),
	}
	for i, p := range places {
		req.Places[i] = optimizeRequestPlace{ID: string(p.ID), Lat: p.Lat, Lng: p.Lng, Name: p.Name}
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(&req).
		Post("/optimize-day")
	if err != nil {
		return optimizer.Route{}, fmt.Errorf("%w: %v", optimizer.ErrUnavailable, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return optimizer.Route{}, fmt.Errorf("%w: status %d: %s", optimizer.ErrUnavailable, resp.StatusCode(), resp.String())
	}

	var body optimizeResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return optimizer.Route{}, fmt.Errorf("decode optimizer response: %w", err)
	}

	route := optimizer.Route{
		Order:         make([]domain.StopID, len(body.Order)),
		Distances:     body.Distances,
		Durations:     body.Durations,
		TotalDistance: body.TotalDistance,
		TotalDuration: body.TotalDuration,
	}
	for i, id := range body.Order {
		route.Order[i] = domain.StopID(id)
	}
	return route, nil
}
