// README: Google Maps drive-time estimates for travel buffer checks.
package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"shiftmatch/internal/types"
)

// RouteService supplies drive-time estimates from the Google Maps Directions
// API. It backs the matching travel buffer when an API key is configured.
type RouteService struct {
	client *maps.Client
}

// NewRouteService creates a new RouteService with the given API Key.
func NewRouteService(apiKey string) (*RouteService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &RouteService{client: client}, nil
}

// TravelMinutes returns the driving time in minutes between two coordinates.
func (s *RouteService) TravelMinutes(ctx context.Context, from, to types.Point) (float64, error) {
	r := &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", from.Lat, from.Lng),
		Destination: fmt.Sprintf("%f,%f", to.Lat, to.Lng),
		Mode:        maps.TravelModeDriving,
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return 0, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return 0, fmt.Errorf("no route found")
	}

	return routes[0].Legs[0].Duration.Minutes(), nil
}
