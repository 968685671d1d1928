package upstream

import (
	"context"
	"fmt"

	"github.com/BearBump/FlightBoard/internal/models"
	"github.com/BearBump/FlightBoard/internal/paging"
)

// Client reads airports and flights from the remote service. Page envelopes are already
// reconciled into paging.State by the implementation.
type Client interface {
	ListLocations(ctx context.Context) ([]models.Location, error)
	GetLocation(ctx context.Context, id models.ID) (models.Location, error)
	ListDepartures(ctx context.Context, locationID models.ID) ([]models.Movement, error)
	ListArrivals(ctx context.Context, locationID models.ID) ([]models.Movement, error)
	ListMovements(ctx context.Context, page, size int) (paging.State[models.Movement], error)
}

// APIError is a non-2xx answer. Message holds the service-provided text when the body had one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream http %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upstream http %d", e.StatusCode)
}

func (e *APIError) NotFound() bool {
	return e.StatusCode == 404
}
