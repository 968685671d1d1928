package board

import (
	"github.com/BearBump/FlightBoard/internal/models"
	"github.com/BearBump/FlightBoard/internal/status"
)

// Movement is a movement with both locations resolved and its state classified.
// Unresolved locations are the empty Location.
type Movement struct {
	ID            models.ID        `json:"id"`
	Number        string           `json:"flightNumber"`
	Origin        models.Location  `json:"origin"`
	Destination   models.Location  `json:"destination"`
	DepartureTime models.Timestamp `json:"departureTime"`
	ArrivalTime   models.Timestamp `json:"arrivalTime"`
	State         string           `json:"state"`
	Category      status.Category  `json:"category"`
}

type Board struct {
	Location   models.Location `json:"location"`
	Departures []Movement      `json:"departures"`
	Arrivals   []Movement      `json:"arrivals"`
}

// MovementPage carries both page numbers: CurrentPage is the 0-based index, Page the 1-based
// number shown to users.
type MovementPage struct {
	Items       []Movement `json:"items"`
	CurrentPage int        `json:"currentPage"`
	Page        int        `json:"page"`
	TotalPages  int        `json:"totalPages"`
}
