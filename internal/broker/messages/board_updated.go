package messages

import "time"

const TypeBoardUpdated = "board.updated"

// View kinds carried in BoardUpdated.View.
const (
	ViewBoard     = "board"
	ViewMovements = "movements"
)

// BoardUpdated is one refreshed snapshot of a watched view. Key identifies the view
// ("board:<locationID>" or "movements:<pageIndex>") and is also the Kafka message key.
type BoardUpdated struct {
	View       string    `json:"view"`
	Key        string    `json:"key"`
	LocationID string    `json:"location_id,omitempty"`
	PageIndex  *int      `json:"page_index,omitempty"`
	TotalPages int       `json:"total_pages,omitempty"`
	CheckedAt  time.Time `json:"checked_at"`
	Digest     string    `json:"digest,omitempty"`

	NextCheckAt time.Time `json:"next_check_at"`

	Movements []MovementSnapshot `json:"movements,omitempty"`

	Error *string `json:"error,omitempty"`
}

type MovementSnapshot struct {
	ID            string     `json:"id"`
	Number        string     `json:"flight_number,omitempty"`
	OriginID      string     `json:"origin_id,omitempty"`
	OriginName    string     `json:"origin_name,omitempty"`
	DestinationID string     `json:"destination_id,omitempty"`
	DestName      string     `json:"destination_name,omitempty"`
	DepartureTime *time.Time `json:"departure_time,omitempty"`
	ArrivalTime   *time.Time `json:"arrival_time,omitempty"`
	State         string     `json:"state"`
	Category      string     `json:"category"`
}
