package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// Movement states seen across deployments of the remote service. Two enumerations are in
// use; nothing here validates against either.
const (
	StateScheduled = "SCHEDULED"
	StateDelayed   = "DELAYED"
	StateDeparted  = "DEPARTED"
	StateArrived   = "ARRIVED"
	StateCancelled = "CANCELLED"
	StateOnTime    = "ON_TIME"
	StateBoarding  = "BOARDING"
)

// Movement is a scheduled flight between two airports.
type Movement struct {
	ID            ID          `json:"id"`
	Number        string      `json:"flightNumber"`
	Origin        LocationRef `json:"departureAirport"`
	Destination   LocationRef `json:"arrivalAirport"`
	DepartureTime Timestamp   `json:"departureTime"`
	ArrivalTime   Timestamp   `json:"arrivalTime"`
	State         string      `json:"flightStatus"`
}

// UnmarshalJSON additionally accepts departureAirportId/arrivalAirportId as bare references
// when the object form is missing. A field of the wrong type decodes as its zero value, so a
// numeric flightStatus leaves the movement unclassified instead of dropping it.
func (m *Movement) UnmarshalJSON(b []byte) error {
	type plain Movement
	var raw struct {
		plain
		OriginID      ID `json:"departureAirportId"`
		DestinationID ID `json:"arrivalAirportId"`
	}
	if err := decodeObject(b, &raw); err != nil {
		return err
	}
	*m = Movement(raw.plain)
	if m.Origin.IsAbsent() && raw.OriginID != "" {
		m.Origin = RefByID(raw.OriginID)
	}
	if m.Destination.IsAbsent() && raw.DestinationID != "" {
		m.Destination = RefByID(raw.DestinationID)
	}
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// Timestamp accepts ISO-8601 with or without a zone (zone-less values are taken as UTC).
// Unparseable values decode to the zero time.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	t.Time = time.Time{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '"' {
		return nil
	}
	var s string
	if json.Unmarshal(b, &s) != nil || s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if v, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t.Time = v
			return nil
		}
	}
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}
