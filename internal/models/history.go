package models

import "time"

// StateChange is one observed transition of a movement's raw state, recorded by the
// board-api history consumer. PrevState is nil for the first observation.
type StateChange struct {
	ID         int64     `json:"id"`
	MovementID ID        `json:"movementId"`
	Number     string    `json:"flightNumber"`
	PrevState  *string   `json:"prevState"`
	State      string    `json:"state"`
	Category   string    `json:"category"`
	ViewKey    string    `json:"viewKey"`
	ObservedAt time.Time `json:"observedAt"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ViewCheck is the last refresh outcome of a watched view.
type ViewCheck struct {
	Key            string     `json:"key"`
	View           string     `json:"view"`
	LastCheckedAt  time.Time  `json:"lastCheckedAt"`
	NextCheckAt    *time.Time `json:"nextCheckAt"`
	CheckFailCount int        `json:"checkFailCount"`
	LastError      *string    `json:"lastError"`
	Digest         string     `json:"digest"`
	Movements      int        `json:"movements"`
}
