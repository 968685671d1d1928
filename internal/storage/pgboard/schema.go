package pgboard

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS movement_states (
  movement_id TEXT PRIMARY KEY,
  flight_number TEXT NOT NULL DEFAULT '',
  origin_id TEXT NOT NULL DEFAULT '',
  destination_id TEXT NOT NULL DEFAULT '',
  state TEXT NOT NULL,
  category TEXT NOT NULL,
  departure_time TIMESTAMPTZ NULL,
  last_seen_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
		`
CREATE TABLE IF NOT EXISTS movement_state_events (
  id BIGSERIAL PRIMARY KEY,
  movement_id TEXT NOT NULL REFERENCES movement_states(movement_id) ON DELETE CASCADE,
  flight_number TEXT NOT NULL DEFAULT '',
  prev_state TEXT NULL,
  state TEXT NOT NULL,
  category TEXT NOT NULL,
  view_key TEXT NOT NULL,
  observed_at TIMESTAMPTZ NOT NULL,
  created_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_movement_state_events_movement_observed ON movement_state_events(movement_id, observed_at DESC, id DESC)`,
		`
CREATE TABLE IF NOT EXISTS view_checks (
  view_key TEXT PRIMARY KEY,
  view TEXT NOT NULL,
  last_checked_at TIMESTAMPTZ NOT NULL,
  next_check_at TIMESTAMPTZ NULL,
  check_fail_count INT NOT NULL DEFAULT 0,
  last_error TEXT NULL,
  digest TEXT NOT NULL DEFAULT '',
  movements INT NOT NULL DEFAULT 0,
  updated_at TIMESTAMPTZ NOT NULL
)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
