package pgboard

import (
	"context"
	"time"

	"github.com/BearBump/FlightBoard/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// Observation is one movement as seen in a board snapshot.
type Observation struct {
	MovementID    models.ID
	Number        string
	OriginID      models.ID
	DestinationID models.ID
	State         string
	Category      string
	DepartureTime *time.Time
}

type BoardUpdate struct {
	ViewKey     string
	View        string
	CheckedAt   time.Time
	NextCheckAt *time.Time
	Digest      string

	Movements []Observation

	Error *string
}

// ApplyBoardUpdate stores a snapshot and returns how many state transitions it recorded.
// A failed refresh only bumps the view's failure counter.
func (s *Storage) ApplyBoardUpdate(ctx context.Context, upd BoardUpdate) (int, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	checkedAt := upd.CheckedAt.UTC()
	if upd.CheckedAt.IsZero() {
		checkedAt = time.Now().UTC()
	}

	if upd.Error != nil && *upd.Error != "" {
		_, err := tx.Exec(ctx, `
INSERT INTO view_checks (view_key, view, last_checked_at, next_check_at, check_fail_count, last_error, updated_at)
VALUES ($1, $2, $3, $4, 1, $5, now())
ON CONFLICT (view_key) DO UPDATE SET
  last_checked_at = EXCLUDED.last_checked_at,
  next_check_at = EXCLUDED.next_check_at,
  check_fail_count = view_checks.check_fail_count + 1,
  last_error = EXCLUDED.last_error,
  updated_at = now()
`, upd.ViewKey, upd.View, checkedAt, upd.NextCheckAt, *upd.Error)
		if err != nil {
			return 0, errors.Wrap(err, "upsert view check (error)")
		}
		if err := tx.Commit(ctx); err != nil {
			return 0, errors.Wrap(err, "commit tx")
		}
		return 0, nil
	}

	_, err = tx.Exec(ctx, `
INSERT INTO view_checks (view_key, view, last_checked_at, next_check_at, check_fail_count, last_error, digest, movements, updated_at)
VALUES ($1, $2, $3, $4, 0, NULL, $5, $6, now())
ON CONFLICT (view_key) DO UPDATE SET
  last_checked_at = EXCLUDED.last_checked_at,
  next_check_at = EXCLUDED.next_check_at,
  check_fail_count = 0,
  last_error = NULL,
  digest = EXCLUDED.digest,
  movements = EXCLUDED.movements,
  updated_at = now()
`, upd.ViewKey, upd.View, checkedAt, upd.NextCheckAt, upd.Digest, len(upd.Movements))
	if err != nil {
		return 0, errors.Wrap(err, "upsert view check (ok)")
	}

	recorded := 0
	for _, m := range upd.Movements {
		if m.MovementID == "" {
			continue
		}

		var prev *string
		err := tx.QueryRow(ctx, `SELECT state FROM movement_states WHERE movement_id = $1 FOR UPDATE`, string(m.MovementID)).Scan(&prev)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return 0, errors.Wrap(err, "select movement state")
		}

		_, err = tx.Exec(ctx, `
INSERT INTO movement_states (
  movement_id, flight_number, origin_id, destination_id, state, category, departure_time, last_seen_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
ON CONFLICT (movement_id) DO UPDATE SET
  flight_number = EXCLUDED.flight_number,
  origin_id = EXCLUDED.origin_id,
  destination_id = EXCLUDED.destination_id,
  state = EXCLUDED.state,
  category = EXCLUDED.category,
  departure_time = EXCLUDED.departure_time,
  last_seen_at = EXCLUDED.last_seen_at,
  updated_at = now()
`, string(m.MovementID), m.Number, string(m.OriginID), string(m.DestinationID), m.State, m.Category, m.DepartureTime, checkedAt)
		if err != nil {
			return 0, errors.Wrap(err, "upsert movement state")
		}

		if prev != nil && *prev == m.State {
			continue
		}
		_, err = tx.Exec(ctx, `
INSERT INTO movement_state_events (
  movement_id, flight_number, prev_state, state, category, view_key, observed_at, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, now())
`, string(m.MovementID), m.Number, prev, m.State, m.Category, upd.ViewKey, checkedAt)
		if err != nil {
			return 0, errors.Wrap(err, "insert state event")
		}
		recorded++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, errors.Wrap(err, "commit tx")
	}
	return recorded, nil
}

// ListMovementHistory returns transitions of one movement, newest first.
func (s *Storage) ListMovementHistory(ctx context.Context, movementID models.ID, limit, offset int) ([]*models.StateChange, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.Query(ctx, `
SELECT
  id, movement_id, flight_number, prev_state, state, category,
  view_key, observed_at, created_at
FROM movement_state_events
WHERE movement_id = $1
ORDER BY observed_at DESC, id DESC
LIMIT $2 OFFSET $3
`, string(movementID), limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "select state events")
	}
	defer rows.Close()

	out := []*models.StateChange{}
	for rows.Next() {
		var c models.StateChange
		var id string
		if err := rows.Scan(
			&c.ID, &id, &c.Number, &c.PrevState, &c.State, &c.Category,
			&c.ViewKey, &c.ObservedAt, &c.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan state event")
		}
		c.MovementID = models.ID(id)
		out = append(out, &c)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

// ListViewChecks returns the refresh status of every view seen so far, ordered by key.
func (s *Storage) ListViewChecks(ctx context.Context) ([]*models.ViewCheck, error) {
	rows, err := s.db.Query(ctx, `
SELECT
  view_key, view, last_checked_at, next_check_at,
  check_fail_count, last_error, digest, movements
FROM view_checks
ORDER BY view_key
`)
	if err != nil {
		return nil, errors.Wrap(err, "select view checks")
	}
	defer rows.Close()

	out := []*models.ViewCheck{}
	for rows.Next() {
		var v models.ViewCheck
		if err := rows.Scan(
			&v.Key, &v.View, &v.LastCheckedAt, &v.NextCheckAt,
			&v.CheckFailCount, &v.LastError, &v.Digest, &v.Movements,
		); err != nil {
			return nil, errors.Wrap(err, "scan view check")
		}
		out = append(out, &v)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
