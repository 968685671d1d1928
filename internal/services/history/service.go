package history

import (
	"context"
	"time"

	"github.com/BearBump/FlightBoard/internal/broker/messages"
	"github.com/BearBump/FlightBoard/internal/models"
	"github.com/BearBump/FlightBoard/internal/storage/pgboard"
	"github.com/pkg/errors"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// ErrInvalidUpdate marks a board update that can never be applied; retrying it is pointless.
var ErrInvalidUpdate = errors.New("invalid board update")

type Repository interface {
	ApplyBoardUpdate(ctx context.Context, upd pgboard.BoardUpdate) (int, error)
	ListMovementHistory(ctx context.Context, movementID models.ID, limit, offset int) ([]*models.StateChange, error)
	ListViewChecks(ctx context.Context) ([]*models.ViewCheck, error)
}

// Service records refreshed snapshots coming from the worker and serves the recorded state history.
type Service struct {
	repo Repository
	now  func() time.Time
}

func New(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// ApplyKafkaUpdate stores one board.updated message and returns the number of state transitions recorded.
func (s *Service) ApplyKafkaUpdate(ctx context.Context, msg messages.BoardUpdated) (int, error) {
	if msg.Key == "" {
		return 0, errors.Wrap(ErrInvalidUpdate, "key is required")
	}
	if msg.CheckedAt.IsZero() {
		msg.CheckedAt = s.now().UTC()
	}

	upd := pgboard.BoardUpdate{
		ViewKey:   msg.Key,
		View:      msg.View,
		CheckedAt: msg.CheckedAt,
		Digest:    msg.Digest,
		Error:     msg.Error,
	}
	if !msg.NextCheckAt.IsZero() {
		next := msg.NextCheckAt
		upd.NextCheckAt = &next
	}
	for _, m := range msg.Movements {
		if m.ID == "" {
			continue
		}
		upd.Movements = append(upd.Movements, pgboard.Observation{
			MovementID:    models.ID(m.ID),
			Number:        m.Number,
			OriginID:      models.ID(m.OriginID),
			DestinationID: models.ID(m.DestinationID),
			State:         m.State,
			Category:      m.Category,
			DepartureTime: m.DepartureTime,
		})
	}

	n, err := s.repo.ApplyBoardUpdate(ctx, upd)
	if err != nil {
		return 0, errors.Wrapf(err, "apply update %s", msg.Key)
	}
	return n, nil
}

// ListMovementHistory returns the recorded transitions of one movement, newest first.
// A non-positive limit means DefaultLimit; larger limits are capped at MaxLimit.
func (s *Service) ListMovementHistory(ctx context.Context, movementID models.ID, limit, offset int) ([]*models.StateChange, error) {
	if movementID == "" {
		return nil, errors.New("movement id is required")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	out, err := s.repo.ListMovementHistory(ctx, movementID, limit, offset)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*models.StateChange{}
	}
	return out, nil
}

func (s *Service) ListViewChecks(ctx context.Context) ([]*models.ViewCheck, error) {
	out, err := s.repo.ListViewChecks(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*models.ViewCheck{}
	}
	return out, nil
}
