package refresher

import (
	"time"

	"github.com/BearBump/FlightBoard/internal/broker/messages"
	"github.com/BearBump/FlightBoard/internal/status"
)

type PlannerConfig struct {
	ActiveDelay time.Duration // default: 1 minute
	QuietDelay  time.Duration // default: 5 minutes

	Backoff1 time.Duration // default: 30 seconds
	Backoff2 time.Duration // default: 1 minute
	Backoff3 time.Duration // default: 2 minutes
	Backoff4 time.Duration // default: 5 minutes
}

func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		ActiveDelay: 1 * time.Minute,
		QuietDelay:  5 * time.Minute,

		Backoff1: 30 * time.Second,
		Backoff2: 1 * time.Minute,
		Backoff3: 2 * time.Minute,
		Backoff4: 5 * time.Minute,
	}
}

// Planner decides when a watched view is refreshed next.
type Planner struct {
	cfg PlannerConfig
}

func NewPlanner(cfg PlannerConfig) *Planner {
	def := DefaultPlannerConfig()
	if cfg.ActiveDelay <= 0 {
		cfg.ActiveDelay = def.ActiveDelay
	}
	if cfg.QuietDelay <= 0 {
		cfg.QuietDelay = def.QuietDelay
	}
	if cfg.QuietDelay < cfg.ActiveDelay {
		cfg.QuietDelay = cfg.ActiveDelay
	}
	if cfg.Backoff1 <= 0 {
		cfg.Backoff1 = def.Backoff1
	}
	if cfg.Backoff2 <= 0 {
		cfg.Backoff2 = def.Backoff2
	}
	if cfg.Backoff3 <= 0 {
		cfg.Backoff3 = def.Backoff3
	}
	if cfg.Backoff4 <= 0 {
		cfg.Backoff4 = def.Backoff4
	}
	return &Planner{cfg: cfg}
}

// NextCheckDelay refreshes boards with movements in progress (delayed, boarding, departed)
// more often than boards where nothing is changing.
func (p *Planner) NextCheckDelay(movements []messages.MovementSnapshot) time.Duration {
	for _, m := range movements {
		switch status.Category(m.Category) {
		case status.CategoryWarning, status.CategoryInfo:
			return p.cfg.ActiveDelay
		}
	}
	return p.cfg.QuietDelay
}

func (p *Planner) BackoffDelay(nextFailCount int) time.Duration {
	switch {
	case nextFailCount <= 1:
		return p.cfg.Backoff1
	case nextFailCount == 2:
		return p.cfg.Backoff2
	case nextFailCount == 3:
		return p.cfg.Backoff3
	default:
		return p.cfg.Backoff4
	}
}
