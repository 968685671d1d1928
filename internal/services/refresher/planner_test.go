package refresher

import (
	"testing"
	"time"

	"github.com/BearBump/FlightBoard/internal/broker/messages"
	"github.com/stretchr/testify/suite"
)

type PlannerSuite struct {
	suite.Suite
	p *Planner
}

func (s *PlannerSuite) SetupTest() {
	s.p = NewPlanner(PlannerConfig{})
}

func (s *PlannerSuite) TestBackoffDelay() {
	s.Equal(30*time.Second, s.p.BackoffDelay(1))
	s.Equal(1*time.Minute, s.p.BackoffDelay(2))
	s.Equal(2*time.Minute, s.p.BackoffDelay(3))
	s.Equal(5*time.Minute, s.p.BackoffDelay(4))
	s.Equal(5*time.Minute, s.p.BackoffDelay(100))
}

func (s *PlannerSuite) TestNextCheckDelay_Active() {
	d := s.p.NextCheckDelay([]messages.MovementSnapshot{
		{State: "SCHEDULED", Category: "primary"},
		{State: "DELAYED", Category: "warning"},
	})
	s.Equal(1*time.Minute, d)
}

func (s *PlannerSuite) TestNextCheckDelay_Quiet() {
	s.Equal(5*time.Minute, s.p.NextCheckDelay(nil))
	s.Equal(5*time.Minute, s.p.NextCheckDelay([]messages.MovementSnapshot{{State: "ARRIVED", Category: "success"}}))
}

func (s *PlannerSuite) TestConfigOverrides() {
	p := NewPlanner(PlannerConfig{ActiveDelay: 10 * time.Second, QuietDelay: 5 * time.Second, Backoff2: time.Second})
	s.Equal(10*time.Second, p.NextCheckDelay(nil))
	s.Equal(time.Second, p.BackoffDelay(2))
}

func TestPlannerSuite(t *testing.T) {
	suite.Run(t, new(PlannerSuite))
}
