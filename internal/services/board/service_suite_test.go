package board

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/BearBump/FlightBoard/internal/fetcher"
	"github.com/BearBump/FlightBoard/internal/integrations/upstream"
	"github.com/BearBump/FlightBoard/internal/models"
	"github.com/BearBump/FlightBoard/internal/paging"
	"github.com/BearBump/FlightBoard/internal/status"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	boardmocks "github.com/BearBump/FlightBoard/internal/services/board/mocks"
)

type recordingMetrics struct {
	mu           sync.Mutex
	unresolved   map[string]int
	unclassified map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{unresolved: map[string]int{}, unclassified: map[string]int{}}
}

func (m *recordingMetrics) AddUnresolved(view string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unresolved[view] += n
}

func (m *recordingMetrics) AddUnclassified(view string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unclassified[view] += n
}

var (
	central = models.Location{ID: "A1", Name: "Central", Code: "CEN"}
	metro   = models.Location{ID: "B2", Name: "Metro", Code: "MTR"}
)

type ServiceSuite struct {
	suite.Suite

	client  *boardmocks.MockClient
	metrics *recordingMetrics
	svc     *Service
}

func (s *ServiceSuite) SetupTest() {
	s.client = &boardmocks.MockClient{}
	s.metrics = newRecordingMetrics()
	s.svc = New(s.client, status.NewDefault(), Options{PageSize: 10, FullResolution: true, Metrics: s.metrics})
}

func (s *ServiceSuite) TestLocations_OK() {
	s.client.On("ListLocations", mock.Anything).Return([]models.Location{central, metro}, nil).Once()

	out, err := s.svc.Locations(context.Background())
	s.Require().NoError(err)
	s.Require().Equal([]models.Location{central, metro}, out)
	s.client.AssertExpectations(s.T())
}

func (s *ServiceSuite) TestLocations_NilBecomesEmpty() {
	s.client.On("ListLocations", mock.Anything).Return(nil, nil).Once()

	out, err := s.svc.Locations(context.Background())
	s.Require().NoError(err)
	s.Require().NotNil(out)
	s.Require().Empty(out)
}

func (s *ServiceSuite) TestLocations_ErrorKeepsServiceMessage() {
	s.client.On("ListLocations", mock.Anything).
		Return(nil, &upstream.APIError{StatusCode: 503, Message: "maintenance"}).
		Once()

	_, err := s.svc.Locations(context.Background())
	s.Require().Error(err)
	s.Require().Equal("maintenance", fetcher.Message(err))
}

func (s *ServiceSuite) TestLocationBoard_ResolvesReferences() {
	s.client.On("GetLocation", mock.Anything, models.ID("A1")).Return(central, nil).Once()
	s.client.On("ListDepartures", mock.Anything, models.ID("A1")).Return([]models.Movement{
		{ID: "1", Number: "FB1", Origin: models.RefByID("A1"), Destination: models.RefByID("B2"), State: "DELAYED"},
		{ID: "2", Number: "FB2", Origin: models.RefByID("A1"), Destination: models.RefByID("ZZ"), State: "TAXIING"},
	}, nil).Once()
	s.client.On("ListArrivals", mock.Anything, models.ID("A1")).Return([]models.Movement{
		{ID: "3", Number: "FB3", Origin: models.RefTo(metro), Destination: models.RefTo(models.Location{ID: "A1"}), State: "ARRIVED"},
	}, nil).Once()
	s.client.On("ListLocations", mock.Anything).Return([]models.Location{central, metro}, nil).Once()

	b, err := s.svc.LocationBoard(context.Background(), "A1")
	s.Require().NoError(err)
	s.Require().Equal(central, b.Location)

	s.Require().Len(b.Departures, 2)
	s.Require().Equal("Central", b.Departures[0].Origin.Name)
	s.Require().Equal("Metro", b.Departures[0].Destination.Name)
	s.Require().Equal(status.CategoryWarning, b.Departures[0].Category)
	s.Require().Equal(models.Location{}, b.Departures[1].Destination)
	s.Require().Equal(status.CategoryDefault, b.Departures[1].Category)

	s.Require().Len(b.Arrivals, 1)
	s.Require().Equal("Metro", b.Arrivals[0].Origin.Name)
	s.Require().Equal("Central", b.Arrivals[0].Destination.Name)
	s.Require().Equal(status.CategorySuccess, b.Arrivals[0].Category)

	s.Require().Equal(1, s.metrics.unresolved["board"])
	s.Require().Equal(1, s.metrics.unclassified["board"])
	s.client.AssertExpectations(s.T())
}

func (s *ServiceSuite) TestLocationBoard_AnyFailureFailsBoard() {
	for _, failing := range []string{"GetLocation", "ListDepartures", "ListArrivals", "ListLocations"} {
		s.SetupTest()
		notFound := &upstream.APIError{StatusCode: 404, Message: "Airport not found"}

		ret := func(method string, ok ...interface{}) []interface{} {
			if method == failing {
				return []interface{}{ok[0], notFound}
			}
			return ok
		}
		s.client.On("GetLocation", mock.Anything, models.ID("X")).Return(ret("GetLocation", models.Location{ID: "X"}, nil)...).Maybe()
		s.client.On("ListDepartures", mock.Anything, models.ID("X")).Return(ret("ListDepartures", []models.Movement{}, nil)...).Maybe()
		s.client.On("ListArrivals", mock.Anything, models.ID("X")).Return(ret("ListArrivals", []models.Movement{}, nil)...).Maybe()
		s.client.On("ListLocations", mock.Anything).Return(ret("ListLocations", []models.Location{}, nil)...).Maybe()

		_, err := s.svc.LocationBoard(context.Background(), "X")
		s.Require().Error(err, failing)
		s.Require().Equal("Airport not found", fetcher.Message(err), failing)
	}
}

func (s *ServiceSuite) TestMovementPage_ResolvesAgainstLocations() {
	s.client.On("ListLocations", mock.Anything).Return([]models.Location{central, metro}, nil).Once()
	s.client.On("ListMovements", mock.Anything, 0, 10).Return(paging.State[models.Movement]{
		Items: []models.Movement{
			{ID: "1", Number: "FB1", Origin: models.RefByID("A1"), Destination: models.RefTo(models.Location{ID: "B2"}), State: "SCHEDULED"},
		},
		CurrentPage: 0,
		TotalPages:  3,
	}, nil).Once()

	p, err := s.svc.MovementPage(context.Background(), 1, paging.UnknownTotal)
	s.Require().NoError(err)
	s.Require().Len(p.Items, 1)
	s.Require().Equal("Central", p.Items[0].Origin.Name)
	s.Require().Equal("Metro", p.Items[0].Destination.Name)
	s.Require().Equal(status.CategoryPrimary, p.Items[0].Category)
	s.Require().Equal(0, p.CurrentPage)
	s.Require().Equal(1, p.Page)
	s.Require().Equal(3, p.TotalPages)
	s.client.AssertExpectations(s.T())
}

func (s *ServiceSuite) TestMovementPage_KnownTotalClampsBeforeRequest() {
	s.client.On("ListLocations", mock.Anything).Return([]models.Location{}, nil).Once()
	s.client.On("ListMovements", mock.Anything, 2, 10).
		Return(paging.State[models.Movement]{Items: []models.Movement{}, CurrentPage: 2, TotalPages: 3}, nil).
		Once()

	p, err := s.svc.MovementPage(context.Background(), 5, 3)
	s.Require().NoError(err)
	s.Require().Equal(2, p.CurrentPage)
	s.Require().Equal(3, p.Page)
	s.client.AssertExpectations(s.T())
}

func (s *ServiceSuite) TestMovementPage_OutOfRangeReRequestsOnce() {
	s.client.On("ListLocations", mock.Anything).Return([]models.Location{central}, nil).Once()
	s.client.On("ListMovements", mock.Anything, 4, 10).
		Return(paging.State[models.Movement]{Items: []models.Movement{}, CurrentPage: 2, TotalPages: 3}, nil).
		Once()
	s.client.On("ListMovements", mock.Anything, 2, 10).
		Return(paging.State[models.Movement]{
			Items:       []models.Movement{{ID: "9", Origin: models.RefByID("A1")}},
			CurrentPage: 2,
			TotalPages:  3,
		}, nil).
		Once()

	p, err := s.svc.MovementPage(context.Background(), 5, paging.UnknownTotal)
	s.Require().NoError(err)
	s.Require().Len(p.Items, 1)
	s.Require().Equal("Central", p.Items[0].Origin.Name)
	s.Require().Equal(2, p.CurrentPage)
	s.Require().Equal(3, p.Page)
	s.client.AssertNumberOfCalls(s.T(), "ListMovements", 2)
}

func (s *ServiceSuite) TestMovementPage_EmptyCollection() {
	s.client.On("ListLocations", mock.Anything).Return([]models.Location{}, nil).Once()
	s.client.On("ListMovements", mock.Anything, 0, 10).
		Return(paging.Empty[models.Movement](), nil).
		Once()

	p, err := s.svc.MovementPage(context.Background(), 1, paging.UnknownTotal)
	s.Require().NoError(err)
	s.Require().NotNil(p.Items)
	s.Require().Empty(p.Items)
	s.Require().Equal(0, p.CurrentPage)
	s.Require().Equal(0, p.TotalPages)
	s.client.AssertNumberOfCalls(s.T(), "ListMovements", 1)
}

func (s *ServiceSuite) TestMovementPage_FailureOfEitherRequest() {
	boom := errors.New("connection reset")
	s.client.On("ListLocations", mock.Anything).Return(nil, boom).Maybe()
	s.client.On("ListMovements", mock.Anything, 0, 10).Return(paging.Empty[models.Movement](), nil).Maybe()

	_, err := s.svc.MovementPage(context.Background(), 1, paging.UnknownTotal)
	s.Require().ErrorIs(err, boom)
	s.Require().Equal(fetcher.DefaultErrorMessage, fetcher.Message(err))
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}
