package fake

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/BearBump/FlightBoard/internal/integrations/upstream"
	"github.com/BearBump/FlightBoard/internal/models"
	"github.com/BearBump/FlightBoard/internal/paging"
)

// FakeClient serves a fixed set of airports and a deterministic flight schedule.
// Departures reference the origin by id only so callers exercise reference resolution.
type FakeClient struct {
	locations []models.Location
	movements []models.Movement
}

var defaultLocations = []models.Location{
	{ID: "1", Name: "Sheremetyevo", Code: "SVO", City: "Moscow", Country: "Russia"},
	{ID: "2", Name: "Pulkovo", Code: "LED", City: "Saint Petersburg", Country: "Russia"},
	{ID: "3", Name: "Koltsovo", Code: "SVX", City: "Yekaterinburg", Country: "Russia"},
	{ID: "4", Name: "Tolmachevo", Code: "OVB", City: "Novosibirsk", Country: "Russia"},
	{ID: "5", Name: "Kazan", Code: "KZN", City: "Kazan", Country: "Russia"},
}

var states = []string{
	models.StateScheduled,
	models.StateOnTime,
	models.StateBoarding,
	models.StateDelayed,
	models.StateDeparted,
	models.StateArrived,
	models.StateCancelled,
}

// New builds the schedule relative to the start of the current UTC day.
func New() *FakeClient {
	day := time.Now().UTC().Truncate(24 * time.Hour)
	return NewAt(day, 48)
}

// NewAt builds n flights starting at base, one every 30 minutes.
func NewAt(base time.Time, n int) *FakeClient {
	f := &FakeClient{locations: append([]models.Location(nil), defaultLocations...)}
	for i := 0; i < n; i++ {
		from := f.locations[i%len(f.locations)]
		to := f.locations[(i+1+i/len(f.locations))%len(f.locations)]
		if to.ID == from.ID {
			to = f.locations[(i+2)%len(f.locations)]
		}
		number := fmt.Sprintf("FB%03d", 100+i)
		dep := base.Add(time.Duration(i) * 30 * time.Minute)
		f.movements = append(f.movements, models.Movement{
			ID:            models.ID(fmt.Sprintf("%d", i+1)),
			Number:        number,
			Origin:        models.RefByID(from.ID),
			Destination:   models.RefTo(models.Location{ID: to.ID}),
			DepartureTime: models.Timestamp{Time: dep},
			ArrivalTime:   models.Timestamp{Time: dep.Add(time.Duration(90+15*(i%4)) * time.Minute)},
			State:         pickState(number),
		})
	}
	return f
}

func (f *FakeClient) ListLocations(ctx context.Context) ([]models.Location, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]models.Location(nil), f.locations...), nil
}

func (f *FakeClient) GetLocation(ctx context.Context, id models.ID) (models.Location, error) {
	if err := ctx.Err(); err != nil {
		return models.Location{}, err
	}
	for _, l := range f.locations {
		if l.ID == id {
			return l, nil
		}
	}
	return models.Location{}, &upstream.APIError{StatusCode: 404, Message: "Airport not found"}
}

func (f *FakeClient) ListDepartures(ctx context.Context, locationID models.ID) ([]models.Movement, error) {
	if _, err := f.GetLocation(ctx, locationID); err != nil {
		return nil, err
	}
	out := []models.Movement{}
	for _, m := range f.movements {
		if m.Origin.Key() == locationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *FakeClient) ListArrivals(ctx context.Context, locationID models.ID) ([]models.Movement, error) {
	if _, err := f.GetLocation(ctx, locationID); err != nil {
		return nil, err
	}
	out := []models.Movement{}
	for _, m := range f.movements {
		if m.Destination.Key() == locationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *FakeClient) ListMovements(ctx context.Context, page, size int) (paging.State[models.Movement], error) {
	if err := ctx.Err(); err != nil {
		return paging.State[models.Movement]{}, err
	}
	if size <= 0 {
		size = 20
	}
	total := (len(f.movements) + size - 1) / size
	st := paging.State[models.Movement]{Items: []models.Movement{}, CurrentPage: page, TotalPages: total}
	if page < 0 || page >= total {
		// out-of-range pages come back empty with the real page count, like the remote service
		st.CurrentPage = paging.Clamp(page, total)
		return st, nil
	}
	end := min((page+1)*size, len(f.movements))
	st.Items = append(st.Items, f.movements[page*size:end]...)
	return st, nil
}

// pickState derives a stable raw state from the flight number.
func pickState(number string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(number))
	return states[h.Sum32()%uint32(len(states))]
}

var _ upstream.Client = (*FakeClient)(nil)
