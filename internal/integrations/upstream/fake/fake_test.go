package fake

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BearBump/FlightBoard/internal/integrations/upstream"
	"github.com/stretchr/testify/require"
)

func TestFakeClient_Locations(t *testing.T) {
	c := New()
	locs, err := c.ListLocations(context.Background())
	require.NoError(t, err)
	require.Len(t, locs, 5)

	l, err := c.GetLocation(context.Background(), "2")
	require.NoError(t, err)
	require.Equal(t, "LED", l.Code)

	_, err = c.GetLocation(context.Background(), "nope")
	var apiErr *upstream.APIError
	require.True(t, errors.As(err, &apiErr))
	require.True(t, apiErr.NotFound())
}

func TestFakeClient_Board(t *testing.T) {
	c := NewAt(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), 20)
	ctx := context.Background()

	deps, err := c.ListDepartures(ctx, "1")
	require.NoError(t, err)
	require.NotEmpty(t, deps)
	for _, m := range deps {
		require.Equal(t, "1", string(m.Origin.Key()))
		require.Nil(t, m.Origin.Object)
		require.NotEqual(t, m.Origin.Key(), m.Destination.Key())
		require.NotEmpty(t, m.State)
	}

	arrs, err := c.ListArrivals(ctx, "1")
	require.NoError(t, err)
	require.NotEmpty(t, arrs)

	_, err = c.ListDepartures(ctx, "missing")
	require.Error(t, err)
}

func TestFakeClient_Movements(t *testing.T) {
	c := NewAt(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), 25)
	ctx := context.Background()

	st, err := c.ListMovements(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, st.Items, 10)
	require.Equal(t, 3, st.TotalPages)

	st, err = c.ListMovements(ctx, 2, 10)
	require.NoError(t, err)
	require.Len(t, st.Items, 5)
	require.Equal(t, 2, st.CurrentPage)

	st, err = c.ListMovements(ctx, 7, 10)
	require.NoError(t, err)
	require.Empty(t, st.Items)
	require.Equal(t, 3, st.TotalPages)
}

func TestFakeClient_Deterministic(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	a, _ := NewAt(base, 10).ListMovements(context.Background(), 0, 10)
	b, _ := NewAt(base, 10).ListMovements(context.Background(), 0, 10)
	require.Equal(t, a, b)
}

func TestFakeClient_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().ListLocations(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
