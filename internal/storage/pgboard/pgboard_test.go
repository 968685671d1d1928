package pgboard

import (
	"context"
	"testing"
	"time"

	"github.com/BearBump/FlightBoard/internal/models"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "admin",
			"POSTGRES_PASSWORD": "admin",
			"POSTGRES_DB":       "flightboard_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := "postgres://admin:admin@" + host + ":" + port.Port() + "/flightboard_test?sslmode=disable"
	var st *Storage
	// the port opens before postgres accepts connections on the first start
	require.Eventually(t, func() bool {
		st, err = New(dsn)
		return err == nil
	}, 30*time.Second, 500*time.Millisecond)
	t.Cleanup(st.Close)
	return st
}

func TestPGBoard_HistoryFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("needs docker")
	}
	st := newTestStorage(t)
	ctx := context.Background()
	require.NoError(t, st.Ping(ctx))

	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	n, err := st.ApplyBoardUpdate(ctx, BoardUpdate{
		ViewKey:   "board:1",
		View:      "board",
		CheckedAt: t0,
		Digest:    "d1",
		Movements: []Observation{
			{MovementID: "7", Number: "FB7", OriginID: "1", DestinationID: "2", State: "SCHEDULED", Category: "primary"},
			{MovementID: "8", Number: "FB8", State: "ON_TIME", Category: "primary"},
			{MovementID: "", State: "SKIPPED"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	// unchanged state records nothing
	n, err = st.ApplyBoardUpdate(ctx, BoardUpdate{
		ViewKey:   "board:1",
		View:      "board",
		CheckedAt: t0.Add(time.Minute),
		Movements: []Observation{{MovementID: "7", Number: "FB7", State: "SCHEDULED", Category: "primary"}},
	})
	require.NoError(t, err)
	require.Equal(t, 0, n)

	n, err = st.ApplyBoardUpdate(ctx, BoardUpdate{
		ViewKey:   "movements:0",
		View:      "movements",
		CheckedAt: t0.Add(2 * time.Minute),
		Movements: []Observation{{MovementID: "7", Number: "FB7", State: "DELAYED", Category: "warning"}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	hist, err := st.ListMovementHistory(ctx, "7", 10, 0)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	require.Equal(t, "DELAYED", hist[0].State)
	require.NotNil(t, hist[0].PrevState)
	require.Equal(t, "SCHEDULED", *hist[0].PrevState)
	require.Equal(t, "movements:0", hist[0].ViewKey)
	require.Nil(t, hist[1].PrevState)
	require.Equal(t, models.ID("7"), hist[1].MovementID)

	empty, err := st.ListMovementHistory(ctx, "nope", 10, 0)
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)

	msg := "upstream http 502"
	_, err = st.ApplyBoardUpdate(ctx, BoardUpdate{ViewKey: "board:1", View: "board", CheckedAt: t0.Add(3 * time.Minute), Error: &msg})
	require.NoError(t, err)
	_, err = st.ApplyBoardUpdate(ctx, BoardUpdate{ViewKey: "board:1", View: "board", CheckedAt: t0.Add(4 * time.Minute), Error: &msg})
	require.NoError(t, err)

	checks, err := st.ListViewChecks(ctx)
	require.NoError(t, err)
	require.Len(t, checks, 2)
	require.Equal(t, "board:1", checks[0].Key)
	require.Equal(t, 2, checks[0].CheckFailCount)
	require.Equal(t, msg, *checks[0].LastError)
	require.Equal(t, "movements:0", checks[1].Key)
	require.Equal(t, 0, checks[1].CheckFailCount)
	require.Equal(t, 1, checks[1].Movements)
}
