package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestID_StringOrNumber(t *testing.T) {
	var v struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
		D ID `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"A1","b":42,"c":null,"d":[1]}`), &v))
	require.Equal(t, ID("A1"), v.A)
	require.Equal(t, ID("42"), v.B)
	require.Equal(t, ID(""), v.C)
	require.Equal(t, ID(""), v.D)
}

func TestLocationRef_Forms(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		absent  bool
		key     ID
		hasObj  bool
		objName string
	}{
		{name: "object", in: `{"id":"B2","name":"Metro"}`, key: "B2", hasObj: true, objName: "Metro"},
		{name: "id only object", in: `{"id":7}`, key: "7", hasObj: true},
		{name: "bare string", in: `"A1"`, key: "A1"},
		{name: "bare number", in: `12`, key: "12"},
		{name: "null", in: `null`, absent: true},
		{name: "array", in: `["x"]`, absent: true},
		{name: "bool", in: `true`, absent: true},
		{name: "wrongly typed field", in: `{"id":"X","name":5}`, key: "X", hasObj: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var r LocationRef
			require.NoError(t, json.Unmarshal([]byte(tc.in), &r))
			require.Equal(t, tc.absent, r.IsAbsent())
			require.Equal(t, tc.key, r.Key())
			require.Equal(t, tc.hasObj, r.Object != nil)
			if tc.hasObj {
				require.Equal(t, tc.objName, r.Object.Name)
			}
		})
	}
}

func TestLocationRef_TruncatedObjectIsAbsent(t *testing.T) {
	var r LocationRef
	require.NoError(t, r.UnmarshalJSON([]byte(`{"id":`)))
	require.True(t, r.IsAbsent())
}

func TestMovement_DecodeOriginalShape(t *testing.T) {
	raw := `{
  "id": 1,
  "flightNumber": "FB100",
  "departureAirport": "A1",
  "arrivalAirport": {"id": "B2", "name": "Metro", "code": "MTR"},
  "departureTime": "2025-03-01T10:15:00",
  "arrivalTime": "2025-03-01T12:40:00Z",
  "flightStatus": "DELAYED"
}`
	var m Movement
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	require.Equal(t, ID("1"), m.ID)
	require.Equal(t, "FB100", m.Number)
	require.Equal(t, ID("A1"), m.Origin.ID)
	require.Nil(t, m.Origin.Object)
	require.Equal(t, "Metro", m.Destination.Object.Name)
	require.Equal(t, time.Date(2025, 3, 1, 10, 15, 0, 0, time.UTC), m.DepartureTime.Time)
	require.Equal(t, time.Date(2025, 3, 1, 12, 40, 0, 0, time.UTC), m.ArrivalTime.Time)
	require.Equal(t, StateDelayed, m.State)
}

func TestMovement_IDFieldFallback(t *testing.T) {
	var m Movement
	require.NoError(t, json.Unmarshal([]byte(`{"id":"9","departureAirportId":3,"arrivalAirportId":"B2"}`), &m))
	require.Equal(t, ID("3"), m.Origin.Key())
	require.Equal(t, ID("B2"), m.Destination.Key())

	// the object form wins over the id field
	require.NoError(t, json.Unmarshal([]byte(`{"departureAirport":{"id":"X"},"departureAirportId":"Y"}`), &m))
	require.Equal(t, ID("X"), m.Origin.Key())
}

func TestMovement_WrongTypedFieldsAreZero(t *testing.T) {
	var m Movement
	require.NoError(t, json.Unmarshal([]byte(`{"id":4,"flightNumber":123,"departureAirport":"A1","flightStatus":3}`), &m))
	require.Equal(t, ID("4"), m.ID)
	require.Empty(t, m.Number)
	require.Empty(t, m.State)
	require.Equal(t, ID("A1"), m.Origin.Key())

	require.Error(t, json.Unmarshal([]byte(`"FB1"`), &m))
}

func TestLocation_WrongTypedFieldsAreZero(t *testing.T) {
	var l Location
	require.NoError(t, json.Unmarshal([]byte(`{"id":"A1","name":"Central","code":7,"city":["x"]}`), &l))
	require.Equal(t, Location{ID: "A1", Name: "Central"}, l)

	require.Error(t, json.Unmarshal([]byte(`[1]`), &l))
}

func TestTimestamp_BadValuesAreZero(t *testing.T) {
	var m Movement
	require.NoError(t, json.Unmarshal([]byte(`{"departureTime":"soon","arrivalTime":123}`), &m))
	require.True(t, m.DepartureTime.IsZero())
	require.True(t, m.ArrivalTime.IsZero())

	b, err := json.Marshal(m.DepartureTime)
	require.NoError(t, err)
	require.Equal(t, "null", string(b))
}

func TestLocationRef_MarshalRoundTrip(t *testing.T) {
	b, err := json.Marshal(RefByID("A1"))
	require.NoError(t, err)
	require.Equal(t, `"A1"`, string(b))

	b, err = json.Marshal(LocationRef{})
	require.NoError(t, err)
	require.Equal(t, "null", string(b))

	b, err = json.Marshal(RefTo(Location{ID: "B2", Name: "Metro"}))
	require.NoError(t, err)
	var back LocationRef
	require.NoError(t, json.Unmarshal(b, &back))
	require.Equal(t, "Metro", back.Object.Name)
}
