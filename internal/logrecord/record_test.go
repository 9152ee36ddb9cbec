package logrecord

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"irailjourneys/internal/domain"
)

const connectionsLine = `{"querytime":"2019-11-01T08:15:30+01:00","querytype":"connections","user_agent":"RailerApp/1.0","query":{"language":"nl","departureStop":"http://irail.be/stations/NMBS/008892007","arrivalStop":"http://irail.be/stations/NMBS/008821006","journeyoptions":[{"journeys":[{"trip":"IC1832","departureStop":"http://irail.be/stations/NMBS/008892007","arrivalStop":"http://irail.be/stations/NMBS/008813003"},{"trip":"IC2112","departureStop":"http://irail.be/stations/NMBS/008813003","arrivalStop":"http://irail.be/stations/NMBS/008821006"}]},{"journeys":[{"trip":"IC1533","departureStop":"http://irail.be/stations/NMBS/008892007","arrivalStop":"http://irail.be/stations/NMBS/008821006"}]}]}}`

func TestParse_Connections(t *testing.T) {
	rec, err := Parse([]byte(connectionsLine))
	require.NoError(t, err)
	assert.True(t, rec.IsConnections())

	query, err := rec.Query()
	require.NoError(t, err)
	assert.Equal(t, domain.StopID("http://irail.be/stations/NMBS/008892007"), query.DepartureStop)
	assert.Equal(t, domain.StopID("http://irail.be/stations/NMBS/008821006"), query.ArrivalStop)
	assert.Equal(t, "RailerApp/1.0", query.UserAgent)
	assert.Equal(t, domain.QueryTypeConnections, query.QueryType)
	assert.Equal(t, time.Date(2019, 11, 1, 7, 15, 30, 0, time.UTC), query.QueryTime.Time)
	assert.Equal(t, "2019-11-01T07:15:30.00Z", query.QueryTime.String())

	options := rec.Options()
	require.Len(t, options, 2)
	require.Len(t, options[0].Legs, 2)
	assert.Equal(t, domain.Leg{
		TripID:        "IC2112",
		DepartureStop: "http://irail.be/stations/NMBS/008813003",
		ArrivalStop:   "http://irail.be/stations/NMBS/008821006",
	}, options[0].Legs[1])
	require.Len(t, options[1].Legs, 1)
	assert.Equal(t, "IC1533", options[1].Legs[0].TripID)
}

func TestParse_InvalidJSON(t *testing.T) {
	testCases := []string{
		`{"querytype":"connections"`,
		`not json at all`,
		``,
	}

	for _, line := range testCases {
		_, err := Parse([]byte(line))
		assert.ErrorIs(t, err, domain.ErrInvalidJSON, "line %q", line)
	}
}

func TestParse_OtherQueryTypesAreNotConnections(t *testing.T) {
	testCases := []struct {
		name string
		line string
	}{
		{
			name: "object body",
			line: `{"querytime":"2019-11-01T08:15:30+01:00","querytype":"stations","query":{"language":"en"}}`,
		},
		{
			name: "string body",
			line: `{"querytime":"2019-11-01T08:15:30+01:00","querytype":"stations","query":"all"}`,
		},
		{
			name: "object valued stop",
			line: `{"querytime":"2019-11-01T08:15:30+01:00","querytype":"liveboard","query":{"departureStop":{"@id":"x"}}}`,
		},
		{
			name: "no body",
			line: `{"querytime":"2019-11-01T08:15:30+01:00","querytype":"vehicle"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := Parse([]byte(tc.line))
			require.NoError(t, err)
			assert.False(t, rec.IsConnections())
		})
	}
}

func TestRecord_MalformedQuery(t *testing.T) {
	testCases := []struct {
		name string
		line string
	}{
		{
			name: "bad query time",
			line: `{"querytime":"yesterday","querytype":"connections","query":{"departureStop":"A","arrivalStop":"B"}}`,
		},
		{
			name: "missing query time",
			line: `{"querytype":"connections","query":{"departureStop":"A","arrivalStop":"B"}}`,
		},
		{
			name: "missing departure stop",
			line: `{"querytime":"2019-11-01T08:15:30+01:00","querytype":"connections","query":{"arrivalStop":"B"}}`,
		},
		{
			name: "object valued departure stop",
			line: `{"querytime":"2019-11-01T08:15:30+01:00","querytype":"connections","query":{"departureStop":{"@id":"A"},"arrivalStop":"B"}}`,
		},
		{
			name: "string body",
			line: `{"querytime":"2019-11-01T08:15:30+01:00","querytype":"connections","query":"A to B"}`,
		},
		{
			name: "missing body",
			line: `{"querytime":"2019-11-01T08:15:30+01:00","querytype":"connections"}`,
		},
		{
			name: "journeyoptions not a list",
			line: `{"querytime":"2019-11-01T08:15:30+01:00","querytype":"connections","query":{"departureStop":"A","arrivalStop":"B","journeyoptions":{"journeys":[]}}}`,
		},
		{
			name: "leg without trip",
			line: `{"querytime":"2019-11-01T08:15:30+01:00","querytype":"connections","query":{"departureStop":"A","arrivalStop":"B","journeyoptions":[{"journeys":[{"departureStop":"A","arrivalStop":"B"}]}]}}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := Parse([]byte(tc.line))
			require.NoError(t, err)

			assert.True(t, rec.IsConnections())

			_, err = rec.Query()
			assert.ErrorIs(t, err, domain.ErrMalformedQuery)
			assert.NotErrorIs(t, err, domain.ErrInvalidJSON)
		})
	}
}

func TestRecord_NoJourneyOptions(t *testing.T) {
	rec, err := Parse([]byte(`{"querytime":"2019-11-01T08:15:30+01:00","querytype":"connections","query":{"departureStop":"A","arrivalStop":"B"}}`))
	require.NoError(t, err)

	_, err = rec.Query()
	require.NoError(t, err)
	assert.Empty(t, rec.Options())
}

func TestRecord_OptionsWithUndecodableBody(t *testing.T) {
	rec, err := Parse([]byte(`{"querytime":"2019-11-01T08:15:30+01:00","querytype":"connections","query":[1,2]}`))
	require.NoError(t, err)
	assert.Nil(t, rec.Options())
}
