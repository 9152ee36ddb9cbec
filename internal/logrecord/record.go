package logrecord

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"irailjourneys/internal/domain"
)

var validate = validator.New()

// Record is one line of the iRail API query log
type Record struct {
	QueryTime string          `json:"querytime"`
	QueryType string          `json:"querytype"`
	UserAgent string          `json:"user_agent"`
	Body      json.RawMessage `json:"query"`

	body *rawQuery
}

type rawQuery struct {
	DepartureStop  string      `json:"departureStop" validate:"required"`
	ArrivalStop    string      `json:"arrivalStop" validate:"required"`
	JourneyOptions []rawOption `json:"journeyoptions" validate:"dive"`
}

type rawOption struct {
	Journeys []rawLeg `json:"journeys" validate:"dive"`
}

type rawLeg struct {
	Trip          string `json:"trip" validate:"required"`
	DepartureStop string `json:"departureStop" validate:"required"`
	ArrivalStop   string `json:"arrivalStop" validate:"required"`
}

// Parse decodes a raw log line. Only JSON syntax and the envelope fields are
// checked here; the query body is decoded and validated when the query is
// extracted, and only for records that are reconstructed.
func Parse(line []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(line, &rec); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidJSON, err)
	}
	return &rec, nil
}

func (r *Record) IsConnections() bool {
	return r.QueryType == domain.QueryTypeConnections
}

// Query converts the record into a typed query. A body that does not fit the
// connections schema, an unparseable query time or a missing stop or trip
// identifier fails with ErrMalformedQuery.
func (r *Record) Query() (domain.Query, error) {
	body, err := r.decodeBody()
	if err != nil {
		return domain.Query{}, err
	}
	if err := validate.Struct(body); err != nil {
		return domain.Query{}, fmt.Errorf("%w: %w", domain.ErrMalformedQuery, err)
	}

	queryTime, err := time.Parse(time.RFC3339, r.QueryTime)
	if err != nil {
		return domain.Query{}, fmt.Errorf("%w: querytime: %w", domain.ErrMalformedQuery, err)
	}

	return domain.Query{
		DepartureStop: domain.StopID(body.DepartureStop),
		ArrivalStop:   domain.StopID(body.ArrivalStop),
		QueryTime:     domain.NewTimestamp(queryTime),
		UserAgent:     r.UserAgent,
		QueryType:     r.QueryType,
	}, nil
}

// Options returns the journey options the API answered with, in order. A body
// that does not decode yields no options.
func (r *Record) Options() []domain.JourneyOption {
	body, err := r.decodeBody()
	if err != nil {
		return nil
	}
	options := make([]domain.JourneyOption, 0, len(body.JourneyOptions))
	for _, o := range body.JourneyOptions {
		legs := make([]domain.Leg, 0, len(o.Journeys))
		for _, l := range o.Journeys {
			legs = append(legs, domain.Leg{
				TripID:        l.Trip,
				DepartureStop: domain.StopID(l.DepartureStop),
				ArrivalStop:   domain.StopID(l.ArrivalStop),
			})
		}
		options = append(options, domain.JourneyOption{Legs: legs})
	}
	return options
}

func (r *Record) decodeBody() (*rawQuery, error) {
	if r.body != nil {
		return r.body, nil
	}
	if len(r.Body) == 0 {
		return nil, fmt.Errorf("%w: missing query body", domain.ErrMalformedQuery)
	}
	var body rawQuery
	if err := json.Unmarshal(r.Body, &body); err != nil {
		return nil, fmt.Errorf("%w: query body: %w", domain.ErrMalformedQuery, err)
	}
	r.body = &body
	return r.body, nil
}
