package domain

import "errors"

var (
	// ErrInvalidJSON marks a log line that is not valid JSON; the line is skipped
	ErrInvalidJSON = errors.New("invalid json")

	// ErrMalformedQuery marks a log record with an unparseable query time or a missing required field
	ErrMalformedQuery = errors.New("malformed query")

	// ErrIncompleteVehicleData aborts a journey when any vehicle schedule could not be fetched
	ErrIncompleteVehicleData = errors.New("incomplete vehicle data")

	// ErrUpstreamUnavailable marks a vehicle request that failed in transport, timed out, or got a non-2xx status
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrMalformedResponse marks a vehicle response that could not be decoded into a schedule
	ErrMalformedResponse = errors.New("malformed response")
)
