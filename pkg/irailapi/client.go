package irailapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"irailjourneys/internal/domain"
)

const (
	DefaultBaseURL   = "https://api.irail.be/vehicle/?format=json&id="
	DefaultUserAgent = "irailjourneys/1.0"
)

type Options struct {
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 disables limiting
	RateBurst int
	UserAgent string
}

// Client fetches vehicle schedules from the iRail vehicle endpoint.
// Every call is a single round trip; nothing is cached or retried.
type Client struct {
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
	httpClient *http.Client
}

func New(baseURL string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &Client{
		baseURL:   baseURL,
		userAgent: opts.UserAgent,
		limiter:   limiter,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type apiResponse struct {
	Vehicle string   `json:"vehicle"`
	Stops   apiStops `json:"stops"`
}

type apiStops struct {
	Stop []apiStop `json:"stop"`
}

type apiStop struct {
	StationInfo            apiStationInfo `json:"stationinfo"`
	ScheduledArrivalTime   string         `json:"scheduledArrivalTime"`
	ScheduledDepartureTime string         `json:"scheduledDepartureTime"`
}

type apiStationInfo struct {
	ID string `json:"@id"`
}

func (c *Client) Fetch(ctx context.Context, tripID string) (*domain.VehicleSchedule, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %w", domain.ErrUpstreamUnavailable, err)
		}
	}

	reqURL := c.baseURL + url.QueryEscape(tripID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: executing request: %w", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status code: %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", domain.ErrMalformedResponse, err)
	}

	return toDomain(apiResp)
}

func toDomain(apiResp apiResponse) (*domain.VehicleSchedule, error) {
	if apiResp.Vehicle == "" {
		return nil, fmt.Errorf("%w: missing vehicle designation", domain.ErrMalformedResponse)
	}

	schedule := &domain.VehicleSchedule{
		Designation: apiResp.Vehicle,
		Stops:       make([]domain.StopEvent, 0, len(apiResp.Stops.Stop)),
	}

	for i, s := range apiResp.Stops.Stop {
		if s.StationInfo.ID == "" {
			return nil, fmt.Errorf("%w: stop %d has no station id", domain.ErrMalformedResponse, i)
		}
		arrival, err := domain.FromEpoch(s.ScheduledArrivalTime)
		if err != nil {
			return nil, fmt.Errorf("%w: stop %d arrival: %w", domain.ErrMalformedResponse, i, err)
		}
		departure, err := domain.FromEpoch(s.ScheduledDepartureTime)
		if err != nil {
			return nil, fmt.Errorf("%w: stop %d departure: %w", domain.ErrMalformedResponse, i, err)
		}
		schedule.Stops = append(schedule.Stops, domain.StopEvent{
			StationID:          domain.StopID(s.StationInfo.ID),
			ScheduledArrival:   arrival,
			ScheduledDeparture: departure,
		})
	}

	return schedule, nil
}
