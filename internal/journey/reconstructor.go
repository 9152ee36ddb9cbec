package journey

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"irailjourneys/internal/domain"
)

// ScheduleFetcher retrieves the full stop schedule of the vehicle running a trip
type ScheduleFetcher interface {
	Fetch(ctx context.Context, tripID string) (*domain.VehicleSchedule, error)
}

type Reconstructor struct {
	fetcher ScheduleFetcher
	workers int
	logger  *slog.Logger
}

// New creates a Reconstructor. With workers > 1 the vehicle schedules of one
// option's legs are fetched concurrently; legs are always scanned in order.
func New(fetcher ScheduleFetcher, workers int, logger *slog.Logger) *Reconstructor {
	if workers < 1 {
		workers = 1
	}
	return &Reconstructor{
		fetcher: fetcher,
		workers: workers,
		logger:  logger.With("component", "reconstructor"),
	}
}

// Reconstruct builds one Route per option. Any vehicle fetch failure aborts
// the whole journey with ErrIncompleteVehicleData and no Journey is returned.
func (r *Reconstructor) Reconstruct(ctx context.Context, query domain.Query, options []domain.JourneyOption) (*domain.Journey, error) {
	start := time.Now()

	routes := make([]domain.Route, 0, len(options))
	for i, option := range options {
		route, err := r.reconstructOption(ctx, option)
		if err != nil {
			return nil, fmt.Errorf("option %d: %w", i, err)
		}
		routes = append(routes, route)
	}

	r.logger.Debug("journey reconstructed",
		"departure_stop", query.DepartureStop,
		"arrival_stop", query.ArrivalStop,
		"routes", len(routes),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &domain.Journey{
		Query:  query,
		Routes: routes,
	}, nil
}

func (r *Reconstructor) reconstructOption(ctx context.Context, option domain.JourneyOption) (domain.Route, error) {
	schedules, err := r.fetchSchedules(ctx, option.Legs)
	if err != nil {
		return domain.Route{}, err
	}

	connections := make([]domain.Connection, 0, len(option.Legs))
	transfers := -1

	for i, leg := range option.Legs {
		conn, result := scanLeg(leg, schedules[i])
		if conn != nil {
			connections = append(connections, *conn)
		}

		r.logger.Debug("leg scanned",
			"trip_id", leg.TripID,
			"vehicle", schedules[i].Designation,
			"boarded", result.boarded,
			"arrived", result.arrived,
			"elided_stops", result.elided,
		)

		transfers++
	}

	return domain.Route{
		Connections: connections,
		Transfers:   max(transfers, 0),
	}, nil
}

// fetchSchedules returns the schedules indexed by leg position.
func (r *Reconstructor) fetchSchedules(ctx context.Context, legs []domain.Leg) ([]*domain.VehicleSchedule, error) {
	schedules := make([]*domain.VehicleSchedule, len(legs))

	if r.workers == 1 || len(legs) < 2 {
		for i, leg := range legs {
			schedule, err := r.fetcher.Fetch(ctx, leg.TripID)
			if err != nil {
				return nil, incomplete(leg.TripID, err)
			}
			schedules[i] = schedule
		}
		return schedules, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var errMu sync.Mutex
	var firstErr error
	sem := make(chan struct{}, r.workers)

	for i, leg := range legs {
		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			schedule, err := r.fetcher.Fetch(ctx, leg.TripID)
			if err != nil {
				errMu.Lock()
				if firstErr == nil {
					firstErr = incomplete(leg.TripID, err)
					cancel()
				}
				errMu.Unlock()
				return
			}
			schedules[i] = schedule
		}()
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, incomplete("", err)
	}
	return schedules, nil
}

func incomplete(tripID string, err error) error {
	return fmt.Errorf("%w: trip %s: %w", domain.ErrIncompleteVehicleData, tripID, err)
}
