package journey

import "irailjourneys/internal/domain"

type scanState int

const (
	seeking scanState = iota
	boarded
)

type scanResult struct {
	boarded bool
	arrived bool
	elided  int
}

// scanLeg walks a vehicle's stops and returns the single connection between
// the leg's boarding and alighting stops. Intermediate stops are elided.
//
// The arrival match is checked before the departure match, so a leg whose
// declared stops are equal yields nothing. A vehicle that never calls at the
// departure stop, or never reaches the arrival stop after boarding, also
// yields nothing.
func scanLeg(leg domain.Leg, schedule *domain.VehicleSchedule) (*domain.Connection, scanResult) {
	var (
		state    = seeking
		result   scanResult
		fromStop domain.StopID
		fromTime domain.Timestamp
		intermed int
	)

	for _, stop := range schedule.Stops {
		switch {
		case stop.StationID == leg.ArrivalStop:
			result.arrived = true
			if state != boarded {
				return nil, result
			}
			result.elided = intermed
			return &domain.Connection{
				DepartureTime: fromTime,
				ArrivalTime:   stop.ScheduledArrival,
				DepartureStop: fromStop,
				ArrivalStop:   stop.StationID,
				Vehicle:       domain.VehicleRef(schedule.Designation),
			}, result

		case stop.StationID == leg.DepartureStop:
			state = boarded
			result.boarded = true
			fromStop = stop.StationID
			fromTime = stop.ScheduledDeparture
			intermed = 0

		case state == boarded:
			intermed++
		}
	}

	result.elided = intermed
	return nil, result
}
