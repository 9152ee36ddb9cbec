package domain

// StopEvent is a scheduled call of a vehicle at a station
type StopEvent struct {
	StationID          StopID
	ScheduledArrival   Timestamp
	ScheduledDeparture Timestamp
}

// VehicleSchedule is the full ordered stop list of one vehicle run.
// It is fetched per leg and never cached.
type VehicleSchedule struct {
	Designation string
	Stops       []StopEvent
}
