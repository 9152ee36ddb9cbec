package domain

// StopID is the opaque external identifier of a station (an iRail station URI)
type StopID string

// VehicleRef names the vehicle a connection is traveled on
type VehicleRef string

// QueryTypeConnections is the only query type that is reconstructed
const QueryTypeConnections = "connections"

// Query is the user's original routing request as logged by the API
type Query struct {
	DepartureStop StopID    `json:"departureStop"`
	ArrivalStop   StopID    `json:"arrivalStop"`
	QueryTime     Timestamp `json:"querytime"`
	UserAgent     string    `json:"user_agent"`
	QueryType     string    `json:"querytype"`
}

// Leg is one vehicle-bound segment of an abstract journey option
type Leg struct {
	TripID        string `json:"trip"`
	DepartureStop StopID `json:"departureStop"`
	ArrivalStop   StopID `json:"arrivalStop"`
}

// JourneyOption is an ordered chain of legs returned to the user
type JourneyOption struct {
	Legs []Leg `json:"legs"`
}

// Connection is one physically traveled segment on a single vehicle
type Connection struct {
	DepartureTime Timestamp  `json:"departureTime"`
	ArrivalTime   Timestamp  `json:"arrivalTime"`
	DepartureStop StopID     `json:"departureStop"`
	ArrivalStop   StopID     `json:"arrivalStop"`
	Vehicle       VehicleRef `json:"gtfs:vehicle"`
}

// Route is the reconstruction of one journey option
type Route struct {
	Connections []Connection `json:"connections"`
	Transfers   int          `json:"transfers"`
}

// Departure returns the stop the route starts at.
// The second return value is false for a route without connections.
func (r Route) Departure() (StopID, bool) {
	if len(r.Connections) == 0 {
		return "", false
	}
	return r.Connections[0].DepartureStop, true
}

// Arrival returns the stop the route ends at.
func (r Route) Arrival() (StopID, bool) {
	if len(r.Connections) == 0 {
		return "", false
	}
	return r.Connections[len(r.Connections)-1].ArrivalStop, true
}

// Journey is the reconstructed result of one logged query
type Journey struct {
	Query  Query   `json:"query"`
	Routes []Route `json:"routes"`
}

// EmptyRoutes counts routes that produced no connection at all
func (j *Journey) EmptyRoutes() int {
	n := 0
	for _, r := range j.Routes {
		if len(r.Connections) == 0 {
			n++
		}
	}
	return n
}
