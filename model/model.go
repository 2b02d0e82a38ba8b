package model

import (
	"strconv"
	"time"
)

// Holds all external facing types and constants.

type LocationType int

const (
	LocationTypeStop LocationType = iota
	LocationTypeStation
	LocationTypeEntranceExit
	LocationTypeGenericNode
	LocationTypeBoardingArea
)

// RouteType holds a GTFS route_type code. The numeric values are
// fixed by the GTFS spec; note the gap between 7 and 11.
type RouteType int

const (
	RouteTypeLightRail  RouteType = 0
	RouteTypeSubway     RouteType = 1
	RouteTypeRail       RouteType = 2
	RouteTypeBus        RouteType = 3
	RouteTypeFerry      RouteType = 4
	RouteTypeCableTram  RouteType = 5
	RouteTypeAerialLift RouteType = 6
	RouteTypeFunicular  RouteType = 7
	RouteTypeTrolleybus RouteType = 11
	RouteTypeMonorail   RouteType = 12
)

var routeTypeNames = map[RouteType]string{
	RouteTypeLightRail:  "LightRail",
	RouteTypeSubway:     "Subway",
	RouteTypeRail:       "Rail",
	RouteTypeBus:        "Bus",
	RouteTypeFerry:      "Ferry",
	RouteTypeCableTram:  "CableTram",
	RouteTypeAerialLift: "AerialLift",
	RouteTypeFunicular:  "Funicular",
	RouteTypeTrolleybus: "Trolleybus",
	RouteTypeMonorail:   "Monorail",
}

var routeTypeColors = map[RouteType]string{
	RouteTypeLightRail:  "#9b59b6",
	RouteTypeSubway:     "#34495e",
	RouteTypeRail:       "#e74c3c",
	RouteTypeBus:        "#27ae60",
	RouteTypeFerry:      "#3498db",
	RouteTypeCableTram:  "#f1c40f",
	RouteTypeAerialLift: "#1abc9c",
	RouteTypeFunicular:  "#e67e22",
	RouteTypeTrolleybus: "#95a5a6",
	RouteTypeMonorail:   "#8e44ad",
}

// Display fallback for stops with no known mode.
const (
	UnknownModeName  = "Unknown"
	UnknownModeColor = "#95a5a6"
)

func (rt RouteType) Name() string {
	if name, ok := routeTypeNames[rt]; ok {
		return name
	}
	return UnknownModeName
}

func (rt RouteType) Color() string {
	if color, ok := routeTypeColors[rt]; ok {
		return color
	}
	return UnknownModeColor
}

// FrequencyTier classifies a route's AM-peak service density. The
// zero value is TierUnknown, assigned to routes with no AM-peak
// outbound trips at all.
type FrequencyTier int

const (
	TierUnknown FrequencyTier = iota
	TierFrequent
	TierConnector
	TierLocal
)

func (t FrequencyTier) String() string {
	switch t {
	case TierFrequent:
		return "frequent"
	case TierConnector:
		return "connector"
	case TierLocal:
		return "local"
	}
	return "unknown"
}

// ClassifyHeadway buckets an AM-peak headway (in minutes) into a
// tier. Callers are responsible for tagging routes without any
// AM-peak trips as TierUnknown instead of calling this.
func ClassifyHeadway(headwayMin float64) FrequencyTier {
	if headwayMin <= 15 {
		return TierFrequent
	}
	if headwayMin <= 30 {
		return TierConnector
	}
	return TierLocal
}

type Agency struct {
	ID       string
	Name     string
	URL      string
	Timezone string
}

type Calendar struct {
	ServiceID string
	StartDate string
	EndDate   string
	Weekday   int8
}

type CalendarDate struct {
	ServiceID     string
	Date          string
	ExceptionType int8
}

type Stop struct {
	ID            string
	Code          string
	Name          string
	Desc          string
	Lat           float64
	Lon           float64
	LocationType  LocationType
	ParentStation string
}

type Trip struct {
	ID          string
	RouteID     string
	ServiceID   string
	Headsign    string
	ShortName   string
	DirectionID int8
	ShapeID     string
}

type Route struct {
	ID        string
	AgencyID  string
	ShortName string
	LongName  string
	Desc      string
	Type      RouteType
	Color     string
	TextColor string
}

type StopTime struct {
	TripID       string
	StopID       string
	StopSequence uint32
	Arrival      string
	Departure    string
}

func (st *StopTime) ArrivalTime() time.Duration {
	h, _ := strconv.Atoi(st.Arrival[0:2])
	m, _ := strconv.Atoi(st.Arrival[2:4])
	s, _ := strconv.Atoi(st.Arrival[4:6])
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
}

func (st *StopTime) DepartureTime() time.Duration {
	h, _ := strconv.Atoi(st.Departure[0:2])
	m, _ := strconv.Atoi(st.Departure[2:4])
	s, _ := strconv.Atoi(st.Departure[4:6])
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
}

// A single point along a shape, as read from shapes.txt.
type ShapePoint struct {
	ShapeID  string
	Lat      float64
	Lon      float64
	Sequence uint32
}

// A geographic coordinate. Used for route paths and stop locations.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}
