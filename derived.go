package transitdash

import (
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/openmetro/transitdash/model"
)

// Feed-level headline numbers for the dashboard's overview panel.
type Overview struct {
	FeedURL           string         `json:"feed_url,omitempty"`
	FeedSHA256        string         `json:"feed_sha256"`
	RetrievedAt       time.Time      `json:"retrieved_at"`
	Timezone          string         `json:"timezone"`
	SampleDate        string         `json:"sample_date"`
	NumRoutes         int            `json:"num_routes"`
	NumStops          int            `json:"num_stops"`
	NumTrips          int            `json:"num_trips"`
	NumSampleTrips    int            `json:"num_sample_trips"`
	RoutesByMode      map[string]int `json:"routes_by_mode"`
	ServiceDistanceKm float64        `json:"service_distance_km"`
	ServiceHours      float64        `json:"service_hours"`
}

// Derived holds everything the dashboard serves, computed once per
// feed. All tables preserve feed row order except the rankings, which
// are sorted by count with feed order as the tie-break.
type Derived struct {
	SampleDate      string
	Overview        Overview
	TripStats       []TripStat
	RouteStats      []RouteStats
	StopStats       []StopStats
	Tiers           map[string]model.FrequencyTier
	Modes           map[string]model.RouteType
	RouteGeometries []RouteGeometry
	StopGeometries  []StopGeometry
	TopRoutes       []RankedRoute
	TopStops        []RankedStop
	TimeSeries      []HourBucket

	routeStatsByID map[string]*RouteStats
	stopStatsByID  map[string]*StopStats
}

// BuildDerived runs the full derivation pipeline against a snapshot.
// The result is read-only and safe to share across request handlers.
func BuildDerived(snap *Snapshot) (*Derived, error) {
	began := time.Now()

	date, err := snap.RepresentativeDate()
	if err != nil {
		return nil, err
	}

	tripStats, err := ComputeTripStats(snap, date)
	if err != nil {
		return nil, err
	}
	stopStats, err := ComputeStopStats(snap, date)
	if err != nil {
		return nil, err
	}

	d := &Derived{
		SampleDate: date,
		TripStats:  tripStats,
		RouteStats: ComputeRouteStats(snap, tripStats),
		StopStats:  stopStats,
		Tiers:      ClassifyFrequencies(tripStats),
		Modes:      AssignDominantModes(snap),
		TopRoutes:  TopRoutes(snap),
		TimeSeries: ActiveTripSeries(tripStats),
	}
	d.TopStops = TopStops(snap, d.Modes)
	d.RouteGeometries = BuildRouteGeometries(snap, d.Tiers)
	d.StopGeometries = BuildStopGeometries(snap, d.Modes)
	d.Overview = buildOverview(snap, d)

	d.routeStatsByID = map[string]*RouteStats{}
	for i := range d.RouteStats {
		d.routeStatsByID[d.RouteStats[i].RouteID] = &d.RouteStats[i]
	}
	d.stopStatsByID = map[string]*StopStats{}
	for i := range d.StopStats {
		d.stopStatsByID[d.StopStats[i].StopID] = &d.StopStats[i]
	}

	logrus.WithFields(logrus.Fields{
		"sample_date": date,
		"routes":      len(d.RouteStats),
		"stops":       len(d.StopStats),
		"duration":    time.Since(began),
	}).Info("derived dashboard data")

	return d, nil
}

func buildOverview(snap *Snapshot, d *Derived) Overview {
	routesByMode := lo.CountValuesBy(snap.Routes(), func(r *model.Route) string {
		return r.Type.Name()
	})

	distance := lo.SumBy(d.TripStats, func(ts TripStat) float64 {
		return ts.DistanceKm
	})
	hours := lo.SumBy(d.TripStats, func(ts TripStat) float64 {
		return ts.DurationMin
	}) / 60

	return Overview{
		FeedURL:           snap.Metadata.URL,
		FeedSHA256:        snap.Metadata.SHA256,
		RetrievedAt:       snap.Metadata.RetrievedAt,
		Timezone:          snap.Metadata.Timezone,
		SampleDate:        d.SampleDate,
		NumRoutes:         len(snap.Routes()),
		NumStops:          len(snap.Stops()),
		NumTrips:          len(snap.Trips()),
		NumSampleTrips:    len(d.TripStats),
		RoutesByMode:      routesByMode,
		ServiceDistanceKm: distance,
		ServiceHours:      hours,
	}
}

// RouteStatsByID looks up a single route's sample-day stats.
func (d *Derived) RouteStatsByID(routeID string) (*RouteStats, bool) {
	rs, found := d.routeStatsByID[routeID]
	return rs, found
}

// StopStatsByID looks up a single stop's sample-day stats.
func (d *Derived) StopStatsByID(stopID string) (*StopStats, bool) {
	ss, found := d.stopStatsByID[stopID]
	return ss, found
}

// Tier returns a route's frequency tier, TierUnknown when the route
// had no AM-peak outbound service.
func (d *Derived) Tier(routeID string) model.FrequencyTier {
	return d.Tiers[routeID]
}
