package transitdash

import (
	"sort"
	"strconv"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/openmetro/transitdash/model"
	"github.com/openmetro/transitdash/storage"
)

// Per-trip statistics for one service day. Times are GTFS "HHMMSS"
// strings; distances in kilometers.
type TripStat struct {
	TripID      string
	RouteID     string
	DirectionID int8
	StartTime   string
	EndTime     string
	NumStops    int
	DistanceKm  float64
	DurationMin float64
	SpeedKmh    float64
}

// Per-route statistics for one service day.
type RouteStats struct {
	RouteID        string   `json:"route_id"`
	ShortName      string   `json:"short_name"`
	Mode           string   `json:"mode"`
	NumTrips       int      `json:"num_trips"`
	StartTime      string   `json:"start_time"`
	EndTime        string   `json:"end_time"`
	MeanHeadwayMin *float64 `json:"mean_headway_min,omitempty"`
	DistanceKm     float64  `json:"distance_km"`
	SpeedKmh       float64  `json:"speed_kmh"`
}

// Per-stop statistics for one service day.
type StopStats struct {
	StopID         string   `json:"stop_id"`
	Name           string   `json:"name"`
	NumTrips       int      `json:"num_trips"`
	NumRoutes      int      `json:"num_routes"`
	StartTime      string   `json:"start_time"`
	EndTime        string   `json:"end_time"`
	MeanHeadwayMin *float64 `json:"mean_headway_min,omitempty"`
}

func hhmmssToMinutes(s string) float64 {
	h, _ := strconv.Atoi(s[0:2])
	m, _ := strconv.Atoi(s[2:4])
	sec, _ := strconv.Atoi(s[4:6])
	return float64(h)*60 + float64(m) + float64(sec)/60
}

// Mean gap between consecutive times, in minutes. Undefined (nil)
// with fewer than 2 times; a single visit has no gap to average.
func meanHeadway(times []string) *float64 {
	if len(times) < 2 {
		return nil
	}

	sorted := make([]string, len(times))
	copy(sorted, times)
	sort.Strings(sorted)

	total := 0.0
	for i := 1; i < len(sorted); i++ {
		total += hhmmssToMinutes(sorted[i]) - hhmmssToMinutes(sorted[i-1])
	}
	mean := total / float64(len(sorted)-1)
	return &mean
}

// ComputeTripStats derives per-trip statistics for all trips active
// on the given date, in feed row order. Trips without stop_times are
// skipped.
//
// Distance is the haversine length of the trip's shape. Trips without
// a usable shape fall back to straight lines between consecutive
// stops, which underestimates but keeps the table complete.
func ComputeTripStats(snap *Snapshot, date string) ([]TripStat, error) {
	trips, err := snap.ActiveTrips(date)
	if err != nil {
		return nil, err
	}

	stats := []TripStat{}
	for _, t := range trips {
		sts := snap.StopTimesByTrip(t.ID)
		if len(sts) == 0 {
			continue
		}

		start := sts[0].Departure
		end := sts[len(sts)-1].Arrival

		distance := 0.0
		if path := snap.ShapePath(t.ShapeID); len(path) >= 2 {
			distance = storage.PathLength(path)
		} else {
			for i := 1; i < len(sts); i++ {
				a := snap.Stop(sts[i-1].StopID)
				b := snap.Stop(sts[i].StopID)
				distance += storage.HaversineDistance(a.Lat, a.Lon, b.Lat, b.Lon)
			}
		}

		duration := hhmmssToMinutes(end) - hhmmssToMinutes(start)
		if duration < 0 {
			duration = 0
		}

		speed := 0.0
		if duration > 0 {
			speed = distance / (duration / 60)
		}

		stats = append(stats, TripStat{
			TripID:      t.ID,
			RouteID:     t.RouteID,
			DirectionID: t.DirectionID,
			StartTime:   start,
			EndTime:     end,
			NumStops:    len(sts),
			DistanceKm:  distance,
			DurationMin: duration,
			SpeedKmh:    speed,
		})
	}

	return stats, nil
}

// ComputeRouteStats aggregates trip stats per route, in feed route
// order. Routes without an active trip on the sample day are absent
// from the table.
func ComputeRouteStats(snap *Snapshot, tripStats []TripStat) []RouteStats {
	byRoute := lo.GroupBy(tripStats, func(ts TripStat) string {
		return ts.RouteID
	})

	stats := []RouteStats{}
	for _, route := range snap.Routes() {
		group, found := byRoute[route.ID]
		if !found {
			continue
		}

		start := group[0].StartTime
		end := group[0].EndTime
		starts := make([]string, 0, len(group))
		totalDistance := 0.0
		totalDuration := 0.0
		for _, ts := range group {
			if ts.StartTime < start {
				start = ts.StartTime
			}
			if ts.EndTime > end {
				end = ts.EndTime
			}
			starts = append(starts, ts.StartTime)
			totalDistance += ts.DistanceKm
			totalDuration += ts.DurationMin
		}

		speed := 0.0
		if totalDuration > 0 {
			speed = totalDistance / (totalDuration / 60)
		}

		stats = append(stats, RouteStats{
			RouteID:        route.ID,
			ShortName:      routeDisplayName(route),
			Mode:           route.Type.Name(),
			NumTrips:       len(group),
			StartTime:      start,
			EndTime:        end,
			MeanHeadwayMin: meanHeadway(starts),
			DistanceKm:     totalDistance,
			SpeedKmh:       speed,
		})
	}

	logrus.WithField("routes", len(stats)).Debug("computed route stats")
	return stats
}

// ComputeStopStats aggregates the sample day's visits per stop, in
// feed stop order. Stops never visited that day are absent from the
// table.
func ComputeStopStats(snap *Snapshot, date string) ([]StopStats, error) {
	trips, err := snap.ActiveTrips(date)
	if err != nil {
		return nil, err
	}

	type visitAgg struct {
		times  []string
		routes map[string]bool
	}

	visits := map[string]*visitAgg{}
	for _, t := range trips {
		for _, st := range snap.StopTimesByTrip(t.ID) {
			agg, found := visits[st.StopID]
			if !found {
				agg = &visitAgg{routes: map[string]bool{}}
				visits[st.StopID] = agg
			}
			agg.times = append(agg.times, st.Departure)
			agg.routes[t.RouteID] = true
		}
	}

	stats := []StopStats{}
	for _, stop := range snap.Stops() {
		agg, found := visits[stop.ID]
		if !found {
			continue
		}

		start := lo.Min(agg.times)
		end := lo.Max(agg.times)

		stats = append(stats, StopStats{
			StopID:         stop.ID,
			Name:           stop.Name,
			NumTrips:       len(agg.times),
			NumRoutes:      len(agg.routes),
			StartTime:      start,
			EndTime:        end,
			MeanHeadwayMin: meanHeadway(agg.times),
		})
	}

	logrus.WithField("stops", len(stats)).Debug("computed stop stats")
	return stats, nil
}

func routeDisplayName(route *model.Route) string {
	if route.ShortName != "" {
		return route.ShortName
	}
	if route.LongName != "" {
		return route.LongName
	}
	return route.ID
}
