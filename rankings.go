package transitdash

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/openmetro/transitdash/model"
)

// Rankings show this many entries.
const topN = 8

type RankedRoute struct {
	RouteID   string `json:"route_id"`
	ShortName string `json:"short_name"`
	Mode      string `json:"mode"`
	NumVisits int    `json:"num_visits"`
}

type RankedStop struct {
	StopID    string `json:"stop_id"`
	Name      string `json:"name"`
	Mode      string `json:"mode"`
	NumVisits int    `json:"num_visits"`
}

// One hour of the sample day's active-trip profile.
type HourBucket struct {
	Hour        int `json:"hour"`
	ActiveTrips int `json:"active_trips"`
}

// TopRoutes ranks routes by their total stop_time count across the
// full feed, every visit counted, and returns the top entries.
// Candidates are collected in feed route order and sorted stably, so
// ties keep that order and the ranking is reproducible.
func TopRoutes(snap *Snapshot) []RankedRoute {
	counts := map[string]int{}
	for _, st := range snap.StopTimes() {
		if trip := snap.Trip(st.TripID); trip != nil {
			counts[trip.RouteID]++
		}
	}

	ranked := []RankedRoute{}
	for _, route := range snap.Routes() {
		if counts[route.ID] == 0 {
			continue
		}
		ranked = append(ranked, RankedRoute{
			RouteID:   route.ID,
			ShortName: routeDisplayName(route),
			Mode:      route.Type.Name(),
			NumVisits: counts[route.ID],
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].NumVisits > ranked[j].NumVisits
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	logrus.WithField("routes", len(ranked)).Debug("ranked busiest routes")
	return ranked
}

// TopStops ranks stops by their total stop_time count across the full
// feed. Same stable ordering contract as TopRoutes, over feed stop
// order. The mode shown is the stop's dominant mode; stops missing
// from the modes map display the unknown sentinel.
func TopStops(snap *Snapshot, modes map[string]model.RouteType) []RankedStop {
	counts := map[string]int{}
	for _, st := range snap.StopTimes() {
		counts[st.StopID]++
	}

	ranked := []RankedStop{}
	for _, stop := range snap.Stops() {
		if counts[stop.ID] == 0 {
			continue
		}

		mode := model.UnknownModeName
		if m, found := modes[stop.ID]; found {
			mode = m.Name()
		}

		ranked = append(ranked, RankedStop{
			StopID:    stop.ID,
			Name:      stop.Name,
			Mode:      mode,
			NumVisits: counts[stop.ID],
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].NumVisits > ranked[j].NumVisits
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	logrus.WithField("stops", len(ranked)).Debug("ranked busiest stops")
	return ranked
}

// ActiveTripSeries buckets the sample day's trips by hour: a trip is
// active in every hour its span overlaps. The series runs from
// midnight through the last hour with any service, which can pass 24
// for feeds with after-midnight trips.
func ActiveTripSeries(tripStats []TripStat) []HourBucket {
	if len(tripStats) == 0 {
		return []HourBucket{}
	}

	maxHour := 0
	for _, ts := range tripStats {
		h := int(hhmmssToMinutes(ts.EndTime)) / 60
		if h > maxHour {
			maxHour = h
		}
	}

	series := make([]HourBucket, 0, maxHour+1)
	for h := 0; h <= maxHour; h++ {
		bucketStart := fmt.Sprintf("%02d0000", h)
		bucketEnd := fmt.Sprintf("%02d0000", h+1)

		active := 0
		for _, ts := range tripStats {
			if ts.StartTime < bucketEnd && ts.EndTime >= bucketStart {
				active++
			}
		}
		series = append(series, HourBucket{Hour: h, ActiveTrips: active})
	}

	logrus.WithField("hours", len(series)).Debug("built active trip series")
	return series
}
