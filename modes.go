package transitdash

import (
	"github.com/sirupsen/logrus"

	"github.com/openmetro/transitdash/model"
)

// AssignDominantModes determines each stop's dominant mode: the most
// common route type among all stop_time associations across the full
// feed, every visit counted. Ties go to the mode seen first in feed
// stop_times order. Stops with no associations are absent from the
// map; display layers fall back to model.UnknownModeName for those.
func AssignDominantModes(snap *Snapshot) map[string]model.RouteType {
	type modeAgg struct {
		counts map[model.RouteType]int
		order  []model.RouteType
	}

	aggs := map[string]*modeAgg{}
	for _, st := range snap.StopTimes() {
		trip := snap.Trip(st.TripID)
		if trip == nil {
			continue
		}
		route := snap.Route(trip.RouteID)
		if route == nil {
			continue
		}

		agg, found := aggs[st.StopID]
		if !found {
			agg = &modeAgg{counts: map[model.RouteType]int{}}
			aggs[st.StopID] = agg
		}
		if agg.counts[route.Type] == 0 {
			agg.order = append(agg.order, route.Type)
		}
		agg.counts[route.Type]++
	}

	modes := map[string]model.RouteType{}
	for stopID, agg := range aggs {
		best := agg.order[0]
		for _, mode := range agg.order[1:] {
			if agg.counts[mode] > agg.counts[best] {
				best = mode
			}
		}
		modes[stopID] = best
	}

	logrus.WithField("stops", len(modes)).Debug("assigned dominant stop modes")
	return modes
}
