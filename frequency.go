package transitdash

import (
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/openmetro/transitdash/model"
)

// AM peak window, inclusive on both ends.
const (
	amPeakStart = "070000"
	amPeakEnd   = "090000"
)

// ClassifyFrequencies assigns each route a frequency tier from its
// AM-peak outbound departures (direction 0, trips starting between
// 07:00 and 09:00 on the sample day). The implied headway is the
// window length over the trip count; routes with no qualifying trips
// are absent from the map and should be treated as TierUnknown.
func ClassifyFrequencies(tripStats []TripStat) map[string]model.FrequencyTier {
	peak := lo.Filter(tripStats, func(ts TripStat, _ int) bool {
		return ts.DirectionID == 0 &&
			ts.StartTime >= amPeakStart &&
			ts.StartTime <= amPeakEnd
	})

	counts := lo.CountValuesBy(peak, func(ts TripStat) string {
		return ts.RouteID
	})

	tiers := map[string]model.FrequencyTier{}
	for routeID, count := range counts {
		headway := 120.0 / float64(max(1, count))
		tiers[routeID] = model.ClassifyHeadway(headway)
	}

	logrus.WithFields(logrus.Fields{
		"peak_trips": len(peak),
		"routes":     len(tiers),
	}).Debug("classified route frequencies")

	return tiers
}
