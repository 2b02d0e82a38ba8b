package transitdash_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openmetro/transitdash"
	"github.com/openmetro/transitdash/model"
)

func peakTrips(routeID string, n int, direction int8) []transitdash.TripStat {
	stats := []transitdash.TripStat{}
	for i := 0; i < n; i++ {
		stats = append(stats, transitdash.TripStat{
			TripID:      fmt.Sprintf("%s-%d", routeID, i),
			RouteID:     routeID,
			DirectionID: direction,
			StartTime:   fmt.Sprintf("%02d%02d00", 7+(i*10)/60, (i*10)%60),
			EndTime:     "120000",
		})
	}
	return stats
}

func TestClassifyFrequencies(t *testing.T) {
	for _, tc := range []struct {
		count int
		tier  model.FrequencyTier
	}{
		// 120/count: 120 and 40 are local, 30 connector, 15 and 12
		// frequent.
		{1, model.TierLocal},
		{3, model.TierLocal},
		{4, model.TierConnector},
		{8, model.TierFrequent},
		{10, model.TierFrequent},
	} {
		t.Run(fmt.Sprintf("count_%d", tc.count), func(t *testing.T) {
			tiers := transitdash.ClassifyFrequencies(peakTrips("R", tc.count, 0))
			assert.Equal(t, tc.tier, tiers["R"])
		})
	}
}

func TestClassifyFrequenciesIgnoresInbound(t *testing.T) {
	tiers := transitdash.ClassifyFrequencies(peakTrips("R", 8, 1))
	_, found := tiers["R"]
	assert.False(t, found)
	assert.Equal(t, model.TierUnknown, tiers["R"])
}

func TestClassifyFrequenciesWindowBounds(t *testing.T) {
	stats := []transitdash.TripStat{
		// Both window edges count, just outside does not.
		{TripID: "a", RouteID: "R", StartTime: "070000", EndTime: "080000"},
		{TripID: "b", RouteID: "R", StartTime: "090000", EndTime: "100000"},
		{TripID: "c", RouteID: "R", StartTime: "065959", EndTime: "080000"},
		{TripID: "d", RouteID: "R", StartTime: "090001", EndTime: "100000"},
	}

	tiers := transitdash.ClassifyFrequencies(stats)
	// 2 qualifying trips, headway 60, local tier.
	assert.Equal(t, model.TierLocal, tiers["R"])
}

func TestClassifyFrequenciesFixture(t *testing.T) {
	snap := buildTestSnapshot(t, "memory")

	tripStats, err := transitdash.ComputeTripStats(snap, "20200111")
	assert.NoError(t, err)

	tiers := transitdash.ClassifyFrequencies(tripStats)
	assert.Equal(t, model.TierFrequent, tiers["R1"])
	assert.Equal(t, model.TierLocal, tiers["R2"])
}
