package transitdash_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmetro/transitdash"
	"github.com/openmetro/transitdash/storage"
)

func TestComputeTripStats(t *testing.T) {
	snap := buildTestSnapshot(t, "memory")

	stats, err := transitdash.ComputeTripStats(snap, "20200111")
	require.NoError(t, err)
	require.Len(t, stats, 10)

	// Shape length of sh1: one segment along a meridian.
	shapeKm := storage.HaversineDistance(40.0, -74.0, 40.05, -74.0)

	t1 := stats[0]
	assert.Equal(t, "t1", t1.TripID)
	assert.Equal(t, "R1", t1.RouteID)
	assert.Equal(t, int8(0), t1.DirectionID)
	assert.Equal(t, "070000", t1.StartTime)
	assert.Equal(t, "071000", t1.EndTime)
	assert.Equal(t, 2, t1.NumStops)
	assert.InDelta(t, shapeKm, t1.DistanceKm, 0.001)
	assert.InDelta(t, 10.0, t1.DurationMin, 0.001)
	assert.InDelta(t, shapeKm*6, t1.SpeedKmh, 0.01)

	// u1 has no shape, so distance falls back to straight lines
	// between its stops.
	u1 := stats[9]
	assert.Equal(t, "u1", u1.TripID)
	hopKm := storage.HaversineDistance(40.05, -74.0, 40.1, -74.0)
	assert.InDelta(t, hopKm, u1.DistanceKm, 0.001)
	assert.InDelta(t, 20.0, u1.DurationMin, 0.001)
}

func TestComputeRouteStats(t *testing.T) {
	snap := buildTestSnapshot(t, "memory")

	tripStats, err := transitdash.ComputeTripStats(snap, "20200111")
	require.NoError(t, err)

	stats := transitdash.ComputeRouteStats(snap, tripStats)
	require.Len(t, stats, 2)

	r1 := stats[0]
	assert.Equal(t, "R1", r1.RouteID)
	assert.Equal(t, "Subway", r1.Mode)
	assert.Equal(t, 9, r1.NumTrips)
	assert.Equal(t, "070000", r1.StartTime)
	assert.Equal(t, "085500", r1.EndTime)
	// Sorted starts 0700,0705,0715,0730,...,0845: 8 gaps totaling
	// 120 minutes, mean 15.
	require.NotNil(t, r1.MeanHeadwayMin)
	assert.InDelta(t, 15.0, *r1.MeanHeadwayMin, 0.001)

	// A single trip has no headway.
	r2 := stats[1]
	assert.Equal(t, "R2", r2.RouteID)
	assert.Equal(t, "Bus", r2.Mode)
	assert.Equal(t, 1, r2.NumTrips)
	assert.Nil(t, r2.MeanHeadwayMin)
}

func TestComputeStopStats(t *testing.T) {
	snap := buildTestSnapshot(t, "memory")

	stats, err := transitdash.ComputeStopStats(snap, "20200111")
	require.NoError(t, err)

	// S4 is never visited, so only three stops have stats.
	require.Len(t, stats, 3)
	assert.Equal(t, "S1", stats[0].StopID)
	assert.Equal(t, "S2", stats[1].StopID)
	assert.Equal(t, "S3", stats[2].StopID)

	s2 := stats[1]
	assert.Equal(t, 10, s2.NumTrips)
	assert.Equal(t, 2, s2.NumRoutes)
	assert.Equal(t, "070500", s2.StartTime)
	assert.Equal(t, "085500", s2.EndTime)
	require.NotNil(t, s2.MeanHeadwayMin)

	// S3 sees only u1's single visit.
	s3 := stats[2]
	assert.Equal(t, 1, s3.NumTrips)
	assert.Equal(t, 1, s3.NumRoutes)
	assert.Nil(t, s3.MeanHeadwayMin)
}
