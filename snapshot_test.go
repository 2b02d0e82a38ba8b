package transitdash_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmetro/transitdash/testutil"
)

func TestSnapshotRepresentativeDate(t *testing.T) {
	snap := buildTestSnapshot(t, "memory")

	// Calendar starts Wednesday 2020-01-01. First full week begins
	// Monday 2020-01-06, so its Saturday is 2020-01-11.
	date, err := snap.RepresentativeDate()
	require.NoError(t, err)
	assert.Equal(t, "20200111", date)
}

func TestSnapshotRepresentativeDateShortCalendar(t *testing.T) {
	// The calendar ends before the first full week's Saturday, so
	// the sample day falls back to the calendar start.
	snap := testutil.BuildSnapshot(t, "memory", map[string][]string{
		"calendar.txt": {
			"service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date",
			"all,1,1,1,1,1,1,1,20200101,20200103",
		},
	})

	date, err := snap.RepresentativeDate()
	require.NoError(t, err)
	assert.Equal(t, "20200101", date)
}

func TestSnapshotActiveTrips(t *testing.T) {
	snap := buildTestSnapshot(t, "memory")

	// Saturday: all "sat" trips, no "wkd" trips, feed order.
	trips, err := snap.ActiveTrips("20200111")
	require.NoError(t, err)
	ids := []string{}
	for _, trip := range trips {
		ids = append(ids, trip.ID)
	}
	assert.Equal(t, []string{"t1", "t2", "t3", "t4", "t5", "t6", "t7", "t8", "t9", "u1"}, ids)

	// Monday: only the weekday trip.
	trips, err = snap.ActiveTrips("20200113")
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Equal(t, "w1", trips[0].ID)
}

func TestSnapshotStopTimesByTrip(t *testing.T) {
	snap := buildTestSnapshot(t, "memory")

	sts := snap.StopTimesByTrip("t9")
	require.Len(t, sts, 2)
	assert.Equal(t, "S2", sts[0].StopID)
	assert.Equal(t, "S1", sts[1].StopID)
	assert.Equal(t, "070500", sts[0].Departure)
	assert.Equal(t, "071500", sts[1].Arrival)

	assert.Nil(t, snap.StopTimesByTrip("nope"))
}

func TestSnapshotLookups(t *testing.T) {
	snap := buildTestSnapshot(t, "memory")

	require.NotNil(t, snap.Route("R1"))
	assert.Equal(t, "1", snap.Route("R1").ShortName)
	assert.Nil(t, snap.Route("R99"))

	require.NotNil(t, snap.Stop("S4"))
	assert.Equal(t, "Depot", snap.Stop("S4").Name)

	assert.Len(t, snap.ShapePath("sh1"), 2)
	assert.Nil(t, snap.ShapePath("sh2"))
}
