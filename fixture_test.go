package transitdash_test

import (
	"fmt"
	"testing"

	"github.com/openmetro/transitdash"
	"github.com/openmetro/transitdash/testutil"
)

// A small feed with known statistics. Calendar starts Wednesday
// 2020-01-01, so the sample day is Saturday 2020-01-11.
//
// R1 (Subway) runs 8 outbound trips at 15 minute intervals through
// the morning peak, plus one inbound trip. R2 (Bus) runs a single
// Saturday trip and one weekday trip. S4 is never visited.
func buildTestSnapshot(t testing.TB, backend string) *transitdash.Snapshot {
	trips := []string{"trip_id,route_id,service_id,direction_id,shape_id"}
	stopTimes := []string{"trip_id,stop_id,stop_sequence,arrival_time,departure_time"}

	for i := 0; i < 8; i++ {
		tripID := fmt.Sprintf("t%d", i+1)
		dep := fmt.Sprintf("%02d:%02d:00", 7+(i*15)/60, (i*15)%60)
		arr := fmt.Sprintf("%02d:%02d:00", 7+(i*15+10)/60, (i*15+10)%60)
		trips = append(trips, tripID+",R1,sat,0,sh1")
		stopTimes = append(stopTimes,
			fmt.Sprintf("%s,S1,1,%s,%s", tripID, dep, dep),
			fmt.Sprintf("%s,S2,2,%s,%s", tripID, arr, arr),
		)
	}

	trips = append(trips,
		"t9,R1,sat,1,sh1",
		"u1,R2,sat,0,",
		"w1,R2,wkd,0,",
	)
	stopTimes = append(stopTimes,
		"t9,S2,1,07:05:00,07:05:00",
		"t9,S1,2,07:15:00,07:15:00",
		"u1,S2,1,07:30:00,07:30:00",
		"u1,S3,2,07:50:00,07:50:00",
		"w1,S2,1,09:00:00,09:00:00",
		"w1,S3,2,09:10:00,09:10:00",
	)

	return testutil.BuildSnapshot(t, backend, map[string][]string{
		"routes.txt": {
			"route_id,route_short_name,route_type",
			"R1,1,1",
			"R2,20,3",
		},
		"stops.txt": {
			"stop_id,stop_name,stop_lat,stop_lon",
			"S1,Central,40.0,-74.0",
			"S2,Midtown,40.05,-74.0",
			"S3,Harbor,40.1,-74.0",
			"S4,Depot,40.2,-74.0",
		},
		"calendar.txt": {
			"service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date",
			"sat,0,0,0,0,0,1,0,20200101,20201231",
			"wkd,1,1,1,1,1,0,0,20200101,20201231",
		},
		"shapes.txt": {
			"shape_id,shape_pt_lat,shape_pt_lon,shape_pt_sequence",
			"sh1,40.0,-74.0,0",
			"sh1,40.05,-74.0,1",
		},
		"trips.txt":      trips,
		"stop_times.txt": stopTimes,
	})
}
