package parse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmetro/transitdash/parse"
	"github.com/openmetro/transitdash/storage"
	"github.com/openmetro/transitdash/testutil"
)

func parseZip(t *testing.T, files map[string][]string) (*storage.FeedMetadata, storage.FeedReader, error) {
	s := storage.NewMemoryStorage()
	writer, err := s.GetWriter("test")
	require.NoError(t, err)

	metadata, err := parse.ParseArchive(writer, testutil.BuildZip(t, files))
	if err != nil {
		return nil, nil, err
	}

	require.NoError(t, writer.WriteMetadata(metadata))
	require.NoError(t, writer.Close())

	reader, err := s.GetReader("test")
	require.NoError(t, err)

	return metadata, reader, nil
}

func validFiles() map[string][]string {
	return map[string][]string{
		"agency.txt": {
			"agency_timezone,agency_name,agency_url",
			"America/New_York,Transit,http://example.com",
		},
		"routes.txt": {
			"route_id,route_short_name,route_type",
			"R,1,1",
		},
		"stops.txt": {
			"stop_id,stop_name,stop_lat,stop_lon",
			"S,Central,40.0,-74.0",
		},
		"calendar.txt": {
			"service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date",
			"all,1,1,1,1,1,1,1,20200101,20201231",
		},
		"trips.txt": {
			"trip_id,route_id,service_id,direction_id",
			"t,R,all,0",
		},
		"stop_times.txt": {
			"trip_id,stop_id,stop_sequence,arrival_time,departure_time",
			"t,S,1,7:05:00,7:05:30",
		},
	}
}

func TestParseArchive(t *testing.T) {
	metadata, reader, err := parseZip(t, validFiles())
	require.NoError(t, err)

	assert.Equal(t, "America/New_York", metadata.Timezone)
	assert.Equal(t, "20200101", metadata.CalendarStartDate)
	assert.Equal(t, "20201231", metadata.CalendarEndDate)

	routes, err := reader.Routes()
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "R", routes[0].ID)

	// Times come back zero padded.
	stopTimes, err := reader.StopTimes()
	require.NoError(t, err)
	require.Len(t, stopTimes, 1)
	assert.Equal(t, "070500", stopTimes[0].Arrival)
	assert.Equal(t, "070530", stopTimes[0].Departure)
}

func TestParseArchiveMissingFiles(t *testing.T) {
	for _, missing := range []string{"agency.txt", "routes.txt", "stops.txt", "trips.txt", "stop_times.txt"} {
		t.Run(missing, func(t *testing.T) {
			files := validFiles()
			delete(files, missing)
			_, _, err := parseZip(t, files)
			require.Error(t, err)
			assert.Contains(t, err.Error(), missing)
		})
	}

	// Calendar can come from either file, but not neither.
	files := validFiles()
	delete(files, "calendar.txt")
	_, _, err := parseZip(t, files)
	require.Error(t, err)

	files = validFiles()
	delete(files, "calendar.txt")
	files["calendar_dates.txt"] = []string{
		"service_id,date,exception_type",
		"all,20200104,1",
	}
	// trips.txt references service "all", now defined by exception.
	_, reader, err := parseZip(t, files)
	require.NoError(t, err)

	services, err := reader.ActiveServices("20200104")
	require.NoError(t, err)
	assert.Equal(t, []string{"all"}, services)
}

func TestParseArchiveRouteValidation(t *testing.T) {
	files := validFiles()
	files["routes.txt"] = []string{
		"route_id,route_short_name,route_type",
		"R,1,9",
	}
	_, _, err := parseZip(t, files)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid route_type")

	files = validFiles()
	files["routes.txt"] = []string{
		"route_id,route_short_name,route_long_name,route_type",
		"R,,,1",
	}
	_, _, err = parseZip(t, files)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no short_name or long_name")
}

func TestParseArchiveStopTimeValidation(t *testing.T) {
	files := validFiles()
	files["stop_times.txt"] = []string{
		"trip_id,stop_id,stop_sequence,arrival_time,departure_time",
		"t,S,1,7:05:00,7:61:00",
	}
	_, _, err := parseZip(t, files)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid minute")

	files = validFiles()
	files["stop_times.txt"] = []string{
		"trip_id,stop_id,stop_sequence,arrival_time,departure_time",
		"t,S,1,7:05:00,7:05:00",
		"t,S,1,7:10:00,7:10:00",
	}
	_, _, err = parseZip(t, files)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate stop_sequence")

	// Hours past 23 are fine for trips running past midnight.
	files = validFiles()
	files["stop_times.txt"] = []string{
		"trip_id,stop_id,stop_sequence,arrival_time,departure_time",
		"t,S,1,25:05:00,25:05:00",
	}
	_, reader, err := parseZip(t, files)
	require.NoError(t, err)
	stopTimes, err := reader.StopTimes()
	require.NoError(t, err)
	assert.Equal(t, "250500", stopTimes[0].Arrival)
}

func TestParseArchiveShapes(t *testing.T) {
	files := validFiles()
	files["shapes.txt"] = []string{
		"shape_id,shape_pt_lat,shape_pt_lon,shape_pt_sequence",
		// Out of order sequences, one garbage row.
		"sh,40.1,-74.0,2",
		"sh,40.0,-74.0,1",
		"sh,garbage,-74.0,3",
	}
	files["trips.txt"] = []string{
		"trip_id,route_id,service_id,direction_id,shape_id",
		"t,R,all,0,sh",
		"t2,R,all,0,missing",
	}
	files["stop_times.txt"] = append(files["stop_times.txt"],
		"t2,S,1,8:00:00,8:00:00",
	)

	_, reader, err := parseZip(t, files)
	require.NoError(t, err)

	// Valid points survive, ordered by sequence.
	shapes, err := reader.Shapes()
	require.NoError(t, err)
	require.Len(t, shapes["sh"], 2)
	assert.Equal(t, 40.0, shapes["sh"][0].Lat)
	assert.Equal(t, 40.1, shapes["sh"][1].Lat)

	// The dangling shape reference is dropped, not fatal.
	trips, err := reader.Trips()
	require.NoError(t, err)
	require.Len(t, trips, 2)
	assert.Equal(t, "sh", trips[0].ShapeID)
	assert.Equal(t, "", trips[1].ShapeID)
}
