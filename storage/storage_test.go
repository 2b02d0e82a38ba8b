package storage_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmetro/transitdash/model"
	"github.com/openmetro/transitdash/storage"
)

func buildStorage(t *testing.T, backend string) storage.Storage {
	switch backend {
	case "memory":
		return storage.NewMemoryStorage()
	case "sqlite":
		s, err := storage.NewSQLiteStorage()
		require.NoError(t, err)
		return s
	}
	t.Fatalf("unknown backend %q", backend)
	return nil
}

func writeTestFeed(t *testing.T, s storage.Storage, feedID string) {
	writer, err := s.GetWriter(feedID)
	require.NoError(t, err)

	require.NoError(t, writer.WriteAgency(&model.Agency{
		ID: "a", Name: "Transit", Timezone: "UTC",
	}))

	// Deliberately not in ID order, to catch backends that sort.
	require.NoError(t, writer.WriteRoute(&model.Route{ID: "r2", ShortName: "2", Type: model.RouteTypeBus}))
	require.NoError(t, writer.WriteRoute(&model.Route{ID: "r1", ShortName: "1", Type: model.RouteTypeSubway}))

	require.NoError(t, writer.WriteStop(&model.Stop{ID: "s2", Name: "Beta", Lat: 40.1, Lon: -74.0}))
	require.NoError(t, writer.WriteStop(&model.Stop{ID: "s1", Name: "Alpha", Lat: 40.0, Lon: -74.0}))
	require.NoError(t, writer.WriteStop(&model.Stop{
		ID: "s3", Name: "Gamma Station", Lat: 40.2, Lon: -74.0,
		LocationType: model.LocationTypeStation,
	}))
	require.NoError(t, writer.WriteStop(&model.Stop{
		ID: "s4", Name: "Gamma Platform", Lat: 40.2, Lon: -74.0,
		ParentStation: "s3",
	}))

	require.NoError(t, writer.WriteTrip(&model.Trip{ID: "t1", RouteID: "r2", ServiceID: "wk"}))

	require.NoError(t, writer.WriteCalendar(&model.Calendar{
		ServiceID: "wk",
		StartDate: "20200101",
		EndDate:   "20201231",
		Weekday:   1 << time.Monday,
	}))
	require.NoError(t, writer.WriteCalendarDate(&model.CalendarDate{
		ServiceID: "wk", Date: "20200106", ExceptionType: 2,
	}))
	require.NoError(t, writer.WriteCalendarDate(&model.CalendarDate{
		ServiceID: "extra", Date: "20200106", ExceptionType: 1,
	}))

	require.NoError(t, writer.BeginStopTimes())
	require.NoError(t, writer.WriteStopTime(&model.StopTime{
		TripID: "t1", StopID: "s2", StopSequence: 1, Arrival: "070000", Departure: "070000",
	}))
	require.NoError(t, writer.WriteStopTime(&model.StopTime{
		TripID: "t1", StopID: "s1", StopSequence: 2, Arrival: "071000", Departure: "071000",
	}))
	require.NoError(t, writer.EndStopTimes())

	require.NoError(t, writer.BeginShapes())
	require.NoError(t, writer.WriteShapePoint(&model.ShapePoint{ShapeID: "sh", Lat: 40.1, Lon: -74.0, Sequence: 2}))
	require.NoError(t, writer.WriteShapePoint(&model.ShapePoint{ShapeID: "sh", Lat: 40.0, Lon: -74.0, Sequence: 1}))
	require.NoError(t, writer.EndShapes())

	require.NoError(t, writer.WriteMetadata(&storage.FeedMetadata{
		SHA256:            feedID,
		URL:               "http://example.com/feed.zip",
		RetrievedAt:       time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		Timezone:          "UTC",
		CalendarStartDate: "20200101",
		CalendarEndDate:   "20201231",
	}))
	require.NoError(t, writer.Close())
}

func TestStorageRoundTrip(t *testing.T) {
	for _, backend := range []string{"memory", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			s := buildStorage(t, backend)
			writeTestFeed(t, s, "feed1")

			feeds, err := s.ListFeeds()
			require.NoError(t, err)
			assert.Equal(t, []string{"feed1"}, feeds)

			reader, err := s.GetReader("feed1")
			require.NoError(t, err)

			metadata, err := reader.Metadata()
			require.NoError(t, err)
			assert.Equal(t, "feed1", metadata.SHA256)
			assert.Equal(t, "UTC", metadata.Timezone)
			assert.Equal(t, "20200101", metadata.CalendarStartDate)

			// Write order, not ID order.
			routes, err := reader.Routes()
			require.NoError(t, err)
			require.Len(t, routes, 2)
			assert.Equal(t, "r2", routes[0].ID)
			assert.Equal(t, "r1", routes[1].ID)

			stops, err := reader.Stops()
			require.NoError(t, err)
			require.Len(t, stops, 4)
			assert.Equal(t, "s2", stops[0].ID)

			stopTimes, err := reader.StopTimes()
			require.NoError(t, err)
			require.Len(t, stopTimes, 2)
			assert.Equal(t, "s2", stopTimes[0].StopID)
			assert.Equal(t, "070000", stopTimes[0].Arrival)

			// Shape points ordered by sequence despite write order.
			shapes, err := reader.Shapes()
			require.NoError(t, err)
			require.Len(t, shapes["sh"], 2)
			assert.Equal(t, 40.0, shapes["sh"][0].Lat)
			assert.Equal(t, 40.1, shapes["sh"][1].Lat)
		})
	}
}

func TestStorageIncompleteFeedInvisible(t *testing.T) {
	for _, backend := range []string{"memory", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			s := buildStorage(t, backend)

			writer, err := s.GetWriter("unfinished")
			require.NoError(t, err)
			require.NoError(t, writer.WriteRoute(&model.Route{ID: "r", ShortName: "1"}))

			// No Close: the feed must not be listed or readable.
			feeds, err := s.ListFeeds()
			require.NoError(t, err)
			assert.Empty(t, feeds)

			_, err = s.GetReader("unfinished")
			assert.Error(t, err)
		})
	}
}

func TestStorageActiveServices(t *testing.T) {
	for _, backend := range []string{"memory", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			s := buildStorage(t, backend)
			writeTestFeed(t, s, "feed1")

			reader, err := s.GetReader("feed1")
			require.NoError(t, err)

			// Monday 2020-01-13 matches wk's weekday mask.
			services, err := reader.ActiveServices("20200113")
			require.NoError(t, err)
			assert.Equal(t, []string{"wk"}, services)

			// Monday 2020-01-06: wk removed by exception, extra added.
			services, err = reader.ActiveServices("20200106")
			require.NoError(t, err)
			assert.Equal(t, []string{"extra"}, services)

			// Tuesday has no service at all.
			services, err = reader.ActiveServices("20200114")
			require.NoError(t, err)
			assert.Empty(t, services)

			// Outside the calendar range.
			services, err = reader.ActiveServices("20210104")
			require.NoError(t, err)
			assert.Empty(t, services)
		})
	}
}

func TestStorageStopsInBox(t *testing.T) {
	for _, backend := range []string{"memory", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			s := buildStorage(t, backend)
			writeTestFeed(t, s, "feed1")

			reader, err := s.GetReader("feed1")
			require.NoError(t, err)

			// Bounds are inclusive; the platform under station s3 is
			// filtered out.
			stops, err := reader.StopsInBox(40.0, -75.0, 40.2, -73.0, 0)
			require.NoError(t, err)
			require.Len(t, stops, 3)
			assert.Equal(t, "s2", stops[0].ID)
			assert.Equal(t, "s1", stops[1].ID)
			assert.Equal(t, "s3", stops[2].ID)

			// Limit cuts in feed order.
			stops, err = reader.StopsInBox(40.0, -75.0, 40.2, -73.0, 2)
			require.NoError(t, err)
			require.Len(t, stops, 2)
			assert.Equal(t, "s2", stops[0].ID)

			// A box covering nothing.
			stops, err = reader.StopsInBox(50.0, -75.0, 51.0, -73.0, 0)
			require.NoError(t, err)
			assert.Empty(t, stops)
		})
	}
}

func TestStorageNearbyStops(t *testing.T) {
	for _, backend := range []string{"memory", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			s := buildStorage(t, backend)
			writeTestFeed(t, s, "feed1")

			reader, err := s.GetReader("feed1")
			require.NoError(t, err)

			stops, err := reader.NearbyStops(40.0, -74.0, 0)
			require.NoError(t, err)
			require.Len(t, stops, 3)
			assert.Equal(t, "s1", stops[0].ID)
			assert.Equal(t, "s2", stops[1].ID)
			assert.Equal(t, "s3", stops[2].ID)

			stops, err = reader.NearbyStops(40.2, -74.0, 1)
			require.NoError(t, err)
			require.Len(t, stops, 1)
			assert.Equal(t, "s3", stops[0].ID)
		})
	}
}

func TestStorageReplaceFeed(t *testing.T) {
	for _, backend := range []string{"memory", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			s := buildStorage(t, backend)
			writeTestFeed(t, s, "feed1")

			// Rewriting the same feed ID replaces it wholesale.
			writer, err := s.GetWriter("feed1")
			require.NoError(t, err)
			require.NoError(t, writer.WriteRoute(&model.Route{ID: "only", ShortName: "9", Type: model.RouteTypeFerry}))
			require.NoError(t, writer.WriteMetadata(&storage.FeedMetadata{
				SHA256: "feed1", Timezone: "UTC",
			}))
			require.NoError(t, writer.Close())

			reader, err := s.GetReader("feed1")
			require.NoError(t, err)
			routes, err := reader.Routes()
			require.NoError(t, err)
			require.Len(t, routes, 1)
			assert.Equal(t, "only", routes[0].ID)
		})
	}
}

func TestHaversineDistance(t *testing.T) {
	// One degree of latitude is about 111km.
	d := storage.HaversineDistance(40.0, -74.0, 41.0, -74.0)
	assert.InDelta(t, 111.2, d, 1.0)

	assert.Equal(t, 0.0, storage.HaversineDistance(40.0, -74.0, 40.0, -74.0))

	path := []model.Point{
		{Lat: 40.0, Lon: -74.0},
		{Lat: 40.5, Lon: -74.0},
		{Lat: 41.0, Lon: -74.0},
	}
	assert.InDelta(t, d, storage.PathLength(path), 0.001)
}
