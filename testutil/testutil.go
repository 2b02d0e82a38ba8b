package testutil

// Helpers and configuration for tests.

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openmetro/transitdash"
	"github.com/openmetro/transitdash/parse"
	"github.com/openmetro/transitdash/storage"
)

func BuildStorage(t testing.TB, backend string) storage.Storage {
	var s storage.Storage
	var err error
	if backend == "sqlite" {
		s, err = storage.NewSQLiteStorage()
		require.NoError(t, err)
	} else if backend == "memory" {
		s = storage.NewMemoryStorage()
	}
	require.NotEqual(t, nil, s, "unknown backend %q", backend)

	return s
}

func LoadSnapshot(t testing.TB, backend string, buf []byte) *transitdash.Snapshot {
	s := BuildStorage(t, backend)

	// Parse buf into storage
	feedWriter, err := s.GetWriter("test")
	require.NoError(t, err)

	metadata, err := parse.ParseArchive(feedWriter, buf)
	require.NoError(t, err)

	metadata.SHA256 = "test"
	metadata.RetrievedAt = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, feedWriter.WriteMetadata(metadata))
	require.NoError(t, feedWriter.Close())

	reader, err := s.GetReader("test")
	require.NoError(t, err)

	snap, err := transitdash.NewSnapshot(reader, metadata)
	require.NoError(t, err)

	return snap
}

func BuildSnapshot(
	t testing.TB,
	backend string,
	files map[string][]string,
) *transitdash.Snapshot {

	// Fill in missing files with (mostly blank) dummy data.
	if files["agency.txt"] == nil {
		files["agency.txt"] = []string{"agency_timezone,agency_name,agency_url", "UTC,FooAgency,http://example.com"}
	}
	if files["calendar.txt"] == nil && files["calendar_dates.txt"] == nil {
		files["calendar.txt"] = []string{"service_id"}
	}
	if files["routes.txt"] == nil {
		files["routes.txt"] = []string{"route_id"}
	}
	if files["trips.txt"] == nil {
		files["trips.txt"] = []string{"trip_id"}
	}
	if files["stops.txt"] == nil {
		files["stops.txt"] = []string{"stop_id"}
	}
	if files["stop_times.txt"] == nil {
		files["stop_times.txt"] = []string{"stop_id"}
	}

	buf := BuildZip(t, files)

	return LoadSnapshot(t, backend, buf)
}

func BuildZip(
	t testing.TB,
	files map[string][]string,
) []byte {

	buf := &bytes.Buffer{}
	w := zip.NewWriter(buf)
	for filename, content := range files {
		f, err := w.Create(filename)
		require.NoError(t, err)
		_, err = f.Write([]byte(strings.Join(content, "\n")))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return buf.Bytes()
}
