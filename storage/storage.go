package storage

import (
	"time"

	"github.com/openmetro/transitdash/model"
)

// Storage holds parsed feed snapshots, keyed by feed ID (in practice
// the SHA256 of the archive). The memory backend lives for a single
// process; the sqlite backend doubles as an on-disk cache so repeated
// starts can skip download and parsing.
type Storage interface {
	// IDs of all fully written feeds.
	ListFeeds() ([]string, error)

	// Gets a reader for the feed with the given ID. Fails if the
	// feed doesn't exist or was never fully written.
	GetReader(feedID string) (FeedReader, error)

	// Gets a writer for the feed with the given ID. Any existing
	// feed with the same ID is replaced.
	GetWriter(feedID string) (FeedWriter, error)
}

// Metadata for a parsed GTFS feed.
type FeedMetadata struct {
	SHA256            string
	URL               string
	RetrievedAt       time.Time
	Timezone          string
	CalendarStartDate string
	CalendarEndDate   string
}

// Writes GTFS records for a single feed. Records must be written in
// feed row order: readers guarantee iteration in write order, which
// downstream tie-breaking relies on.
//
// As stop_times.txt and shapes.txt tend to be very large, Begin/End
// calls bracket their writes, allowing transactions/batching.
type FeedWriter interface {
	WriteAgency(agency *model.Agency) error
	WriteRoute(route *model.Route) error
	WriteStop(stop *model.Stop) error
	WriteTrip(trip *model.Trip) error
	WriteCalendar(cal *model.Calendar) error
	WriteCalendarDate(caldate *model.CalendarDate) error
	BeginStopTimes() error
	WriteStopTime(stopTime *model.StopTime) error
	EndStopTimes() error
	BeginShapes() error
	WriteShapePoint(pt *model.ShapePoint) error
	EndShapes() error
	WriteMetadata(metadata *FeedMetadata) error

	// Marks the feed complete. A feed that was never closed is
	// invisible to readers.
	Close() error
}

type FeedReader interface {
	Metadata() (*FeedMetadata, error)

	// All record accessors return rows in original feed order.
	Agencies() ([]*model.Agency, error)
	Routes() ([]*model.Route, error)
	Stops() ([]*model.Stop, error)
	Trips() ([]*model.Trip, error)
	StopTimes() ([]*model.StopTime, error)
	Calendars() ([]*model.Calendar, error)
	CalendarDates() ([]*model.CalendarDate, error)

	// Shape ID to path, points ordered by shape_pt_sequence.
	Shapes() (map[string][]model.Point, error)

	// Service IDs for all services active on the given date. Date
	// is given as YYYYMMDD.
	ActiveServices(date string) ([]string, error)

	// Stops inside the given bounding box (inclusive), in feed row
	// order. At most limit results (pass 0 for no limit). Only
	// stations and stops without a parent station are returned, to
	// keep map layers free of platform-level duplicates.
	StopsInBox(minLat, minLon, maxLat, maxLon float64, limit int) ([]model.Stop, error)

	// Stops ordered by distance from lat/lon. At most limit
	// results (pass 0 for no limit). Same station/stop filtering
	// as StopsInBox.
	NearbyStops(lat float64, lon float64, limit int) ([]model.Stop, error)
}

// Shared by both backends: resolves active service IDs for a date
// from calendar weekday masks and calendar_dates exceptions.
func resolveActiveServices(cals []*model.Calendar, cds []*model.CalendarDate, date string) ([]string, error) {
	parsedDate, err := time.Parse("20060102", date)
	if err != nil {
		return nil, err
	}

	services := map[string]bool{}
	for _, cal := range cals {
		if cal.Weekday&(1<<parsedDate.Weekday()) == 0 {
			continue
		}
		if cal.StartDate > date || cal.EndDate < date {
			continue
		}
		services[cal.ServiceID] = true
	}

	for _, cd := range cds {
		if cd.Date != date {
			continue
		}
		if cd.ExceptionType == 1 {
			services[cd.ServiceID] = true
		} else if cd.ExceptionType == 2 {
			services[cd.ServiceID] = false
		}
	}

	active := []string{}
	for serviceID, on := range services {
		if on {
			active = append(active, serviceID)
		}
	}

	return active, nil
}

// Station/stop filter shared by StopsInBox and NearbyStops.
func mappableStop(s *model.Stop) bool {
	return s.LocationType == model.LocationTypeStation ||
		s.LocationType == model.LocationTypeStop && s.ParentStation == ""
}
