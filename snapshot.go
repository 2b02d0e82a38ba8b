package transitdash

import (
	"fmt"
	"sort"
	"time"

	"github.com/openmetro/transitdash/model"
	"github.com/openmetro/transitdash/storage"
)

// Snapshot is an immutable view of one parsed GTFS feed. All slices
// preserve original feed row order; downstream tie-breaking depends
// on that ordering and must never re-sort them in place.
//
// A Snapshot is read-only after construction and safe for concurrent
// readers.
type Snapshot struct {
	Metadata *storage.FeedMetadata
	Reader   storage.FeedReader

	routes    []*model.Route
	stops     []*model.Stop
	trips     []*model.Trip
	stopTimes []*model.StopTime
	shapes    map[string][]model.Point

	routesByID      map[string]*model.Route
	stopsByID       map[string]*model.Stop
	tripsByID       map[string]*model.Trip
	stopTimesByTrip map[string][]*model.StopTime

	location *time.Location
}

func NewSnapshot(reader storage.FeedReader, metadata *storage.FeedMetadata) (*Snapshot, error) {
	location, err := time.LoadLocation(metadata.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone: %w", err)
	}

	routes, err := reader.Routes()
	if err != nil {
		return nil, fmt.Errorf("reading routes: %w", err)
	}
	stops, err := reader.Stops()
	if err != nil {
		return nil, fmt.Errorf("reading stops: %w", err)
	}
	trips, err := reader.Trips()
	if err != nil {
		return nil, fmt.Errorf("reading trips: %w", err)
	}
	stopTimes, err := reader.StopTimes()
	if err != nil {
		return nil, fmt.Errorf("reading stop_times: %w", err)
	}
	shapes, err := reader.Shapes()
	if err != nil {
		return nil, fmt.Errorf("reading shapes: %w", err)
	}

	s := &Snapshot{
		Metadata:        metadata,
		Reader:          reader,
		routes:          routes,
		stops:           stops,
		trips:           trips,
		stopTimes:       stopTimes,
		shapes:          shapes,
		routesByID:      map[string]*model.Route{},
		stopsByID:       map[string]*model.Stop{},
		tripsByID:       map[string]*model.Trip{},
		stopTimesByTrip: map[string][]*model.StopTime{},
		location:        location,
	}

	for _, r := range routes {
		s.routesByID[r.ID] = r
	}
	for _, st := range stops {
		s.stopsByID[st.ID] = st
	}
	for _, t := range trips {
		s.tripsByID[t.ID] = t
	}
	for _, st := range stopTimes {
		s.stopTimesByTrip[st.TripID] = append(s.stopTimesByTrip[st.TripID], st)
	}
	for _, sts := range s.stopTimesByTrip {
		sort.SliceStable(sts, func(i, j int) bool {
			return sts[i].StopSequence < sts[j].StopSequence
		})
	}

	return s, nil
}

func (s *Snapshot) Routes() []*model.Route       { return s.routes }
func (s *Snapshot) Stops() []*model.Stop         { return s.stops }
func (s *Snapshot) Trips() []*model.Trip         { return s.trips }
func (s *Snapshot) StopTimes() []*model.StopTime { return s.stopTimes }
func (s *Snapshot) Location() *time.Location     { return s.location }

func (s *Snapshot) Route(id string) *model.Route { return s.routesByID[id] }
func (s *Snapshot) Stop(id string) *model.Stop   { return s.stopsByID[id] }
func (s *Snapshot) Trip(id string) *model.Trip   { return s.tripsByID[id] }

// StopTimesByTrip returns a trip's stop_times ordered by
// stop_sequence.
func (s *Snapshot) StopTimesByTrip(tripID string) []*model.StopTime {
	return s.stopTimesByTrip[tripID]
}

// ShapePath returns the ordered path for a shape ID, or nil.
func (s *Snapshot) ShapePath(shapeID string) []model.Point {
	return s.shapes[shapeID]
}

// RepresentativeDate picks the service day all per-day statistics are
// computed for: the Saturday of the first Monday-to-Sunday week on or
// after the calendar start. Saturday service is what a rider-facing
// dashboard most wants to show, and the first week avoids seasonal
// calendar tails.
func (s *Snapshot) RepresentativeDate() (string, error) {
	start, err := time.ParseInLocation("20060102", s.Metadata.CalendarStartDate, time.UTC)
	if err != nil {
		return "", fmt.Errorf("parsing calendar start date: %w", err)
	}

	monday := start
	for monday.Weekday() != time.Monday {
		monday = monday.AddDate(0, 0, 1)
	}

	// Short feeds may end before that Saturday; the calendar start
	// is the best remaining choice.
	saturday := monday.AddDate(0, 0, 5).Format("20060102")
	if s.Metadata.CalendarEndDate != "" && saturday > s.Metadata.CalendarEndDate {
		return s.Metadata.CalendarStartDate, nil
	}
	return saturday, nil
}

// ActiveTrips returns all trips running on the given date, in feed
// row order. An empty result is not an error: stats tables for a
// service-free day are simply empty.
func (s *Snapshot) ActiveTrips(date string) ([]*model.Trip, error) {
	serviceIDs, err := s.Reader.ActiveServices(date)
	if err != nil {
		return nil, fmt.Errorf("resolving active services: %w", err)
	}

	active := map[string]bool{}
	for _, id := range serviceIDs {
		active[id] = true
	}

	trips := []*model.Trip{}
	for _, t := range s.trips {
		if active[t.ServiceID] {
			trips = append(trips, t)
		}
	}
	return trips, nil
}
