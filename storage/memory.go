package storage

import (
	"fmt"
	"sort"

	"github.com/openmetro/transitdash/model"
)

// In memory implementation of Storage below. Records are kept in
// write order, so all reader methods come back in feed row order for
// free.

type MemoryStorage struct {
	feeds map[string]*MemoryFeed
	order []string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		feeds: map[string]*MemoryFeed{},
	}
}

func (s *MemoryStorage) ListFeeds() ([]string, error) {
	ids := []string{}
	for _, id := range s.order {
		if s.feeds[id].closed {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *MemoryStorage) GetReader(feedID string) (FeedReader, error) {
	f, ok := s.feeds[feedID]
	if !ok || !f.closed {
		return nil, fmt.Errorf("feed not found: %s", feedID)
	}
	return f, nil
}

func (s *MemoryStorage) GetWriter(feedID string) (FeedWriter, error) {
	f := &MemoryFeed{
		routesByID:  map[string]*model.Route{},
		stopsByID:   map[string]*model.Stop{},
		tripsByID:   map[string]*model.Trip{},
		shapePoints: map[string][]*model.ShapePoint{},
		shapeOrder:  []string{},
	}

	if _, exists := s.feeds[feedID]; !exists {
		s.order = append(s.order, feedID)
	}
	s.feeds[feedID] = f

	return f, nil
}

type MemoryFeed struct {
	metadata *FeedMetadata
	closed   bool

	agencies      []*model.Agency
	routes        []*model.Route
	stops         []*model.Stop
	trips         []*model.Trip
	stopTimes     []*model.StopTime
	calendars     []*model.Calendar
	calendarDates []*model.CalendarDate

	routesByID map[string]*model.Route
	stopsByID  map[string]*model.Stop
	tripsByID  map[string]*model.Trip

	shapePoints map[string][]*model.ShapePoint
	shapeOrder  []string
	shapes      map[string][]model.Point
}

func (f *MemoryFeed) WriteAgency(agency *model.Agency) error {
	f.agencies = append(f.agencies, agency)
	return nil
}

func (f *MemoryFeed) WriteRoute(route *model.Route) error {
	f.routes = append(f.routes, route)
	f.routesByID[route.ID] = route
	return nil
}

func (f *MemoryFeed) WriteStop(stop *model.Stop) error {
	f.stops = append(f.stops, stop)
	f.stopsByID[stop.ID] = stop
	return nil
}

func (f *MemoryFeed) WriteTrip(trip *model.Trip) error {
	f.trips = append(f.trips, trip)
	f.tripsByID[trip.ID] = trip
	return nil
}

func (f *MemoryFeed) WriteCalendar(cal *model.Calendar) error {
	f.calendars = append(f.calendars, cal)
	return nil
}

func (f *MemoryFeed) WriteCalendarDate(cd *model.CalendarDate) error {
	f.calendarDates = append(f.calendarDates, cd)
	return nil
}

func (f *MemoryFeed) BeginStopTimes() error {
	return nil
}

func (f *MemoryFeed) WriteStopTime(stopTime *model.StopTime) error {
	f.stopTimes = append(f.stopTimes, stopTime)
	return nil
}

func (f *MemoryFeed) EndStopTimes() error {
	return nil
}

func (f *MemoryFeed) BeginShapes() error {
	return nil
}

func (f *MemoryFeed) WriteShapePoint(pt *model.ShapePoint) error {
	if _, found := f.shapePoints[pt.ShapeID]; !found {
		f.shapeOrder = append(f.shapeOrder, pt.ShapeID)
	}
	f.shapePoints[pt.ShapeID] = append(f.shapePoints[pt.ShapeID], pt)
	return nil
}

// EndShapes orders each shape's points by shape_pt_sequence and
// freezes them into paths.
func (f *MemoryFeed) EndShapes() error {
	f.shapes = map[string][]model.Point{}
	for _, shapeID := range f.shapeOrder {
		pts := f.shapePoints[shapeID]
		sort.SliceStable(pts, func(i, j int) bool {
			return pts[i].Sequence < pts[j].Sequence
		})
		path := make([]model.Point, 0, len(pts))
		for _, pt := range pts {
			path = append(path, model.Point{Lat: pt.Lat, Lon: pt.Lon})
		}
		f.shapes[shapeID] = path
	}
	return nil
}

func (f *MemoryFeed) WriteMetadata(metadata *FeedMetadata) error {
	f.metadata = metadata
	return nil
}

func (f *MemoryFeed) Close() error {
	if f.shapes == nil {
		f.shapes = map[string][]model.Point{}
	}
	f.closed = true
	return nil
}

func (f *MemoryFeed) Metadata() (*FeedMetadata, error) {
	if f.metadata == nil {
		return nil, fmt.Errorf("feed has no metadata")
	}
	return f.metadata, nil
}

func (f *MemoryFeed) Agencies() ([]*model.Agency, error) {
	return f.agencies, nil
}

func (f *MemoryFeed) Routes() ([]*model.Route, error) {
	return f.routes, nil
}

func (f *MemoryFeed) Stops() ([]*model.Stop, error) {
	return f.stops, nil
}

func (f *MemoryFeed) Trips() ([]*model.Trip, error) {
	return f.trips, nil
}

func (f *MemoryFeed) StopTimes() ([]*model.StopTime, error) {
	return f.stopTimes, nil
}

func (f *MemoryFeed) Calendars() ([]*model.Calendar, error) {
	return f.calendars, nil
}

func (f *MemoryFeed) CalendarDates() ([]*model.CalendarDate, error) {
	return f.calendarDates, nil
}

func (f *MemoryFeed) Shapes() (map[string][]model.Point, error) {
	return f.shapes, nil
}

func (f *MemoryFeed) ActiveServices(date string) ([]string, error) {
	return resolveActiveServices(f.calendars, f.calendarDates, date)
}

func (f *MemoryFeed) StopsInBox(minLat, minLon, maxLat, maxLon float64, limit int) ([]model.Stop, error) {
	stops := []model.Stop{}
	for _, s := range f.stops {
		if !mappableStop(s) {
			continue
		}
		if s.Lat < minLat || s.Lat > maxLat || s.Lon < minLon || s.Lon > maxLon {
			continue
		}
		stops = append(stops, *s)
		if limit > 0 && len(stops) == limit {
			break
		}
	}
	return stops, nil
}

func (f *MemoryFeed) NearbyStops(lat float64, lon float64, limit int) ([]model.Stop, error) {
	stops := []*model.Stop{}
	for _, s := range f.stops {
		if mappableStop(s) {
			stops = append(stops, s)
		}
	}

	sort.SliceStable(stops, func(i, j int) bool {
		di := HaversineDistance(lat, lon, stops[i].Lat, stops[i].Lon)
		dj := HaversineDistance(lat, lon, stops[j].Lat, stops[j].Lon)
		return di < dj
	})

	if limit > 0 && len(stops) > limit {
		stops = stops[:limit]
	}

	res := []model.Stop{}
	for _, s := range stops {
		res = append(res, *s)
	}

	return res, nil
}
