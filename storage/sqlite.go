package storage

import (
	"database/sql"
	"fmt"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/openmetro/transitdash/model"
)

// SQLite implementation of Storage. With OnDisk set, parsed feeds
// survive process restarts and act as a snapshot cache keyed by
// archive hash.

type SQLiteConfig struct {
	OnDisk    bool
	Directory string
}

type SQLiteStorage struct {
	SQLiteConfig

	db *sql.DB
}

type SQLiteFeedWriter struct {
	db     *sql.DB
	feedID string
	seq    int

	batchTx   *sql.Tx
	batchStmt *sql.Stmt
}

type SQLiteFeedReader struct {
	db     *sql.DB
	feedID string
}

func NewSQLiteStorage(cfg ...SQLiteConfig) (*SQLiteStorage, error) {
	onDisk := false
	directory := ""
	if len(cfg) > 0 {
		onDisk = cfg[0].OnDisk
		directory = cfg[0].Directory
	}

	sourceName := ":memory:"
	if onDisk {
		sourceName = filepath.Join(directory, "transitdash.db")
	}

	db, err := sql.Open("sqlite3", sourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	for name, query := range map[string]string{
		"feed": `
CREATE TABLE IF NOT EXISTS feed (
    id TEXT PRIMARY KEY,
    sha256 TEXT NOT NULL,
    url TEXT NOT NULL,
    retrieved_at TIMESTAMP NOT NULL,
    timezone TEXT NOT NULL,
    calendar_start TEXT NOT NULL,
    calendar_end TEXT NOT NULL,
    completed INTEGER NOT NULL DEFAULT 0
);`,
		"agency": `
CREATE TABLE IF NOT EXISTS agency (
    feed_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    id TEXT,
    name TEXT,
    url TEXT,
    timezone TEXT
);`,
		"routes": `
CREATE TABLE IF NOT EXISTS routes (
    feed_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    id TEXT NOT NULL,
    agency_id TEXT,
    short_name TEXT,
    long_name TEXT,
    description TEXT,
    type INTEGER NOT NULL,
    color TEXT,
    text_color TEXT
);
CREATE INDEX IF NOT EXISTS routes_feed ON routes (feed_id);`,
		"stops": `
CREATE TABLE IF NOT EXISTS stops (
    feed_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    id TEXT NOT NULL,
    code TEXT,
    name TEXT,
    description TEXT,
    lat REAL NOT NULL,
    lon REAL NOT NULL,
    location_type INTEGER NOT NULL,
    parent_station TEXT
);
CREATE INDEX IF NOT EXISTS stops_feed ON stops (feed_id);`,
		"trips": `
CREATE TABLE IF NOT EXISTS trips (
    feed_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    id TEXT NOT NULL,
    route_id TEXT NOT NULL,
    service_id TEXT NOT NULL,
    headsign TEXT,
    short_name TEXT,
    direction_id INTEGER,
    shape_id TEXT
);
CREATE INDEX IF NOT EXISTS trips_feed ON trips (feed_id);`,
		"stop_times": `
CREATE TABLE IF NOT EXISTS stop_times (
    feed_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    trip_id TEXT NOT NULL,
    stop_id TEXT NOT NULL,
    stop_sequence INTEGER NOT NULL,
    arrival_time TEXT NOT NULL,
    departure_time TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS stop_times_feed ON stop_times (feed_id);`,
		"calendar": `
CREATE TABLE IF NOT EXISTS calendar (
    feed_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    service_id TEXT NOT NULL,
    start_date TEXT NOT NULL,
    end_date TEXT NOT NULL,
    weekday INTEGER NOT NULL
);`,
		"calendar_dates": `
CREATE TABLE IF NOT EXISTS calendar_dates (
    feed_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    service_id TEXT NOT NULL,
    date TEXT NOT NULL,
    exception_type INTEGER NOT NULL
);`,
		"shape_points": `
CREATE TABLE IF NOT EXISTS shape_points (
    feed_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    shape_id TEXT NOT NULL,
    lat REAL NOT NULL,
    lon REAL NOT NULL,
    sequence INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS shape_points_feed ON shape_points (feed_id, shape_id);`,
	} {
		if _, err := db.Exec(query); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating %s table: %w", name, err)
		}
	}

	return &SQLiteStorage{
		SQLiteConfig: SQLiteConfig{OnDisk: onDisk, Directory: directory},
		db:           db,
	}, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) ListFeeds() ([]string, error) {
	rows, err := s.db.Query(`SELECT id FROM feed WHERE completed = 1 ORDER BY retrieved_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing feeds: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning feed id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStorage) GetReader(feedID string) (FeedReader, error) {
	var completed int
	err := s.db.QueryRow(`SELECT completed FROM feed WHERE id = ?`, feedID).Scan(&completed)
	if err == sql.ErrNoRows || (err == nil && completed == 0) {
		return nil, fmt.Errorf("feed not found: %s", feedID)
	}
	if err != nil {
		return nil, fmt.Errorf("checking feed: %w", err)
	}
	return &SQLiteFeedReader{db: s.db, feedID: feedID}, nil
}

func (s *SQLiteStorage) GetWriter(feedID string) (FeedWriter, error) {
	// Replace any partial or stale copy of this feed.
	for _, table := range []string{
		"agency", "routes", "stops", "trips", "stop_times",
		"calendar", "calendar_dates", "shape_points",
	} {
		if _, err := s.db.Exec(fmt.Sprintf(`DELETE FROM %s WHERE feed_id = ?`, table), feedID); err != nil {
			return nil, fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	if _, err := s.db.Exec(`DELETE FROM feed WHERE id = ?`, feedID); err != nil {
		return nil, fmt.Errorf("clearing feed row: %w", err)
	}

	return &SQLiteFeedWriter{db: s.db, feedID: feedID}, nil
}

func (w *SQLiteFeedWriter) nextSeq() int {
	w.seq++
	return w.seq
}

func (w *SQLiteFeedWriter) WriteAgency(a *model.Agency) error {
	_, err := w.db.Exec(`
INSERT INTO agency (feed_id, seq, id, name, url, timezone)
VALUES (?, ?, ?, ?, ?, ?)`,
		w.feedID, w.nextSeq(), a.ID, a.Name, a.URL, a.Timezone)
	if err != nil {
		return fmt.Errorf("inserting agency: %w", err)
	}
	return nil
}

func (w *SQLiteFeedWriter) WriteRoute(route *model.Route) error {
	_, err := w.db.Exec(`
INSERT INTO routes (feed_id, seq, id, agency_id, short_name, long_name, description, type, color, text_color)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.feedID, w.nextSeq(), route.ID, route.AgencyID, route.ShortName,
		route.LongName, route.Desc, route.Type, route.Color, route.TextColor)
	if err != nil {
		return fmt.Errorf("inserting route: %w", err)
	}
	return nil
}

func (w *SQLiteFeedWriter) WriteStop(stop *model.Stop) error {
	_, err := w.db.Exec(`
INSERT INTO stops (feed_id, seq, id, code, name, description, lat, lon, location_type, parent_station)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.feedID, w.nextSeq(), stop.ID, stop.Code, stop.Name, stop.Desc,
		stop.Lat, stop.Lon, stop.LocationType, stop.ParentStation)
	if err != nil {
		return fmt.Errorf("inserting stop: %w", err)
	}
	return nil
}

func (w *SQLiteFeedWriter) WriteTrip(trip *model.Trip) error {
	_, err := w.db.Exec(`
INSERT INTO trips (feed_id, seq, id, route_id, service_id, headsign, short_name, direction_id, shape_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.feedID, w.nextSeq(), trip.ID, trip.RouteID, trip.ServiceID,
		trip.Headsign, trip.ShortName, trip.DirectionID, trip.ShapeID)
	if err != nil {
		return fmt.Errorf("inserting trip: %w", err)
	}
	return nil
}

func (w *SQLiteFeedWriter) WriteCalendar(cal *model.Calendar) error {
	_, err := w.db.Exec(`
INSERT INTO calendar (feed_id, seq, service_id, start_date, end_date, weekday)
VALUES (?, ?, ?, ?, ?, ?)`,
		w.feedID, w.nextSeq(), cal.ServiceID, cal.StartDate, cal.EndDate, cal.Weekday)
	if err != nil {
		return fmt.Errorf("inserting calendar: %w", err)
	}
	return nil
}

func (w *SQLiteFeedWriter) WriteCalendarDate(cd *model.CalendarDate) error {
	_, err := w.db.Exec(`
INSERT INTO calendar_dates (feed_id, seq, service_id, date, exception_type)
VALUES (?, ?, ?, ?, ?)`,
		w.feedID, w.nextSeq(), cd.ServiceID, cd.Date, cd.ExceptionType)
	if err != nil {
		return fmt.Errorf("inserting calendar date: %w", err)
	}
	return nil
}

// Transaction with prepared statement for the two high-volume files.
func (w *SQLiteFeedWriter) beginBatch(query string) error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning batch transaction: %w", err)
	}
	stmt, err := tx.Prepare(query)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing batch insert: %w", err)
	}
	w.batchTx = tx
	w.batchStmt = stmt
	return nil
}

func (w *SQLiteFeedWriter) endBatch() error {
	if w.batchTx == nil {
		return nil
	}
	w.batchStmt.Close()
	err := w.batchTx.Commit()
	w.batchTx = nil
	w.batchStmt = nil
	if err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	return nil
}

func (w *SQLiteFeedWriter) BeginStopTimes() error {
	return w.beginBatch(`
INSERT INTO stop_times (feed_id, seq, trip_id, stop_id, stop_sequence, arrival_time, departure_time)
VALUES (?, ?, ?, ?, ?, ?, ?)`)
}

func (w *SQLiteFeedWriter) WriteStopTime(st *model.StopTime) error {
	if w.batchStmt == nil {
		return fmt.Errorf("WriteStopTime outside BeginStopTimes/EndStopTimes")
	}
	_, err := w.batchStmt.Exec(
		w.feedID, w.nextSeq(), st.TripID, st.StopID, st.StopSequence,
		st.Arrival, st.Departure)
	if err != nil {
		return fmt.Errorf("inserting stop_time: %w", err)
	}
	return nil
}

func (w *SQLiteFeedWriter) EndStopTimes() error {
	return w.endBatch()
}

func (w *SQLiteFeedWriter) BeginShapes() error {
	return w.beginBatch(`
INSERT INTO shape_points (feed_id, seq, shape_id, lat, lon, sequence)
VALUES (?, ?, ?, ?, ?, ?)`)
}

func (w *SQLiteFeedWriter) WriteShapePoint(pt *model.ShapePoint) error {
	if w.batchStmt == nil {
		return fmt.Errorf("WriteShapePoint outside BeginShapes/EndShapes")
	}
	_, err := w.batchStmt.Exec(
		w.feedID, w.nextSeq(), pt.ShapeID, pt.Lat, pt.Lon, pt.Sequence)
	if err != nil {
		return fmt.Errorf("inserting shape point: %w", err)
	}
	return nil
}

func (w *SQLiteFeedWriter) EndShapes() error {
	return w.endBatch()
}

func (w *SQLiteFeedWriter) WriteMetadata(metadata *FeedMetadata) error {
	_, err := w.db.Exec(`
INSERT INTO feed (id, sha256, url, retrieved_at, timezone, calendar_start, calendar_end, completed)
VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
		w.feedID, metadata.SHA256, metadata.URL, metadata.RetrievedAt,
		metadata.Timezone, metadata.CalendarStartDate, metadata.CalendarEndDate)
	if err != nil {
		return fmt.Errorf("inserting feed metadata: %w", err)
	}
	return nil
}

func (w *SQLiteFeedWriter) Close() error {
	if w.batchTx != nil {
		w.batchTx.Rollback()
		w.batchTx = nil
		w.batchStmt = nil
	}
	res, err := w.db.Exec(`UPDATE feed SET completed = 1 WHERE id = ?`, w.feedID)
	if err != nil {
		return fmt.Errorf("completing feed: %w", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("closing feed without metadata")
	}
	return nil
}

func (r *SQLiteFeedReader) Metadata() (*FeedMetadata, error) {
	metadata := &FeedMetadata{}
	err := r.db.QueryRow(`
SELECT sha256, url, retrieved_at, timezone, calendar_start, calendar_end
FROM feed WHERE id = ?`, r.feedID).Scan(
		&metadata.SHA256, &metadata.URL, &metadata.RetrievedAt,
		&metadata.Timezone, &metadata.CalendarStartDate, &metadata.CalendarEndDate)
	if err != nil {
		return nil, fmt.Errorf("reading feed metadata: %w", err)
	}
	return metadata, nil
}

func (r *SQLiteFeedReader) Agencies() ([]*model.Agency, error) {
	rows, err := r.db.Query(`
SELECT id, name, url, timezone FROM agency WHERE feed_id = ? ORDER BY seq`, r.feedID)
	if err != nil {
		return nil, fmt.Errorf("querying agencies: %w", err)
	}
	defer rows.Close()

	agencies := []*model.Agency{}
	for rows.Next() {
		a := &model.Agency{}
		if err := rows.Scan(&a.ID, &a.Name, &a.URL, &a.Timezone); err != nil {
			return nil, fmt.Errorf("scanning agency: %w", err)
		}
		agencies = append(agencies, a)
	}
	return agencies, rows.Err()
}

func (r *SQLiteFeedReader) Routes() ([]*model.Route, error) {
	rows, err := r.db.Query(`
SELECT id, agency_id, short_name, long_name, description, type, color, text_color
FROM routes WHERE feed_id = ? ORDER BY seq`, r.feedID)
	if err != nil {
		return nil, fmt.Errorf("querying routes: %w", err)
	}
	defer rows.Close()

	routes := []*model.Route{}
	for rows.Next() {
		route := &model.Route{}
		if err := rows.Scan(
			&route.ID, &route.AgencyID, &route.ShortName, &route.LongName,
			&route.Desc, &route.Type, &route.Color, &route.TextColor); err != nil {
			return nil, fmt.Errorf("scanning route: %w", err)
		}
		routes = append(routes, route)
	}
	return routes, rows.Err()
}

func (r *SQLiteFeedReader) Stops() ([]*model.Stop, error) {
	rows, err := r.db.Query(`
SELECT id, code, name, description, lat, lon, location_type, parent_station
FROM stops WHERE feed_id = ? ORDER BY seq`, r.feedID)
	if err != nil {
		return nil, fmt.Errorf("querying stops: %w", err)
	}
	defer rows.Close()

	stops := []*model.Stop{}
	for rows.Next() {
		stop := &model.Stop{}
		if err := rows.Scan(
			&stop.ID, &stop.Code, &stop.Name, &stop.Desc,
			&stop.Lat, &stop.Lon, &stop.LocationType, &stop.ParentStation); err != nil {
			return nil, fmt.Errorf("scanning stop: %w", err)
		}
		stops = append(stops, stop)
	}
	return stops, rows.Err()
}

func (r *SQLiteFeedReader) Trips() ([]*model.Trip, error) {
	rows, err := r.db.Query(`
SELECT id, route_id, service_id, headsign, short_name, direction_id, shape_id
FROM trips WHERE feed_id = ? ORDER BY seq`, r.feedID)
	if err != nil {
		return nil, fmt.Errorf("querying trips: %w", err)
	}
	defer rows.Close()

	trips := []*model.Trip{}
	for rows.Next() {
		trip := &model.Trip{}
		if err := rows.Scan(
			&trip.ID, &trip.RouteID, &trip.ServiceID, &trip.Headsign,
			&trip.ShortName, &trip.DirectionID, &trip.ShapeID); err != nil {
			return nil, fmt.Errorf("scanning trip: %w", err)
		}
		trips = append(trips, trip)
	}
	return trips, rows.Err()
}

func (r *SQLiteFeedReader) StopTimes() ([]*model.StopTime, error) {
	rows, err := r.db.Query(`
SELECT trip_id, stop_id, stop_sequence, arrival_time, departure_time
FROM stop_times WHERE feed_id = ? ORDER BY seq`, r.feedID)
	if err != nil {
		return nil, fmt.Errorf("querying stop_times: %w", err)
	}
	defer rows.Close()

	stopTimes := []*model.StopTime{}
	for rows.Next() {
		st := &model.StopTime{}
		if err := rows.Scan(
			&st.TripID, &st.StopID, &st.StopSequence, &st.Arrival, &st.Departure); err != nil {
			return nil, fmt.Errorf("scanning stop_time: %w", err)
		}
		stopTimes = append(stopTimes, st)
	}
	return stopTimes, rows.Err()
}

func (r *SQLiteFeedReader) Calendars() ([]*model.Calendar, error) {
	rows, err := r.db.Query(`
SELECT service_id, start_date, end_date, weekday
FROM calendar WHERE feed_id = ? ORDER BY seq`, r.feedID)
	if err != nil {
		return nil, fmt.Errorf("querying calendar: %w", err)
	}
	defer rows.Close()

	cals := []*model.Calendar{}
	for rows.Next() {
		cal := &model.Calendar{}
		if err := rows.Scan(&cal.ServiceID, &cal.StartDate, &cal.EndDate, &cal.Weekday); err != nil {
			return nil, fmt.Errorf("scanning calendar: %w", err)
		}
		cals = append(cals, cal)
	}
	return cals, rows.Err()
}

func (r *SQLiteFeedReader) CalendarDates() ([]*model.CalendarDate, error) {
	rows, err := r.db.Query(`
SELECT service_id, date, exception_type
FROM calendar_dates WHERE feed_id = ? ORDER BY seq`, r.feedID)
	if err != nil {
		return nil, fmt.Errorf("querying calendar_dates: %w", err)
	}
	defer rows.Close()

	cds := []*model.CalendarDate{}
	for rows.Next() {
		cd := &model.CalendarDate{}
		if err := rows.Scan(&cd.ServiceID, &cd.Date, &cd.ExceptionType); err != nil {
			return nil, fmt.Errorf("scanning calendar_date: %w", err)
		}
		cds = append(cds, cd)
	}
	return cds, rows.Err()
}

func (r *SQLiteFeedReader) Shapes() (map[string][]model.Point, error) {
	rows, err := r.db.Query(`
SELECT shape_id, lat, lon
FROM shape_points WHERE feed_id = ? ORDER BY shape_id, sequence`, r.feedID)
	if err != nil {
		return nil, fmt.Errorf("querying shape_points: %w", err)
	}
	defer rows.Close()

	shapes := map[string][]model.Point{}
	for rows.Next() {
		var shapeID string
		var pt model.Point
		if err := rows.Scan(&shapeID, &pt.Lat, &pt.Lon); err != nil {
			return nil, fmt.Errorf("scanning shape point: %w", err)
		}
		shapes[shapeID] = append(shapes[shapeID], pt)
	}
	return shapes, rows.Err()
}

func (r *SQLiteFeedReader) ActiveServices(date string) ([]string, error) {
	cals, err := r.Calendars()
	if err != nil {
		return nil, err
	}
	cds, err := r.CalendarDates()
	if err != nil {
		return nil, err
	}
	return resolveActiveServices(cals, cds, date)
}

func (r *SQLiteFeedReader) StopsInBox(minLat, minLon, maxLat, maxLon float64, limit int) ([]model.Stop, error) {
	stops, err := r.Stops()
	if err != nil {
		return nil, err
	}

	res := []model.Stop{}
	for _, s := range stops {
		if !mappableStop(s) {
			continue
		}
		if s.Lat < minLat || s.Lat > maxLat || s.Lon < minLon || s.Lon > maxLon {
			continue
		}
		res = append(res, *s)
		if limit > 0 && len(res) == limit {
			break
		}
	}
	return res, nil
}

func (r *SQLiteFeedReader) NearbyStops(lat float64, lon float64, limit int) ([]model.Stop, error) {
	stops, err := r.Stops()
	if err != nil {
		return nil, err
	}

	mem := MemoryFeed{stops: stops}
	return mem.NearbyStops(lat, lon, limit)
}
