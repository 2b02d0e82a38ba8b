package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/openmetro/transitdash"
	"github.com/openmetro/transitdash/model"
)

// Bounding box queries never return more than this many stops. Map
// layers past this size stop being useful anyway.
const maxBoxStops = 200

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":      "ok",
		"feed_sha256": s.snap.Metadata.SHA256,
	})
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.derived.Overview)
}

// Route list: one entry per route with geometry, tier and display
// attributes, merged with the route's sample-day stats when it has
// any.
func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	type routeEntry struct {
		transitdash.RouteGeometry
		Stats *transitdash.RouteStats `json:"stats,omitempty"`
	}

	entries := make([]routeEntry, 0, len(s.derived.RouteGeometries))
	for _, g := range s.derived.RouteGeometries {
		entry := routeEntry{RouteGeometry: g}
		if stats, found := s.derived.RouteStatsByID(g.RouteID); found {
			entry.Stats = stats
		}
		entries = append(entries, entry)
	}

	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleRouteStats(w http.ResponseWriter, r *http.Request) {
	routeID := chi.URLParam(r, "routeID")

	stats, found := s.derived.RouteStatsByID(routeID)
	if !found {
		writeError(w, http.StatusNotFound, "no data")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		*transitdash.RouteStats
		Tier string `json:"tier"`
	}{stats, s.derived.Tier(routeID).String()})
}

// Stop list. Without parameters, all stops with their dominant-mode
// styling. With a bounding box (min_lat, min_lon, max_lat, max_lon),
// only stops inside it; limit caps the result.
func (s *Server) handleStops(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	boxParams := []string{"min_lat", "min_lon", "max_lat", "max_lon"}
	present := 0
	for _, p := range boxParams {
		if q.Get(p) != "" {
			present++
		}
	}

	if present == 0 {
		writeJSON(w, http.StatusOK, s.derived.StopGeometries)
		return
	}
	if present < len(boxParams) {
		writeError(w, http.StatusBadRequest, "bounding box requires min_lat, min_lon, max_lat and max_lon")
		return
	}

	box := make([]float64, len(boxParams))
	for i, p := range boxParams {
		v, err := strconv.ParseFloat(q.Get(p), 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid "+p)
			return
		}
		box[i] = v
	}
	if box[0] > box[2] || box[1] > box[3] {
		writeError(w, http.StatusBadRequest, "bounding box min exceeds max")
		return
	}

	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	if limit == 0 || limit > maxBoxStops {
		limit = maxBoxStops
	}

	stops, err := s.snap.Reader.StopsInBox(box[0], box[1], box[2], box[3], limit)
	if err != nil {
		logrus.WithError(err).Error("querying stops in box")
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}

	geometries := make([]transitdash.StopGeometry, 0, len(stops))
	for i := range stops {
		geometries = append(geometries, s.stopGeometry(&stops[i]))
	}
	writeJSON(w, http.StatusOK, geometries)
}

func (s *Server) stopGeometry(stop *model.Stop) transitdash.StopGeometry {
	name := model.UnknownModeName
	color := model.UnknownModeColor
	mode, known := s.derived.Modes[stop.ID]
	if known {
		name = mode.Name()
		color = mode.Color()
	}
	return transitdash.StopGeometry{
		StopID:    stop.ID,
		Name:      stop.Name,
		Point:     model.Point{Lat: stop.Lat, Lon: stop.Lon},
		Mode:      name,
		ModeKnown: known,
		Color:     color,
	}
}

func (s *Server) handleStopStats(w http.ResponseWriter, r *http.Request) {
	stopID := chi.URLParam(r, "stopID")

	stats, found := s.derived.StopStatsByID(stopID)
	if !found {
		writeError(w, http.StatusNotFound, "no data")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleRouteRankings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.derived.TopRoutes)
}

func (s *Server) handleStopRankings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.derived.TopStops)
}

func (s *Server) handleTimeSeries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.derived.TimeSeries)
}
