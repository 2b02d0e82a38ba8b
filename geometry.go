package transitdash

import (
	"github.com/sirupsen/logrus"

	"github.com/openmetro/transitdash/model"
)

// Map-ready route geometry plus the display attributes the dashboard
// styles it with.
type RouteGeometry struct {
	RouteID   string        `json:"route_id"`
	ShortName string        `json:"short_name"`
	Mode      string        `json:"mode"`
	Color     string        `json:"color"`
	Tier      string        `json:"tier"`
	Points    []model.Point `json:"points,omitempty"`
}

// Map-ready stop marker.
type StopGeometry struct {
	StopID    string      `json:"stop_id"`
	Name      string      `json:"name"`
	Point     model.Point `json:"point"`
	Mode      string      `json:"mode"`
	ModeKnown bool        `json:"mode_known"`
	Color     string      `json:"color"`
}

// BuildRouteGeometries produces one geometry per route, in feed route
// order. Each route draws the shape used by the most of its trips
// (first-seen on ties). Routes with no usable shape still get an
// entry so the route list stays complete; they just have no path to
// draw.
func BuildRouteGeometries(snap *Snapshot, tiers map[string]model.FrequencyTier) []RouteGeometry {
	type shapeAgg struct {
		counts map[string]int
		order  []string
	}

	shapeUse := map[string]*shapeAgg{}
	for _, t := range snap.Trips() {
		if t.ShapeID == "" {
			continue
		}
		agg, found := shapeUse[t.RouteID]
		if !found {
			agg = &shapeAgg{counts: map[string]int{}}
			shapeUse[t.RouteID] = agg
		}
		if agg.counts[t.ShapeID] == 0 {
			agg.order = append(agg.order, t.ShapeID)
		}
		agg.counts[t.ShapeID]++
	}

	geometries := []RouteGeometry{}
	missing := 0
	for _, route := range snap.Routes() {
		var points []model.Point
		if agg, found := shapeUse[route.ID]; found {
			best := agg.order[0]
			for _, shapeID := range agg.order[1:] {
				if agg.counts[shapeID] > agg.counts[best] {
					best = shapeID
				}
			}
			points = snap.ShapePath(best)
		}
		if len(points) < 2 {
			points = nil
			missing++
		}

		geometries = append(geometries, RouteGeometry{
			RouteID:   route.ID,
			ShortName: routeDisplayName(route),
			Mode:      route.Type.Name(),
			Color:     route.Type.Color(),
			Tier:      tiers[route.ID].String(),
			Points:    points,
		})
	}

	if missing > 0 {
		logrus.WithField("routes", missing).Warn("routes without drawable shapes")
	}
	return geometries
}

// BuildStopGeometries produces one marker per mappable stop, in feed
// stop order, styled by the stop's dominant mode. Stops with no
// associations at all keep the neutral unknown styling rather than
// being dropped.
func BuildStopGeometries(snap *Snapshot, modes map[string]model.RouteType) []StopGeometry {
	geometries := []StopGeometry{}
	for _, stop := range snap.Stops() {
		name := model.UnknownModeName
		color := model.UnknownModeColor
		mode, known := modes[stop.ID]
		if known {
			name = mode.Name()
			color = mode.Color()
		}

		geometries = append(geometries, StopGeometry{
			StopID:    stop.ID,
			Name:      stop.Name,
			Point:     model.Point{Lat: stop.Lat, Lon: stop.Lon},
			Mode:      name,
			ModeKnown: known,
			Color:     color,
		})
	}
	return geometries
}
