package parse

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"

	"github.com/gocarina/gocsv"

	"github.com/openmetro/transitdash/model"
	"github.com/openmetro/transitdash/storage"
)

type RouteCSV struct {
	ID        string `csv:"route_id"`
	AgencyID  string `csv:"agency_id"`
	ShortName string `csv:"route_short_name"`
	LongName  string `csv:"route_long_name"`
	Desc      string `csv:"route_desc"`
	Type      string `csv:"route_type"`
	Color     string `csv:"route_color"`
	TextColor string `csv:"route_text_color"`
}

func legalRouteType(t model.RouteType) bool {
	if t >= 0 && t <= 7 {
		return true
	}
	if t == model.RouteTypeTrolleybus || t == model.RouteTypeMonorail {
		return true
	}
	return false
}

func validRouteColor(color string) bool {
	if len(color) != 6 {
		return false
	}
	if _, err := hex.DecodeString(color); err != nil {
		return false
	}
	return true
}

// toRoute validates a row and fills in GTFS defaults (white on black
// when no colors are given).
func (r *RouteCSV) toRoute(agency map[string]bool) (*model.Route, error) {
	if r.ID == "" {
		return nil, fmt.Errorf("route has no route_id")
	}
	if len(agency) > 1 && r.AgencyID == "" {
		return nil, fmt.Errorf("route_id '%s' has no agency_id", r.ID)
	}
	if r.AgencyID != "" && !agency[r.AgencyID] {
		return nil, fmt.Errorf("unknown agency_id: '%s'", r.AgencyID)
	}
	if r.ShortName == "" && r.LongName == "" {
		return nil, fmt.Errorf("route_id '%s' has no short_name or long_name", r.ID)
	}

	if r.Type == "" {
		return nil, fmt.Errorf("route_id '%s' has no route_type", r.ID)
	}
	routeType, err := strconv.Atoi(r.Type)
	if err != nil {
		return nil, fmt.Errorf("route_id '%s' has invalid route_type: %w", r.ID, err)
	}
	if !legalRouteType(model.RouteType(routeType)) {
		return nil, fmt.Errorf("route_id '%s' has invalid route_type: %d", r.ID, routeType)
	}

	color, textColor := r.Color, r.TextColor
	if color == "" {
		color = "FFFFFF"
	} else if !validRouteColor(color) {
		return nil, fmt.Errorf("route_id '%s' has invalid route_color: %s", r.ID, color)
	}
	if textColor == "" {
		textColor = "000000"
	} else if !validRouteColor(textColor) {
		return nil, fmt.Errorf("route_id '%s' has invalid route_text_color: %s", r.ID, textColor)
	}

	return &model.Route{
		ID:        r.ID,
		AgencyID:  r.AgencyID,
		ShortName: r.ShortName,
		LongName:  r.LongName,
		Desc:      r.Desc,
		Type:      model.RouteType(routeType),
		Color:     color,
		TextColor: textColor,
	}, nil
}

func ParseRoutes(writer storage.FeedWriter, data io.Reader, agency map[string]bool) (map[string]bool, error) {
	records := []*RouteCSV{}
	if err := gocsv.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("unmarshaling routes: %v", err)
	}

	routes := map[string]bool{}
	for _, r := range records {
		if routes[r.ID] {
			return nil, fmt.Errorf("repeated route_id: '%s'", r.ID)
		}
		routes[r.ID] = true

		route, err := r.toRoute(agency)
		if err != nil {
			return nil, err
		}
		if err := writer.WriteRoute(route); err != nil {
			return nil, fmt.Errorf("writing route: %v", err)
		}
	}

	return routes, nil
}
