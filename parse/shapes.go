package parse

import (
	"io"
	"strconv"

	"github.com/gocarina/gocsv"
	"github.com/sirupsen/logrus"

	"github.com/openmetro/transitdash/model"
	"github.com/openmetro/transitdash/storage"
)

// Lat/lon parsed as strings so a single garbage row can be skipped
// instead of failing the whole unmarshal.
type ShapeCSV struct {
	ShapeID  string `csv:"shape_id"`
	Lat      string `csv:"shape_pt_lat"`
	Lon      string `csv:"shape_pt_lon"`
	Sequence uint32 `csv:"shape_pt_sequence"`
}

// ParseShapes reads shapes.txt and returns the set of shape IDs with
// at least one valid point. Unlike the other tables, malformed rows
// are skipped with a diagnostic: shape data quality varies wildly
// between agencies, and a broken shape should cost a route its
// geometry, not the whole feed.
func ParseShapes(writer storage.FeedWriter, data io.Reader) (map[string]bool, error) {
	shapes := map[string]bool{}

	i := -1
	skipped := 0
	err := gocsv.UnmarshalToCallbackWithError(data, func(sh *ShapeCSV) error {
		i += 1

		if sh.ShapeID == "" {
			skipped++
			return nil
		}

		lat, latErr := strconv.ParseFloat(sh.Lat, 64)
		lon, lonErr := strconv.ParseFloat(sh.Lon, 64)
		if latErr != nil || lonErr != nil {
			logrus.WithFields(logrus.Fields{
				"shape": sh.ShapeID,
				"row":   i + 1,
			}).Warn("skipping shape point with invalid coordinates")
			skipped++
			return nil
		}
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			logrus.WithFields(logrus.Fields{
				"shape": sh.ShapeID,
				"row":   i + 1,
			}).Warn("skipping shape point out of coordinate range")
			skipped++
			return nil
		}

		if err := writer.WriteShapePoint(&model.ShapePoint{
			ShapeID:  sh.ShapeID,
			Lat:      lat,
			Lon:      lon,
			Sequence: sh.Sequence,
		}); err != nil {
			return err
		}

		shapes[sh.ShapeID] = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if skipped > 0 {
		logrus.WithField("rows", skipped).Warn("skipped malformed shape rows")
	}

	return shapes, nil
}
