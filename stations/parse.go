// Package stations turns the IEBC polling-station GeoJSON export into
// registration centers and answers simple lookups over them offline.
package stations

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/pamojavote/pamoja-go/models"
)

// ErrNoFeatures is returned when a document carries no features at all.
var ErrNoFeatures = errors.New("geojson document has no features")

// Parse converts a FeatureCollection into centers. Features without
// coordinates or a name, or placed at a zero coordinate, are skipped; ids
// are assigned in order over the kept features.
func Parse(raw []byte) ([]models.Center, error) {
	if !gjson.ValidBytes(raw) {
		return nil, errors.New("polling stations document is not valid JSON")
	}

	features := gjson.GetBytes(raw, "features")
	if !features.IsArray() || len(features.Array()) == 0 {
		return nil, ErrNoFeatures
	}

	centers := make([]models.Center, 0, len(features.Array()))
	features.ForEach(func(_, feature gjson.Result) bool {
		coords := feature.Get("geometry.coordinates").Array()
		name := feature.Get("properties.name").String()
		if len(coords) < 2 || name == "" {
			return true
		}
		lng, lat := coords[0].Float(), coords[1].Float()
		if lng == 0 || lat == 0 {
			return true
		}

		props := feature.Get("properties")
		ward := props.Get("ward").String()
		county := props.Get("county").String()

		location := ward
		if location == "" {
			location = "Unknown Location"
		}
		wardLabel := ward
		if wardLabel == "" {
			wardLabel = "Unknown"
		}

		centers = append(centers, models.Center{
			ID:           fmt.Sprintf("center-%d", len(centers)),
			Name:         name,
			County:       county,
			Constituency: props.Get("constituen").String(),
			Ward:         ward,
			Location:     location,
			Description:  fmt.Sprintf("Registration center in %s, %s", wardLabel, county),
			Lat:          &lat,
			Lng:          &lng,
		})
		return true
	})
	return centers, nil
}
