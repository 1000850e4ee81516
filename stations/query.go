package stations

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pamojavote/pamoja-go/models"
)

const DefaultPageSize = 20

type Filter struct {
	County string
	// Query matches name or location, case-insensitively.
	Query string
}

func Apply(centers []models.Center, filter Filter) []models.Center {
	county := strings.TrimSpace(filter.County)
	query := strings.ToLower(strings.TrimSpace(filter.Query))

	out := make([]models.Center, 0, len(centers))
	for _, c := range centers {
		if county != "" && !strings.EqualFold(c.County, county) {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(c.Name), query) &&
			!strings.Contains(strings.ToLower(c.Location), query) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Paginate returns the 1-based page of centers. Next and Previous hold the
// neighbouring page numbers, empty at the ends.
func Paginate(centers []models.Center, page, size int) models.Page[models.Center] {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}

	out := models.Page[models.Center]{Count: len(centers), Results: []models.Center{}}
	start := (page - 1) * size
	if start < len(centers) {
		end := min(start+size, len(centers))
		out.Results = centers[start:end]
		if end < len(centers) {
			out.Next = strconv.Itoa(page + 1)
		}
	}
	if page > 1 {
		out.Previous = strconv.Itoa(page - 1)
	}
	return out
}

type Nearby struct {
	Center     models.Center
	DistanceKm float64
}

// Nearest returns up to n centers ordered by distance from (lat, lng).
// Centers without coordinates are ignored.
func Nearest(centers []models.Center, lat, lng float64, n int) []Nearby {
	out := make([]Nearby, 0, len(centers))
	for _, c := range centers {
		if c.Lat == nil || c.Lng == nil {
			continue
		}
		out = append(out, Nearby{Center: c, DistanceKm: Distance(lat, lng, *c.Lat, *c.Lng)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

const earthRadiusKm = 6371.0

// Distance is the great-circle distance in kilometres (haversine).
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
