package devserver

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/pamojavote/pamoja-go/models"
	"github.com/pamojavote/pamoja-go/stations"
)

const defaultNearbyRadiusKm = 10.0

func (s *Server) listCenters(c echo.Context) error {
	county := c.QueryParam("county")
	search := strings.ToLower(strings.TrimSpace(c.QueryParam("search")))

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	out := []models.Center{}
	for _, center := range s.state.centers {
		if county != "" && center.County != county {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(center.Name), search) &&
			!strings.Contains(strings.ToLower(center.Address), search) &&
			!strings.Contains(strings.ToLower(center.County), search) {
			continue
		}
		out = append(out, center)
	}
	return paginate(c, out)
}

func (s *Server) getCenter(c echo.Context) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	center := s.state.center(c.Param("id"))
	if center == nil {
		return notFound()
	}
	return c.JSON(http.StatusOK, center)
}

func (s *Server) centersByCounty(c echo.Context) error {
	county, err := url.PathUnescape(c.Param("county"))
	if err != nil {
		return notFound()
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	out := []models.Center{}
	for _, center := range s.state.centers {
		if center.County == county {
			out = append(out, center)
		}
	}
	return list(c, out)
}

// nearbyCenters answers with the centers within radius km of (lat, lng),
// nearest first.
func (s *Server) nearbyCenters(c echo.Context) error {
	fields := map[string][]string{}
	coordinate := func(name string, limit float64) float64 {
		v, err := strconv.ParseFloat(c.QueryParam(name), 64)
		if err != nil || v < -limit || v > limit {
			fields[name] = []string{"A valid number is required."}
		}
		return v
	}
	lat := coordinate("lat", 90)
	lng := coordinate("lng", 180)

	radius := defaultNearbyRadiusKm
	if raw := c.QueryParam("radius"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			fields["radius"] = []string{"A valid number is required."}
		}
		radius = v
	}
	if len(fields) > 0 {
		return fieldErrors(fields)
	}

	s.state.mu.Lock()
	nearby := stations.Nearest(s.state.centers, lat, lng, 0)
	s.state.mu.Unlock()

	out := []models.Center{}
	for _, n := range nearby {
		if n.DistanceKm > radius {
			break
		}
		out = append(out, n.Center)
	}
	return list(c, out)
}
