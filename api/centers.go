package api

import (
	"context"
	"net/http"

	"github.com/pamojavote/pamoja-go/enums"
	"github.com/pamojavote/pamoja-go/gateway"
	"github.com/pamojavote/pamoja-go/models"
)

var (
	centersPath       = resourcePath(enums.CenterResource)
	nearbyCentersPath = resourcePath(enums.CenterResource, "nearby")
)

type CentersClient struct {
	gw *gateway.Gateway
}

func (c *CentersClient) List(ctx context.Context, filter models.CenterFilter) (models.Page[models.Center], error) {
	query := map[string]any{}
	if filter.County != "" {
		query["county"] = filter.County
	}
	if filter.Search != "" {
		query["search"] = filter.Search
	}
	if filter.Page > 0 {
		query["page"] = filter.Page
	}
	return gateway.List[models.Center](ctx, c.gw, centersPath, query)
}

func (c *CentersClient) Get(ctx context.Context, id string) (models.Center, error) {
	var out models.Center
	path := resourcePath(enums.CenterResource, id)
	if err := requireID(http.MethodGet, path, "id", id); err != nil {
		return out, err
	}
	err := c.gw.Get(ctx, path, nil, &out)
	return out, err
}

// ByCounty lists the centers of one county. County names may contain
// spaces ("Tharaka Nithi") and are escaped into the path.
func (c *CentersClient) ByCounty(ctx context.Context, county string) (models.Page[models.Center], error) {
	path := resourcePath(enums.CenterResource, "county", county)
	if err := requireID(http.MethodGet, path, "county", county); err != nil {
		return models.Page[models.Center]{}, err
	}
	return gateway.List[models.Center](ctx, c.gw, path, nil)
}

// Nearby lists centers around a coordinate. A zero radius lets the backend
// pick its default.
func (c *CentersClient) Nearby(ctx context.Context, lat, lng, radiusKm float64) (models.Page[models.Center], error) {
	fields := map[string]any{}
	if lat < -90 || lat > 90 {
		fields["lat"] = []string{"Ensure this value is between -90 and 90."}
	}
	if lng < -180 || lng > 180 {
		fields["lng"] = []string{"Ensure this value is between -180 and 180."}
	}
	if radiusKm < 0 {
		fields["radius"] = []string{"Must be a positive number."}
	}
	if len(fields) > 0 {
		return models.Page[models.Center]{}, gateway.ValidationError(http.MethodGet, nearbyCentersPath, "invalid coordinates", fields)
	}

	query := map[string]any{"lat": lat, "lng": lng}
	if radiusKm > 0 {
		query["radius"] = radiusKm
	}
	return gateway.List[models.Center](ctx, c.gw, nearbyCentersPath, query)
}
