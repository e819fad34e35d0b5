package distance

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/lucasfdcampos/find-suppliers/internal/httpx"
	"github.com/lucasfdcampos/find-suppliers/pkg/geo"
)

// Router returns the road distance in meters between two points.
type Router interface {
	Name() string
	Route(ctx context.Context, from, to geo.Point) (float64, error)
}

// ORSRouter calls the OpenRouteService driving-car directions endpoint.
type ORSRouter struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

// NewORSRouter returns a router bound to the public ORS endpoint.
func NewORSRouter(apiKey string, timeout time.Duration) *ORSRouter {
	return &ORSRouter{APIKey: apiKey, BaseURL: orsBaseURL, Client: httpx.NewClient(timeout)}
}

func (r *ORSRouter) Name() string { return "OpenRouteService directions" }

// Route reads routes[0].summary.distance, or the GeoJSON form
// features[0].properties.summary.distance. Anything else is an error.
func (r *ORSRouter) Route(ctx context.Context, from, to geo.Point) (float64, error) {
	if r.APIKey == "" {
		return 0, ErrNoAPIKey
	}

	q := url.Values{}
	q.Set("api_key", r.APIKey)
	q.Set("start", fmt.Sprintf("%f,%f", from.Lon, from.Lat))
	q.Set("end", fmt.Sprintf("%f,%f", to.Lon, to.Lat))

	type summary struct {
		Distance *float64 `json:"distance"`
	}
	var result struct {
		Routes []struct {
			Summary summary `json:"summary"`
		} `json:"routes"`
		Features []struct {
			Properties struct {
				Summary summary `json:"summary"`
			} `json:"properties"`
		} `json:"features"`
	}
	if err := getJSON(ctx, r.Client, r.BaseURL+"/v2/directions/driving-car?"+q.Encode(), &result); err != nil {
		return 0, fmt.Errorf("ors directions: %w", err)
	}

	switch {
	case len(result.Routes) > 0 && result.Routes[0].Summary.Distance != nil:
		return *result.Routes[0].Summary.Distance, nil
	case len(result.Features) > 0 && result.Features[0].Properties.Summary.Distance != nil:
		return *result.Features[0].Properties.Summary.Distance, nil
	default:
		return 0, fmt.Errorf("ors directions: resposta sem distância")
	}
}
