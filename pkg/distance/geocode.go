package distance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/lucasfdcampos/find-suppliers/internal/httpx"
	"github.com/lucasfdcampos/find-suppliers/pkg/fallback"
	"github.com/lucasfdcampos/find-suppliers/pkg/geo"
)

const (
	orsBaseURL      = "https://api.openrouteservice.org"
	geoapifyBaseURL = "https://api.geoapify.com"
	tomtomBaseURL   = "https://api.tomtom.com"

	nominatimBaseURL = "https://nominatim.openstreetmap.org"
	userAgent        = "find-suppliers/1.0"

	geocodeCacheTTL = 30 * 24 * time.Hour
)

// ErrNoAPIKey is returned by clients constructed without credentials.
var ErrNoAPIKey = errors.New("distance: chave de API não configurada")

// Geocoder resolves a free-text location label to coordinates.
type Geocoder interface {
	Name() string
	Geocode(ctx context.Context, label string) (geo.Point, error)
}

// Cache is the subset of the lookup cache used for geocoding results.
type Cache interface {
	GetJSON(ctx context.Context, key string, v any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
}

// ─── OpenRouteService ─────────────────────────────────────────────────────────

// ORSGeocoder uses the OpenRouteService (Pelias) geocoding endpoint.
type ORSGeocoder struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

// NewORSGeocoder returns a geocoder bound to the public ORS endpoint.
func NewORSGeocoder(apiKey string, timeout time.Duration) *ORSGeocoder {
	return &ORSGeocoder{APIKey: apiKey, BaseURL: orsBaseURL, Client: httpx.NewClient(timeout)}
}

func (g *ORSGeocoder) Name() string { return "OpenRouteService geocode" }

func (g *ORSGeocoder) Geocode(ctx context.Context, label string) (geo.Point, error) {
	if g.APIKey == "" {
		return geo.Point{}, ErrNoAPIKey
	}

	q := url.Values{}
	q.Set("api_key", g.APIKey)
	q.Set("text", label)

	var result struct {
		Features []struct {
			Geometry struct {
				Coordinates []float64 `json:"coordinates"` // [lon, lat]
			} `json:"geometry"`
		} `json:"features"`
	}
	if err := getJSON(ctx, g.Client, g.BaseURL+"/geocode/search?"+q.Encode(), &result); err != nil {
		return geo.Point{}, fmt.Errorf("ors geocode %q: %w", label, err)
	}
	if len(result.Features) == 0 || len(result.Features[0].Geometry.Coordinates) < 2 {
		return geo.Point{}, fmt.Errorf("ors geocode %q: nenhum resultado", label)
	}

	c := result.Features[0].Geometry.Coordinates
	return geo.Point{Lat: c[1], Lon: c[0]}, nil
}

// ─── Geoapify ─────────────────────────────────────────────────────────────────

// GeoapifyGeocoder uses the Geoapify geocoding API.
type GeoapifyGeocoder struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

// NewGeoapifyGeocoder returns a geocoder bound to the public Geoapify endpoint.
func NewGeoapifyGeocoder(apiKey string, timeout time.Duration) *GeoapifyGeocoder {
	return &GeoapifyGeocoder{APIKey: apiKey, BaseURL: geoapifyBaseURL, Client: httpx.NewClient(timeout)}
}

func (g *GeoapifyGeocoder) Name() string { return "Geoapify geocode" }

func (g *GeoapifyGeocoder) Geocode(ctx context.Context, label string) (geo.Point, error) {
	if g.APIKey == "" {
		return geo.Point{}, ErrNoAPIKey
	}

	q := url.Values{}
	q.Set("text", label+", Brazil")
	q.Set("format", "json")
	q.Set("apiKey", g.APIKey)

	var result struct {
		Results []struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"results"`
	}
	if err := getJSON(ctx, g.Client, g.BaseURL+"/v1/geocode/search?"+q.Encode(), &result); err != nil {
		return geo.Point{}, fmt.Errorf("geoapify geocode %q: %w", label, err)
	}
	if len(result.Results) == 0 {
		return geo.Point{}, fmt.Errorf("geoapify geocode %q: nenhum resultado", label)
	}

	return geo.Point{Lat: result.Results[0].Lat, Lon: result.Results[0].Lon}, nil
}

// ─── TomTom ───────────────────────────────────────────────────────────────────

// TomTomGeocoder uses the TomTom Search geocode endpoint.
type TomTomGeocoder struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

func NewTomTomGeocoder(apiKey string, timeout time.Duration) *TomTomGeocoder {
	return &TomTomGeocoder{APIKey: apiKey, BaseURL: tomtomBaseURL, Client: httpx.NewClient(timeout)}
}

func (g *TomTomGeocoder) Name() string { return "TomTom geocode" }

func (g *TomTomGeocoder) Geocode(ctx context.Context, label string) (geo.Point, error) {
	if g.APIKey == "" {
		return geo.Point{}, ErrNoAPIKey
	}

	q := url.Values{}
	q.Set("key", g.APIKey)
	q.Set("countrySet", "BR")
	q.Set("limit", "1")
	q.Set("language", "pt-BR")

	var result struct {
		Results []struct {
			Position struct {
				Lat float64 `json:"lat"`
				Lon float64 `json:"lon"`
			} `json:"position"`
		} `json:"results"`
	}
	reqURL := fmt.Sprintf("%s/search/2/geocode/%s.json?%s", g.BaseURL, url.PathEscape(label), q.Encode())
	if err := getJSON(ctx, g.Client, reqURL, &result); err != nil {
		return geo.Point{}, fmt.Errorf("tomtom geocode %q: %w", label, err)
	}
	if len(result.Results) == 0 {
		return geo.Point{}, fmt.Errorf("tomtom geocode %q: nenhum resultado", label)
	}

	p := result.Results[0].Position
	return geo.Point{Lat: p.Lat, Lon: p.Lon}, nil
}

// ─── Nominatim ────────────────────────────────────────────────────────────────

// NominatimGeocoder uses the public OpenStreetMap Nominatim search. It needs
// no key but the usage policy allows about one request per second.
type NominatimGeocoder struct {
	BaseURL string
	Client  *http.Client
}

func NewNominatimGeocoder(timeout time.Duration) *NominatimGeocoder {
	return &NominatimGeocoder{BaseURL: nominatimBaseURL, Client: httpx.NewClient(timeout)}
}

func (g *NominatimGeocoder) Name() string { return "Nominatim geocode" }

func (g *NominatimGeocoder) Geocode(ctx context.Context, label string) (geo.Point, error) {
	q := url.Values{}
	q.Set("q", label+", Brazil")
	q.Set("format", "json")
	q.Set("limit", "1")

	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := getJSON(ctx, g.Client, g.BaseURL+"/search?"+q.Encode(), &results); err != nil {
		return geo.Point{}, fmt.Errorf("nominatim %q: %w", label, err)
	}
	if len(results) == 0 {
		return geo.Point{}, fmt.Errorf("nominatim %q: cidade não encontrada", label)
	}

	lat, errLat := strconv.ParseFloat(results[0].Lat, 64)
	lon, errLon := strconv.ParseFloat(results[0].Lon, 64)
	if errLat != nil || errLon != nil {
		return geo.Point{}, fmt.Errorf("nominatim %q: coordenadas inválidas %q,%q", label, results[0].Lat, results[0].Lon)
	}
	return geo.Point{Lat: lat, Lon: lon}, nil
}

// ─── Chain + cache ────────────────────────────────────────────────────────────

// GeocoderChain tries each geocoder in order and keeps the first answer.
type GeocoderChain struct {
	geocoders []Geocoder
	cache     Cache
	logger    *zap.Logger
}

// NewGeocoderChain builds a chain. cache may be nil.
func NewGeocoderChain(logger *zap.Logger, cache Cache, geocoders ...Geocoder) *GeocoderChain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeocoderChain{geocoders: geocoders, cache: cache, logger: logger}
}

func (c *GeocoderChain) Name() string { return "geocoder chain" }

func (c *GeocoderChain) Geocode(ctx context.Context, label string) (geo.Point, error) {
	key := "geocode:" + label
	if c.cache != nil {
		var p geo.Point
		if hit, err := c.cache.GetJSON(ctx, key, &p); err == nil && hit {
			return p, nil
		}
	}

	strategies := make([]fallback.Strategy[geo.Point], 0, len(c.geocoders))
	for _, g := range c.geocoders {
		g := g
		strategies = append(strategies, fallback.New(g.Name(), func(ctx context.Context) (geo.Point, error) {
			return g.Geocode(ctx, label)
		}))
	}

	out := fallback.First(ctx, 0, strategies...)
	for _, a := range out.Failures() {
		c.logger.Debug("geocoder failed", zap.String("geocoder", a.Name), zap.String("label", label), zap.Error(a.Err))
	}
	if !out.OK() {
		return geo.Point{}, out.Err()
	}

	if c.cache != nil {
		_ = c.cache.SetJSON(ctx, key, out.Value, geocodeCacheTTL)
	}
	return out.Value, nil
}

// ─── helpers ──────────────────────────────────────────────────────────────────

func getJSON(ctx context.Context, client *http.Client, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("erro ao criar requisição: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := httpx.DoWithRetry(ctx, client, req, 2, 0)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("erro ao decodificar resposta: %w", err)
	}
	return nil
}
