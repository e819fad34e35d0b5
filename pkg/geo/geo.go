// Package geo holds the static reference data used by the cost estimator
// (known city coordinates, UF → macro-region and per-region freight rates)
// plus the great-circle math over it.
//
// The tables live in data/reference.yaml, are decoded once on first use and
// are never handed out as mutable maps.
package geo

import (
	_ "embed"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// EarthRadiusKm is the mean Earth radius used by Haversine.
const EarthRadiusKm = 6371.0

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Region is one of the five Brazilian macro-regions.
type Region string

const (
	RegionNorte       Region = "N"
	RegionNordeste    Region = "NE"
	RegionCentroOeste Region = "CO"
	RegionSudeste     Region = "SE"
	RegionSul         Region = "S"
)

// DefaultRegion is used for UF codes not present in the table.
const DefaultRegion = RegionSudeste

//go:embed data/reference.yaml
var referenceYAML []byte

type referenceFile struct {
	Coordinates map[string][]float64 `yaml:"coordinates"`
	RegionRates map[string]string    `yaml:"region_rates"`
	Regions     map[string][]string  `yaml:"regions"`
}

type tables struct {
	coords map[string]Point
	rates  map[Region]decimal.Decimal
	ufs    map[string]Region
}

var (
	loadOnce sync.Once
	loaded   *tables
	loadErr  error
)

func load() *tables {
	loadOnce.Do(func() {
		loaded, loadErr = parseReference(referenceYAML)
	})
	if loadErr != nil {
		// The file is embedded at build time; a decode failure is a programming error.
		panic(loadErr)
	}
	return loaded
}

func parseReference(raw []byte) (*tables, error) {
	var f referenceFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("geo: decode reference data: %w", err)
	}

	t := &tables{
		coords: make(map[string]Point, len(f.Coordinates)),
		rates:  make(map[Region]decimal.Decimal, len(f.RegionRates)),
		ufs:    make(map[string]Region),
	}
	for label, ll := range f.Coordinates {
		if len(ll) != 2 {
			return nil, fmt.Errorf("geo: coordinates for %q must be [lat, lon]", label)
		}
		t.coords[label] = Point{Lat: ll[0], Lon: ll[1]}
	}
	for region, raw := range f.RegionRates {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("geo: rate for region %s: %w", region, err)
		}
		t.rates[Region(region)] = rate
	}
	for region, ufs := range f.Regions {
		if _, ok := t.rates[Region(region)]; !ok {
			return nil, fmt.Errorf("geo: region %s has no rate", region)
		}
		for _, uf := range ufs {
			t.ufs[uf] = Region(region)
		}
	}
	if _, ok := t.rates[DefaultRegion]; !ok {
		return nil, fmt.Errorf("geo: default region %s has no rate", DefaultRegion)
	}
	return t, nil
}

// ─── Coordinates ──────────────────────────────────────────────────────────────

// Coordinates returns the known position for an exact table label such as
// "Porto Alegre, RS". Lookups are exact: no trimming or case folding.
func Coordinates(label string) (Point, bool) {
	p, ok := load().coords[label]
	return p, ok
}

// KnownLabels lists the table labels in alphabetical order.
func KnownLabels() []string {
	t := load()
	out := make([]string, 0, len(t.coords))
	for k := range t.coords {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Haversine returns the great-circle distance in kilometers.
func Haversine(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// ─── UF / regions ─────────────────────────────────────────────────────────────

// StateCode returns the trailing UF of a "City, UF" label: the last
// comma-separated token, trimmed. A label without a comma is returned as-is.
func StateCode(label string) string {
	if !strings.Contains(label, ",") {
		return label
	}
	parts := strings.Split(label, ",")
	return strings.TrimSpace(parts[len(parts)-1])
}

// RegionOf maps a UF to its macro-region. Only the last two characters of the
// trimmed code are considered; unknown codes fall back to DefaultRegion.
func RegionOf(uf string) Region {
	uf = strings.TrimSpace(uf)
	if len(uf) > 2 {
		uf = uf[len(uf)-2:]
	}
	if r, ok := load().ufs[uf]; ok {
		return r
	}
	return DefaultRegion
}

// RegionRate returns the freight rate per km for a region. Unknown regions
// use the DefaultRegion rate.
func RegionRate(r Region) decimal.Decimal {
	t := load()
	if rate, ok := t.rates[r]; ok {
		return rate
	}
	return t.rates[DefaultRegion]
}

// ─── Location parsing ─────────────────────────────────────────────────────────

var locationSep = regexp.MustCompile(`[\s,\-]+`)

// ParseLocation divide "Arapongas-PR", "Arapongas - PR" ou "Arapongas, PR" em
// cidade e UF. Sem UF reconhecível, a string inteira é a cidade.
func ParseLocation(location string) (city, state string) {
	location = strings.TrimSpace(location)

	tokens := locationSep.Split(location, -1)
	if len(tokens) >= 2 {
		last := strings.ToUpper(tokens[len(tokens)-1])
		if len(last) == 2 && last >= "AA" && last <= "ZZ" {
			return strings.Join(tokens[:len(tokens)-1], " "), last
		}
	}

	return location, ""
}

// FormatLocation normaliza a localização para o rótulo "Cidade, UF" usado na
// tabela de coordenadas. Entradas sem UF reconhecível voltam apenas aparadas.
func FormatLocation(location string) string {
	city, state := ParseLocation(location)
	if state == "" {
		return strings.TrimSpace(location)
	}
	return city + ", " + state
}
