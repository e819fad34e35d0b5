package geo

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversine(t *testing.T) {
	sp, ok := Coordinates("São Paulo, SP")
	require.True(t, ok)
	rj, ok := Coordinates("Rio de Janeiro, RJ")
	require.True(t, ok)
	poa, ok := Coordinates("Porto Alegre, RS")
	require.True(t, ok)

	tests := []struct {
		name      string
		a, b      Point
		expected  float64
		tolerance float64
	}{
		{"same point", sp, sp, 0, 0.001},
		{"São Paulo to Rio de Janeiro", sp, rj, 360.75, 0.05},
		{"Rio de Janeiro to São Paulo", rj, sp, 360.75, 0.05},
		{"São Paulo to Porto Alegre", sp, poa, 852.85, 0.05},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Haversine(tt.a, tt.b), tt.tolerance)
		})
	}
}

func TestCoordinates_ExactLabelsOnly(t *testing.T) {
	_, ok := Coordinates("SP")
	assert.False(t, ok)
	_, ok = Coordinates("são paulo, sp")
	assert.False(t, ok)
	assert.Len(t, KnownLabels(), 9)
}

func TestStateCode(t *testing.T) {
	tests := map[string]string{
		"São Paulo, SP":             "SP",
		"São Bernardo do Campo, SP": "SP",
		"Cidade, Bairro,  RS ":      "RS",
		"RS":                        "RS",
		" RS ":                      " RS ",
		"":                          "",
	}
	for in, want := range tests {
		assert.Equal(t, want, StateCode(in), "StateCode(%q)", in)
	}
}

func TestRegionOf(t *testing.T) {
	tests := []struct {
		uf   string
		want Region
	}{
		{"AM", RegionNorte},
		{"BA", RegionNordeste},
		{"SE", RegionNordeste},
		{"DF", RegionCentroOeste},
		{"SP", RegionSudeste},
		{"RS", RegionSul},
		{" rs", RegionSudeste},
		{"Porto Alegre-RS", RegionSul},
		{"XX", DefaultRegion},
		{"", DefaultRegion},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RegionOf(tt.uf), "RegionOf(%q)", tt.uf)
	}
}

func TestRegionRate(t *testing.T) {
	assert.True(t, decimal.RequireFromString("1.2").Equal(RegionRate(RegionNorte)))
	assert.True(t, decimal.RequireFromString("1.0").Equal(RegionRate(RegionNordeste)))
	assert.True(t, decimal.RequireFromString("0.9").Equal(RegionRate(RegionCentroOeste)))
	assert.True(t, decimal.RequireFromString("0.75").Equal(RegionRate(RegionSudeste)))
	assert.True(t, decimal.RequireFromString("0.7").Equal(RegionRate(RegionSul)))
	assert.True(t, RegionRate(Region("??")).Equal(RegionRate(DefaultRegion)))
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		in, city, state string
	}{
		{"Arapongas-PR", "Arapongas", "PR"},
		{"Arapongas - PR", "Arapongas", "PR"},
		{"Porto Alegre, rs", "Porto Alegre", "RS"},
		{"Porto Alegre", "Porto Alegre", ""},
		{"RS", "RS", ""},
	}
	for _, tt := range tests {
		city, state := ParseLocation(tt.in)
		assert.Equal(t, tt.city, city, tt.in)
		assert.Equal(t, tt.state, state, tt.in)
	}
}

func TestFormatLocation(t *testing.T) {
	assert.Equal(t, "Porto Alegre, RS", FormatLocation("Porto Alegre-RS"))
	assert.Equal(t, "Porto Alegre, RS", FormatLocation(" Porto Alegre - rs "))
	assert.Equal(t, "São Paulo, SP", FormatLocation("São Paulo, SP"))
	assert.Equal(t, "SP", FormatLocation(" SP "))
	assert.Equal(t, "Canoas", FormatLocation("Canoas"))

	_, ok := Coordinates(FormatLocation("Porto Alegre-RS"))
	assert.True(t, ok)
}

func TestParseReference_Errors(t *testing.T) {
	_, err := parseReference([]byte("coordinates:\n  \"X, YY\": [1]\nregion_rates:\n  SE: \"1\"\n"))
	assert.Error(t, err)

	_, err = parseReference([]byte("region_rates:\n  SE: \"abc\"\n"))
	assert.Error(t, err)

	_, err = parseReference([]byte("region_rates:\n  N: \"1\"\n"))
	assert.Error(t, err, "missing default region rate")
}
