package cnpj

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validCNPJ = "11222333000181"

func TestIsValid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"valid", validCNPJ, true},
		{"wrong first digit", "11222333000191", false},
		{"wrong second digit", "11222333000182", false},
		{"all same", "11111111111111", false},
		{"short", "1122233300018", false},
		{"formatted is not digits", "11.222.333/0001-81", false},
		{"letters", "1122233300018a", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValid(tt.input))
		})
	}
}

func TestCleanAndFormat(t *testing.T) {
	assert.Equal(t, validCNPJ, Clean("11.222.333/0001-81"))
	assert.Equal(t, "11.222.333/0001-81", Format(validCNPJ))
	assert.Equal(t, "123", Format("123"))
}

func TestExtractCNPJ(t *testing.T) {
	assert.Equal(t, validCNPJ, ExtractCNPJ("Razão social XPTO - CNPJ 11.222.333/0001-81 - SP"))
	assert.Equal(t, validCNPJ, ExtractCNPJ("cnpj:11222333000181"))
	assert.Empty(t, ExtractCNPJ("CNPJ 11.222.333/0001-99"))
	assert.Empty(t, ExtractCNPJ("sem documento"))
}

func TestExtractCNPJ_SkipsInvalidMatches(t *testing.T) {
	assert.Equal(t, validCNPJ, ExtractCNPJ("antigo 11.222.333/0001-99, atual 11.222.333/0001-81"))
}

// ─── Registry ─────────────────────────────────────────────────────────────────

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
}

func (m *memCache) GetJSON(_ context.Context, key string, v any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, v)
}

func (m *memCache) SetJSON(_ context.Context, key string, v any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if m.data == nil {
		m.data = map[string][]byte{}
		m.ttls = map[string]time.Duration{}
	}
	m.data[key] = raw
	m.ttls[key] = ttl
	return nil
}

func TestRegistry_BrasilAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cnpj/v1/"+validCNPJ, r.URL.Path)
		fmt.Fprint(w, `{"cnpj":"11222333000181","razao_social":"COOPERMETAL LTDA","uf":"RS",
			"municipio":"PORTO ALEGRE","descricao_situacao_cadastral":"ATIVA",
			"data_inicio_atividade":"1999-01-01","cnae_fiscal_descricao":"Metalurgia"}`)
	}))
	defer srv.Close()

	reg := NewRegistry(nil, nil, &BrasilAPI{BaseURL: srv.URL, Client: srv.Client()})
	c, err := reg.Lookup(context.Background(), "11.222.333/0001-81")

	require.NoError(t, err)
	assert.Equal(t, "BrasilAPI", c.Source)
	assert.Equal(t, "RS", c.UF)
	assert.Equal(t, "COOPERMETAL LTDA", c.RazaoSocial)
	assert.Equal(t, "Metalurgia", c.CNAEDesc)
	assert.False(t, c.Simulated)
}

func TestRegistry_FallsBackToReceitaWS(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()
	receita := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/cnpj/"+validCNPJ, r.URL.Path)
		fmt.Fprint(w, `{"status":"OK","cnpj":"11.222.333/0001-81","nome":"ACME","uf":"PR",
			"abertura":"01/02/2003","atividade_principal":[{"text":"Comércio"}]}`)
	}))
	defer receita.Close()

	reg := NewRegistry(nil, nil,
		&BrasilAPI{BaseURL: down.URL, Client: down.Client()},
		&ReceitaWS{BaseURL: receita.URL, Client: receita.Client()},
	)
	c, err := reg.Lookup(context.Background(), validCNPJ)

	require.NoError(t, err)
	assert.Equal(t, "Receitaws", c.Source)
	assert.Equal(t, validCNPJ, c.CNPJ)
	assert.Equal(t, "PR", c.UF)
	assert.Equal(t, "Comércio", c.CNAEDesc)
}

func TestRegistry_ReceitaWSErrorStatusFallsToSimulation(t *testing.T) {
	receita := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"ERROR","message":"CNPJ inválido"}`)
	}))
	defer receita.Close()

	reg := NewRegistry(nil, nil, &ReceitaWS{BaseURL: receita.URL, Client: receita.Client()})
	reg.now = func() time.Time { return time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC) }

	c, err := reg.Lookup(context.Background(), validCNPJ)

	require.NoError(t, err)
	assert.True(t, c.Simulated)
	assert.Equal(t, SimulatedSource, c.Source)
	assert.Equal(t, "Empresa Simulada Ltda", c.RazaoSocial)
	assert.Equal(t, "SP", c.UF)
	assert.Equal(t, "2026-03-04", c.DataAbertura)
}

func TestRegistry_InvalidInput(t *testing.T) {
	_, err := NewRegistry(nil, nil).Lookup(context.Background(), "123")
	assert.ErrorIs(t, err, ErrInvalidCNPJ)
}

func TestRegistry_CachesRealRecordsOnly(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprintf(w, `{"cnpj":%q,"razao_social":"ACME","uf":"SC"}`, validCNPJ)
	}))
	defer srv.Close()

	cache := &memCache{}
	reg := NewRegistry(nil, cache, &BrasilAPI{BaseURL: srv.URL, Client: srv.Client()})

	for i := 0; i < 2; i++ {
		c, err := reg.Lookup(context.Background(), validCNPJ)
		require.NoError(t, err)
		assert.Equal(t, "SC", c.UF)
	}
	assert.Equal(t, 1, calls)
	assert.Equal(t, 7*24*time.Hour, cache.ttls["company:"+validCNPJ])

	failing := NewRegistry(nil, cache, &BrasilAPI{BaseURL: "http://127.0.0.1:1", Client: http.DefaultClient})
	c, err := failing.Lookup(context.Background(), "11444777000161")
	require.NoError(t, err)
	assert.True(t, c.Simulated)
	_, cached := cache.data["company:11444777000161"]
	assert.False(t, cached)
}

// ─── SiteExtractor ────────────────────────────────────────────────────────────

func TestSiteExtractor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/footer":
			fmt.Fprint(w, `<html><body><p>Fale conosco</p><footer>ACME Ltda - CNPJ: 11.222.333/0001-81</footer></body></html>`)
		case "/body":
			fmt.Fprint(w, `<html><body><script>var x="11444777000161"</script><div>CNPJ 11222333000181</div></body></html>`)
		default:
			fmt.Fprint(w, `<html><body>nada aqui</body></html>`)
		}
	}))
	defer srv.Close()

	ex := &SiteExtractor{Client: srv.Client()}

	got, err := ex.Extract(context.Background(), srv.URL+"/footer")
	require.NoError(t, err)
	assert.Equal(t, validCNPJ, got)

	got, err = ex.Extract(context.Background(), srv.URL+"/body")
	require.NoError(t, err)
	assert.Equal(t, validCNPJ, got, "script contents are ignored")

	_, err = ex.Extract(context.Background(), srv.URL+"/none")
	assert.ErrorIs(t, err, ErrNotFound)
}
