package cnpj

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lucasfdcampos/find-suppliers/internal/httpx"
	"github.com/lucasfdcampos/find-suppliers/pkg/fallback"
)

const (
	brasilAPIBaseURL = "https://brasilapi.com.br"
	receitaWSBaseURL = "https://www.receitaws.com.br"

	// SimulatedSource tags records generated locally when no registry answered.
	SimulatedSource = "Simulação Local"

	companyCacheTTL = 7 * 24 * time.Hour
)

// Company is the registry data used by the search and acquisition flows.
type Company struct {
	CNPJ         string `json:"cnpj"`
	RazaoSocial  string `json:"razao_social"`
	NomeFantasia string `json:"nome_fantasia"`
	UF           string `json:"uf"`
	Municipio    string `json:"municipio"`
	Situacao     string `json:"situacao"`
	DataAbertura string `json:"data_abertura"`
	CNAEDesc     string `json:"cnae_principal"`
	Logradouro   string `json:"logradouro"`
	Bairro       string `json:"bairro"`
	Source       string `json:"fonte"`
	Simulated    bool   `json:"simulado"`
}

// Formatted returns the CNPJ with punctuation.
func (c Company) Formatted() string { return Format(c.CNPJ) }

// Source is one public registry.
type Source interface {
	Name() string
	Fetch(ctx context.Context, cnpj string) (Company, error)
}

// Cache is the subset of the lookup cache used for registry records.
type Cache interface {
	GetJSON(ctx context.Context, key string, v any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
}

// ─── BrasilAPI ────────────────────────────────────────────────────────────────

type BrasilAPI struct {
	BaseURL string
	Client  *http.Client
}

func NewBrasilAPI() *BrasilAPI {
	return &BrasilAPI{BaseURL: brasilAPIBaseURL, Client: httpx.NewClient(10 * time.Second)}
}

func (b *BrasilAPI) Name() string { return "BrasilAPI" }

func (b *BrasilAPI) Fetch(ctx context.Context, cnpj string) (Company, error) {
	var result struct {
		CNPJ         string `json:"cnpj"`
		RazaoSocial  string `json:"razao_social"`
		NomeFantasia string `json:"nome_fantasia"`
		UF           string `json:"uf"`
		Municipio    string `json:"municipio"`
		Situacao     string `json:"descricao_situacao_cadastral"`
		DataInicio   string `json:"data_inicio_atividade"`
		CNAEDesc     string `json:"cnae_fiscal_descricao"`
		Logradouro   string `json:"logradouro"`
		Bairro       string `json:"bairro"`
	}
	if err := fetchJSON(ctx, b.Client, fmt.Sprintf("%s/api/cnpj/v1/%s", b.BaseURL, cnpj), &result); err != nil {
		return Company{}, err
	}
	if result.CNPJ == "" {
		return Company{}, fmt.Errorf("CNPJ não encontrado")
	}

	return Company{
		CNPJ:         Clean(result.CNPJ),
		RazaoSocial:  result.RazaoSocial,
		NomeFantasia: result.NomeFantasia,
		UF:           result.UF,
		Municipio:    result.Municipio,
		Situacao:     result.Situacao,
		DataAbertura: result.DataInicio,
		CNAEDesc:     result.CNAEDesc,
		Logradouro:   result.Logradouro,
		Bairro:       result.Bairro,
		Source:       b.Name(),
	}, nil
}

// ─── ReceitaWS ────────────────────────────────────────────────────────────────

type ReceitaWS struct {
	BaseURL string
	Client  *http.Client
}

func NewReceitaWS() *ReceitaWS {
	return &ReceitaWS{BaseURL: receitaWSBaseURL, Client: httpx.NewClient(15 * time.Second)}
}

func (r *ReceitaWS) Name() string { return "Receitaws" }

func (r *ReceitaWS) Fetch(ctx context.Context, cnpj string) (Company, error) {
	var result struct {
		Status             string `json:"status"`
		Message            string `json:"message"`
		CNPJ               string `json:"cnpj"`
		Nome               string `json:"nome"`
		Fantasia           string `json:"fantasia"`
		UF                 string `json:"uf"`
		Municipio          string `json:"municipio"`
		Situacao           string `json:"situacao"`
		Abertura           string `json:"abertura"`
		Logradouro         string `json:"logradouro"`
		Bairro             string `json:"bairro"`
		AtividadePrincipal []struct {
			Text string `json:"text"`
		} `json:"atividade_principal"`
	}
	if err := fetchJSON(ctx, r.Client, fmt.Sprintf("%s/v1/cnpj/%s", r.BaseURL, cnpj), &result); err != nil {
		return Company{}, err
	}
	if result.Status == "ERROR" {
		return Company{}, fmt.Errorf("receitaws: %s", result.Message)
	}

	c := Company{
		CNPJ:         Clean(result.CNPJ),
		RazaoSocial:  result.Nome,
		NomeFantasia: result.Fantasia,
		UF:           result.UF,
		Municipio:    result.Municipio,
		Situacao:     result.Situacao,
		DataAbertura: result.Abertura,
		Logradouro:   result.Logradouro,
		Bairro:       result.Bairro,
		Source:       r.Name(),
	}
	if c.CNPJ == "" {
		c.CNPJ = cnpj
	}
	if len(result.AtividadePrincipal) > 0 {
		c.CNAEDesc = result.AtividadePrincipal[0].Text
	}
	return c, nil
}

// ─── Simulação local ──────────────────────────────────────────────────────────

// Simulated builds the placeholder record used when every registry failed.
func Simulated(cnpj string, now time.Time) Company {
	return Company{
		CNPJ:         cnpj,
		RazaoSocial:  "Empresa Simulada Ltda",
		NomeFantasia: "Fornecedor Padrão",
		UF:           "SP",
		Municipio:    "São Paulo",
		Situacao:     "ATIVA",
		DataAbertura: now.Format("2006-01-02"),
		CNAEDesc:     "Comércio varejista de produtos diversos",
		Logradouro:   "Rua Fictícia, 123",
		Bairro:       "Centro",
		Source:       SimulatedSource,
		Simulated:    true,
	}
}

// ─── Registry ─────────────────────────────────────────────────────────────────

// Registry consulta as fontes em ordem e cai para o registro simulado.
type Registry struct {
	sources []Source
	cache   Cache
	logger  *zap.Logger
	now     func() time.Time
}

// NewRegistry builds a registry over sources. With no sources it uses
// BrasilAPI then ReceitaWS. cache and logger may be nil.
func NewRegistry(logger *zap.Logger, cache Cache, sources ...Source) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(sources) == 0 {
		sources = []Source{NewBrasilAPI(), NewReceitaWS()}
	}
	return &Registry{sources: sources, cache: cache, logger: logger, now: time.Now}
}

// Lookup returns the company for cnpj. Only malformed input fails; when no
// source answers the result is the simulated record.
func (r *Registry) Lookup(ctx context.Context, raw string) (Company, error) {
	number := Clean(raw)
	if len(number) != 14 {
		return Company{}, fmt.Errorf("%w: %q", ErrInvalidCNPJ, raw)
	}

	key := "company:" + number
	if r.cache != nil {
		var cached Company
		if hit, err := r.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	strategies := make([]fallback.Strategy[Company], 0, len(r.sources))
	for _, s := range r.sources {
		s := s
		strategies = append(strategies, fallback.New(s.Name(), func(ctx context.Context) (Company, error) {
			return s.Fetch(ctx, number)
		}))
	}

	out := fallback.First(ctx, 0, strategies...)
	for _, a := range out.Failures() {
		r.logger.Warn("registry source failed",
			zap.String("source", a.Name),
			zap.String("cnpj", number),
			zap.Error(a.Err),
		)
	}

	if !out.OK() {
		r.logger.Warn("using simulated company record", zap.String("cnpj", number))
		return Simulated(number, r.now()), nil
	}

	if r.cache != nil {
		_ = r.cache.SetJSON(ctx, key, out.Value, companyCacheTTL)
	}
	return out.Value, nil
}

func fetchJSON(ctx context.Context, client *http.Client, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("erro ao criar requisição: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("erro ao fazer requisição: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("API retornou status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("erro ao decodificar resposta: %w", err)
	}
	return nil
}
