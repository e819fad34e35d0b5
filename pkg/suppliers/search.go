// Package suppliers busca fornecedores na web, estima a reputação pelo
// snippet do resultado e descobre a UF de origem pelo CNPJ do site.
package suppliers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/lucasfdcampos/find-suppliers/internal/httpx"
)

const (
	serpAPIBaseURL    = "https://serpapi.com"
	duckDuckGoBaseURL = "https://html.duckduckgo.com"

	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"
)

// textPolicy strips every tag from titles and snippets.
var textPolicy = bluemonday.StrictPolicy()

// cleanText removes markup and collapses whitespace.
func cleanText(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(textPolicy.Sanitize(s))), " ")
}

// ErrMissingAPIKey is returned by SerpAPI without a key.
var ErrMissingAPIKey = errors.New("suppliers: chave da SerpAPI não informada")

// Scope is the search reach.
type Scope string

const (
	ScopeLocal    Scope = "Local"
	ScopeNacional Scope = "Nacional"
)

// ParseScope accepts "local" and "nacional"/"national" in any case.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "local":
		return ScopeLocal, nil
	case "nacional", "national", "":
		return ScopeNacional, nil
	default:
		return "", fmt.Errorf("suppliers: alcance desconhecido %q", s)
	}
}

// BuildQuery monta a consulta enviada ao buscador.
func BuildQuery(product string, scope Scope, city string) string {
	product = strings.TrimSpace(product)
	if scope == ScopeLocal {
		return fmt.Sprintf("fornecedor de %s em %s", product, city)
	}
	return product + " fornecedor no Brasil"
}

// Result is one organic search hit.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Searcher runs a web search.
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string) ([]Result, error)
}

// KeyedSearcher is a Searcher whose API key can be overridden per request.
type KeyedSearcher interface {
	Searcher
	WithAPIKey(key string) Searcher
}

// ─── SerpAPI ──────────────────────────────────────────────────────────────────

type SerpAPISearcher struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

func NewSerpAPISearcher(apiKey string, timeout time.Duration) *SerpAPISearcher {
	return &SerpAPISearcher{APIKey: apiKey, BaseURL: serpAPIBaseURL, Client: httpx.NewClient(timeout)}
}

func (s *SerpAPISearcher) Name() string { return "SerpAPI" }

func (s *SerpAPISearcher) WithAPIKey(key string) Searcher {
	cp := *s
	cp.APIKey = key
	return &cp
}

func (s *SerpAPISearcher) Search(ctx context.Context, query string) ([]Result, error) {
	if s.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	q := url.Values{}
	q.Set("engine", "google")
	q.Set("q", query)
	q.Set("hl", "pt-br")
	q.Set("gl", "br")
	q.Set("api_key", s.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/search.json?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("erro ao criar requisição: %w", err)
	}

	resp, err := httpx.DoWithRetry(ctx, s.Client, req, 2, 0)
	if err != nil {
		return nil, fmt.Errorf("serpapi: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serpapi: status %d", resp.StatusCode)
	}

	var payload struct {
		Error          string `json:"error"`
		OrganicResults []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic_results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("serpapi: erro ao decodificar resposta: %w", err)
	}
	if payload.Error != "" {
		return nil, fmt.Errorf("serpapi: %s", payload.Error)
	}

	out := make([]Result, 0, len(payload.OrganicResults))
	for _, r := range payload.OrganicResults {
		if r.Link == "" {
			continue
		}
		out = append(out, Result{Title: cleanText(r.Title), Link: r.Link, Snippet: cleanText(r.Snippet)})
	}
	return out, nil
}

// ─── DuckDuckGo ───────────────────────────────────────────────────────────────

// DuckDuckGoSearcher raspa a versão HTML do DuckDuckGo; não precisa de chave.
type DuckDuckGoSearcher struct {
	BaseURL string
	Client  *http.Client
}

func NewDuckDuckGoSearcher(timeout time.Duration) *DuckDuckGoSearcher {
	return &DuckDuckGoSearcher{BaseURL: duckDuckGoBaseURL, Client: httpx.NewClient(timeout)}
}

func (d *DuckDuckGoSearcher) Name() string { return "DuckDuckGo" }

func (d *DuckDuckGoSearcher) Search(ctx context.Context, query string) ([]Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.BaseURL+"/html/?q="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, fmt.Errorf("erro ao criar requisição: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("erro ao fazer requisição: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("erro ao parsear HTML: %w", err)
	}

	var out []Result
	doc.Find(".result").Each(func(_ int, s *goquery.Selection) {
		a := s.Find("a.result__a").First()
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		link := unwrapDDGLink(href)
		if link == "" {
			return
		}
		out = append(out, Result{
			Title:   cleanText(a.Text()),
			Link:    link,
			Snippet: cleanText(s.Find(".result__snippet").Text()),
		})
	})

	if len(out) == 0 {
		return nil, fmt.Errorf("duckduckgo: nenhum resultado")
	}
	return out, nil
}

// unwrapDDGLink resolve links de redirecionamento "//duckduckgo.com/l/?uddg=<url>".
func unwrapDDGLink(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" {
		return ""
	}
	return href
}
