package suppliers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lucasfdcampos/find-suppliers/pkg/cnpj"
	"github.com/lucasfdcampos/find-suppliers/pkg/comparison"
	"github.com/lucasfdcampos/find-suppliers/pkg/fallback"
)

const (
	// UnknownUF marks suppliers whose site exposed no CNPJ.
	UnknownUF = "ND"
	// AssumedOriginUF is used for quotes when the registry gave no UF.
	AssumedOriginUF = "SP"

	perSearcherTimeout = 20 * time.Second
)

// ErrEmptyProduct is returned when Find gets a blank product.
var ErrEmptyProduct = errors.New("suppliers: produto não informado")

// Supplier is one search hit enriched with reputation and registry data.
type Supplier struct {
	Name        string     `json:"name"`
	Link        string     `json:"link"`
	Description string     `json:"description"`
	Reputation  Reputation `json:"reputation"`
	CNPJ        string     `json:"cnpj,omitempty"`
	UF          string     `json:"uf"`
	Municipio   string     `json:"municipio,omitempty"`

	// RegistrySource names the registry that answered; cnpj.SimulatedSource
	// means the location is a placeholder.
	RegistrySource string `json:"registry_source,omitempty"`
}

// Quote turns the supplier into a comparison quote for value.
func (s Supplier) Quote(value decimal.Decimal) comparison.Quote {
	origin := s.UF
	if origin == "" {
		origin = AssumedOriginUF
	}
	return comparison.Quote{Name: s.Name, OriginUF: origin, Value: value, Reputation: s.Reputation.Score}
}

// CNPJExtractor finds a CNPJ on a supplier site.
type CNPJExtractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

// CompanyLookup resolves registry data for a CNPJ.
type CompanyLookup interface {
	Lookup(ctx context.Context, cnpj string) (cnpj.Company, error)
}

// Finder busca fornecedores e completa cada resultado.
type Finder struct {
	searchers []Searcher
	extractor CNPJExtractor
	registry  CompanyLookup
	city      string
	logger    *zap.Logger
}

// NewFinder builds a Finder. searchers are tried in order until one returns
// results. extractor and registry may be nil, in which case every supplier
// ends up with UnknownUF.
func NewFinder(logger *zap.Logger, city string, extractor CNPJExtractor, registry CompanyLookup, searchers ...Searcher) *Finder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Finder{searchers: searchers, extractor: extractor, registry: registry, city: city, logger: logger}
}

// Find searches for product within scope. A non-empty apiKey replaces the
// configured key of keyed searchers for this call only.
func (f *Finder) Find(ctx context.Context, product string, scope Scope, apiKey string) ([]Supplier, error) {
	if strings.TrimSpace(product) == "" {
		return nil, ErrEmptyProduct
	}
	query := BuildQuery(product, scope, f.city)

	strategies := make([]fallback.Strategy[[]Result], 0, len(f.searchers))
	for _, s := range f.searchers {
		if ks, ok := s.(KeyedSearcher); ok && apiKey != "" {
			s = ks.WithAPIKey(apiKey)
		}
		s := s
		strategies = append(strategies, fallback.New(s.Name(), func(ctx context.Context) ([]Result, error) {
			res, err := s.Search(ctx, query)
			if err == nil && len(res) == 0 {
				return nil, fmt.Errorf("nenhum resultado")
			}
			return res, err
		}))
	}

	out := fallback.First(ctx, perSearcherTimeout, strategies...)
	for _, a := range out.Failures() {
		f.logger.Warn("search engine failed", zap.String("engine", a.Name), zap.String("query", query), zap.Error(a.Err))
	}
	if !out.OK() {
		return nil, fmt.Errorf("suppliers: busca falhou: %w", out.Err())
	}

	f.logger.Info("search finished", zap.String("engine", out.Source), zap.Int("results", len(out.Value)))

	suppliers := make([]Supplier, 0, len(out.Value))
	for _, r := range out.Value {
		suppliers = append(suppliers, f.enrich(ctx, r))
	}
	return suppliers, nil
}

func (f *Finder) enrich(ctx context.Context, r Result) Supplier {
	s := Supplier{
		Name:        r.Title,
		Link:        r.Link,
		Description: r.Snippet,
		Reputation:  ScoreReputation(r.Snippet),
		UF:          UnknownUF,
	}
	if f.extractor == nil {
		return s
	}

	number, err := f.extractor.Extract(ctx, r.Link)
	if err != nil {
		f.logger.Debug("cnpj not found on site", zap.String("link", r.Link), zap.Error(err))
		return s
	}
	s.CNPJ = number
	s.UF = ""

	if f.registry == nil {
		return s
	}
	company, err := f.registry.Lookup(ctx, number)
	if err != nil {
		f.logger.Warn("registry lookup failed", zap.String("cnpj", number), zap.Error(err))
		return s
	}
	s.UF = company.UF
	s.Municipio = company.Municipio
	s.RegistrySource = company.Source
	return s
}
