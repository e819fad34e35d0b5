package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lucasfdcampos/find-suppliers/pkg/cnpj"
	"github.com/lucasfdcampos/find-suppliers/pkg/comparison"
	"github.com/lucasfdcampos/find-suppliers/pkg/distance"
	"github.com/lucasfdcampos/find-suppliers/pkg/freight"
	"github.com/lucasfdcampos/find-suppliers/pkg/geo"
	"github.com/lucasfdcampos/find-suppliers/pkg/invoice"
	"github.com/lucasfdcampos/find-suppliers/pkg/suppliers"
)

// SupplierFinder is satisfied by *suppliers.Finder.
type SupplierFinder interface {
	Find(ctx context.Context, product string, scope suppliers.Scope, apiKey string) ([]suppliers.Supplier, error)
}

// Deps are the collaborators of Handler. Finder, Registry and Invoices may
// be nil; the matching endpoints then answer 503 or skip that source.
type Deps struct {
	Finder        SupplierFinder
	Registry      invoice.CompanyLookup
	Invoices      invoice.Lister
	Distance      comparison.DistanceEstimator
	Mode          freight.Mode
	DestinationUF string
	Logger        *zap.Logger
}

// Handler holds the HTTP dependencies.
type Handler struct {
	finder      SupplierFinder
	registry    invoice.CompanyLookup
	invoices    *invoice.Resolver
	distance    comparison.DistanceEstimator
	calc        *comparison.Calculator
	destination string
	now         func() time.Time
}

// NewHandler creates a new Handler. A nil Distance uses the offline
// estimator (table and flat tiers only).
func NewHandler(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Distance == nil {
		d.Distance = distance.NewEstimator(distance.WithLogger(d.Logger))
	}
	return &Handler{
		finder:      d.Finder,
		registry:    d.Registry,
		invoices:    &invoice.Resolver{Registry: d.Registry, NFe: d.Invoices, Logger: d.Logger},
		distance:    d.Distance,
		calc:        comparison.NewCalculator(d.Distance, d.Mode, d.Logger),
		destination: strings.ToUpper(strings.TrimSpace(d.DestinationUF)),
		now:         time.Now,
	}
}

// errResponse writes a JSON error body.
func errResponse(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		errResponse(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// calculator returns the configured calculator, or a copy in the requested mode.
func (h *Handler) calculator(w http.ResponseWriter, mode string) (*comparison.Calculator, bool) {
	if strings.TrimSpace(mode) == "" {
		return h.calc, true
	}
	m, err := freight.ParseMode(mode)
	if err != nil {
		errResponse(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return h.calc.WithMode(m), true
}

func (h *Handler) destinationOr(uf string) string {
	if uf = strings.ToUpper(strings.TrimSpace(uf)); uf != "" {
		return uf
	}
	return h.destination
}

// Health godoc
//
//	GET /health
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "time": h.now().UTC().Format(time.RFC3339)})
}

// ─── Suppliers ────────────────────────────────────────────────────────────────

type searchRequest struct {
	Product string `json:"product"`
	Scope   string `json:"scope"`
	APIKey  string `json:"api_key,omitempty"`
}

type searchResponse struct {
	Query     string               `json:"query"`
	Scope     suppliers.Scope      `json:"scope"`
	Suppliers []suppliers.Supplier `json:"suppliers"`
	Total     int                  `json:"total"`
}

// SearchSuppliers godoc
//
//	POST /api/v1/suppliers/search
//
//	Request body: { "product": "...", "scope": "local|nacional", "api_key": "..." }
func (h *Handler) SearchSuppliers(w http.ResponseWriter, r *http.Request) {
	if h.finder == nil {
		errResponse(w, http.StatusServiceUnavailable, "supplier search is not configured")
		return
	}

	var req searchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	scope, err := suppliers.ParseScope(req.Scope)
	if err != nil {
		errResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := h.finder.Find(r.Context(), req.Product, scope, req.APIKey)
	switch {
	case errors.Is(err, suppliers.ErrEmptyProduct):
		errResponse(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		errResponse(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Query:     strings.TrimSpace(req.Product),
		Scope:     scope,
		Suppliers: list,
		Total:     len(list),
	})
}

// ─── Comparisons ──────────────────────────────────────────────────────────────

type compareRequest struct {
	Quotes        []comparison.Quote `json:"quotes"`
	DestinationUF string             `json:"destination_uf"`
	Mode          string             `json:"mode,omitempty"`
}

type compareResponse struct {
	*comparison.Result
	Best comparison.Entry `json:"best"`
}

// Compare godoc
//
//	POST /api/v1/comparisons
//
//	Request body: { "quotes": [{"name": "...", "origin_uf": "SP", "value": 50000}], "destination_uf": "RS", "mode": "simulated" }
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if !decodeBody(w, r, &req) {
		return
	}
	calc, ok := h.calculator(w, req.Mode)
	if !ok {
		return
	}
	for i := range req.Quotes {
		req.Quotes[i].OriginUF = strings.ToUpper(strings.TrimSpace(req.Quotes[i].OriginUF))
	}

	res, err := calc.Rank(r.Context(), req.Quotes, h.destinationOr(req.DestinationUF))
	if err != nil {
		errResponse(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, compareResponse{Result: res, Best: res.Best()})
}

// ─── Acquisitions ─────────────────────────────────────────────────────────────

type acquisitionRequest struct {
	CNPJ          string          `json:"cnpj"`
	Name          string          `json:"name"`
	Value         decimal.Decimal `json:"value"`
	OriginUF      string          `json:"origin_uf"`
	DestinationUF string          `json:"destination_uf"`
	Mode          string          `json:"mode,omitempty"`

	// UseNFe asks for the latest NFe.io invoice before the registry.
	UseNFe bool `json:"use_nfe,omitempty"`
}

type acquisitionResponse struct {
	invoice.Resolution
	Entry comparison.Entry `json:"entry"`
}

// Acquisition godoc
//
//	POST /api/v1/acquisitions
//
//	Request body: { "cnpj": "...", "name": "...", "value": 50000, "origin_uf": "SP", "destination_uf": "RS", "mode": "real" }
func (h *Handler) Acquisition(w http.ResponseWriter, r *http.Request) {
	var req acquisitionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	calc, ok := h.calculator(w, req.Mode)
	if !ok {
		return
	}
	if req.Value.IsNegative() {
		errResponse(w, http.StatusBadRequest, "value must not be negative")
		return
	}

	res, err := h.invoices.Resolve(r.Context(), invoice.Request{
		CNPJ:   req.CNPJ,
		Name:   req.Name,
		Value:  req.Value,
		Real:   calc.Mode() == freight.ModeReal,
		UseNFe: req.UseNFe,
	})
	if err != nil {
		errResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	origin := strings.ToUpper(strings.TrimSpace(req.OriginUF))
	if origin == "" && res.Company != nil {
		origin = res.Company.UF
	}
	if origin == "" {
		origin = suppliers.AssumedOriginUF
	}

	entry, err := calc.Acquisition(r.Context(), res.Invoice, origin, h.destinationOr(req.DestinationUF))
	if err != nil {
		errResponse(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, acquisitionResponse{Resolution: res, Entry: entry})
}

// ─── Registry & distance ──────────────────────────────────────────────────────

// Company godoc
//
//	GET /api/v1/companies/{cnpj}
func (h *Handler) Company(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil {
		errResponse(w, http.StatusServiceUnavailable, "registry is not configured")
		return
	}
	company, err := h.registry.Lookup(r.Context(), chi.URLParam(r, "cnpj"))
	switch {
	case errors.Is(err, cnpj.ErrInvalidCNPJ):
		errResponse(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		errResponse(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, company)
}

type distanceResponse struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	distance.Result
}

// Distance godoc
//
//	GET /api/v1/distance?origin=Porto Alegre, RS&destination=São Paulo, SP
func (h *Handler) Distance(w http.ResponseWriter, r *http.Request) {
	origin := geo.FormatLocation(r.URL.Query().Get("origin"))
	destination := geo.FormatLocation(r.URL.Query().Get("destination"))
	if origin == "" || destination == "" {
		errResponse(w, http.StatusBadRequest, "origin and destination are required")
		return
	}
	writeJSON(w, http.StatusOK, distanceResponse{
		Origin:      origin,
		Destination: destination,
		Result:      h.distance.Estimate(r.Context(), origin, destination),
	})
}
