package invoice

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lucasfdcampos/find-suppliers/pkg/cnpj"
)

// Sources reported by Resolve.
const (
	SourceSimulated = "simulated"
	SourceRegistry  = "registry"
	SourceNFeIO     = "nfeio"
)

// CompanyLookup is satisfied by *cnpj.Registry.
type CompanyLookup interface {
	Lookup(ctx context.Context, cnpj string) (cnpj.Company, error)
}

// Lister is satisfied by *Client.
type Lister interface {
	ListByCNPJ(ctx context.Context, cnpj string) Lookup
}

// Request describes one acquisition as typed by the user.
type Request struct {
	CNPJ  string
	Name  string
	Value decimal.Decimal

	// Real consults the registry for the issuer; UseNFe asks NFe.io first.
	Real   bool
	UseNFe bool
}

// Resolution is the invoice chosen for an acquisition.
type Resolution struct {
	Invoice Invoice       `json:"invoice"`
	Source  string        `json:"invoice_source"`
	Company *cnpj.Company `json:"company,omitempty"`
}

// Resolver picks the invoice of an acquisition: NFe.io when asked and it
// answers with data, then the registry record in real mode, then the
// simulated invoice built from the typed values.
type Resolver struct {
	Registry CompanyLookup
	NFe      Lister
	Logger   *zap.Logger

	now func() time.Time
}

// Resolve never fails for a blank CNPJ. In real mode a malformed CNPJ
// returns cnpj.ErrInvalidCNPJ.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Resolution, error) {
	now := time.Now
	if r.now != nil {
		now = r.now
	}
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	number := cnpj.Clean(req.CNPJ)
	res := Resolution{Invoice: Simulated(number, req.Name, req.Value, now()), Source: SourceSimulated}

	if req.UseNFe && r.NFe != nil && number != "" {
		if l := r.NFe.ListByCNPJ(ctx, number); l.Status == StatusOK && len(l.Invoices) > 0 {
			res.Invoice = l.Invoices[0]
			res.Source = SourceNFeIO
			return res, nil
		}
	}

	if !req.Real || r.Registry == nil || number == "" {
		return res, nil
	}

	company, err := r.Registry.Lookup(ctx, number)
	switch {
	case errors.Is(err, cnpj.ErrInvalidCNPJ):
		return Resolution{}, err
	case err != nil:
		logger.Warn("registry lookup failed", zap.String("cnpj", number), zap.Error(err))
	case !company.Simulated: // registro simulado mantém a nota digitada
		res.Invoice = FromCompany(company, req.Name, req.Value, now())
		res.Source = SourceRegistry
		res.Company = &company
	}
	return res, nil
}
