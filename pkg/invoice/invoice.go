// Package invoice consulta notas fiscais de serviço na NFe.io e gera notas
// simuladas quando a API não responde.
package invoice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lucasfdcampos/find-suppliers/internal/httpx"
	"github.com/lucasfdcampos/find-suppliers/pkg/cnpj"
	"github.com/lucasfdcampos/find-suppliers/pkg/fallback"
)

const (
	defaultBaseURL = "https://api.nfe.io/v1"
	requestTimeout = 20 * time.Second

	dateLayout = "2006-01-02"
)

var (
	// FallbackIssuer and FallbackValue fill the simulated invoice produced
	// when NFe.io cannot be reached.
	FallbackIssuer = "Fornecedor Teste"
	FallbackValue  = decimal.NewFromInt(5000)
)

var errNoCredentials = errors.New("NFe.io sem credenciais")

// Status of one lookup.
type Status string

const (
	StatusOK        Status = "ok"
	StatusEmpty     Status = "empty"
	StatusError     Status = "error"
	StatusSimulated Status = "simulated"
)

// Invoice is the subset of NF-e data used for landed-cost estimation.
type Invoice struct {
	Number        string          `json:"number"`
	RecipientCNPJ string          `json:"recipient_cnpj"`
	Total         decimal.Decimal `json:"total"`
	IssuedOn      string          `json:"issued_on"`
	IssuerName    string          `json:"issuer_name"`
}

// Lookup is the outcome of ListByCNPJ.
type Lookup struct {
	Status   Status    `json:"status"`
	Invoices []Invoice `json:"data"`
	Error    string    `json:"error,omitempty"`
}

// Simulated builds the local placeholder invoice.
func Simulated(recipientCNPJ, issuer string, value decimal.Decimal, now time.Time) Invoice {
	return Invoice{
		Number:        "TEST-001",
		RecipientCNPJ: recipientCNPJ,
		Total:         value,
		IssuedOn:      now.Format(dateLayout),
		IssuerName:    issuer,
	}
}

// FromCompany builds an invoice from registry data, used in real mode when
// the supplier was found in a public registry. The declared name is kept
// when the record has no razão social.
func FromCompany(c cnpj.Company, declaredName string, value decimal.Decimal, now time.Time) Invoice {
	issuer := c.RazaoSocial
	if issuer == "" {
		issuer = declaredName
	}
	return Invoice{
		Number:        "REAL-001",
		RecipientCNPJ: c.CNPJ,
		Total:         value,
		IssuedOn:      now.Format(dateLayout),
		IssuerName:    issuer,
	}
}

// Client lists service invoices of one NFe.io company.
type Client struct {
	APIKey    string
	CompanyID string
	BaseURL   string
	HTTP      *http.Client

	logger *zap.Logger
	now    func() time.Time
}

func NewClient(apiKey, companyID string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		APIKey:    apiKey,
		CompanyID: companyID,
		BaseURL:   defaultBaseURL,
		HTTP:      httpx.NewClient(requestTimeout),
		logger:    logger,
		now:       time.Now,
	}
}

// ListByCNPJ returns the invoices whose recipient CNPJ/CPF contains the
// cleaned number. 404 is an empty result, any other non-200 status is an
// error result, and transport failures produce a simulated invoice.
func (c *Client) ListByCNPJ(ctx context.Context, recipient string) Lookup {
	out := fallback.First(ctx, 0,
		fallback.New("NFe.io", func(ctx context.Context) (Lookup, error) {
			return c.fetch(ctx, recipient)
		}),
		fallback.New("simulação local", func(context.Context) (Lookup, error) {
			return Lookup{
				Status:   StatusSimulated,
				Invoices: []Invoice{Simulated(recipient, FallbackIssuer, FallbackValue, c.now())},
			}, nil
		}),
	)

	for _, a := range out.Failures() {
		c.logger.Warn("invoice source failed", zap.String("source", a.Name), zap.Error(a.Err))
	}
	if !out.OK() {
		return Lookup{Status: StatusError, Error: out.Err().Error()}
	}
	return out.Value
}

func (c *Client) fetch(ctx context.Context, recipient string) (Lookup, error) {
	if c.APIKey == "" || c.CompanyID == "" {
		return Lookup{}, errNoCredentials
	}

	endpoint := fmt.Sprintf("%s/companies/%s/serviceinvoices", c.BaseURL, url.PathEscape(c.CompanyID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Lookup{}, fmt.Errorf("erro ao criar requisição: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpx.DoWithRetry(ctx, c.HTTP, req, 1, 0)
	if err != nil {
		return Lookup{}, fmt.Errorf("erro ao fazer requisição: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return Lookup{Status: StatusEmpty}, nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return Lookup{Status: StatusError, Error: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}, nil
	}

	var payload struct {
		Data []struct {
			Number         json.RawMessage `json:"number"`
			ServicesAmount decimal.Decimal `json:"servicesAmount"`
			CreatedOn      string          `json:"createdOn"`
			Recipient      struct {
				CNPJ string `json:"cnpj"`
				CPF  string `json:"cpf"`
			} `json:"recipient"`
			Company struct {
				Name string `json:"name"`
			} `json:"company"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Lookup{}, fmt.Errorf("erro ao decodificar resposta: %w", err)
	}

	digits := cnpj.Clean(recipient)
	var found []Invoice
	for _, n := range payload.Data {
		doc := n.Recipient.CNPJ
		if doc == "" {
			doc = n.Recipient.CPF
		}
		if doc == "" || !strings.Contains(doc, digits) {
			continue
		}

		inv := Invoice{
			Number:        rawString(n.Number, "N/D"),
			RecipientCNPJ: doc,
			Total:         n.ServicesAmount,
			IssuedOn:      n.CreatedOn,
			IssuerName:    n.Company.Name,
		}
		if inv.IssuedOn == "" {
			inv.IssuedOn = c.now().Format(dateLayout)
		}
		if inv.IssuerName == "" {
			inv.IssuerName = "Desconhecido"
		}
		found = append(found, inv)
	}

	if len(found) == 0 {
		return Lookup{Status: StatusEmpty}, nil
	}
	return Lookup{Status: StatusOK, Invoices: found}, nil
}

// rawString accepts a JSON string or number; NFe.io returns both for "number".
func rawString(raw json.RawMessage, def string) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return def
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if str == "" {
			return def
		}
		return str
	}
	return s
}
