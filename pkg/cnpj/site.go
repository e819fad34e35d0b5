package cnpj

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/lucasfdcampos/find-suppliers/internal/httpx"
)

// ErrNotFound is returned when a page holds no valid CNPJ.
var ErrNotFound = errors.New("cnpj: nenhum CNPJ válido na página")

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// SiteExtractor baixa o site do fornecedor e procura um CNPJ no texto.
type SiteExtractor struct {
	Client *http.Client
}

func NewSiteExtractor(timeout time.Duration) *SiteExtractor {
	return &SiteExtractor{Client: httpx.NewClient(timeout)}
}

// Extract returns the first valid CNPJ (digits only) on the page at url.
// Footer text is checked before the rest of the body since that is where
// Brazilian sites usually print it.
func (s *SiteExtractor) Extract(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("erro ao criar requisição: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("erro ao fazer requisição: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript").Remove()

	if n := ExtractCNPJ(doc.Find("footer").Text()); n != "" {
		return n, nil
	}

	var b strings.Builder
	b.WriteString(doc.Find("body").Text())
	doc.Find("a[href], meta[content]").Each(func(_ int, sel *goquery.Selection) {
		if v, ok := sel.Attr("href"); ok {
			b.WriteString(" " + v)
		}
		if v, ok := sel.Attr("content"); ok {
			b.WriteString(" " + v)
		}
	})

	if n := ExtractCNPJ(b.String()); n != "" {
		return n, nil
	}
	return "", ErrNotFound
}
