// Package report renders comparison results as terminal tables and CSV.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/lucasfdcampos/find-suppliers/pkg/comparison"
	"github.com/lucasfdcampos/find-suppliers/pkg/suppliers"
)

// NotCalculated is shown instead of R$ 0,00 when freight has no distance.
const NotCalculated = "não calculado"

// FormatBRL formata o valor como moeda brasileira: "R$ 61.265,00".
func FormatBRL(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	out := "R$ " + b.String() + "," + frac
	if neg {
		out = "-" + out
	}
	return out
}

func freightCell(b comparison.Breakdown, money func(decimal.Decimal) string) string {
	if !b.FreightCalculated {
		return NotCalculated
	}
	return money(b.FreightTotal)
}

func distanceCell(b comparison.Breakdown) string {
	if !b.FreightCalculated {
		return "-"
	}
	return fmt.Sprintf("%.0f km", b.DistanceKm)
}

// PrintTable escreve o ranking, as médias por UF e o melhor fornecedor.
func PrintTable(w io.Writer, r *comparison.Result) {
	if r == nil || len(r.Entries) == 0 {
		fmt.Fprintln(w, "  Nenhum fornecedor para comparar.")
		return
	}

	fmt.Fprintf(w, "\nComparativo %s · destino %s · frete %s\n", r.ID, r.DestinationUF, r.Mode)
	fmt.Fprintf(w, "%-4s %-30s %-4s %16s %16s %10s %16s %16s %5s\n",
		"#", "FORNECEDOR", "UF", "PRODUTO", "TRIBUTOS", "DISTÂNCIA", "FRETE", "TOTAL", "REP.")
	fmt.Fprintln(w, strings.Repeat("─", 126))

	for i, e := range r.Entries {
		b := e.Breakdown
		fmt.Fprintf(w, "%-4d %-30s %-4s %16s %16s %10s %16s %16s %5d\n",
			i+1,
			truncate(e.Quote.Name, 29),
			e.Quote.OriginUF,
			FormatBRL(b.ProductValue),
			FormatBRL(b.TaxTotal),
			distanceCell(b),
			freightCell(b, FormatBRL),
			FormatBRL(b.TotalCost),
			e.Quote.Reputation,
		)
	}
	fmt.Fprintln(w, strings.Repeat("─", 126))

	fmt.Fprintln(w, "Média de custo total por UF de origem:")
	for _, g := range r.Groups {
		fmt.Fprintf(w, "  %-4s %16s (%d)\n", g.OriginUF, FormatBRL(g.AverageTotal), g.Count)
	}

	best := r.Best()
	fmt.Fprintf(w, "\nMelhor fornecedor: %s (%s) · custo total %s\n",
		best.Quote.Name, best.Quote.OriginUF, FormatBRL(best.Breakdown.TotalCost))
}

// PrintAcquisition escreve o custo total de uma única aquisição.
func PrintAcquisition(w io.Writer, e comparison.Entry, invoiceNumber, cnpj string) {
	b := e.Breakdown
	fmt.Fprintf(w, "Fornecedor: %s\n", e.Quote.Name)
	fmt.Fprintf(w, "CNPJ: %s\n", cnpj)
	fmt.Fprintf(w, "Nota: %s\n", invoiceNumber)
	fmt.Fprintf(w, "Valor do Produto: %s\n", FormatBRL(b.ProductValue))
	fmt.Fprintf(w, "Tributos (ICMS + PIS + COFINS): %s\n", FormatBRL(b.TaxTotal))
	if b.FreightCalculated {
		fmt.Fprintf(w, "Custo Logístico (%.0f km): %s\n", b.DistanceKm, FormatBRL(b.FreightTotal))
	} else {
		fmt.Fprintf(w, "Custo Logístico: %s\n", NotCalculated)
	}
	fmt.Fprintf(w, "Custo Total da Aquisição: %s\n", FormatBRL(b.TotalCost))
}

// PrintSuppliers lista o resultado de uma busca.
func PrintSuppliers(w io.Writer, list []suppliers.Supplier) {
	if len(list) == 0 {
		fmt.Fprintln(w, "  Nenhum fornecedor encontrado.")
		return
	}

	fmt.Fprintf(w, "\n%-4s %-40s %-4s %-20s %-7s %s\n", "#", "NOME", "UF", "CNPJ", "REP.", "SITE")
	fmt.Fprintln(w, strings.Repeat("─", 120))
	for i, s := range list {
		doc := "-"
		if s.CNPJ != "" {
			doc = s.CNPJ
		}
		fmt.Fprintf(w, "%-4d %-40s %-4s %-20s %-7s %s\n",
			i+1, truncate(s.Name, 39), s.UF, doc, s.Reputation.Stars(), s.Link)
	}
	fmt.Fprintln(w, strings.Repeat("─", 120))
	fmt.Fprintf(w, "Total: %d fornecedores\n", len(list))
}

var csvHeader = []string{
	"Posicao", "Fornecedor", "UF Origem", "Valor Produto", "ICMS", "PIS", "COFINS",
	"Tributos", "Distancia (km)", "Fonte Distancia", "Frete", "Custo Total", "Nota Reputacao",
}

// WriteCSV escreve o ranking em CSV. Valores monetários usam ponto decimal
// com duas casas.
func WriteCSV(w io.Writer, r *comparison.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	money := func(d decimal.Decimal) string { return d.StringFixed(2) }
	for i, e := range r.Entries {
		b := e.Breakdown
		km := ""
		if b.FreightCalculated {
			km = fmt.Sprintf("%.2f", b.DistanceKm)
		}
		row := []string{
			fmt.Sprintf("%d", i+1),
			e.Quote.Name,
			e.Quote.OriginUF,
			money(b.ProductValue),
			money(b.ICMS),
			money(b.PIS),
			money(b.COFINS),
			money(b.TaxTotal),
			km,
			string(b.DistanceSource),
			freightCell(b, money),
			money(b.TotalCost),
			fmt.Sprintf("%d", e.Quote.Reputation),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// SaveCSV grava o ranking em filename, com BOM para o Excel abrir em UTF-8.
func SaveCSV(r *comparison.Result, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}

	if _, err := f.WriteString("\xEF\xBB\xBF"); err != nil {
		f.Close()
		return err
	}
	if err := WriteCSV(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}
