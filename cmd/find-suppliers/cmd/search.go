// Package cmd - search command
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lucasfdcampos/find-suppliers/pkg/comparison"
	"github.com/lucasfdcampos/find-suppliers/pkg/report"
	"github.com/lucasfdcampos/find-suppliers/pkg/suppliers"
)

var (
	searchScope  string
	searchAPIKey string
	compareTop   int
	quoteValue   string
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <produto>",
	Short: "Search suppliers for a product",
	Long: `Busca fornecedores na web (SerpAPI, com DuckDuckGo como alternativa),
estima a reputação pelo resumo do resultado e descobre a UF pelo CNPJ do site.

Examples:
  find-suppliers search "máquina de solda"
  find-suppliers search parafusos --scope local
  find-suppliers search "chapa de aço" --compare 3 --value 48000 --dest RS`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchScope, "scope", "s", "nacional", "alcance da busca: local ou nacional")
	searchCmd.Flags().StringVar(&searchAPIKey, "api-key", "", "chave da SerpAPI (default SERPAPI_KEY)")
	searchCmd.Flags().IntVar(&compareTop, "compare", 0, "comparar os N primeiros fornecedores encontrados (2 a 5)")
	searchCmd.Flags().StringVar(&quoteValue, "value", "", "valor da cotação usado no comparativo (default DEFAULT_QUOTE_VALUE)")
	addCostFlags(searchCmd)
	searchCmd.Flags().StringVar(&csvFile, "csv", "", "salvar o comparativo em CSV")
}

func runSearch(cmd *cobra.Command, args []string) error {
	scope, err := suppliers.ParseScope(searchScope)
	if err != nil {
		return err
	}
	product := strings.Join(args, " ")

	list, err := wire(cmd.Context()).Finder.Find(cmd.Context(), product, scope, searchAPIKey)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Busca : %s\n", suppliers.BuildQuery(product, scope, cfg.LocalSearchCity))
	report.PrintSuppliers(out, list)

	if compareTop == 0 {
		return nil
	}
	if compareTop < comparison.MinQuotes || compareTop > comparison.MaxQuotes {
		return fmt.Errorf("--compare deve estar entre %d e %d", comparison.MinQuotes, comparison.MaxQuotes)
	}
	if len(list) < compareTop {
		return fmt.Errorf("apenas %d fornecedores encontrados para comparar", len(list))
	}

	value := cfg.DefaultQuoteValue
	if quoteValue != "" {
		if value, err = parseBRL(quoteValue); err != nil {
			return err
		}
	}
	quotes := make([]comparison.Quote, 0, compareTop)
	for _, s := range list[:compareTop] {
		quotes = append(quotes, s.Quote(value))
	}
	return rank(cmd, quotes)
}
