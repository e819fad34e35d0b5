// Package cmd - compare command
package cmd

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/lucasfdcampos/find-suppliers/pkg/comparison"
	"github.com/lucasfdcampos/find-suppliers/pkg/freight"
	"github.com/lucasfdcampos/find-suppliers/pkg/report"
)

var (
	destinationUF string
	freightMode   string
	csvFile       string
)

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare <nome:UF:valor>...",
	Short: "Compare the landed cost of 2 to 5 quotes",
	Long: `Calcula tributos, distância, frete e custo total de cada cotação e
ordena do menor para o maior custo.

Cada cotação é "Nome:UF:valor"; o valor aceita "50000", "50000.50" ou "50.000,50".

Examples:
  find-suppliers compare "Fornecedor A:SP:50000" "Fornecedor B:RS:50000"
  find-suppliers compare "A:SP:50000" "B:PR:48000" --dest SC --mode real --csv comparativo.csv`,
	Args: cobra.RangeArgs(comparison.MinQuotes, comparison.MaxQuotes),
	RunE: runCompare,
}

func init() {
	addCostFlags(compareCmd)
	compareCmd.Flags().StringVar(&csvFile, "csv", "", "salvar o comparativo em CSV")
}

// addCostFlags registers the destination and freight-mode flags.
func addCostFlags(c *cobra.Command) {
	c.Flags().StringVar(&destinationUF, "dest", "", "UF de destino (default DESTINATION_UF)")
	c.Flags().StringVar(&freightMode, "mode", "", "modo de frete: simulated ou real (default FREIGHT_MODE)")
}

func runCompare(cmd *cobra.Command, args []string) error {
	quotes := make([]comparison.Quote, 0, len(args))
	for _, a := range args {
		q, err := parseQuote(a)
		if err != nil {
			return err
		}
		quotes = append(quotes, q)
	}
	return rank(cmd, quotes)
}

// rank runs the comparison for quotes and prints it.
func rank(cmd *cobra.Command, quotes []comparison.Quote) error {
	ctx := cmd.Context()
	calc, err := calculator(cmd)
	if err != nil {
		return err
	}

	res, err := calc.Rank(ctx, quotes, destination())
	if err != nil {
		return err
	}
	report.PrintTable(cmd.OutOrStdout(), res)

	if csvFile != "" {
		if err := report.SaveCSV(res, csvFile); err != nil {
			return fmt.Errorf("erro ao salvar CSV: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nComparativo salvo em %s\n", csvFile)
	}
	return nil
}

func calculator(cmd *cobra.Command) (*comparison.Calculator, error) {
	calc := wire(cmd.Context()).Calculator
	if freightMode == "" {
		return calc, nil
	}
	mode, err := freight.ParseMode(freightMode)
	if err != nil {
		return nil, err
	}
	return calc.WithMode(mode), nil
}

func destination() string {
	if d := strings.TrimSpace(destinationUF); d != "" {
		return strings.ToUpper(d)
	}
	return cfg.DestinationUF
}

// parseQuote reads "Nome:UF:valor". The name may itself contain ':'.
func parseQuote(s string) (comparison.Quote, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 3 {
		return comparison.Quote{}, fmt.Errorf("cotação inválida %q: use Nome:UF:valor", s)
	}
	n := len(parts)
	name := strings.TrimSpace(strings.Join(parts[:n-2], ":"))
	uf := strings.ToUpper(strings.TrimSpace(parts[n-2]))
	if name == "" || uf == "" {
		return comparison.Quote{}, fmt.Errorf("cotação inválida %q: nome e UF são obrigatórios", s)
	}

	value, err := parseBRL(parts[n-1])
	if err != nil {
		return comparison.Quote{}, fmt.Errorf("cotação inválida %q: %w", s, err)
	}
	return comparison.Quote{Name: name, OriginUF: uf, Value: value}, nil
}

// parseBRL accepts "50000", "50000.50", "50.000,50" and "R$ 50.000,50".
func parseBRL(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("valor inválido %q", s)
	}
	if v.IsNegative() {
		return decimal.Zero, fmt.Errorf("valor negativo %q", s)
	}
	return v, nil
}
