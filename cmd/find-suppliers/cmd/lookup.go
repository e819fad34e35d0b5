// Package cmd - cnpj, distance and acquisition commands
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lucasfdcampos/find-suppliers/pkg/cnpj"
	"github.com/lucasfdcampos/find-suppliers/pkg/freight"
	"github.com/lucasfdcampos/find-suppliers/pkg/geo"
	"github.com/lucasfdcampos/find-suppliers/pkg/invoice"
	"github.com/lucasfdcampos/find-suppliers/pkg/report"
	"github.com/lucasfdcampos/find-suppliers/pkg/suppliers"
)

var (
	acqName   string
	acqValue  string
	acqOrigin string
	acqNFe    bool
)

var cnpjCmd = &cobra.Command{
	Use:   "cnpj <cnpj>",
	Short: "Look up a company in the public registries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := wire(cmd.Context()).Registry.Lookup(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "CNPJ         : %s\n", c.Formatted())
		fmt.Fprintf(out, "Razão Social : %s\n", c.RazaoSocial)
		fmt.Fprintf(out, "Fantasia     : %s\n", c.NomeFantasia)
		fmt.Fprintf(out, "Situação     : %s\n", c.Situacao)
		fmt.Fprintf(out, "Município/UF : %s/%s\n", c.Municipio, c.UF)
		fmt.Fprintf(out, "Abertura     : %s\n", c.DataAbertura)
		fmt.Fprintf(out, "CNAE         : %s\n", c.CNAEDesc)
		fmt.Fprintf(out, "Fonte        : %s\n", c.Source)
		if c.Simulated {
			fmt.Fprintln(out, "  (registro simulado: nenhuma fonte pública respondeu)")
		}
		return nil
	},
}

var distanceCmd = &cobra.Command{
	Use:   "distance <origem> <destino>",
	Short: "Estimate the road distance between two places",
	Long: `Estima a distância usando, nesta ordem: rota rodoviária (OpenRouteService,
requer ORS_API_KEY), tabela de coordenadas com haversine, e estimativa por UF.

Examples:
  find-suppliers distance "São Paulo, SP" "Rio de Janeiro, RJ"
  find-suppliers distance SP RS`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		origin, dest := geo.FormatLocation(args[0]), geo.FormatLocation(args[1])
		res := wire(cmd.Context()).Estimator.Estimate(cmd.Context(), origin, dest)
		if !res.Known {
			return fmt.Errorf("distância não calculada")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s → %s: %.2f km (%s)\n", origin, dest, res.Km, res.Source)
		return nil
	},
}

var acquisitionCmd = &cobra.Command{
	Use:   "acquisition <cnpj>",
	Short: "Compute the landed cost of a single purchase",
	Long: `Calcula o custo total de uma aquisição a partir da nota fiscal. No modo
real o emitente vem do cadastro público; com --nfe a nota é buscada na NFe.io.

Examples:
  find-suppliers acquisition 11.222.333/0001-81 --name "Fornecedor A" --value 50000 --origin SP
  find-suppliers acquisition 11222333000181 --value 50000 --mode real --nfe`,
	Args: cobra.ExactArgs(1),
	RunE: runAcquisition,
}

func init() {
	distanceCmd.Long += "\n\nCidades com coordenadas conhecidas:\n  " + strings.Join(geo.KnownLabels(), "\n  ")

	addCostFlags(acquisitionCmd)
	acquisitionCmd.Flags().StringVar(&acqName, "name", "", "nome do fornecedor")
	acquisitionCmd.Flags().StringVar(&acqValue, "value", "", "valor do produto (default DEFAULT_QUOTE_VALUE)")
	acquisitionCmd.Flags().StringVar(&acqOrigin, "origin", "", "UF de origem (default: UF do cadastro ou SP)")
	acquisitionCmd.Flags().BoolVar(&acqNFe, "nfe", false, "buscar a nota na NFe.io")
}

func runAcquisition(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s := wire(ctx)

	calc, err := calculator(cmd)
	if err != nil {
		return err
	}
	value := cfg.DefaultQuoteValue
	if acqValue != "" {
		if value, err = parseBRL(acqValue); err != nil {
			return err
		}
	}

	resolver := &invoice.Resolver{Registry: s.Registry, NFe: s.Invoices, Logger: logger}
	res, err := resolver.Resolve(ctx, invoice.Request{
		CNPJ:   args[0],
		Name:   acqName,
		Value:  value,
		Real:   calc.Mode() == freight.ModeReal,
		UseNFe: acqNFe,
	})
	if err != nil {
		return err
	}

	origin := strings.ToUpper(strings.TrimSpace(acqOrigin))
	if origin == "" && res.Company != nil {
		origin = res.Company.UF
	}
	if origin == "" {
		origin = suppliers.AssumedOriginUF
	}

	entry, err := calc.Acquisition(ctx, res.Invoice, origin, destination())
	if err != nil {
		return err
	}
	report.PrintAcquisition(cmd.OutOrStdout(), entry, res.Invoice.Number, cnpj.Format(res.Invoice.RecipientCNPJ))
	return nil
}
