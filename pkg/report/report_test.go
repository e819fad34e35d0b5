package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasfdcampos/find-suppliers/pkg/comparison"
	"github.com/lucasfdcampos/find-suppliers/pkg/distance"
	"github.com/lucasfdcampos/find-suppliers/pkg/freight"
	"github.com/lucasfdcampos/find-suppliers/pkg/suppliers"
)

func TestFormatBRL(t *testing.T) {
	tests := map[string]string{
		"61265":      "R$ 61.265,00",
		"0":          "R$ 0,00",
		"999.999":    "R$ 1.000,00",
		"1234567.5":  "R$ 1.234.567,50",
		"100":        "R$ 100,00",
		"-1500.25":   "-R$ 1.500,25",
		"270.5625":   "R$ 270,56",
		"12.3456789": "R$ 12,35",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatBRL(decimal.RequireFromString(in)), in)
	}
}

func scenario(t *testing.T) *comparison.Result {
	t.Helper()
	calc := comparison.NewCalculator(distance.NewEstimator(), freight.ModeSimulated, nil)
	res, err := calc.Rank(context.Background(), []comparison.Quote{
		{Name: "Fornecedor A", OriginUF: "SP", Value: decimal.NewFromInt(50000), Reputation: 4},
		{Name: "Fornecedor B", OriginUF: "RS", Value: decimal.NewFromInt(50000)},
	}, "RS")
	require.NoError(t, err)
	return res
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	PrintTable(&buf, scenario(t))
	out := buf.String()

	assert.Contains(t, out, "R$ 61.265,00")
	assert.Contains(t, out, "R$ 58.285,00")
	assert.Contains(t, out, "800 km")
	assert.Contains(t, out, "Melhor fornecedor: Fornecedor B (RS)")
	assert.Less(t, strings.Index(out, "Fornecedor B"), strings.Index(out, "Fornecedor A"))
}

func TestPrintTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	PrintTable(&buf, nil)
	assert.Contains(t, buf.String(), "Nenhum fornecedor")
}

func TestWriteCSV_NotCalculatedFreight(t *testing.T) {
	res := scenario(t)
	res.Entries[0].Breakdown.FreightCalculated = false
	res.Entries[0].Breakdown.FreightTotal = decimal.Zero

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, res))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, NotCalculated, rows[1][10])
	assert.Empty(t, rows[1][8])
	assert.Equal(t, "640.00", rows[2][10])
	assert.Equal(t, "61265.00", rows[2][11])
	assert.Equal(t, "4", rows[2][12])
}

func TestSaveCSV_WritesBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comparativo.csv")
	require.NoError(t, SaveCSV(scenario(t), path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("\xEF\xBB\xBF")))
	assert.Contains(t, string(raw), "Fornecedor B")
}

func TestPrintAcquisition(t *testing.T) {
	e := scenario(t).Entries[1]
	var buf bytes.Buffer
	PrintAcquisition(&buf, e, "TEST-001", "66.018.441/0001-29")

	assert.Contains(t, buf.String(), "Custo Logístico (800 km): R$ 640,00")
	assert.Contains(t, buf.String(), "Custo Total da Aquisição: R$ 61.265,00")

	e.Breakdown.FreightCalculated = false
	buf.Reset()
	PrintAcquisition(&buf, e, "TEST-001", "")
	assert.Contains(t, buf.String(), "Custo Logístico: não calculado")
}

func TestPrintSuppliers(t *testing.T) {
	var buf bytes.Buffer
	PrintSuppliers(&buf, []suppliers.Supplier{
		{Name: "Metalúrgica Sul de Parafusos e Ferragens Industriais", UF: "RS", Reputation: suppliers.Reputation{Score: 4}},
	})
	assert.Contains(t, buf.String(), "Metalúrgica Sul de Parafusos e Ferrage…")
	assert.Contains(t, buf.String(), "★★★★☆")
	assert.Contains(t, buf.String(), "Total: 1 fornecedores")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "São", truncate("São", 3))
	assert.Equal(t, "Sã…", truncate("São Paulo", 3))
}
