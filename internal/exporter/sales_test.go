package exporter

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/config"
	"salespulse/internal/loader"
	"salespulse/pkg/contracts/domain"
)

func newTestSalesExporter(t *testing.T) (*SalesExporter, string) {
	t.Helper()
	dir := t.TempDir()
	return NewSalesExporter(&config.Paths{ReportsDir: dir}, quietLogger()), dir
}

func TestSalesExporter_ExportNormalized(t *testing.T) {
	e, dir := newTestSalesExporter(t)
	rows := []domain.NormalizedSaleRow{
		{
			ProductID: 7, ProductName: "Orange - Canned, Mandarin", CategoryID: 2, CategoryName: "Produce",
			Quantity: 2, Discount: 0.1, TotalPrice: 18, Price: 10,
			SalesDate: time.Date(2024, time.February, 5, 7, 38, 25, 430_000_000, time.UTC),
			SaleYear:  2024, SaleMonth: "February", SaleWeekday: "Monday", SaleWeek: 6,
		},
		{ProductID: 8, ProductName: "Rice", CategoryID: 4, CategoryName: "Grain", Quantity: 1, Price: 3, TotalPrice: 3},
	}

	path, err := e.ExportNormalized(rows, "normalized_sales_2024_02.csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "normalized_sales_2024_02.csv"), path)

	lines := readLines(t, path)
	require.Len(t, lines, 3)
	assert.Equal(t, "ProductID,ProductName,CategoryID,CategoryName,Quantity,Discount,TotalPrice,SalesDate,SaleYear,SaleMonth,SaleWeekday,SaleWeek,Price", lines[0])
	assert.Equal(t, `7,"Orange - Canned, Mandarin",2,Produce,2,0.1,18,2024-02-05 07:38:25.43,2024,February,Monday,6,10`, lines[1])
	assert.Equal(t, "8,Rice,4,Grain,1,0,3,,,,,,3", lines[2])
}

func TestSalesExporter_TransactionsRoundTrip(t *testing.T) {
	e, _ := newTestSalesExporter(t)
	records := []domain.TransactionRecord{
		{ProductID: 1, Quantity: 3, Discount: 0.25, SalesDate: time.Date(2024, time.February, 29, 13, 1, 2, 500_000_000, time.UTC)},
		{ProductID: 2, Quantity: 0, Discount: 0, SalesDate: time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)},
	}

	path, err := e.ExportTransactions(records, "trimmed_sales_2024_02.csv")
	require.NoError(t, err)

	back, err := loader.NewLoader(quietLogger()).LoadTransactions(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, records, back)
}

func TestSalesExporter_ExportClassification(t *testing.T) {
	e, _ := newTestSalesExporter(t)

	path, err := e.ExportClassification([]domain.ClassificationRow{
		{ProductID: 1, ProductName: "Alpha", TotalRevenue: 700, CumulativeRevenue: 700, CumulativeRevenuePercentage: 70, Tier: domain.TierA},
		{ProductID: 3, ProductName: "Gamma", TotalRevenue: 100.5, CumulativeRevenue: 800.5, CumulativeRevenuePercentage: 100, Tier: domain.TierC},
	}, "abc.csv")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"ProductID,ProductName,TotalRevenue,CumulativeRevenue,CumulativeRevenuePercentage,ABC_Category",
		"1,Alpha,700,700,70,A",
		"3,Gamma,100.5,800.5,100,C",
	}, readLines(t, path))
}

func TestSalesExporter_ExportTierSummary(t *testing.T) {
	e, _ := newTestSalesExporter(t)

	path, err := e.ExportTierSummary([]domain.TierSummary{
		{Tier: domain.TierA, ProductCount: 3, TotalRevenue: 700, PercentageOfTotalRevenue: 70},
		{Tier: domain.TierB, ProductCount: 5, TotalRevenue: 300, PercentageOfTotalRevenue: 30},
	}, "summary.csv")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"ABC_Category,ProductCount,TotalRevenue,PercentageOfTotalRevenue",
		"A,3,700,70",
		"B,5,300,30",
	}, readLines(t, path))
}
