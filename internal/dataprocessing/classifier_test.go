package dataprocessing

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "salespulse/internal/errors"
	"salespulse/pkg/contracts/domain"
)

func revenueRow(id int64, name string, revenue float64) domain.NormalizedSaleRow {
	return domain.NormalizedSaleRow{ProductID: id, ProductName: name, Quantity: 1, Price: revenue, TotalPrice: revenue}
}

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := NewClassifier(domain.DefaultTierThresholds(), quietLogger())
	require.NoError(t, err)
	return c
}

func TestClassifier_ParetoExample(t *testing.T) {
	rows := []domain.NormalizedSaleRow{
		revenueRow(3, "Gamma", 100),
		revenueRow(1, "Alpha", 400),
		revenueRow(2, "Beta", 200),
		revenueRow(1, "Alpha", 300),
	}

	result, err := newTestClassifier(t).Classify(rows)
	require.NoError(t, err)
	require.Len(t, result.Rows, 3)

	want := []struct {
		id   int64
		rev  float64
		cum  float64
		pct  float64
		tier domain.Tier
	}{
		{1, 700, 700, 70, domain.TierA},
		{2, 200, 900, 90, domain.TierB},
		{3, 100, 1000, 100, domain.TierC},
	}
	for i, w := range want {
		row := result.Rows[i]
		assert.Equal(t, w.id, row.ProductID)
		assert.InDelta(t, w.rev, row.TotalRevenue, 1e-9)
		assert.InDelta(t, w.cum, row.CumulativeRevenue, 1e-9)
		assert.InDelta(t, w.pct, row.CumulativeRevenuePercentage, 1e-9)
		assert.Equal(t, w.tier, row.Tier, "product %d", w.id)
	}

	assert.InDelta(t, 1000.0, result.TotalRevenue, 1e-9)
	assert.Equal(t, []domain.TierSummary{
		{Tier: domain.TierA, ProductCount: 1, TotalRevenue: 700, PercentageOfTotalRevenue: 70},
		{Tier: domain.TierB, ProductCount: 1, TotalRevenue: 200, PercentageOfTotalRevenue: 20},
		{Tier: domain.TierC, ProductCount: 1, TotalRevenue: 100, PercentageOfTotalRevenue: 10},
	}, result.Summary)
	assert.Equal(t, map[string]int{"A": 1, "B": 1, "C": 1}, result.TierCounts())
}

func TestClassifier_FractionalBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		revenues []float64
		want     []domain.Tier
	}{
		{"cents at 70 and 90", []float64{0.7, 0.2, 0.1}, []domain.Tier{domain.TierA, domain.TierB, domain.TierC}},
		{"tie reaching 70", []float64{0.35, 0.35, 0.2, 0.1}, []domain.Tier{domain.TierA, domain.TierA, domain.TierB, domain.TierC}},
		{"whole numbers", []float64{35, 35, 20, 10}, []domain.Tier{domain.TierA, domain.TierA, domain.TierB, domain.TierC}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rows []domain.NormalizedSaleRow
			for i, rev := range tt.revenues {
				rows = append(rows, revenueRow(int64(i+1), fmt.Sprintf("P%d", i+1), rev))
			}
			result, err := newTestClassifier(t).Classify(rows)
			require.NoError(t, err)
			require.Len(t, result.Rows, len(tt.want))
			for i, want := range tt.want {
				assert.Equal(t, want, result.Rows[i].Tier, "row %d pct %v", i, result.Rows[i].CumulativeRevenuePercentage)
			}
		})
	}
}

func TestTierThresholds_TierForBoundaries(t *testing.T) {
	th := domain.DefaultTierThresholds()
	assert.Equal(t, domain.TierA, th.TierFor(70))
	assert.Equal(t, domain.TierA, th.TierFor(70.000000000000014))
	assert.Equal(t, domain.TierB, th.TierFor(70.0001))
	assert.Equal(t, domain.TierB, th.TierFor(90.00000000000001))
	assert.Equal(t, domain.TierC, th.TierFor(90.0001))
}

func TestClassifier_SingleProduct(t *testing.T) {
	result, err := newTestClassifier(t).Classify([]domain.NormalizedSaleRow{revenueRow(9, "Solo", 42)})
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)

	assert.Equal(t, 100.0, result.Rows[0].CumulativeRevenuePercentage)
	assert.Equal(t, domain.TierA, result.Rows[0].Tier)
	require.Len(t, result.Summary, 1)
	assert.InDelta(t, 100.0, result.Summary[0].PercentageOfTotalRevenue, 1e-9)
}

func TestClassifier_TieBreakByProductID(t *testing.T) {
	rows := []domain.NormalizedSaleRow{
		revenueRow(30, "C", 50),
		revenueRow(10, "A", 50),
		revenueRow(20, "B", 50),
		revenueRow(5, "Top", 100),
	}

	c := newTestClassifier(t)
	result, err := c.Classify(rows)
	require.NoError(t, err)

	ids := make([]int64, 0, len(result.Rows))
	for _, row := range result.Rows {
		ids = append(ids, row.ProductID)
	}
	assert.Equal(t, []int64{5, 10, 20, 30}, ids)

	// input order does not matter
	reversed := []domain.NormalizedSaleRow{rows[3], rows[2], rows[1], rows[0]}
	again, err := c.Classify(reversed)
	require.NoError(t, err)
	assert.Equal(t, result, again)
}

func TestClassifier_NoRevenue(t *testing.T) {
	tests := []struct {
		name string
		rows []domain.NormalizedSaleRow
		want int
	}{
		{"empty dataset", nil, 0},
		{"all free", []domain.NormalizedSaleRow{revenueRow(1, "A", 0), revenueRow(2, "B", 0)}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := newTestClassifier(t).Classify(tt.rows)
			assert.Nil(t, result)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrNoRevenue)

			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.want, appErr.Context["product_count"])
		})
	}
}

func TestClassifier_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	c := newTestClassifier(t)

	for run := 0; run < 25; run++ {
		t.Run(fmt.Sprintf("run_%d", run), func(t *testing.T) {
			var rows []domain.NormalizedSaleRow
			var normalizedTotal float64
			n := 1 + rng.Intn(200)
			for i := 0; i < n; i++ {
				id := int64(rng.Intn(40))
				rev := float64(rng.Intn(10000)) / 100
				rows = append(rows, revenueRow(id, fmt.Sprintf("P%d", id), rev))
				normalizedTotal += rev
			}
			if normalizedTotal == 0 {
				rows = append(rows, revenueRow(1, "P1", 1))
				normalizedTotal = 1
			}

			result, err := c.Classify(rows)
			require.NoError(t, err)

			var classifiedTotal float64
			prevPct := 0.0
			prevTier := domain.TierA
			single := len(result.Rows) == 1
			for _, row := range result.Rows {
				classifiedTotal += row.TotalRevenue
				assert.GreaterOrEqual(t, row.CumulativeRevenuePercentage, prevPct)
				assert.GreaterOrEqual(t, string(row.Tier), string(prevTier), "tiers must be non-decreasing")
				if single {
					assert.Equal(t, domain.TierA, row.Tier)
					continue
				}
				if row.CumulativeRevenuePercentage > 70+domain.ThresholdTolerance {
					assert.NotEqual(t, domain.TierA, row.Tier)
				}
				if row.CumulativeRevenuePercentage > 90+domain.ThresholdTolerance {
					assert.Equal(t, domain.TierC, row.Tier)
				}
				prevPct = row.CumulativeRevenuePercentage
				prevTier = row.Tier
			}
			assert.InDelta(t, normalizedTotal, classifiedTotal, 1e-6)
			assert.InDelta(t, 100.0, result.Rows[len(result.Rows)-1].CumulativeRevenuePercentage, 1e-9)

			var summaryPct float64
			for _, s := range result.Summary {
				summaryPct += s.PercentageOfTotalRevenue
			}
			assert.InDelta(t, 100.0, summaryPct, 1e-6)
		})
	}
}

func TestClassifier_CustomThresholds(t *testing.T) {
	c, err := NewClassifier(domain.TierThresholds{A: 50, B: 80}, quietLogger())
	require.NoError(t, err)

	result, err := c.Classify([]domain.NormalizedSaleRow{
		revenueRow(1, "A", 600),
		revenueRow(2, "B", 250),
		revenueRow(3, "C", 150),
	})
	require.NoError(t, err)
	// 60% already crosses the A cut-off
	assert.Equal(t, domain.TierB, result.Rows[0].Tier)
	assert.Equal(t, domain.TierC, result.Rows[1].Tier)
	assert.Equal(t, domain.TierC, result.Rows[2].Tier)
	assert.Equal(t, domain.TierB, c.thresholds.TierFor(60))
}

func TestNewClassifier_InvalidThresholds(t *testing.T) {
	for _, th := range []domain.TierThresholds{{A: 0, B: 90}, {A: 90, B: 70}, {A: 70, B: 101}} {
		_, err := NewClassifier(th, nil)
		assert.ErrorIs(t, err, apperrors.ErrConfig, "thresholds %+v", th)
	}
}
