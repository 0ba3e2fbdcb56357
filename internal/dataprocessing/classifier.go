package dataprocessing

import (
	"log/slog"
	"sort"

	apperrors "salespulse/internal/errors"
	"salespulse/pkg/contracts/domain"
)

// StageClassify names the classification stage in warnings and logs
const StageClassify = "classify"

// ClassificationResult holds the ranked product table and its tier summary
type ClassificationResult struct {
	Rows         []domain.ClassificationRow `json:"rows"`
	Summary      []domain.TierSummary       `json:"summary"`
	TotalRevenue float64                    `json:"total_revenue"`
	Thresholds   domain.TierThresholds      `json:"thresholds"`
}

// TierCounts returns the number of products per tier label
func (r *ClassificationResult) TierCounts() map[string]int {
	counts := make(map[string]int, len(domain.Tiers))
	for _, t := range domain.Tiers {
		counts[string(t)] = 0
	}
	for _, s := range r.Summary {
		counts[string(s.Tier)] = s.ProductCount
	}
	return counts
}

// Classifier ranks products by revenue and assigns ABC tiers
type Classifier struct {
	thresholds domain.TierThresholds
	logger     *slog.Logger
}

// NewClassifier creates a classifier. Invalid thresholds are rejected.
func NewClassifier(thresholds domain.TierThresholds, logger *slog.Logger) (*Classifier, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, apperrors.NewConfigError("invalid tier thresholds", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		thresholds: thresholds,
		logger:     logger.With(slog.String("component", "classifier")),
	}, nil
}

type productKey struct {
	id   int64
	name string
}

// Classify aggregates revenue per product, sorts by revenue descending with
// product id ascending as tie-break, and tags each product by cumulative
// revenue share. The top-ranked product is always tier A. It fails with a
// NO_REVENUE error when total revenue is zero.
func (c *Classifier) Classify(rows []domain.NormalizedSaleRow) (*ClassificationResult, error) {
	revenue := make(map[productKey]float64)
	for _, row := range rows {
		revenue[productKey{id: row.ProductID, name: row.ProductName}] += row.TotalPrice
	}

	ranked := make([]domain.ClassificationRow, 0, len(revenue))
	for key, total := range revenue {
		ranked = append(ranked, domain.ClassificationRow{
			ProductID:    key.id,
			ProductName:  key.name,
			TotalRevenue: total,
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.TotalRevenue != b.TotalRevenue {
			return a.TotalRevenue > b.TotalRevenue
		}
		if a.ProductID != b.ProductID {
			return a.ProductID < b.ProductID
		}
		return a.ProductName < b.ProductName
	})

	var grandTotal float64
	for i := range ranked {
		grandTotal += ranked[i].TotalRevenue
		ranked[i].CumulativeRevenue = grandTotal
	}
	if grandTotal <= 0 {
		c.logger.Warn("nothing to classify", slog.Int("products", len(ranked)))
		return nil, apperrors.NewNoRevenueError(len(ranked))
	}

	for i := range ranked {
		ranked[i].CumulativeRevenuePercentage = ranked[i].CumulativeRevenue * 100 / grandTotal
	}
	// the last row closes the distribution exactly
	ranked[len(ranked)-1].CumulativeRevenuePercentage = 100
	for i := range ranked {
		ranked[i].Tier = c.thresholds.TierFor(ranked[i].CumulativeRevenuePercentage)
	}
	// a lone product holds the whole distribution and is an A item
	if len(ranked) == 1 {
		ranked[0].Tier = domain.TierA
	}

	result := &ClassificationResult{
		Rows:         ranked,
		Summary:      summarizeTiers(ranked, grandTotal),
		TotalRevenue: grandTotal,
		Thresholds:   c.thresholds,
	}

	attrs := []any{slog.Int("products", len(ranked)), slog.Float64("total_revenue", grandTotal)}
	for tier, n := range result.TierCounts() {
		attrs = append(attrs, slog.Int("tier_"+tier, n))
	}
	c.logger.Info("classification complete", attrs...)

	return result, nil
}

// summarizeTiers builds one summary row per tier present, in rank order
func summarizeTiers(rows []domain.ClassificationRow, grandTotal float64) []domain.TierSummary {
	byTier := make(map[domain.Tier]*domain.TierSummary, len(domain.Tiers))
	for _, row := range rows {
		s, ok := byTier[row.Tier]
		if !ok {
			s = &domain.TierSummary{Tier: row.Tier}
			byTier[row.Tier] = s
		}
		s.ProductCount++
		s.TotalRevenue += row.TotalRevenue
	}

	summary := make([]domain.TierSummary, 0, len(byTier))
	for _, tier := range domain.Tiers {
		s, ok := byTier[tier]
		if !ok {
			continue
		}
		s.PercentageOfTotalRevenue = s.TotalRevenue * 100 / grandTotal
		summary = append(summary, *s)
	}
	return summary
}
