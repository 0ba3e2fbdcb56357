package domain

import (
	"fmt"
)

// Tier is an ABC revenue-contribution tier
type Tier string

const (
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
)

// Tiers lists every tier in rank order
var Tiers = []Tier{TierA, TierB, TierC}

// Default cumulative revenue share cut-offs (percent)
const (
	DefaultTierAThreshold = 70.0
	DefaultTierBThreshold = 90.0
)

// Classification output column names
var ClassificationColumns = []string{
	"ProductID", "ProductName", "TotalRevenue", "CumulativeRevenue",
	"CumulativeRevenuePercentage", "ABC_Category",
}

// TierSummaryColumns lists the tier summary output columns
var TierSummaryColumns = []string{
	"ABC_Category", "ProductCount", "TotalRevenue", "PercentageOfTotalRevenue",
}

// TierThresholds holds the inclusive upper bounds of the A and B tiers.
// A row whose cumulative percentage is <= A is tier A, <= B is tier B,
// anything above is tier C.
type TierThresholds struct {
	A float64 `json:"a" yaml:"a" envconfig:"A" validate:"gt=0,ltfield=B"`
	B float64 `json:"b" yaml:"b" envconfig:"B" validate:"gt=0,lte=100"`
}

// DefaultTierThresholds returns the standard 70/90 split
func DefaultTierThresholds() TierThresholds {
	return TierThresholds{A: DefaultTierAThreshold, B: DefaultTierBThreshold}
}

// Validate checks 0 < A < B <= 100
func (t TierThresholds) Validate() error {
	if t.A <= 0 || t.B > 100 || t.A >= t.B {
		return fmt.Errorf("invalid tier thresholds A=%.2f B=%.2f: require 0 < A < B <= 100", t.A, t.B)
	}
	return nil
}

// ThresholdTolerance absorbs float error in cumulative percentages, so a
// share that is exactly on a threshold stays in the lower tier.
const ThresholdTolerance = 1e-9

// TierFor maps a cumulative revenue percentage to its tier. Thresholds are
// inclusive on the lower tier.
func (t TierThresholds) TierFor(cumulativePercentage float64) Tier {
	switch {
	case cumulativePercentage <= t.A+ThresholdTolerance:
		return TierA
	case cumulativePercentage <= t.B+ThresholdTolerance:
		return TierB
	default:
		return TierC
	}
}

// ClassificationRow is one product in the ABC classification table
type ClassificationRow struct {
	ProductID                   int64   `json:"product_id"`
	ProductName                 string  `json:"product_name"`
	TotalRevenue                float64 `json:"total_revenue"`
	CumulativeRevenue           float64 `json:"cumulative_revenue"`
	CumulativeRevenuePercentage float64 `json:"cumulative_revenue_percentage"`
	Tier                        Tier    `json:"abc_category"`
}

// TierSummary aggregates the classification table per tier
type TierSummary struct {
	Tier                     Tier    `json:"abc_category"`
	ProductCount             int     `json:"product_count"`
	TotalRevenue             float64 `json:"total_revenue"`
	PercentageOfTotalRevenue float64 `json:"percentage_of_total_revenue"`
}
