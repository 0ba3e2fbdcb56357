package domain

import (
	"time"
)

// FinancialOverview summarizes revenue, cost and profit for a period
type FinancialOverview struct {
	Revenue      float64 `json:"revenue"`
	COGS         float64 `json:"cogs"`
	GrossProfit  float64 `json:"gross_profit"`
	ProfitMargin float64 `json:"profit_margin"`
	COGSRatio    float64 `json:"cogs_ratio"`
}

// WeeklySales is total revenue for one relative week of the period
type WeeklySales struct {
	Week    int     `json:"week"`
	Revenue float64 `json:"revenue"`
}

// ProductSales is revenue aggregated by product name
type ProductSales struct {
	ProductName string  `json:"product_name"`
	Revenue     float64 `json:"revenue"`
}

// Movers holds the fastest and slowest selling products
type Movers struct {
	Fast []ProductSales `json:"fast"`
	Slow []ProductSales `json:"slow"`
}

// CategoryCOGS is the estimated cost of goods sold for one category.
// InventoryAvailable is false when no stock data backs the figure.
type CategoryCOGS struct {
	CategoryName       string  `json:"category_name"`
	Revenue            float64 `json:"revenue"`
	COGS               float64 `json:"cogs"`
	InventoryAvailable bool    `json:"inventory_available"`
}

// DailySales is one point of the daily revenue series
type DailySales struct {
	Date    time.Time `json:"ds"`
	Revenue float64   `json:"y"`
}

// ForecastPoint is one point of a revenue forecast. Historical points carry
// the observed value in Actual.
type ForecastPoint struct {
	Date       time.Time `json:"ds"`
	Yhat       float64   `json:"yhat"`
	YhatLower  float64   `json:"yhat_lower"`
	YhatUpper  float64   `json:"yhat_upper"`
	Actual     *float64  `json:"actual,omitempty"`
	IsForecast bool      `json:"is_forecast"`
}
