package dataprocessing

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"salespulse/pkg/contracts/domain"
)

// StageAnalytics names the reporting stage in warnings and logs
const StageAnalytics = "analytics"

// ReportConfig holds the options of the reporting consumers
type ReportConfig struct {
	COGSRatio           float64 // cost of goods sold as a fraction of revenue
	TopN                int     // size of the fast and slow mover lists
	ForecastHorizonDays int
}

// DefaultReportConfig returns the reporting options used by the CLI
func DefaultReportConfig() ReportConfig {
	return ReportConfig{
		COGSRatio:           0.70,
		TopN:                10,
		ForecastHorizonDays: 7,
	}
}

// Reports bundles every read-only consumer of the normalized dataset
type Reports struct {
	Overview    domain.FinancialOverview `json:"overview"`
	WeeklySales []domain.WeeklySales     `json:"weekly_sales"`
	Movers      domain.Movers            `json:"movers"`
	COGS        []domain.CategoryCOGS    `json:"cogs_by_category"`
	Daily       []domain.DailySales      `json:"daily_sales"`
	Forecast    []domain.ForecastPoint   `json:"forecast,omitempty"`
}

// ReportBuilder computes the reporting aggregates and the forecast
type ReportBuilder struct {
	logger     *slog.Logger
	config     ReportConfig
	forecaster Forecaster
}

// NewReportBuilder creates a report builder. A nil forecaster selects the
// built-in TrendWeekdayForecaster.
func NewReportBuilder(logger *slog.Logger, config ReportConfig, forecaster Forecaster) *ReportBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	if config.TopN <= 0 {
		config.TopN = 10
	}
	if config.COGSRatio < 0 || config.COGSRatio > 1 {
		config.COGSRatio = 0.70
	}
	if forecaster == nil {
		forecaster = NewTrendWeekdayForecaster()
	}
	return &ReportBuilder{
		logger:     logger.With(slog.String("component", "reports")),
		config:     config,
		forecaster: forecaster,
	}
}

// Build runs every aggregate over rows and then the forecast
func (b *ReportBuilder) Build(ctx context.Context, rows []domain.NormalizedSaleRow) (*Reports, []domain.Warning) {
	reports := b.Aggregate(ctx, rows)
	warnings := b.AttachForecast(ctx, reports)
	return reports, warnings
}

// Aggregate computes the overview, weekly trend, movers, COGS and daily series
func (b *ReportBuilder) Aggregate(ctx context.Context, rows []domain.NormalizedSaleRow) *Reports {
	reports := &Reports{
		Overview:    Overview(rows, b.config.COGSRatio),
		WeeklySales: WeeklyTrend(rows),
		Movers:      TopMovers(rows, b.config.TopN),
		COGS:        COGSByCategory(rows, b.config.COGSRatio),
		Daily:       DailySeries(rows),
	}

	b.logger.InfoContext(ctx, "reports built",
		slog.Float64("revenue", reports.Overview.Revenue),
		slog.Int("weeks", len(reports.WeeklySales)),
		slog.Int("days", len(reports.Daily)),
		slog.Int("categories", len(reports.COGS)))

	return reports
}

// AttachForecast fills reports.Forecast from the daily series. Forecast
// failures are logged and returned as a warning so the other reports stay
// usable. A zero horizon disables forecasting.
func (b *ReportBuilder) AttachForecast(ctx context.Context, reports *Reports) []domain.Warning {
	if b.config.ForecastHorizonDays <= 0 {
		return nil
	}
	forecast, err := b.forecaster.Forecast(ctx, reports.Daily, b.config.ForecastHorizonDays)
	if err != nil {
		b.logger.WarnContext(ctx, "forecast skipped", slog.String("error", err.Error()))
		return []domain.Warning{{
			Code:    domain.WarningForecastSkipped,
			Stage:   StageAnalytics,
			Message: "forecast skipped: " + err.Error(),
		}}
	}
	reports.Forecast = forecast
	b.logger.DebugContext(ctx, "forecast attached", slog.Int("forecast_points", len(forecast)))
	return nil
}

// Overview computes revenue, COGS at the given ratio, gross profit and
// profit margin percentage. The margin is 0 when there is no revenue.
func Overview(rows []domain.NormalizedSaleRow, cogsRatio float64) domain.FinancialOverview {
	var revenue, cogs float64
	for _, row := range rows {
		revenue += row.TotalPrice
		cogs += row.TotalPrice * cogsRatio
	}
	o := domain.FinancialOverview{
		Revenue:     revenue,
		COGS:        cogs,
		GrossProfit: revenue - cogs,
		COGSRatio:   cogsRatio,
	}
	if revenue != 0 {
		o.ProfitMargin = o.GrossProfit / revenue * 100
	}
	return o
}

// WeeklyTrend sums revenue per Monday-based calendar week and numbers the
// weeks from 1 at the week of the earliest sale. Weeks spanning a year end
// stay in order. Rows without a sale date are ignored.
func WeeklyTrend(rows []domain.NormalizedSaleRow) []domain.WeeklySales {
	byWeek := make(map[time.Time]float64)
	var first time.Time
	for _, row := range rows {
		if row.SalesDate.IsZero() {
			continue
		}
		monday := weekStart(row.SalesDate)
		if first.IsZero() || monday.Before(first) {
			first = monday
		}
		byWeek[monday] += row.TotalPrice
	}

	out := make([]domain.WeeklySales, 0, len(byWeek))
	for monday, revenue := range byWeek {
		days := int(monday.Sub(first).Hours()/24 + 0.5)
		out = append(out, domain.WeeklySales{Week: days/7 + 1, Revenue: revenue})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Week < out[j].Week })
	return out
}

// weekStart returns the Monday opening the ISO week of t
func weekStart(t time.Time) time.Time {
	d := truncateDay(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// SalesByProduct sums revenue per product name, highest first with names
// ascending on ties.
func SalesByProduct(rows []domain.NormalizedSaleRow) []domain.ProductSales {
	byName := make(map[string]float64)
	for _, row := range rows {
		byName[row.ProductName] += row.TotalPrice
	}
	out := make([]domain.ProductSales, 0, len(byName))
	for name, revenue := range byName {
		out = append(out, domain.ProductSales{ProductName: name, Revenue: revenue})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].ProductName < out[j].ProductName
	})
	return out
}

// TopMovers returns the n best and n worst selling products. The slow list
// keeps the descending order of the full ranking.
func TopMovers(rows []domain.NormalizedSaleRow, n int) domain.Movers {
	ranked := SalesByProduct(rows)
	if n > len(ranked) {
		n = len(ranked)
	}
	if n < 0 {
		n = 0
	}
	fast := make([]domain.ProductSales, n)
	copy(fast, ranked[:n])
	slow := make([]domain.ProductSales, n)
	copy(slow, ranked[len(ranked)-n:])
	return domain.Movers{Fast: fast, Slow: slow}
}

// COGSByCategory estimates cost of goods sold per category, highest first.
// No inventory levels exist, so turnover itself is never computed.
func COGSByCategory(rows []domain.NormalizedSaleRow, cogsRatio float64) []domain.CategoryCOGS {
	revenue := make(map[string]float64)
	cogs := make(map[string]float64)
	for _, row := range rows {
		revenue[row.CategoryName] += row.TotalPrice
		cogs[row.CategoryName] += row.TotalPrice * cogsRatio
	}
	out := make([]domain.CategoryCOGS, 0, len(revenue))
	for name := range revenue {
		out = append(out, domain.CategoryCOGS{
			CategoryName: name,
			Revenue:      revenue[name],
			COGS:         cogs[name],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].COGS != out[j].COGS {
			return out[i].COGS > out[j].COGS
		}
		return out[i].CategoryName < out[j].CategoryName
	})
	return out
}

// DailySeries sums revenue per calendar day in ascending date order
func DailySeries(rows []domain.NormalizedSaleRow) []domain.DailySales {
	byDay := make(map[time.Time]float64)
	for _, row := range rows {
		if row.SalesDate.IsZero() {
			continue
		}
		byDay[truncateDay(row.SalesDate)] += row.TotalPrice
	}
	out := make([]domain.DailySales, 0, len(byDay))
	for day, revenue := range byDay {
		out = append(out, domain.DailySales{Date: day, Revenue: revenue})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
