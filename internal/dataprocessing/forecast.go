package dataprocessing

import (
	"context"
	"fmt"
	"math"

	apperrors "salespulse/internal/errors"
	"salespulse/pkg/contracts/domain"
)

// Forecaster projects a daily revenue series forward. Implementations return
// the fitted history followed by horizonDays future points.
type Forecaster interface {
	Forecast(ctx context.Context, series []domain.DailySales, horizonDays int) ([]domain.ForecastPoint, error)
}

// z-score of the two-sided 95% interval
const intervalZ = 1.96

// TrendWeekdayForecaster fits a least-squares line over the day index and
// adds the mean residual of each weekday. The interval is ±1.96 residual
// standard deviations.
type TrendWeekdayForecaster struct{}

// NewTrendWeekdayForecaster creates the baseline forecaster
func NewTrendWeekdayForecaster() *TrendWeekdayForecaster {
	return &TrendWeekdayForecaster{}
}

// Forecast implements Forecaster
func (f *TrendWeekdayForecaster) Forecast(ctx context.Context, series []domain.DailySales, horizonDays int) ([]domain.ForecastPoint, error) {
	if len(series) < 2 {
		return nil, apperrors.NewAppValidationError(
			fmt.Sprintf("forecast needs at least 2 daily points, got %d", len(series)))
	}
	if horizonDays < 0 {
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("negative forecast horizon %d", horizonDays))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	origin := truncateDay(series[0].Date)
	dayIndex := func(i int) float64 {
		return truncateDay(series[i].Date).Sub(origin).Hours() / 24
	}

	// linear trend
	var sumX, sumY, sumXY, sumXX float64
	n := float64(len(series))
	for i, p := range series {
		x := dayIndex(i)
		sumX += x
		sumY += p.Revenue
		sumXY += x * p.Revenue
		sumXX += x * x
	}
	var slope float64
	if denom := n*sumXX - sumX*sumX; denom != 0 {
		slope = (n*sumXY - sumX*sumY) / denom
	}
	intercept := (sumY - slope*sumX) / n
	trend := func(x float64) float64 { return intercept + slope*x }

	// weekday effect
	var weekdaySum, weekdayCount [7]float64
	for i, p := range series {
		wd := p.Date.Weekday()
		weekdaySum[wd] += p.Revenue - trend(dayIndex(i))
		weekdayCount[wd]++
	}
	var weekdayEffect [7]float64
	for wd := range weekdayEffect {
		if weekdayCount[wd] > 0 {
			weekdayEffect[wd] = weekdaySum[wd] / weekdayCount[wd]
		}
	}

	var sq float64
	for i, p := range series {
		fit := trend(dayIndex(i)) + weekdayEffect[p.Date.Weekday()]
		sq += (p.Revenue - fit) * (p.Revenue - fit)
	}
	band := intervalZ * math.Sqrt(sq/n)

	out := make([]domain.ForecastPoint, 0, len(series)+horizonDays)
	for i, p := range series {
		yhat := trend(dayIndex(i)) + weekdayEffect[p.Date.Weekday()]
		actual := p.Revenue
		out = append(out, domain.ForecastPoint{
			Date:      truncateDay(p.Date),
			Yhat:      yhat,
			YhatLower: yhat - band,
			YhatUpper: yhat + band,
			Actual:    &actual,
		})
	}

	last := truncateDay(series[len(series)-1].Date)
	for h := 1; h <= horizonDays; h++ {
		day := last.AddDate(0, 0, h)
		x := day.Sub(origin).Hours() / 24
		yhat := trend(x) + weekdayEffect[day.Weekday()]
		out = append(out, domain.ForecastPoint{
			Date:       day,
			Yhat:       yhat,
			YhatLower:  yhat - band,
			YhatUpper:  yhat + band,
			IsForecast: true,
		})
	}
	return out, nil
}
