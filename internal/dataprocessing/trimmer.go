package dataprocessing

import (
	"fmt"
	"time"

	apperrors "salespulse/internal/errors"
	"salespulse/pkg/contracts/domain"
)

// StageTrim names the period trimming stage in warnings and logs
const StageTrim = "trim"

// Period selects one calendar month of the raw feed. When SourceYear is set,
// every sale date is first moved by TargetYear-SourceYear years.
type Period struct {
	TargetYear  int `json:"target_year"`
	TargetMonth int `json:"target_month"`
	SourceYear  int `json:"source_year,omitempty"`
}

// Start returns the first instant of the period
func (p Period) Start() time.Time {
	return time.Date(p.TargetYear, time.Month(p.TargetMonth), 1, 0, 0, 0, 0, time.UTC)
}

// End returns the first instant after the period
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

// Label formats the period as yyyy_mm
func (p Period) Label() string {
	return fmt.Sprintf("%04d_%02d", p.TargetYear, p.TargetMonth)
}

// Validate checks the month range
func (p Period) Validate() error {
	if p.TargetMonth < 1 || p.TargetMonth > 12 {
		return apperrors.NewAppValidationError(fmt.Sprintf("target month %d outside 1..12", p.TargetMonth))
	}
	if p.TargetYear < 1 {
		return apperrors.NewAppValidationError(fmt.Sprintf("target year %d must be positive", p.TargetYear))
	}
	return nil
}

// TrimResult is the one-month slice of the raw feed
type TrimResult struct {
	Transactions []domain.TransactionRecord `json:"-"`
	Period       Period                     `json:"period"`
	InputRows    int                        `json:"input_rows"`
	MissingDates int                        `json:"missing_dates"`
	Shifted      int                        `json:"shifted"`
	Kept         int                        `json:"kept"`
	Warnings     []domain.Warning           `json:"warnings,omitempty"`
}

// TrimToPeriod drops rows without a sale date, applies the year shift and
// keeps the rows dated inside the period. The input slice is not modified.
func TrimToPeriod(transactions []domain.TransactionRecord, period Period) (*TrimResult, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}

	start, end := period.Start(), period.End()
	years := 0
	if period.SourceYear != 0 {
		years = period.TargetYear - period.SourceYear
	}

	result := &TrimResult{
		Period:       period,
		InputRows:    len(transactions),
		Transactions: make([]domain.TransactionRecord, 0),
	}

	for _, tx := range transactions {
		if tx.SalesDate.IsZero() {
			result.MissingDates++
			continue
		}
		if years != 0 {
			tx.SalesDate = ShiftYears(tx.SalesDate, years)
			result.Shifted++
		}
		if tx.SalesDate.Before(start) || !tx.SalesDate.Before(end) {
			continue
		}
		result.Transactions = append(result.Transactions, tx)
	}
	result.Kept = len(result.Transactions)

	if result.MissingDates > 0 {
		result.Warnings = append(result.Warnings, domain.Warning{
			Code:    domain.WarningDroppedDates,
			Stage:   StageTrim,
			Message: fmt.Sprintf("%d transactions without a sale date", result.MissingDates),
			Count:   result.MissingDates,
		})
	}
	if result.Kept == 0 {
		result.Warnings = append(result.Warnings, domain.Warning{
			Code:    domain.WarningEmptyResult,
			Stage:   StageTrim,
			Message: fmt.Sprintf("no transactions dated in %s", period.Label()),
		})
	}

	return result, nil
}

// ShiftYears moves t by the given number of calendar years. February 29
// lands on February 28 when the target year is not a leap year.
func ShiftYears(t time.Time, years int) time.Time {
	year := t.Year() + years
	month, day := t.Month(), t.Day()
	if month == time.February && day == 29 && !isLeap(year) {
		day = 28
	}
	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
