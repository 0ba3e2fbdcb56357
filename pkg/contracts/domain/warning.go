package domain

// WarningCode identifies a non-fatal condition raised while processing
type WarningCode string

const (
	WarningJoinMismatch    WarningCode = "JOIN_MISMATCH"
	WarningEmptyResult     WarningCode = "EMPTY_RESULT"
	WarningDroppedDates    WarningCode = "DROPPED_DATES"
	WarningNoRevenue       WarningCode = "NO_REVENUE"
	WarningForecastSkipped WarningCode = "FORECAST_SKIPPED"
)

// Warning is a non-fatal diagnostic attached to a stage result
type Warning struct {
	Code    WarningCode `json:"code"`
	Stage   string      `json:"stage"`
	Message string      `json:"message"`
	Count   int         `json:"count,omitempty"`
}
