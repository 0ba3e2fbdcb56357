package dataprocessing

import (
	"fmt"
	"log/slog"

	apperrors "salespulse/internal/errors"
	"salespulse/pkg/contracts/domain"
)

// StageNormalize names the normalization stage in warnings and logs
const StageNormalize = "normalize"

// Filter restricts the normalized dataset to a retail domain. The denylist
// is applied to product names first, then rows are kept only when their
// category name is in the allowlist. An empty allowlist keeps nothing.
type Filter struct {
	Denylist  []string `json:"denylist"`
	Allowlist []string `json:"allowlist"`
}

// NormalizationResult is the normalized sales dataset plus the row counts
// of every step that produced it.
type NormalizationResult struct {
	Rows []domain.NormalizedSaleRow `json:"rows"`

	InputRows              int `json:"input_rows"`
	DroppedMissingProduct  int `json:"dropped_missing_product"`
	DroppedMissingCategory int `json:"dropped_missing_category"`
	ExcludedByDenylist     int `json:"excluded_by_denylist"`
	ExcludedByAllowlist    int `json:"excluded_by_allowlist"`

	Warnings []domain.Warning `json:"warnings,omitempty"`
}

// OutputRows returns the number of normalized rows
func (r *NormalizationResult) OutputRows() int {
	return len(r.Rows)
}

// JoinDropped returns the rows lost to unmatched product or category keys
func (r *NormalizationResult) JoinDropped() int {
	return r.DroppedMissingProduct + r.DroppedMissingCategory
}

// Empty reports whether the filter pass left no rows
func (r *NormalizationResult) Empty() bool {
	return len(r.Rows) == 0
}

// TotalRevenue sums TotalPrice over the dataset
func (r *NormalizationResult) TotalRevenue() float64 {
	var total float64
	for _, row := range r.Rows {
		total += row.TotalPrice
	}
	return total
}

// Normalizer joins raw transactions to reference data and projects them to
// the canonical normalized row.
type Normalizer struct {
	logger *slog.Logger
}

// NewNormalizer creates a normalizer
func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger.With(slog.String("component", "normalizer"))}
}

// Normalize runs the join, the monetary and calendar derivation and the
// domain filter. Input slices are never modified and the returned rows are
// freshly allocated. Duplicate reference keys resolve to their first row.
func (n *Normalizer) Normalize(data *domain.ReferenceData, filter Filter) (*NormalizationResult, error) {
	if data == nil {
		data = &domain.ReferenceData{}
	}

	products := make(map[int64]domain.ProductReference, len(data.Products))
	for _, p := range data.Products {
		if _, dup := products[p.ProductID]; !dup {
			products[p.ProductID] = p
		}
	}
	categories := make(map[int64]string, len(data.Categories))
	for _, c := range data.Categories {
		if _, dup := categories[c.CategoryID]; !dup {
			categories[c.CategoryID] = c.CategoryName
		}
	}
	denied := toSet(filter.Denylist)
	allowed := toSet(filter.Allowlist)

	result := &NormalizationResult{
		InputRows: len(data.Transactions),
		Rows:      make([]domain.NormalizedSaleRow, 0, len(data.Transactions)),
	}

	for i, tx := range data.Transactions {
		if err := checkTransaction(i, tx); err != nil {
			return nil, err
		}

		product, ok := products[tx.ProductID]
		if !ok {
			result.DroppedMissingProduct++
			continue
		}
		categoryName, ok := categories[product.CategoryID]
		if !ok {
			result.DroppedMissingCategory++
			continue
		}

		if _, deny := denied[product.ProductName]; deny {
			result.ExcludedByDenylist++
			continue
		}
		if _, allow := allowed[categoryName]; !allow {
			result.ExcludedByAllowlist++
			continue
		}

		row := domain.NormalizedSaleRow{
			ProductID:    product.ProductID,
			ProductName:  product.ProductName,
			CategoryID:   product.CategoryID,
			CategoryName: categoryName,
			Quantity:     tx.Quantity,
			Discount:     tx.Discount,
			TotalPrice:   domain.LineTotal(tx.Quantity, product.Price, tx.Discount),
			SalesDate:    tx.SalesDate,
			Price:        product.Price,
		}
		setCalendarFields(&row)
		result.Rows = append(result.Rows, row)
	}

	if dropped := result.JoinDropped(); dropped > 0 {
		result.Warnings = append(result.Warnings, domain.Warning{
			Code:  domain.WarningJoinMismatch,
			Stage: StageNormalize,
			Message: fmt.Sprintf("%d transactions dropped: %d without product, %d without category",
				dropped, result.DroppedMissingProduct, result.DroppedMissingCategory),
			Count: dropped,
		})
	}
	if result.Empty() {
		result.Warnings = append(result.Warnings, domain.Warning{
			Code:    domain.WarningEmptyResult,
			Stage:   StageNormalize,
			Message: "no rows left after domain filter",
		})
	}

	n.logger.Info("normalization complete",
		slog.Int("input_rows", result.InputRows),
		slog.Int("dropped_missing_product", result.DroppedMissingProduct),
		slog.Int("dropped_missing_category", result.DroppedMissingCategory),
		slog.Int("excluded_by_denylist", result.ExcludedByDenylist),
		slog.Int("excluded_by_allowlist", result.ExcludedByAllowlist),
		slog.Int("output_rows", result.OutputRows()))

	return result, nil
}

// checkTransaction enforces quantity >= 0 and discount in [0,1] for records
// that did not come through the loader.
func checkTransaction(i int, tx domain.TransactionRecord) error {
	switch {
	case tx.Quantity < 0:
		return apperrors.NewAppError(apperrors.ErrTypeValidation,
			fmt.Sprintf("transaction %d: negative quantity %d", i+1, tx.Quantity), nil).
			WithContext("table", domain.TableTransactions).
			WithContext("row", i+1).
			WithContext("column", domain.ColQuantity)
	case tx.Discount < 0 || tx.Discount > 1:
		return apperrors.NewAppError(apperrors.ErrTypeValidation,
			fmt.Sprintf("transaction %d: discount %.4f outside [0,1]", i+1, tx.Discount), nil).
			WithContext("table", domain.TableTransactions).
			WithContext("row", i+1).
			WithContext("column", domain.ColDiscount)
	}
	return nil
}

// setCalendarFields derives year, month name, weekday name and ISO week from
// the sale date. A zero date leaves the fields empty.
func setCalendarFields(row *domain.NormalizedSaleRow) {
	if row.SalesDate.IsZero() {
		return
	}
	row.SaleYear = row.SalesDate.Year()
	row.SaleMonth = row.SalesDate.Month().String()
	row.SaleWeekday = row.SalesDate.Weekday().String()
	_, row.SaleWeek = row.SalesDate.ISOWeek()
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
