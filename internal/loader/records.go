package loader

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"

	apperrors "salespulse/internal/errors"
	"salespulse/pkg/contracts/domain"
)

// Accepted SalesDate layouts, tried in order. Fractional seconds are
// accepted after any layout carrying seconds.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

var recordValidator = validator.New()

// ParseTransactions converts a transactions table into records.
// A blank SalesDate yields a zero time; the period trimmer drops such rows.
func ParseTransactions(t *Table) ([]domain.TransactionRecord, error) {
	if err := t.Require(domain.TransactionColumns...); err != nil {
		return nil, err
	}

	out := make([]domain.TransactionRecord, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		productID, err := parseID(t.Cell(i, domain.ColProductID))
		if err != nil {
			return nil, cellError(t, i, domain.ColProductID, err)
		}
		quantity, err := parseQuantity(t.Cell(i, domain.ColQuantity))
		if err != nil {
			return nil, cellError(t, i, domain.ColQuantity, err)
		}
		discount, err := parseOptionalFloat(t.Cell(i, domain.ColDiscount))
		if err != nil {
			return nil, cellError(t, i, domain.ColDiscount, err)
		}
		salesDate, err := ParseSalesDate(t.Cell(i, domain.ColSalesDate))
		if err != nil {
			return nil, cellError(t, i, domain.ColSalesDate, err)
		}

		rec := domain.TransactionRecord{
			ProductID: productID,
			Quantity:  quantity,
			Discount:  discount,
			SalesDate: salesDate,
		}
		if err := checkRange(t, i, &rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// ParseProducts converts a products table into reference rows
func ParseProducts(t *Table) ([]domain.ProductReference, error) {
	if err := t.Require(domain.ProductColumns...); err != nil {
		return nil, err
	}

	out := make([]domain.ProductReference, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		productID, err := parseID(t.Cell(i, domain.ColProductID))
		if err != nil {
			return nil, cellError(t, i, domain.ColProductID, err)
		}
		price, err := parseFloat(t.Cell(i, domain.ColPrice))
		if err != nil {
			return nil, cellError(t, i, domain.ColPrice, err)
		}
		categoryID, err := parseID(t.Cell(i, domain.ColCategoryID))
		if err != nil {
			return nil, cellError(t, i, domain.ColCategoryID, err)
		}

		rec := domain.ProductReference{
			ProductID:   productID,
			ProductName: t.Cell(i, domain.ColProductName),
			Price:       price,
			CategoryID:  categoryID,
		}
		if err := checkRange(t, i, &rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// ParseCategories converts a categories table into reference rows
func ParseCategories(t *Table) ([]domain.CategoryReference, error) {
	if err := t.Require(domain.CategoryColumns...); err != nil {
		return nil, err
	}

	out := make([]domain.CategoryReference, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		categoryID, err := parseID(t.Cell(i, domain.ColCategoryID))
		if err != nil {
			return nil, cellError(t, i, domain.ColCategoryID, err)
		}
		out = append(out, domain.CategoryReference{
			CategoryID:   categoryID,
			CategoryName: t.Cell(i, domain.ColCategoryName),
		})
	}
	return out, nil
}

// ParseSalesDate parses a sale date. Excel serial numbers are accepted for
// workbooks saved without date formatting.
func ParseSalesDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		return excelize.ExcelDateToTime(serial, false)
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func cellError(t *Table, i int, column string, err error) error {
	return apperrors.NewCellParsingError(t.Name, i+1, column, err)
}

// checkRange applies the validate tags of the domain record and reports the
// first violation with its row and column.
func checkRange(t *Table, i int, rec interface{}) error {
	err := recordValidator.Struct(rec)
	if err == nil {
		return nil
	}
	column := ""
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		column = verrs[0].StructField()
	}
	return apperrors.NewAppError(apperrors.ErrTypeValidation,
		fmt.Sprintf("table %s row %d column %s: value out of range", t.Name, i+1, column), err).
		WithContext("table", t.Name).
		WithContext("row", i+1).
		WithContext("column", column)
}

// parseID accepts integers and integral floats such as "12.0"
func parseID(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty identifier")
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("invalid identifier %q", s)
	}
	return int64(f), nil
}

func parseQuantity(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty quantity")
	}
	return parseID(s)
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

// parseOptionalFloat reads a blank cell as zero
func parseOptionalFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return parseFloat(s)
}
