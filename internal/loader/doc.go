// Package loader reads the transactions, products and categories tables from
// CSV files or Excel workbooks. Columns are located by header name, so column
// order and extra columns do not matter. A missing file is an INPUT_NOT_FOUND
// error and a missing required column a SCHEMA error naming table and column.
package loader
