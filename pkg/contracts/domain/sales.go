package domain

import (
	"time"
)

// Input table names used in error context and log attributes
const (
	TableTransactions = "transactions"
	TableProducts     = "products"
	TableCategories   = "categories"
)

// Input column names
const (
	ColProductID    = "ProductID"
	ColProductName  = "ProductName"
	ColQuantity     = "Quantity"
	ColDiscount     = "Discount"
	ColSalesDate    = "SalesDate"
	ColPrice        = "Price"
	ColCategoryID   = "CategoryID"
	ColCategoryName = "CategoryName"
)

// Derived and output column names
const (
	ColTotalPrice  = "TotalPrice"
	ColSaleYear    = "SaleYear"
	ColSaleMonth   = "SaleMonth"
	ColSaleWeekday = "SaleWeekday"
	ColSaleWeek    = "SaleWeek"
)

// TransactionColumns lists the columns the transactions table must carry
var TransactionColumns = []string{ColProductID, ColQuantity, ColDiscount, ColSalesDate}

// ProductColumns lists the columns the products table must carry
var ProductColumns = []string{ColProductID, ColProductName, ColPrice, ColCategoryID}

// CategoryColumns lists the columns the categories table must carry
var CategoryColumns = []string{ColCategoryID, ColCategoryName}

// NormalizedColumns is the canonical column order of the normalized sales dataset
var NormalizedColumns = []string{
	ColProductID, ColProductName, ColCategoryID, ColCategoryName,
	ColQuantity, ColDiscount, ColTotalPrice, ColSalesDate,
	ColSaleYear, ColSaleMonth, ColSaleWeekday, ColSaleWeek, ColPrice,
}

// TransactionRecord is one raw sale line as read from the transactions feed.
// Any total carried by the raw feed is ignored.
type TransactionRecord struct {
	ProductID int64     `json:"product_id"`
	Quantity  int64     `json:"quantity" validate:"min=0"`
	Discount  float64   `json:"discount" validate:"min=0,max=1"`
	SalesDate time.Time `json:"sales_date"`
}

// ProductReference is one row of the product reference table
type ProductReference struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Price       float64 `json:"price" validate:"min=0"`
	CategoryID  int64   `json:"category_id"`
}

// CategoryReference is one row of the category reference table
type CategoryReference struct {
	CategoryID   int64  `json:"category_id"`
	CategoryName string `json:"category_name"`
}

// ReferenceData bundles everything the loader supplies for one run
type ReferenceData struct {
	Transactions []TransactionRecord `json:"transactions"`
	Products     []ProductReference  `json:"products"`
	Categories   []CategoryReference `json:"categories"`
}

// NormalizedSaleRow is one row of the normalized sales dataset
type NormalizedSaleRow struct {
	ProductID    int64     `json:"product_id"`
	ProductName  string    `json:"product_name"`
	CategoryID   int64     `json:"category_id"`
	CategoryName string    `json:"category_name"`
	Quantity     int64     `json:"quantity"`
	Discount     float64   `json:"discount"`
	TotalPrice   float64   `json:"total_price"`
	SalesDate    time.Time `json:"sales_date"`
	SaleYear     int       `json:"sale_year"`
	SaleMonth    string    `json:"sale_month"`
	SaleWeekday  string    `json:"sale_weekday"`
	SaleWeek     int       `json:"sale_week"`
	Price        float64   `json:"price"`
}

// LineTotal returns quantity × unit price × (1 − discount)
func LineTotal(quantity int64, unitPrice, discount float64) float64 {
	return float64(quantity) * unitPrice * (1 - discount)
}
