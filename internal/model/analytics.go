package model

import "github.com/shopspring/decimal"

// Analytics summarises store activity for the admin dashboard.
type Analytics struct {
	TotalOrders       int                 `json:"totalOrders"`
	Revenue           decimal.Decimal     `json:"revenue"`
	AverageOrderValue decimal.Decimal     `json:"averageOrderValue"`
	RefundedAmount    decimal.Decimal     `json:"refundedAmount"`
	OrdersByStatus    map[OrderStatus]int `json:"ordersByStatus"`
	TopProducts       []ProductSales      `json:"topProducts"`
	LowStock          []Product           `json:"lowStock"`
}

// ProductSales is the number of units sold for a product.
type ProductSales struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitsSold int             `json:"unitsSold"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// OrderStats holds aggregate order figures computed by the store.
type OrderStats struct {
	TotalOrders    int
	Revenue        decimal.Decimal
	RefundedAmount decimal.Decimal
	ByStatus       map[OrderStatus]int
}
