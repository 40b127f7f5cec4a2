package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockPolicy controls how product availability is tracked.
type StockPolicy string

const (
	// StockPolicyFixed draws from a finite pool.
	StockPolicyFixed StockPolicy = "fixed"
	// StockPolicyDaily replenishes the pool once per day to DailyStock.
	StockPolicyDaily StockPolicy = "daily"
	// StockPolicyUnlimited never constrains ordering.
	StockPolicyUnlimited StockPolicy = "unlimited"
)

// Product is a catalog entry available within a single branch.
type Product struct {
	ID               int64
	BranchID         int64
	Name             string
	Price            decimal.Decimal
	StockPolicy      StockPolicy
	Stock            int
	DailyStock       int
	LastDailyRestock time.Time
}

// Addon is an optional extra attachable to a product line.
type Addon struct {
	ID    int64
	Title string
	Price decimal.Decimal
	Tax   decimal.Decimal
}

// Variation is a named selection group on a product, e.g. size.
type Variation struct {
	ID            int64
	ProductID     int64
	Title         string
	MinSelections int
	MaxSelections int
	Required      bool
}

// VariationOption is one pickable entry of a variation with a price delta.
type VariationOption struct {
	ID    int64
	Name  string
	Price decimal.Decimal
}
