// Package domain provides core domain models and types.
package domain

// Currency represents a currency code
type Currency string

const (
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
)

// Valid reports whether the currency is one of the supported codes.
func (c Currency) Valid() bool {
	switch c {
	case CurrencyEUR, CurrencyUSD:
		return true
	}
	return false
}

// AssetClass represents one of the portfolio's asset classes.
// The set is closed - there is no dynamic extension.
type AssetClass string

const (
	AssetClassStock  AssetClass = "STOCK"
	AssetClassCrypto AssetClass = "CRYPTO"
	AssetClassMetal  AssetClass = "METAL"
)

// AssetClasses is the fixed iteration order used everywhere an ordered
// sequence of classes is produced (analysis lines, tie-breaking).
var AssetClasses = []AssetClass{AssetClassStock, AssetClassCrypto, AssetClassMetal}

// Valid reports whether the asset class is one of the known classes.
func (c AssetClass) Valid() bool {
	switch c {
	case AssetClassStock, AssetClassCrypto, AssetClassMetal:
		return true
	}
	return false
}

// ClassOrder returns the position of the class in the fixed order.
// Unknown classes sort last.
func ClassOrder(c AssetClass) int {
	for i, known := range AssetClasses {
		if c == known {
			return i
		}
	}
	return len(AssetClasses)
}

// TradeSide represents the direction of a trade
type TradeSide string

const (
	TradeSideBuy  TradeSide = "BUY"
	TradeSideSell TradeSide = "SELL"
)

// PlanPriority represents the overall urgency of a recommendation plan
type PlanPriority string

const (
	PlanPriorityHigh   PlanPriority = "HIGH"
	PlanPriorityMedium PlanPriority = "MEDIUM"
	PlanPriorityLow    PlanPriority = "LOW"
)

// Holding represents one instrument position, already valued in the
// base currency. Holdings are supplied by the portfolio data source and
// passed through to the recommendation generator.
type Holding struct {
	Symbol      string     `json:"symbol"`
	AssetClass  AssetClass `json:"asset_class"`
	Quantity    float64    `json:"quantity"`
	Price       float64    `json:"price"`
	MarketValue float64    `json:"market_value"`
	Currency    Currency   `json:"currency"`
}
