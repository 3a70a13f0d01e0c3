// Package stock derives the stock status of a supply from its quantity and
// reorder point. Every read path uses it.
package stock

import "math"

type Status string

const (
	OutOfStock Status = "out_of_stock"
	Low        Status = "low"
	Medium     Status = "medium"
	Good       Status = "good"
)

func (s Status) Valid() bool {
	switch s {
	case OutOfStock, Low, Medium, Good:
		return true
	}
	return false
}

// NeedsAttention reports whether s belongs on the low-stock list.
func (s Status) NeedsAttention() bool {
	return s == OutOfStock || s == Low || s == Medium
}

// AtOrBelowThreshold is true for out_of_stock and low.
func (s Status) AtOrBelowThreshold() bool {
	return s == OutOfStock || s == Low
}

type Level struct {
	Status     Status  `json:"stock_status"`
	Percentage float64 `json:"stock_percentage"`
}

// Derive maps (quantity, threshold) to a status and a percentage of the
// threshold rounded to one decimal. Percentage is 0 when threshold is 0.
func Derive(quantity, threshold int) Level {
	return Level{Status: deriveStatus(quantity, threshold), Percentage: Percentage(quantity, threshold)}
}

func deriveStatus(quantity, threshold int) Status {
	switch {
	case quantity <= 0:
		return OutOfStock
	case quantity <= threshold:
		return Low
	case float64(quantity) <= 1.5*float64(threshold):
		return Medium
	default:
		return Good
	}
}

func Percentage(quantity, threshold int) float64 {
	if threshold <= 0 {
		return 0
	}
	return math.Round(float64(quantity)/float64(threshold)*1000) / 10
}

// Ratio is quantity/threshold used for ordering; 0 when threshold is 0.
func Ratio(quantity, threshold int) float64 {
	if threshold <= 0 {
		return 0
	}
	return float64(quantity) / float64(threshold)
}
