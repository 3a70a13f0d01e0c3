package query

import (
	"context"
	"math"
	"sort"
	"time"

	"ems-inventory/internal/apperr"
	"ems-inventory/internal/models"
	"ems-inventory/internal/stock"
)

const (
	summaryCacheKey         = "dashboard:summary"
	categorySummaryCacheKey = "dashboard:category-summary"

	recentActivityLimit = 10
	criticalLimit       = 10
	topActorsLimit      = 5
	topActorsWindow     = 30 * 24 * time.Hour
	recentWindow        = 7 * 24 * time.Hour
)

type InventoryCounts struct {
	TotalSupplies int `json:"total_supplies"`
	OutOfStock    int `json:"out_of_stock"`
	Low           int `json:"low_stock"`
	Medium        int `json:"medium_stock"`
	Good          int `json:"good_stock"`
}

type CategoryBreakdown struct {
	CategoryID    uint   `json:"category_id"`
	Category      string `json:"category"`
	ItemCount     int    `json:"item_count"`
	TotalQuantity int    `json:"total_quantity"`
	LowItems      int    `json:"low_items"`
}

type TopActor struct {
	EmployeeName     string `json:"employee_name"`
	TransactionCount int    `json:"transaction_count"`
	TotalItems       int    `json:"total_items"`
}

type DashboardSummary struct {
	Inventory               InventoryCounts     `json:"inventory"`
	RecentTransactionsCount int64               `json:"recent_transactions_count"`
	CategoryBreakdown       []CategoryBreakdown `json:"category_breakdown"`
	CriticalSupplies        []SupplyView        `json:"critical_supplies"`
	RecentActivity          []TransactionView   `json:"recent_activity"`
	TopUsers                []TopActor          `json:"top_users"`
}

func (s *Service) DashboardSummary(ctx context.Context) (*DashboardSummary, error) {
	return cached(ctx, s, summaryCacheKey, func() (*DashboardSummary, error) {
		return s.computeSummary(ctx)
	})
}

func (s *Service) computeSummary(ctx context.Context) (*DashboardSummary, error) {
	supplies, err := s.loadSupplies(ctx, 0)
	if err != nil {
		return nil, err
	}
	breakdown, err := s.categoryBreakdown(ctx, supplies)
	if err != nil {
		return nil, err
	}

	out := &DashboardSummary{CategoryBreakdown: breakdown}
	out.Inventory.TotalSupplies = len(supplies)
	for _, v := range supplies {
		switch v.Status {
		case stock.OutOfStock:
			out.Inventory.OutOfStock++
		case stock.Low:
			out.Inventory.Low++
		case stock.Medium:
			out.Inventory.Medium++
		default:
			out.Inventory.Good++
		}
	}

	out.CriticalSupplies = lowStock(supplies)
	if len(out.CriticalSupplies) > criticalLimit {
		out.CriticalSupplies = out.CriticalSupplies[:criticalLimit]
	}

	now := s.now().UTC()
	err = s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("timestamp >= ?", now.Add(-recentWindow)).
		Count(&out.RecentTransactionsCount).Error
	if err != nil {
		return nil, apperr.Storage(err, "Transaction")
	}

	page, err := s.TransactionHistory(ctx, HistoryQuery{Limit: recentActivityLimit})
	if err != nil {
		return nil, err
	}
	out.RecentActivity = page.Transactions

	window, err := s.transactionsSince(ctx, now.Add(-topActorsWindow))
	if err != nil {
		return nil, err
	}
	out.TopUsers = topActors(window)
	return out, nil
}

func topActors(rows []models.Transaction) []TopActor {
	byName := map[string]*TopActor{}
	for _, t := range rows {
		if t.EmployeeName == "" {
			continue
		}
		a, ok := byName[t.EmployeeName]
		if !ok {
			a = &TopActor{EmployeeName: t.EmployeeName}
			byName[t.EmployeeName] = a
		}
		a.TransactionCount++
		a.TotalItems += abs(t.QuantityChange)
	}
	out := make([]TopActor, 0, len(byName))
	for _, a := range byName {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TransactionCount != out[j].TransactionCount {
			return out[i].TransactionCount > out[j].TransactionCount
		}
		return out[i].EmployeeName < out[j].EmployeeName
	})
	if len(out) > topActorsLimit {
		out = out[:topActorsLimit]
	}
	return out
}

// categoryBreakdown lists every category, including empty ones, by name.
func (s *Service) categoryBreakdown(ctx context.Context, supplies []SupplyView) ([]CategoryBreakdown, error) {
	var cats []models.Category
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&cats).Error; err != nil {
		return nil, apperr.Storage(err, "Category")
	}
	idx := make(map[uint]int, len(cats))
	out := make([]CategoryBreakdown, len(cats))
	for i, c := range cats {
		idx[c.ID] = i
		out[i] = CategoryBreakdown{CategoryID: c.ID, Category: c.Name}
	}
	for _, v := range supplies {
		i, ok := idx[v.CategoryID]
		if !ok {
			continue
		}
		out[i].ItemCount++
		out[i].TotalQuantity += v.CurrentQuantity
		if v.Status.AtOrBelowThreshold() {
			out[i].LowItems++
		}
	}
	return out, nil
}

type CategorySummary struct {
	CategoryID    uint    `json:"category_id"`
	Category      string  `json:"category"`
	TotalItems    int     `json:"total_items"`
	TotalQuantity int     `json:"total_quantity"`
	LowStockItems int     `json:"low_stock_items"`
	AvgStockRatio float64 `json:"avg_stock_ratio"`
}

func (s *Service) CategorySummary(ctx context.Context) ([]CategorySummary, error) {
	return cached(ctx, s, categorySummaryCacheKey, func() ([]CategorySummary, error) {
		supplies, err := s.loadSupplies(ctx, 0)
		if err != nil {
			return nil, err
		}
		breakdown, err := s.categoryBreakdown(ctx, supplies)
		if err != nil {
			return nil, err
		}
		ratios := map[uint]float64{}
		for _, v := range supplies {
			ratios[v.CategoryID] += stock.Ratio(v.CurrentQuantity, v.MinThreshold)
		}

		out := make([]CategorySummary, 0, len(breakdown))
		for _, b := range breakdown {
			row := CategorySummary{
				CategoryID:    b.CategoryID,
				Category:      b.Category,
				TotalItems:    b.ItemCount,
				TotalQuantity: b.TotalQuantity,
				LowStockItems: b.LowItems,
			}
			if b.ItemCount > 0 {
				row.AvgStockRatio = math.Round(ratios[b.CategoryID]/float64(b.ItemCount)*100) / 100
			}
			out = append(out, row)
		}
		return out, nil
	})
}
