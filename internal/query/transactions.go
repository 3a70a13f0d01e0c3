package query

import (
	"context"
	"sort"
	"time"

	"ems-inventory/internal/apperr"
	"ems-inventory/internal/models"
)

const (
	DefaultHistoryLimit = 100
	MaxHistoryLimit     = 500
	MaxWindowDays       = 365
)

type TransactionView struct {
	ID             uint                   `json:"id"`
	SupplyID       uint                   `json:"supply_id"`
	SupplyName     string                 `json:"supply_name"`
	Unit           string                 `json:"unit"`
	CategoryName   string                 `json:"category_name"`
	QuantityChange int                    `json:"quantity_change"`
	Kind           models.TransactionKind `json:"kind"`
	Reason         string                 `json:"reason"`
	EmployeeName   string                 `json:"employee_name"`
	Notes          string                 `json:"notes"`
	Timestamp      time.Time              `json:"timestamp"`
}

func newTransactionView(t models.Transaction) TransactionView {
	v := TransactionView{
		ID:             t.ID,
		SupplyID:       t.SupplyID,
		QuantityChange: t.QuantityChange,
		Kind:           t.Kind,
		Reason:         t.Notes,
		EmployeeName:   t.EmployeeName,
		Notes:          t.Notes,
		Timestamp:      t.Timestamp,
	}
	if v.Reason == "" {
		v.Reason = string(t.Kind)
	}
	if t.Supply != nil {
		v.SupplyName = t.Supply.Name
		v.Unit = t.Supply.Unit
		if t.Supply.Category != nil {
			v.CategoryName = t.Supply.Category.Name
		}
	}
	return v
}

type HistoryQuery struct {
	SupplyID *uint
	Limit    int
	Offset   int
}

type HistoryPage struct {
	Transactions []TransactionView `json:"transactions"`
	Total        int64             `json:"total"`
	Limit        int               `json:"limit"`
	Offset       int               `json:"offset"`
}

func (h HistoryQuery) normalized() HistoryQuery {
	if h.Limit <= 0 {
		h.Limit = DefaultHistoryLimit
	}
	h.Limit = min(h.Limit, MaxHistoryLimit)
	h.Offset = max(h.Offset, 0)
	return h
}

// TransactionHistory pages the ledger newest first.
func (s *Service) TransactionHistory(ctx context.Context, h HistoryQuery) (*HistoryPage, error) {
	h = h.normalized()
	q := s.db.WithContext(ctx).Model(&models.Transaction{})
	if h.SupplyID != nil {
		var n int64
		if err := s.db.WithContext(ctx).Model(&models.Supply{}).Where("id = ?", *h.SupplyID).Count(&n).Error; err != nil {
			return nil, apperr.Storage(err, "Supply")
		}
		if n == 0 {
			return nil, apperr.NotFound("Supply not found")
		}
		q = q.Where("supply_id = ?", *h.SupplyID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, apperr.Storage(err, "Transaction")
	}

	var rows []models.Transaction
	err := q.Preload("Supply.Category").
		Order("timestamp DESC").Order("id DESC").
		Limit(h.Limit).Offset(h.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, apperr.Storage(err, "Transaction")
	}

	page := &HistoryPage{Transactions: make([]TransactionView, 0, len(rows)), Total: total, Limit: h.Limit, Offset: h.Offset}
	for _, r := range rows {
		page.Transactions = append(page.Transactions, newTransactionView(r))
	}
	return page, nil
}

type StatsSummary struct {
	TotalTransactions int `json:"total_transactions"`
	ItemsTaken        int `json:"items_taken"`
	ItemsRestocked    int `json:"items_restocked"`
	UniqueSupplies    int `json:"unique_supplies"`
	UniqueEmployees   int `json:"unique_employees"`
}

type SupplyUsage struct {
	SupplyID      uint   `json:"supply_id"`
	Name          string `json:"name"`
	Unit          string `json:"unit"`
	UsageCount    int    `json:"usage_count"`
	TotalQuantity int    `json:"total_quantity"`
}

type DailyActivity struct {
	Date             string `json:"date"`
	TransactionCount int    `json:"transaction_count"`
	ItemsMoved       int    `json:"items_moved"`
}

type TransactionStats struct {
	PeriodDays       int             `json:"period_days"`
	Summary          StatsSummary    `json:"summary"`
	MostUsedSupplies []SupplyUsage   `json:"most_used_supplies"`
	DailyActivity    []DailyActivity `json:"daily_activity"`
}

const mostUsedLimit = 10

// TransactionStats summarizes the ledger over the trailing window.
func (s *Service) TransactionStats(ctx context.Context, days int) (*TransactionStats, error) {
	days, err := windowDays(days, 30)
	if err != nil {
		return nil, err
	}
	rows, err := s.transactionsSince(ctx, s.windowStart(days))
	if err != nil {
		return nil, err
	}

	out := &TransactionStats{PeriodDays: days}
	supplies := map[uint]struct{}{}
	employees := map[string]struct{}{}
	usage := map[uint]*SupplyUsage{}
	daily := map[string]*DailyActivity{}

	for _, t := range rows {
		out.Summary.TotalTransactions++
		supplies[t.SupplyID] = struct{}{}
		if t.EmployeeName != "" {
			employees[t.EmployeeName] = struct{}{}
		}

		date := t.Timestamp.UTC().Format(time.DateOnly)
		d, ok := daily[date]
		if !ok {
			d = &DailyActivity{Date: date}
			daily[date] = d
		}
		d.TransactionCount++
		d.ItemsMoved += abs(t.QuantityChange)

		if t.QuantityChange > 0 {
			out.Summary.ItemsRestocked++
			continue
		}
		out.Summary.ItemsTaken++
		u, ok := usage[t.SupplyID]
		if !ok {
			u = &SupplyUsage{SupplyID: t.SupplyID}
			if t.Supply != nil {
				u.Name, u.Unit = t.Supply.Name, t.Supply.Unit
			}
			usage[t.SupplyID] = u
		}
		u.UsageCount++
		u.TotalQuantity += -t.QuantityChange
	}
	out.Summary.UniqueSupplies = len(supplies)
	out.Summary.UniqueEmployees = len(employees)

	out.MostUsedSupplies = make([]SupplyUsage, 0, len(usage))
	for _, u := range usage {
		out.MostUsedSupplies = append(out.MostUsedSupplies, *u)
	}
	sort.Slice(out.MostUsedSupplies, func(i, j int) bool {
		a, b := out.MostUsedSupplies[i], out.MostUsedSupplies[j]
		if a.TotalQuantity != b.TotalQuantity {
			return a.TotalQuantity > b.TotalQuantity
		}
		return a.Name < b.Name
	})
	if len(out.MostUsedSupplies) > mostUsedLimit {
		out.MostUsedSupplies = out.MostUsedSupplies[:mostUsedLimit]
	}

	out.DailyActivity = make([]DailyActivity, 0, len(daily))
	for _, d := range daily {
		out.DailyActivity = append(out.DailyActivity, *d)
	}
	sort.Slice(out.DailyActivity, func(i, j int) bool { return out.DailyActivity[i].Date > out.DailyActivity[j].Date })
	return out, nil
}

type UsageTrend struct {
	Date             string `json:"date"`
	Category         string `json:"category"`
	TransactionCount int    `json:"transaction_count"`
	ItemsUsed        int    `json:"items_used"`
}

// UsageTrends groups consumption (negative deltas) by UTC day and category.
func (s *Service) UsageTrends(ctx context.Context, days int) ([]UsageTrend, error) {
	days, err := windowDays(days, 30)
	if err != nil {
		return nil, err
	}
	rows, err := s.transactionsSince(ctx, s.windowStart(days))
	if err != nil {
		return nil, err
	}

	type key struct{ date, category string }
	groups := map[key]*UsageTrend{}
	for _, t := range rows {
		if t.QuantityChange >= 0 {
			continue
		}
		k := key{date: t.Timestamp.UTC().Format(time.DateOnly)}
		if t.Supply != nil && t.Supply.Category != nil {
			k.category = t.Supply.Category.Name
		}
		g, ok := groups[k]
		if !ok {
			g = &UsageTrend{Date: k.date, Category: k.category}
			groups[k] = g
		}
		g.TransactionCount++
		g.ItemsUsed += -t.QuantityChange
	}

	out := make([]UsageTrend, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

func (s *Service) windowStart(days int) time.Time {
	return s.now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
}

func (s *Service) transactionsSince(ctx context.Context, since time.Time) ([]models.Transaction, error) {
	var rows []models.Transaction
	err := s.db.WithContext(ctx).Preload("Supply.Category").
		Where("timestamp >= ?", since.UTC()).
		Order("timestamp DESC").Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, apperr.Storage(err, "Transaction")
	}
	return rows, nil
}

func windowDays(days, def int) (int, error) {
	if days == 0 {
		return def, nil
	}
	if days < 1 || days > MaxWindowDays {
		return 0, apperr.Validation("days must be between 1 and %d", MaxWindowDays)
	}
	return days, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
