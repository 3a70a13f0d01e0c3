package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"ems-inventory/internal/apperr"
	"ems-inventory/internal/ledger"
	"ems-inventory/internal/models"
)

func TestTransactionHistory_Paging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.category(t, "Cardiac")
	pads := f.supply(t, cat.ID, "Defibrillator Pads", 20, 5)
	leads := f.supply(t, cat.ID, "ECG Electrodes", 50, 20)
	for i := 0; i < 3; i++ {
		f.clock.Advance(time.Minute)
		f.use(t, pads.ID, 1, "John Smith")
	}

	page, err := f.query.TransactionHistory(ctx, HistoryQuery{})
	if err != nil {
		t.Fatalf("TransactionHistory: %v", err)
	}
	// two seed restocks plus three uses
	if page.Total != 5 || len(page.Transactions) != 5 || page.Limit != DefaultHistoryLimit {
		t.Fatalf("got total=%d rows=%d limit=%d", page.Total, len(page.Transactions), page.Limit)
	}
	first := page.Transactions[0]
	if first.SupplyName != "Defibrillator Pads" || first.CategoryName != "Cardiac" || first.QuantityChange != -1 {
		t.Fatalf("newest row = %+v", first)
	}
	for i := 1; i < len(page.Transactions); i++ {
		if page.Transactions[i].Timestamp.After(page.Transactions[i-1].Timestamp) {
			t.Fatalf("rows not ordered newest first at %d", i)
		}
	}

	id := pads.ID
	page, err = f.query.TransactionHistory(ctx, HistoryQuery{SupplyID: &id, Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("TransactionHistory(supply): %v", err)
	}
	if page.Total != 4 || len(page.Transactions) != 2 {
		t.Fatalf("got total=%d rows=%d, want 4 and 2", page.Total, len(page.Transactions))
	}
	if last := page.Transactions[1]; last.Kind != models.KindRestock || last.Reason != "Initial stock" {
		t.Fatalf("oldest row = %+v, want seed restock", last)
	}

	page, err = f.query.TransactionHistory(ctx, HistoryQuery{Limit: 10_000})
	if err != nil || page.Limit != MaxHistoryLimit {
		t.Fatalf("limit not clamped: %+v, %v", page, err)
	}

	missing := leads.ID + 100
	if _, err := f.query.TransactionHistory(ctx, HistoryQuery{SupplyID: &missing}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("unknown supply: got %v", err)
	}
}

func TestUsageTrends_WindowAndGrouping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	airway := f.category(t, "Airway Management")
	trauma := f.category(t, "Trauma Supplies")
	mask := f.supply(t, airway.ID, "Bag Valve Mask", 50, 10)
	gauze := f.supply(t, trauma.ID, "Gauze Roll", 50, 10)

	f.use(t, mask.ID, 5, "John Smith") // falls outside a 30 day window
	f.clock.Advance(40 * 24 * time.Hour)
	f.use(t, mask.ID, 3, "John Smith")
	f.use(t, gauze.ID, 2, "Jane Doe")
	f.use(t, gauze.ID, 4, "Jane Doe")
	f.clock.Advance(24 * time.Hour)
	f.use(t, gauze.ID, 1, "Jane Doe")
	if _, err := f.engine.ApplyDelta(ctx, ledger.Delta{SupplyID: gauze.ID, Change: 10, Kind: models.KindRestock, Actor: manager.Name}); err != nil {
		t.Fatalf("restock: %v", err)
	}

	trends, err := f.query.UsageTrends(ctx, 30)
	if err != nil {
		t.Fatalf("UsageTrends: %v", err)
	}
	want := []UsageTrend{
		{Date: "2026-04-11", Category: "Trauma Supplies", TransactionCount: 1, ItemsUsed: 1},
		{Date: "2026-04-10", Category: "Airway Management", TransactionCount: 1, ItemsUsed: 3},
		{Date: "2026-04-10", Category: "Trauma Supplies", TransactionCount: 2, ItemsUsed: 6},
	}
	if len(trends) != len(want) {
		t.Fatalf("got %+v", trends)
	}
	for i := range want {
		if trends[i] != want[i] {
			t.Errorf("trends[%d] = %+v, want %+v", i, trends[i], want[i])
		}
	}

	if _, err := f.query.UsageTrends(ctx, 400); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("days=400: got %v, want validation error", err)
	}
	if _, err := f.query.UsageTrends(ctx, -1); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("days=-1: got %v, want validation error", err)
	}
}

func TestTransactionStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.category(t, "Medications")
	asp := f.supply(t, cat.ID, "Aspirin 81mg", 100, 20)
	nal := f.supply(t, cat.ID, "Naloxone 4mg", 10, 4)
	f.use(t, asp.ID, 2, "John Smith")
	f.use(t, asp.ID, 2, "Jane Doe")
	f.use(t, nal.ID, 6, "Jane Doe")

	stats, err := f.query.TransactionStats(ctx, 0)
	if err != nil {
		t.Fatalf("TransactionStats: %v", err)
	}
	if stats.PeriodDays != 30 {
		t.Errorf("period = %d, want default 30", stats.PeriodDays)
	}
	want := StatsSummary{TotalTransactions: 5, ItemsTaken: 3, ItemsRestocked: 2, UniqueSupplies: 2, UniqueEmployees: 3}
	if stats.Summary != want {
		t.Errorf("summary = %+v, want %+v", stats.Summary, want)
	}
	if len(stats.MostUsedSupplies) != 2 || stats.MostUsedSupplies[0].Name != "Naloxone 4mg" || stats.MostUsedSupplies[0].TotalQuantity != 6 {
		t.Errorf("most used = %+v", stats.MostUsedSupplies)
	}
	if len(stats.DailyActivity) != 1 || stats.DailyActivity[0].ItemsMoved != 120 {
		t.Errorf("daily activity = %+v", stats.DailyActivity)
	}
}

func TestDashboardSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	airway := f.category(t, "Airway Management")
	f.category(t, "Burn Care")
	f.supply(t, airway.ID, "Oral Airway", 0, 10)      // out of stock
	f.supply(t, airway.ID, "Nasal Cannula", 8, 10)    // low
	f.supply(t, airway.ID, "Suction Catheter", 14, 10) // medium
	mask := f.supply(t, airway.ID, "Bag Valve Mask", 40, 10)
	f.use(t, mask.ID, 1, "John Smith")
	f.use(t, mask.ID, 1, "John Smith")
	f.use(t, mask.ID, 1, "Jane Doe")

	sum, err := f.query.DashboardSummary(ctx)
	if err != nil {
		t.Fatalf("DashboardSummary: %v", err)
	}
	wantInv := InventoryCounts{TotalSupplies: 4, OutOfStock: 1, Low: 1, Medium: 1, Good: 1}
	if sum.Inventory != wantInv {
		t.Errorf("inventory = %+v, want %+v", sum.Inventory, wantInv)
	}
	// three seed restocks plus three uses
	if sum.RecentTransactionsCount != 6 {
		t.Errorf("recent count = %d, want 6", sum.RecentTransactionsCount)
	}
	if len(sum.CategoryBreakdown) != 2 || sum.CategoryBreakdown[0].ItemCount != 4 || sum.CategoryBreakdown[0].LowItems != 2 || sum.CategoryBreakdown[1].ItemCount != 0 {
		t.Errorf("breakdown = %+v", sum.CategoryBreakdown)
	}
	if len(sum.CriticalSupplies) != 3 || sum.CriticalSupplies[0].Name != "Oral Airway" {
		t.Errorf("critical = %+v", sum.CriticalSupplies)
	}
	if len(sum.RecentActivity) != 6 {
		t.Errorf("recent activity = %d rows, want 6", len(sum.RecentActivity))
	}
	if len(sum.TopUsers) < 2 || sum.TopUsers[0].EmployeeName != manager.Name || sum.TopUsers[1].EmployeeName != "John Smith" {
		t.Errorf("top users = %+v", sum.TopUsers)
	}
}

func TestDashboardSummary_CacheInvalidatedByWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.category(t, "Trauma Supplies")
	tq := f.supply(t, cat.ID, "Tourniquet", 30, 10)

	if _, err := f.query.DashboardSummary(ctx); err != nil {
		t.Fatalf("DashboardSummary: %v", err)
	}
	sum, err := f.query.DashboardSummary(ctx)
	if err != nil {
		t.Fatalf("DashboardSummary: %v", err)
	}
	if f.cache.hits != 1 || sum.Inventory.Good != 1 {
		t.Fatalf("second call: hits=%d inventory=%+v", f.cache.hits, sum.Inventory)
	}

	f.use(t, tq.ID, 25, "John Smith")
	sum, err = f.query.DashboardSummary(ctx)
	if err != nil {
		t.Fatalf("DashboardSummary: %v", err)
	}
	if f.cache.hits != 1 || sum.Inventory.Low != 1 || sum.Inventory.Good != 0 {
		t.Fatalf("after write: hits=%d inventory=%+v", f.cache.hits, sum.Inventory)
	}
}

func TestDashboardSummary_WriteDuringComputeNotCached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.category(t, "Airway")
	bvm := f.supply(t, cat.ID, "BVM Adult", 25, 10)

	// The write commits after the summary was computed but before it is stored.
	f.cache.beforeSet = func() { f.use(t, bvm.ID, 15, "John Smith") }
	sum, err := f.query.DashboardSummary(ctx)
	if err != nil {
		t.Fatalf("DashboardSummary: %v", err)
	}
	if sum.Inventory.Good != 1 {
		t.Fatalf("first summary = %+v, want the pre-write view", sum.Inventory)
	}

	sum, err = f.query.DashboardSummary(ctx)
	if err != nil {
		t.Fatalf("DashboardSummary: %v", err)
	}
	if sum.Inventory.Low != 1 || sum.Inventory.Good != 0 {
		t.Fatalf("summary after write = %+v, want quantity 10 reported low", sum.Inventory)
	}
}

func TestCategorySummary(t *testing.T) {
	f := newFixture(t)
	cat := f.category(t, "Cardiac")
	f.supply(t, cat.ID, "Defibrillator Pads", 5, 10) // 0.5
	f.supply(t, cat.ID, "ECG Electrodes", 20, 10)    // 2.0

	rows, err := f.query.CategorySummary(context.Background())
	if err != nil {
		t.Fatalf("CategorySummary: %v", err)
	}
	want := CategorySummary{CategoryID: cat.ID, Category: "Cardiac", TotalItems: 2, TotalQuantity: 25, LowStockItems: 1, AvgStockRatio: 1.25}
	if len(rows) != 1 || rows[0] != want {
		t.Fatalf("got %+v, want %+v", rows, want)
	}
}
