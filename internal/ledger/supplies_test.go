package ledger

import (
	"context"
	"errors"
	"testing"

	"ems-inventory/internal/apperr"
	"ems-inventory/internal/models"
)

func strPtr(v string) *string { return &v }

func TestUpdateSupply_MetadataOnly(t *testing.T) {
	e, db := newEngine(t)
	cat := mustCategory(t, e, "Diagnostic Equipment")
	s := mustSupply(t, e, cat.ID, "Stethoscopes", 5, 2)
	before := transactionCount(t, db, s.ID)

	updated, adj, err := e.UpdateSupply(context.Background(), s.ID, SupplyUpdate{
		MinThreshold: intPtr(4),
		Location:     strPtr(" Equipment Bay "),
	}, manager)
	if err != nil {
		t.Fatalf("UpdateSupply: %v", err)
	}
	if adj != nil {
		t.Errorf("metadata edit must not touch the ledger, got %+v", adj)
	}
	if updated.MinThreshold != 4 || updated.Location != "Equipment Bay" || updated.CurrentQuantity != 5 {
		t.Errorf("unexpected supply %+v", updated)
	}
	if !updated.LastUpdated.After(s.LastUpdated) {
		t.Errorf("last_updated did not advance")
	}
	if after := transactionCount(t, db, s.ID); after != before {
		t.Errorf("transaction count changed from %d to %d", before, after)
	}
}

func TestUpdateSupply_QuantityBecomesAdjustment(t *testing.T) {
	e, db := newEngine(t)
	cat := mustCategory(t, e, "Bandages & Dressings")
	s := mustSupply(t, e, cat.ID, "Gauze Pads 4x4", 200, 50)

	updated, adj, err := e.UpdateSupply(context.Background(), s.ID, SupplyUpdate{CurrentQuantity: intPtr(180)}, manager)
	if err != nil {
		t.Fatalf("UpdateSupply: %v", err)
	}
	if adj == nil || adj.PreviousQuantity != 200 || adj.NewQuantity != 180 {
		t.Fatalf("unexpected adjustment %+v", adj)
	}
	if updated.CurrentQuantity != 180 {
		t.Errorf("CurrentQuantity = %d, want 180", updated.CurrentQuantity)
	}

	var tx models.Transaction
	db.First(&tx, adj.TransactionID)
	if tx.Kind != models.KindAdjustment || tx.QuantityChange != -20 || tx.EmployeeName != manager.Name {
		t.Errorf("unexpected adjustment row %+v", tx)
	}
	assertLedgerBalanced(t, db, s.ID)

	// Same quantity again is a no-op for the ledger.
	_, adj, err = e.UpdateSupply(context.Background(), s.ID, SupplyUpdate{CurrentQuantity: intPtr(180)}, manager)
	if err != nil || adj != nil {
		t.Errorf("expected no adjustment, got %+v, %v", adj, err)
	}
}

func TestUpdateSupply_Errors(t *testing.T) {
	e, _ := newEngine(t)
	cat := mustCategory(t, e, "Trauma Supplies")
	a := mustSupply(t, e, cat.ID, "Splints (SAM Splints)", 12, 6)
	mustSupply(t, e, cat.ID, "Cervical Collars (Adjustable)", 8, 4)
	ctx := context.Background()

	if _, _, err := e.UpdateSupply(ctx, 999, SupplyUpdate{Name: strPtr("x")}, manager); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := e.UpdateSupply(ctx, a.ID, SupplyUpdate{Name: strPtr("cervical collars (adjustable)")}, manager); !errors.Is(err, apperr.ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}
	if _, _, err := e.UpdateSupply(ctx, a.ID, SupplyUpdate{CurrentQuantity: intPtr(-1)}, manager); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if _, _, err := e.UpdateSupply(ctx, a.ID, SupplyUpdate{CategoryID: new(uint)}, manager); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected ErrValidation for zero category, got %v", err)
	}
	// Renaming to the same name with different case is allowed.
	if _, _, err := e.UpdateSupply(ctx, a.ID, SupplyUpdate{Name: strPtr("SPLINTS (SAM Splints)")}, manager); err != nil {
		t.Errorf("case-only rename: %v", err)
	}
}

func TestDeleteSupply_CascadesTransactions(t *testing.T) {
	e, db := newEngine(t)
	cat := mustCategory(t, e, "Patient Care")
	s := mustSupply(t, e, cat.ID, "Vomit Bags", 60, 20)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := e.ApplyDelta(ctx, Delta{SupplyID: s.ID, Change: -1, Kind: models.KindUse, Actor: "John"}); err != nil {
			t.Fatalf("ApplyDelta: %v", err)
		}
	}

	if err := e.DeleteSupply(ctx, s.ID, manager); err != nil {
		t.Fatalf("DeleteSupply: %v", err)
	}
	if n := transactionCount(t, db, s.ID); n != 0 {
		t.Errorf("expected transactions to be removed, %d left", n)
	}
	var n int64
	db.Model(&models.Supply{}).Where("id = ?", s.ID).Count(&n)
	if n != 0 {
		t.Error("supply still present")
	}

	var logs []models.AuditLog
	db.Where("entity_type = ? AND entity_id = ? AND action = ?", "supply", s.ID, models.AuditActionDelete).Find(&logs)
	if len(logs) != 1 || logs[0].UserID != manager.UserID {
		t.Errorf("expected one delete audit row, got %+v", logs)
	}

	if err := e.DeleteSupply(ctx, s.ID, manager); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestCategories(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	cat := mustCategory(t, e, "Breathing & Oxygen")
	if _, err := e.CreateCategory(ctx, "breathing & oxygen", manager); !errors.Is(err, apperr.ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}
	if _, err := e.CreateCategory(ctx, " ", manager); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}

	s := mustSupply(t, e, cat.ID, "Nasal Cannulas", 45, 20)
	if err := e.DeleteCategory(ctx, cat.ID, manager); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected ErrValidation while supplies exist, got %v", err)
	}
	if err := e.DeleteSupply(ctx, s.ID, manager); err != nil {
		t.Fatalf("DeleteSupply: %v", err)
	}
	if err := e.DeleteCategory(ctx, cat.ID, manager); err != nil {
		t.Errorf("DeleteCategory: %v", err)
	}
	if err := e.DeleteCategory(ctx, cat.ID, manager); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
