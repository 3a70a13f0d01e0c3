// Package ledger is the only write path for supply quantities. Every quantity
// change is committed together with exactly one transaction row.
package ledger

import (
	"context"
	"log"
	"strings"
	"time"

	"ems-inventory/internal/apperr"
	"ems-inventory/internal/cache"
	"ems-inventory/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Actor identifies the manager behind a catalog change. Name doubles as the
// ledger actor for quantity changes made through catalog edits.
type Actor struct {
	UserID uint
	Name   string
}

type Engine struct {
	db    *gorm.DB
	cache cache.Cache
	now   func() time.Time
}

type Option func(*Engine)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(db *gorm.DB, c cache.Cache, opts ...Option) *Engine {
	if c == nil {
		c = cache.Nop{}
	}
	e := &Engine{db: db, cache: c, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

// MaxQuantity bounds stored quantities and single changes so sums stay
// well inside every driver's integer column.
const MaxQuantity = 1_000_000_000

type Delta struct {
	SupplyID uint
	Change   int
	Kind     models.TransactionKind
	Actor    string
	Notes    string
}

type Result struct {
	PreviousQuantity int
	NewQuantity      int
	TransactionID    uint
	Supply           models.Supply
}

// ApplyDelta adds d.Change to the supply's quantity and appends the matching
// transaction in one storage transaction. A decrement larger than the
// current quantity is rejected, never clamped.
func (e *Engine) ApplyDelta(ctx context.Context, d Delta) (*Result, error) {
	if err := validateDelta(&d); err != nil {
		return nil, err
	}

	var res *Result
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		res, err = applyDelta(tx, d, e.timestamp())
		return err
	})
	if err != nil {
		return nil, apperr.Storage(err, "Supply")
	}

	e.invalidate(ctx)
	return res, nil
}

func validateDelta(d *Delta) error {
	d.Actor = strings.TrimSpace(d.Actor)
	d.Notes = strings.TrimSpace(d.Notes)

	if d.SupplyID == 0 {
		return apperr.Validation("supply_id is required")
	}
	if d.Change == 0 {
		return apperr.Validation("quantity_change must not be zero")
	}
	if d.Change > MaxQuantity || d.Change < -MaxQuantity {
		return apperr.Validation("quantity_change must be between -%d and %d", MaxQuantity, MaxQuantity)
	}
	if d.Actor == "" {
		return apperr.Validation("employee_name is required")
	}
	if !d.Kind.Valid() {
		return apperr.Validation("kind must be one of use, restock, adjustment")
	}
	if d.Kind == models.KindUse && d.Change > 0 {
		return apperr.Validation("a use transaction must have a negative quantity_change")
	}
	if d.Kind == models.KindRestock && d.Change < 0 {
		return apperr.Validation("a restock transaction must have a positive quantity_change")
	}
	return nil
}

// applyDelta runs inside tx. The guarded UPDATE is the serialization point:
// the row lock it takes makes concurrent decrements queue up and re-check
// the guard against the committed quantity.
func applyDelta(tx *gorm.DB, d Delta, now time.Time) (*Result, error) {
	upd := tx.Model(&models.Supply{}).
		Where("id = ? AND current_quantity + ? >= 0", d.SupplyID, d.Change).
		Updates(map[string]any{
			"current_quantity": gorm.Expr("current_quantity + ?", d.Change),
			"last_updated":     now,
		})
	if upd.Error != nil {
		return nil, upd.Error
	}

	if upd.RowsAffected == 0 {
		var s models.Supply
		if err := tx.Select("id", "current_quantity", "unit").First(&s, d.SupplyID).Error; err != nil {
			return nil, apperr.Storage(err, "Supply")
		}
		return nil, apperr.InsufficientStock(s.CurrentQuantity, -d.Change, s.Unit)
	}

	entry := models.Transaction{
		SupplyID:       d.SupplyID,
		QuantityChange: d.Change,
		Kind:           d.Kind,
		EmployeeName:   d.Actor,
		Notes:          d.Notes,
		Timestamp:      now,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}

	var s models.Supply
	if err := tx.Preload("Category").First(&s, d.SupplyID).Error; err != nil {
		return nil, err
	}

	return &Result{
		PreviousQuantity: s.CurrentQuantity - d.Change,
		NewQuantity:      s.CurrentQuantity,
		TransactionID:    entry.ID,
		Supply:           s,
	}, nil
}

// lockSupply loads a supply for update. SQLite has no row locks; its single
// connection already serializes writers.
func lockSupply(tx *gorm.DB, id uint) (*models.Supply, error) {
	q := tx
	if tx.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var s models.Supply
	if err := q.First(&s, id).Error; err != nil {
		return nil, apperr.Storage(err, "Supply")
	}
	return &s, nil
}

func (e *Engine) timestamp() time.Time {
	return e.now().UTC()
}

// invalidate drops cached aggregates after a commit. A failure only costs
// staleness up to the cache TTL.
func (e *Engine) invalidate(ctx context.Context) {
	if err := e.cache.Invalidate(ctx); err != nil {
		log.Printf("[WARN] cache invalidation failed: %v", err)
	}
}
