package ledger

import (
	"context"
	"fmt"
	"strings"

	"ems-inventory/internal/apperr"
	"ems-inventory/internal/audit"
	"ems-inventory/internal/models"

	"gorm.io/gorm"
)

const defaultUnit = "units"

type SupplyInput struct {
	Name            string
	CategoryID      uint
	CurrentQuantity *int // seed quantity, defaults to 0
	MinThreshold    *int // defaults to models.DefaultMinThreshold
	Unit            string
	Location        string
	Description     string
}

// SupplyUpdate holds optional edits. A non-nil CurrentQuantity that differs
// from the stored quantity is booked as an adjustment transaction.
type SupplyUpdate struct {
	Name            *string
	CategoryID      *uint
	MinThreshold    *int
	Unit            *string
	Location        *string
	Description     *string
	CurrentQuantity *int
}

// CreateSupply inserts a supply and books its seed quantity as the first
// restock transaction, so the ledger sums to the quantity from the start.
func (e *Engine) CreateSupply(ctx context.Context, in SupplyInput, by Actor) (*models.Supply, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Unit = strings.TrimSpace(in.Unit)
	if in.Name == "" {
		return nil, apperr.Validation("name is required")
	}
	if in.CategoryID == 0 {
		return nil, apperr.Validation("category_id is required")
	}
	seed := 0
	if in.CurrentQuantity != nil {
		seed = *in.CurrentQuantity
	}
	threshold := models.DefaultMinThreshold
	if in.MinThreshold != nil {
		threshold = *in.MinThreshold
	}
	if seed < 0 {
		return nil, apperr.Validation("current_quantity cannot be negative")
	}
	if seed > MaxQuantity {
		return nil, apperr.Validation("current_quantity cannot exceed %d", MaxQuantity)
	}
	if threshold < 0 || threshold > MaxQuantity {
		return nil, apperr.Validation("min_threshold must be between 0 and %d", MaxQuantity)
	}
	if in.Unit == "" {
		in.Unit = defaultUnit
	}

	now := e.timestamp()
	supply := models.Supply{
		Name:         in.Name,
		CategoryID:   in.CategoryID,
		MinThreshold: threshold,
		Unit:         in.Unit,
		Location:     strings.TrimSpace(in.Location),
		Description:  strings.TrimSpace(in.Description),
		CreatedAt:    now,
		LastUpdated:  now,
	}

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireCategory(tx, in.CategoryID); err != nil {
			return err
		}
		if err := requireUniqueSupplyName(tx, in.Name, 0); err != nil {
			return err
		}
		if err := tx.Create(&supply).Error; err != nil {
			return err
		}

		if seed > 0 {
			res, err := applyDelta(tx, Delta{
				SupplyID: supply.ID,
				Change:   seed,
				Kind:     models.KindRestock,
				Actor:    actorName(by),
				Notes:    "Initial stock",
			}, now)
			if err != nil {
				return err
			}
			supply = res.Supply
		} else if err := tx.Preload("Category").First(&supply, supply.ID).Error; err != nil {
			return err
		}

		return audit.WriteLog(tx, audit.LogOptions{
			UserID:      by.UserID,
			UserName:    actorName(by),
			EntityType:  audit.EntitySupply,
			EntityID:    supply.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Supply created: %s (%d %s)", supply.Name, supply.CurrentQuantity, supply.Unit),
			After:       supply,
		})
	})
	if err != nil {
		return nil, apperr.Storage(err, "Supply")
	}

	e.invalidate(ctx)
	return &supply, nil
}

// UpdateSupply edits metadata and refreshes last_updated. The ledger is only
// touched when upd.CurrentQuantity asks for a different quantity; the
// returned Result is nil otherwise.
func (e *Engine) UpdateSupply(ctx context.Context, id uint, upd SupplyUpdate, by Actor) (*models.Supply, *Result, error) {
	var (
		updated models.Supply
		adj     *Result
	)

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := lockSupply(tx, id)
		if err != nil {
			return err
		}
		before := *current
		now := e.timestamp()

		fields := map[string]any{"last_updated": now}
		if upd.Name != nil {
			name := strings.TrimSpace(*upd.Name)
			if name == "" {
				return apperr.Validation("name cannot be empty")
			}
			if !strings.EqualFold(name, current.Name) {
				if err := requireUniqueSupplyName(tx, name, id); err != nil {
					return err
				}
			}
			fields["name"] = name
		}
		if upd.CategoryID != nil {
			if *upd.CategoryID == 0 {
				return apperr.Validation("category_id is required")
			}
			if err := requireCategory(tx, *upd.CategoryID); err != nil {
				return err
			}
			fields["category_id"] = *upd.CategoryID
		}
		if upd.MinThreshold != nil {
			if *upd.MinThreshold < 0 || *upd.MinThreshold > MaxQuantity {
				return apperr.Validation("min_threshold must be between 0 and %d", MaxQuantity)
			}
			fields["min_threshold"] = *upd.MinThreshold
		}
		if upd.Unit != nil {
			unit := strings.TrimSpace(*upd.Unit)
			if unit == "" {
				unit = defaultUnit
			}
			fields["unit"] = unit
		}
		if upd.Location != nil {
			fields["location"] = strings.TrimSpace(*upd.Location)
		}
		if upd.Description != nil {
			fields["description"] = strings.TrimSpace(*upd.Description)
		}
		if upd.CurrentQuantity != nil && *upd.CurrentQuantity < 0 {
			return apperr.Validation("current_quantity cannot be negative")
		}
		if upd.CurrentQuantity != nil && *upd.CurrentQuantity > MaxQuantity {
			return apperr.Validation("current_quantity cannot exceed %d", MaxQuantity)
		}

		if err := tx.Model(&models.Supply{}).Where("id = ?", id).Updates(fields).Error; err != nil {
			return err
		}

		if upd.CurrentQuantity != nil && *upd.CurrentQuantity != current.CurrentQuantity {
			adj, err = applyDelta(tx, Delta{
				SupplyID: id,
				Change:   *upd.CurrentQuantity - current.CurrentQuantity,
				Kind:     models.KindAdjustment,
				Actor:    actorName(by),
				Notes:    "Manual quantity correction",
			}, now)
			if err != nil {
				return err
			}
		}

		if err := tx.Preload("Category").First(&updated, id).Error; err != nil {
			return err
		}

		return audit.WriteLog(tx, audit.LogOptions{
			UserID:      by.UserID,
			UserName:    actorName(by),
			EntityType:  audit.EntitySupply,
			EntityID:    id,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Supply updated: %s", updated.Name),
			Before:      before,
			After:       updated,
		})
	})
	if err != nil {
		return nil, nil, apperr.Storage(err, "Supply")
	}

	e.invalidate(ctx)
	return &updated, adj, nil
}

// DeleteSupply removes the supply and all of its transactions. There is no
// soft delete.
func (e *Engine) DeleteSupply(ctx context.Context, id uint, by Actor) error {
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		supply, err := lockSupply(tx, id)
		if err != nil {
			return err
		}

		removed := tx.Where("supply_id = ?", id).Delete(&models.Transaction{})
		if removed.Error != nil {
			return removed.Error
		}
		if err := tx.Delete(&models.Supply{}, id).Error; err != nil {
			return err
		}

		return audit.WriteLog(tx, audit.LogOptions{
			UserID:      by.UserID,
			UserName:    actorName(by),
			EntityType:  audit.EntitySupply,
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Supply deleted: %s (%d transactions removed)", supply.Name, removed.RowsAffected),
			Before:      supply,
		})
	})
	if err != nil {
		return apperr.Storage(err, "Supply")
	}

	e.invalidate(ctx)
	return nil
}

func requireCategory(tx *gorm.DB, id uint) error {
	var n int64
	if err := tx.Model(&models.Category{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return apperr.Validation("category %d does not exist", id)
	}
	return nil
}

func requireUniqueSupplyName(tx *gorm.DB, name string, exceptID uint) error {
	q := tx.Model(&models.Supply{}).Where("LOWER(name) = LOWER(?)", name)
	if exceptID > 0 {
		q = q.Where("id <> ?", exceptID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return apperr.Duplicate("Supply %q already exists", name)
	}
	return nil
}

func actorName(by Actor) string {
	if n := strings.TrimSpace(by.Name); n != "" {
		return n
	}
	return "system"
}
