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

func (e *Engine) CreateCategory(ctx context.Context, name string, by Actor) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("Category name is required")
	}

	cat := models.Category{Name: name, CreatedAt: e.timestamp()}
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Category{}).Where("LOWER(name) = LOWER(?)", name).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperr.Duplicate("Category name already exists")
		}
		if err := tx.Create(&cat).Error; err != nil {
			return err
		}
		return audit.WriteLog(tx, audit.LogOptions{
			UserID:      by.UserID,
			UserName:    actorName(by),
			EntityType:  audit.EntityCategory,
			EntityID:    cat.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Category created: %s", cat.Name),
			After:       cat,
		})
	})
	if err != nil {
		return nil, apperr.Storage(err, "Category")
	}

	e.invalidate(ctx)
	return &cat, nil
}

// DeleteCategory refuses while any supply still references the category.
func (e *Engine) DeleteCategory(ctx context.Context, id uint, by Actor) error {
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cat models.Category
		if err := tx.First(&cat, id).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.Supply{}).Where("category_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperr.Validation("Category still has %d supplies, delete or move them first", count)
		}

		if err := tx.Delete(&cat).Error; err != nil {
			return err
		}
		return audit.WriteLog(tx, audit.LogOptions{
			UserID:      by.UserID,
			UserName:    actorName(by),
			EntityType:  audit.EntityCategory,
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Category deleted: %s", cat.Name),
			Before:      cat,
		})
	})
	if err != nil {
		return apperr.Storage(err, "Category")
	}

	e.invalidate(ctx)
	return nil
}
