package models

import "time"

const DefaultMinThreshold = 10

// Supply is a tracked item. CurrentQuantity only changes through the ledger.
type Supply struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"size:150;not null;uniqueIndex" json:"name"`
	CategoryID      uint      `gorm:"index;not null" json:"category_id"`
	Category        *Category `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	CurrentQuantity int       `gorm:"not null;default:0" json:"current_quantity"`
	MinThreshold    int       `gorm:"not null;default:10" json:"min_threshold"`
	Unit            string    `gorm:"size:50;not null;default:units" json:"unit"` // vials, pairs, kits ...
	Location        string    `gorm:"size:150" json:"location"`
	Description     string    `gorm:"size:500" json:"description"`
	CreatedAt       time.Time `json:"created_at"`
	LastUpdated     time.Time `gorm:"not null" json:"last_updated"`
}
