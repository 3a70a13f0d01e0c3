package models

import "time"

type TransactionKind string

const (
	KindUse        TransactionKind = "use"
	KindRestock    TransactionKind = "restock"
	KindAdjustment TransactionKind = "adjustment"
)

func (k TransactionKind) Valid() bool {
	switch k {
	case KindUse, KindRestock, KindAdjustment:
		return true
	}
	return false
}

// Transaction is an immutable ledger row. Rows only disappear when their
// supply is deleted.
type Transaction struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	SupplyID       uint            `gorm:"index;not null" json:"supply_id"`
	Supply         *Supply         `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	QuantityChange int             `gorm:"not null" json:"quantity_change"` // negative = consumption
	Kind           TransactionKind `gorm:"size:20;not null" json:"kind"`
	EmployeeName   string          `gorm:"size:150;not null" json:"employee_name"`
	Notes          string          `gorm:"size:500" json:"notes"`
	Timestamp      time.Time       `gorm:"index;not null" json:"timestamp"`
}
