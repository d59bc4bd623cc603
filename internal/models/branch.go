package models

import "time"

// BankBranch maps a branch code onto its bank and location. Used by the geo
// resolver only; loaded from an external directory feed.
type BankBranch struct {
	ID         uint   `gorm:"primarykey"`
	BranchCode string `gorm:"uniqueIndex;not null"`
	BankName   string `gorm:"not null"`
	City       string
	State      string
	UpdatedAt  time.Time
}
