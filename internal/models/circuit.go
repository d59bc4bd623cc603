package models

import "time"

// Circuit states
const (
	CircuitClosed   = "CLOSED"
	CircuitOpen     = "OPEN"
	CircuitHalfOpen = "HALF_OPEN"
)

// BankCircuit is the per-bank circuit breaker row. It is written by the
// external circuit evaluation job; this service only reads it. OPEN banks are
// never selectable, HALF_OPEN banks carry limited probe traffic.
type BankCircuit struct {
	BankName        string  `gorm:"primarykey"`
	State           string  `gorm:"not null;default:'CLOSED'"`
	FailureRatio    float64 `gorm:"default:0"`
	WindowMinutes   int     `gorm:"default:15"`
	CooldownMinutes int     `gorm:"default:10"`
	MinSampleSize   int     `gorm:"default:20"`
	UpdatedAt       time.Time
}
