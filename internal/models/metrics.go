// Package models defines the data shared between the sampler, the screens and the loop.
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Sentinels substituted when a metric cannot be read.
const (
	NotAvailable = "N/A"
	NoIP         = "No IP"
)

// Reading is a value that may be unavailable. The zero Reading is unavailable.
type Reading[T any] struct {
	Value T
	Valid bool
}

// Available wraps a successfully read value.
func Available[T any](v T) Reading[T] {
	return Reading[T]{Value: v, Valid: true}
}

// Or returns the value, or fallback when the reading is unavailable.
func (r Reading[T]) Or(fallback T) T {
	if !r.Valid {
		return fallback
	}
	return r.Value
}

// MarshalJSON encodes an unavailable reading as null.
func (r Reading[T]) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// Usage is a percent-used figure with its human label, e.g. 75 and "1464/1953MB".
type Usage struct {
	Percent int    `json:"percent"` // 0-100
	Label   string `json:"label"`
}

// UnavailableUsage is what memory and disk report when their source fails.
var UnavailableUsage = Usage{Percent: 0, Label: NotAvailable}

// Snapshot is the complete set of metrics sampled for one tick.
// Every field is independently defaulted, so a Snapshot is always complete.
type Snapshot struct {
	CPUTemp Reading[float64] `json:"cpu_temp_c"`
	CPULoad int              `json:"cpu_load_percent"` // 0-100
	Memory  Usage            `json:"memory"`
	Disk    Usage            `json:"disk"`
	Uptime  string           `json:"uptime"`
	IP      string           `json:"ip"`
	TakenAt time.Time        `json:"taken_at"`
}

// TempText formats the CPU temperature as "48.3°C", or "N/A".
func (s Snapshot) TempText() string {
	if !s.CPUTemp.Valid {
		return NotAvailable
	}
	return fmt.Sprintf("%.1f°C", s.CPUTemp.Value)
}

// ClampPercent bounds p to [0,100].
func ClampPercent(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

// PercentOf returns int(part/whole*100) clamped to [0,100]. A non-positive
// whole yields 0.
func PercentOf(part, whole int64) int {
	if whole <= 0 {
		return 0
	}
	return ClampPercent(int(float64(part) / float64(whole) * 100))
}
