// Package screen lays out and rasterises the screens shown on the 128×64 OLED.
// Everything here is pure: the same snapshot and clock always give the same bitmap.
package screen

import (
	"fmt"
	"strings"
)

// Display geometry.
const (
	Width  = 128
	Height = 64
)

// Screen is one of the fixed layouts in the rotation.
type Screen int

const (
	CPUThermal Screen = iota
	MemoryDisk
	SystemOverview
)

// Rotation is the order screens are shown in.
var Rotation = []Screen{CPUThermal, MemoryDisk, SystemOverview}

// String returns the short name used on the command line and in logs.
func (s Screen) String() string {
	switch s {
	case CPUThermal:
		return "cpu"
	case MemoryDisk:
		return "memory"
	case SystemOverview:
		return "system"
	default:
		return fmt.Sprintf("screen(%d)", int(s))
	}
}

// Title is the heading drawn at the top of the screen.
func (s Screen) Title() string {
	switch s {
	case CPUThermal:
		return "CPU & THERMAL"
	case MemoryDisk:
		return "MEMORY & DISK"
	case SystemOverview:
		return "SYSTEM INFO"
	default:
		return strings.ToUpper(s.String())
	}
}

// Parse maps a short name back to a Screen.
func Parse(name string) (Screen, error) {
	for _, s := range Rotation {
		if strings.EqualFold(name, s.String()) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown screen %q (want cpu, memory or system)", name)
}
