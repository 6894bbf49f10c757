package screen

import (
	"fmt"
	"time"

	"github.com/vesaa/argonpanel/internal/errors"
	"github.com/vesaa/argonpanel/internal/models"
)

// Op is a single drawing instruction in a Frame.
type Op interface {
	draw(c *canvas)
}

// Text draws s with its top-left corner at (X, Y).
type Text struct {
	X, Y int
	S    string
}

// Rule draws a full-width horizontal line at Y.
type Rule struct {
	Y int
}

// Bar draws a progress bar; see DrawProgressBar.
type Bar struct {
	X, Y, W, H int
	Percent    int
}

// Frame is the device-independent description of one screen.
type Frame struct {
	Screen Screen
	Ops    []Op
}

// Bar geometry shared by every screen.
const (
	barX = 50
	barW = 75
	barH = 6
)

// Layout builds the Frame for screen s.
func Layout(s Screen, snap models.Snapshot, now time.Time) (Frame, error) {
	var ops []Op
	switch s {
	case CPUThermal:
		ops = cpuThermal(snap, now)
	case MemoryDisk:
		ops = memoryDisk(snap, now)
	case SystemOverview:
		ops = systemOverview(snap, now)
	default:
		return Frame{}, errors.Newf(errors.ErrRender, "no layout for %s", s)
	}
	return Frame{Screen: s, Ops: append(header(s), ops...)}, nil
}

// FanLabel guesses the case fan stage from the CPU temperature. Without a
// reading the fan is reported as off.
func FanLabel(temp models.Reading[float64]) string {
	if !temp.Valid {
		return "OFF"
	}
	switch t := temp.Value; {
	case t > 65:
		return "HIGH"
	case t > 50:
		return "MEDIUM"
	case t > 40:
		return "LOW"
	default:
		return "OFF"
	}
}

func header(s Screen) []Op {
	return []Op{
		Text{X: 0, Y: 0, S: s.Title()},
		Rule{Y: 10},
	}
}

func footer(now time.Time, dateX int, dateLayout string) []Op {
	return []Op{
		Text{X: 0, Y: 54, S: now.Format("15:04")},
		Text{X: dateX, Y: 54, S: now.Format(dateLayout)},
	}
}

func cpuThermal(snap models.Snapshot, now time.Time) []Op {
	ops := []Op{
		Text{X: 0, Y: 16, S: "Temp: " + snap.TempText()},
		Text{X: 70, Y: 16, S: "Fan: " + FanLabel(snap.CPUTemp)},
		Text{X: 0, Y: 32, S: fmt.Sprintf("Load: %d%%", snap.CPULoad)},
		Bar{X: barX, Y: 32, W: barW, H: barH, Percent: snap.CPULoad},
	}
	return append(ops, footer(now, 70, "02/01")...)
}

func memoryDisk(snap models.Snapshot, now time.Time) []Op {
	ops := []Op{
		Text{X: 0, Y: 16, S: fmt.Sprintf("RAM: %d%%", snap.Memory.Percent)},
		Bar{X: barX, Y: 16, W: barW, H: barH, Percent: snap.Memory.Percent},
		Text{X: 0, Y: 24, S: "(" + snap.Memory.Label + ")"},
		Text{X: 0, Y: 36, S: fmt.Sprintf("Disk: %d%%", snap.Disk.Percent)},
		Bar{X: barX, Y: 36, W: barW, H: barH, Percent: snap.Disk.Percent},
		Text{X: 0, Y: 44, S: "Free: " + snap.Disk.Label},
	}
	return append(ops, footer(now, 70, "02/01")...)
}

func systemOverview(snap models.Snapshot, now time.Time) []Op {
	ops := []Op{
		Text{X: 0, Y: 16, S: "IP: " + snap.IP},
		Text{X: 0, Y: 28, S: "Up: " + snap.Uptime},
		Text{X: 0, Y: 40, S: fmt.Sprintf("CPU:%d%% RAM:%d%% %s", snap.CPULoad, snap.Memory.Percent, snap.TempText())},
	}
	return append(ops, footer(now, 45, "Mon 02 Jan")...)
}
