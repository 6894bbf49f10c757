// Package agent implements the status daemon: metric sampling and the
// screen rotation loop that drives the display.
package agent

import (
	"bufio"
	"bytes"
	"fmt"
	"math"
	"net"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/spf13/afero"
	"github.com/vesaa/argonpanel/internal/errors"
	"github.com/vesaa/argonpanel/internal/models"
)

// Pseudo-files the sampler reads.
const (
	ThermalZonePath = "/sys/class/thermal/thermal_zone0/temp"
	LoadAvgPath     = "/proc/loadavg"
	MemInfoPath     = "/proc/meminfo"
	UptimePath      = "/proc/uptime"
)

const (
	rootMount = "/"
	// ipProbeAddr is only used to pick the outbound interface; nothing is sent.
	ipProbeAddr = "8.8.8.8:80"
	// loadScale maps a 1-minute load average onto a percent for a 4-core board.
	loadScale = 25
	// maxUptimeSeconds keeps the seconds-to-Duration conversion from overflowing.
	maxUptimeSeconds = float64(math.MaxInt64 / int64(time.Second))
)

// Collector samples host telemetry. Every reader degrades to its sentinel
// instead of returning an error, so Collect always yields a full snapshot.
type Collector struct {
	fs        afero.Fs
	diskUsage func(path string) (*disk.UsageStat, error)
	dial      func(network, address string) (net.Conn, error)
	probeAddr string
}

// NewCollector creates a Collector reading the live OS.
func NewCollector() *Collector {
	return &Collector{
		fs:        afero.NewReadOnlyFs(afero.NewOsFs()),
		diskUsage: disk.Usage,
		dial:      net.Dial,
		probeAddr: ipProbeAddr,
	}
}

// Collect samples every metric independently.
func (c *Collector) Collect(now time.Time) models.Snapshot {
	return models.Snapshot{
		CPUTemp: c.CPUTemperature(),
		CPULoad: c.CPULoad(),
		Memory:  c.Memory(),
		Disk:    c.Disk(),
		Uptime:  c.Uptime(),
		IP:      c.IPAddress(),
		TakenAt: now,
	}
}

// CPUTemperature returns the SoC temperature in °C.
func (c *Collector) CPUTemperature() models.Reading[float64] {
	v, err := c.readTemperature()
	if err != nil {
		return models.Reading[float64]{}
	}
	return models.Available(v)
}

// CPULoad returns the 1-minute load average as a percent, or 0.
func (c *Collector) CPULoad() int {
	v, err := c.readLoad()
	return sentinelOr(v, err, 0)
}

// Memory returns RAM usage as percent and "usedMB/totalMB".
func (c *Collector) Memory() models.Usage {
	v, err := c.readMemory()
	return sentinelOr(v, err, models.UnavailableUsage)
}

// Disk returns root filesystem usage as percent and "<free>GB".
func (c *Collector) Disk() models.Usage {
	v, err := c.readDisk()
	return sentinelOr(v, err, models.UnavailableUsage)
}

// Uptime returns "3d 4h" or "4h 12m".
func (c *Collector) Uptime() string {
	v, err := c.readUptime()
	return sentinelOr(v, err, models.NotAvailable)
}

// IPAddress returns the address of the outbound interface.
func (c *Collector) IPAddress() string {
	v, err := c.readIP()
	return sentinelOr(v, err, models.NoIP)
}

func sentinelOr[T any](v T, err error, sentinel T) T {
	if err != nil {
		return sentinel
	}
	return v
}

// ─── readers ─────────────────────────────────────────────────────────────────

func (c *Collector) readFirstField(path string) (string, error) {
	data, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrSensor, "read "+path)
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return "", errors.New(errors.ErrSensor, path+" is empty")
	}
	return fields[0], nil
}

// readTemperature parses the thermal zone's millidegree integer.
func (c *Collector) readTemperature() (float64, error) {
	raw, err := c.readFirstField(ThermalZonePath)
	if err != nil {
		return 0, err
	}
	milli, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrSensor, "parse temperature")
	}
	return float64(milli) / 1000, nil
}

func (c *Collector) readLoad() (int, error) {
	raw, err := c.readFirstField(LoadAvgPath)
	if err != nil {
		return 0, err
	}
	load1, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrSensor, "parse load average")
	}
	if math.IsNaN(load1) || math.IsInf(load1, 0) {
		return 0, errors.Newf(errors.ErrSensor, "load average %q is not finite", raw)
	}
	// clamp before converting: float-to-int overflow differs between arm64 and amd64
	pct := math.Max(0, math.Min(100, load1*loadScale))
	return models.ClampPercent(int(pct)), nil
}

// readMemory looks up MemTotal and MemAvailable by name, so the order of
// lines in /proc/meminfo does not matter.
func (c *Collector) readMemory() (models.Usage, error) {
	data, err := afero.ReadFile(c.fs, MemInfoPath)
	if err != nil {
		return models.Usage{}, errors.Wrap(err, errors.ErrSensor, "read meminfo")
	}

	var totalKB, availKB int64 = -1, -1
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) < 2 {
			continue
		}
		switch parts[0] {
		case "MemTotal:":
			totalKB, err = strconv.ParseInt(parts[1], 10, 64)
		case "MemAvailable:":
			availKB, err = strconv.ParseInt(parts[1], 10, 64)
		default:
			continue
		}
		if err != nil {
			return models.Usage{}, errors.Wrap(err, errors.ErrSensor, "parse meminfo")
		}
	}
	if totalKB <= 0 || availKB < 0 {
		return models.Usage{}, errors.New(errors.ErrSensor, "meminfo lacks MemTotal/MemAvailable")
	}

	usedKB := totalKB - availKB
	return models.Usage{
		Percent: models.PercentOf(usedKB, totalKB),
		Label:   fmt.Sprintf("%d/%dMB", usedKB/1024, totalKB/1024),
	}, nil
}

// readDisk reports the root mount in whole gigabytes.
func (c *Collector) readDisk() (models.Usage, error) {
	u, err := c.diskUsage(rootMount)
	if err != nil {
		return models.Usage{}, errors.Wrap(err, errors.ErrSensor, "statfs "+rootMount)
	}
	totalGB := int64(u.Total >> 30)
	freeGB := int64(u.Free >> 30)
	if totalGB <= 0 {
		return models.Usage{}, errors.New(errors.ErrSensor, "root filesystem reports no capacity")
	}
	return models.Usage{
		Percent: models.PercentOf(totalGB-freeGB, totalGB),
		Label:   fmt.Sprintf("%dGB", freeGB),
	}, nil
}

func (c *Collector) readUptime() (string, error) {
	raw, err := c.readFirstField(UptimePath)
	if err != nil {
		return "", err
	}
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrSensor, "parse uptime")
	}
	if math.IsNaN(secs) || secs < 0 || secs >= maxUptimeSeconds {
		return "", errors.Newf(errors.ErrSensor, "uptime %q out of range", raw)
	}
	return formatUptime(time.Duration(secs * float64(time.Second))), nil
}

func formatUptime(d time.Duration) string {
	days := int(d / (24 * time.Hour))
	hours := int(d % (24 * time.Hour) / time.Hour)
	if days > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	minutes := int(d % time.Hour / time.Minute)
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// readIP opens a UDP socket toward the probe address and reports the local
// end. UDP connect only consults the routing table.
func (c *Collector) readIP() (string, error) {
	conn, err := c.dial("udp", c.probeAddr)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrSensor, "probe outbound interface")
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || addr.IP == nil || addr.IP.IsUnspecified() {
		return "", errors.New(errors.ErrSensor, "no local address for outbound route")
	}
	return addr.IP.String(), nil
}

// ─── host identity ───────────────────────────────────────────────────────────

// HostInfo describes the board, falling back to runtime values.
func HostInfo() models.Host {
	h := models.Host{OS: runtime.GOOS, Arch: runtime.GOARCH}
	if name, err := os.Hostname(); err == nil {
		h.Hostname = name
	}
	info, err := host.Info()
	if err != nil {
		return h
	}
	if info.Platform != "" {
		h.OS = info.Platform
		if info.PlatformVersion != "" {
			h.OS = fmt.Sprintf("%s %s", info.Platform, info.PlatformVersion)
		}
	}
	if info.KernelArch != "" {
		h.Arch = info.KernelArch
	}
	return h
}
