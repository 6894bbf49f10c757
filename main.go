// ArgonPanel — rotating system status screens for the Argon ONE OLED.
// Author: vesaa | License: MIT | https://github.com/vesaa/argonpanel
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
	_ "time/tzdata" // add-on images ship without a zoneinfo database

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/vesaa/argonpanel/internal/agent"
	"github.com/vesaa/argonpanel/internal/config"
	"github.com/vesaa/argonpanel/internal/display"
	"github.com/vesaa/argonpanel/internal/models"
	"github.com/vesaa/argonpanel/internal/screen"
)

const version = "v0.1.0"

var (
	bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	faintStyle  = lipgloss.NewStyle().Faint(true)
)

func printBanner(w io.Writer, mode string) {
	fmt.Fprintf(w, "%s %s\n\n",
		bannerStyle.Render("► ArgonPanel "+version),
		faintStyle.Render("|  Author: vesaa  |  Mode: "+mode))
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "argonpanel",
		Short: "ArgonPanel — system status screens on a 128×64 OLED",
		Long: `ArgonPanel samples CPU temperature, load, memory, disk, uptime and the
outbound IP address once a second and rotates them across three screens on
an SSD1306 OLED attached over I2C. Run without a subcommand to start the daemon.`,
		SilenceUsage: true,
		RunE:         runDaemon,
	}
	root.PersistentFlags().String("config", config.DefaultPath, "Path to the JSON options file")

	// ── run subcommand ────────────────────────────────────────────────────────
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Start the display daemon (same as running without a subcommand)",
		RunE:  runDaemon,
	}

	// ── snapshot subcommand ───────────────────────────────────────────────────
	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Sample every metric once and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(cmd)
			snap := agent.NewCollector().Collect(time.Now().In(cfg.Location()))
			h := agent.HostInfo()

			out := cmd.OutOrStdout()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Host     models.Host     `json:"host"`
					Snapshot models.Snapshot `json:"snapshot"`
				}{h, snap})
			}

			fmt.Fprintf(out, "Host:   %s (%s, %s)\n", h.Hostname, h.OS, h.Arch)
			fmt.Fprintf(out, "IP:     %s\n", snap.IP)
			fmt.Fprintf(out, "Uptime: %s\n", snap.Uptime)
			fmt.Fprintf(out, "Temp:   %s (fan %s)\n", snap.TempText(), screen.FanLabel(snap.CPUTemp))
			fmt.Fprintf(out, "Load:   %d%%\n", snap.CPULoad)
			fmt.Fprintf(out, "RAM:    %d%% (%s)\n", snap.Memory.Percent, snap.Memory.Label)
			fmt.Fprintf(out, "Disk:   %d%% (free %s)\n", snap.Disk.Percent, snap.Disk.Label)
			return nil
		},
	}
	snapshotCmd.Flags().Bool("json", false, "Print the snapshot as JSON")

	// ── preview subcommand ────────────────────────────────────────────────────
	previewCmd := &cobra.Command{
		Use:   "preview",
		Short: "Render screens to PNG files instead of the OLED",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(cmd)
			dir, _ := cmd.Flags().GetString("out")
			scale, _ := cmd.Flags().GetInt("scale")
			only, _ := cmd.Flags().GetString("screen")

			screens := screen.Rotation
			if only != "" {
				s, err := screen.Parse(only)
				if err != nil {
					return err
				}
				screens = []screen.Screen{s}
			}

			now := time.Now().In(cfg.Location())
			snap := agent.NewCollector().Collect(now)
			for _, s := range screens {
				frame, err := screen.Render(s, snap, now)
				if err != nil {
					return err
				}
				sink := &display.PNGSink{Path: filepath.Join(dir, "screen-"+s.String()+".png"), Scale: scale}
				if err := sink.Commit(frame); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  ✓ %-7s → %s\n", s, sink.Path)
			}
			return nil
		},
	}
	previewCmd.Flags().String("out", ".", "Directory to write screen-<name>.png files into")
	previewCmd.Flags().Int("scale", 4, "Integer upscale factor")
	previewCmd.Flags().String("screen", "", "Only render this screen (cpu, memory or system)")

	// ── version subcommand ────────────────────────────────────────────────────
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print ArgonPanel version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ArgonPanel %s  |  Author: vesaa\n", version)
		},
	}

	root.AddCommand(runCmd, snapshotCmd, previewCmd, versionCmd)
	return root
}

func loadConfig(cmd *cobra.Command) *config.Config {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// runDaemon opens the panel and drives it until SIGINT/SIGTERM. If the panel
// cannot be opened the error is returned and the process exits 1.
func runDaemon(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	logger := log.New(out, "", 0)
	printBanner(out, "DAEMON")

	cfg := loadConfig(cmd)
	h := agent.HostInfo()
	logger.Printf("ArgonPanel %s starting on %s (%s)...", version, h.Hostname, h.OS)
	logger.Printf("Screen duration: %ds", cfg.ScreenDuration)

	oled, err := display.OpenOLED(display.BusConfig{Bus: cfg.I2CBus, Width: screen.Width, Height: screen.Height})
	if err != nil {
		logger.Printf("OLED initialization failed: %v", err)
		return err
	}
	defer func() {
		if err := oled.Close(); err != nil {
			logger.Printf("OLED shutdown: %v", err)
		}
	}()
	b := oled.Bounds()
	logger.Printf("OLED initialized: %dx%d", b.Dx(), b.Dy())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = agent.New(cfg, agent.NewCollector(), oled, logger).Run(ctx)
	logger.Println("Shutting down...")
	return err
}
