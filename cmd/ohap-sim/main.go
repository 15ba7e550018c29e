// Ohap-sim is a central-unit simulator for developing and testing OHAP
// clients without real hardware.
//
// It serves an in-memory installation over the OHAP WebSocket protocol,
// either a built-in demo house or a tree loaded from a YAML definition file,
// and can optionally drift its sensor readings to make the installation feel
// alive.
//
// Usage:
//
//	ohap-sim serve [flags]
//
// See 'ohap-sim serve --help' for available options.
package main

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/opimobi/ohap-go/internal/simulator"
	"github.com/opimobi/ohap-go/internal/version"
	"github.com/opimobi/ohap-go/ohap"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ohap-sim",
	Short: "OHAP Central Unit Simulator",
	Long: `A central-unit simulator for developing and testing OHAP clients.

Serves an in-memory installation over the OHAP WebSocket protocol. Use the
built-in demo house, or describe your own installation in a YAML tree
definition file and pass it with --tree.`,
	Version: version.Version,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Serve command and flags
var (
	host     string
	port     int
	treePath string
	logLevel string
	jitter   int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the simulator",
	Long: `Start the simulator and accept client connections.

Without --tree, a small built-in demo house is served. With --jitter, the
simulator nudges every decimal sensor every few seconds so that watching
clients see live value changes.`,
	Example: `  # Serve the demo house on the conventional port
  ohap-sim serve

  # Serve a custom installation with verbose logging
  ohap-sim serve --tree cottage.yaml --log-level debug

  # Drift sensor readings every 5 seconds
  ohap-sim serve --jitter 5`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&host, "host", "", "Host to bind (empty = all interfaces)")
	serveCmd.Flags().IntVar(&port, "port", 18001, "Port to listen on")
	serveCmd.Flags().StringVar(&treePath, "tree", "", "Path to a YAML tree definition (empty = built-in demo tree)")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	serveCmd.Flags().IntVar(&jitter, "jitter", 0, "Seconds between sensor drifts (0 = static sensors)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if treePath != "" {
		if _, err := os.Stat(treePath); os.IsNotExist(err) {
			return fmt.Errorf("tree definition file not found: %s", treePath)
		}
	}

	config := &simulator.Config{
		Host:     host,
		Port:     port,
		TreePath: treePath,
		LogLevel: logLevel,
	}

	sim, err := simulator.New(config)
	if err != nil {
		return fmt.Errorf("failed to create simulator: %w", err)
	}

	if jitter > 0 {
		go driftSensors(sim, time.Duration(jitter)*time.Second)
	}

	return sim.Start()
}

// driftSensors nudges every decimal sensor by a small random step on each
// tick, clamped to the sensor's range when one is set.
func driftSensors(sim *simulator.Simulator, interval time.Duration) {
	sensors := decimalSensors(&sim.CentralUnit().Container)

	for range time.Tick(interval) {
		for _, d := range sensors {
			value := d.DecimalValue()
			if math.IsNaN(value) {
				value = 0
			}
			value += (rand.Float64() - 0.5)
			if max := d.MaxValue(); value > max {
				value = max
			}
			if min := d.MinValue(); value < min {
				value = min
			}
			_ = sim.UpdateDecimal(d.ID(), value)
		}
	}
}

// decimalSensors collects the decimal sensors of a subtree. The tree does not
// change shape after construction, so the snapshot stays valid.
func decimalSensors(c *ohap.Container) []*ohap.Device {
	var sensors []*ohap.Device
	for i := 0; i < c.ItemCount(); i++ {
		switch item := c.ItemByIndex(i).(type) {
		case *ohap.Container:
			sensors = append(sensors, decimalSensors(item)...)
		case *ohap.Device:
			if item.Type() == ohap.DeviceTypeSensor && item.ValueKind() == ohap.ValueKindDecimal {
				sensors = append(sensors, item)
			}
		}
	}
	return sensors
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ohap-sim %s (commit: %s)\n", version.Version, version.Commit)
	},
}
