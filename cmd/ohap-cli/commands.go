package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/opimobi/ohap-go/internal/client"
	"github.com/opimobi/ohap-go/internal/config"
	"github.com/opimobi/ohap-go/internal/discovery"
	"github.com/opimobi/ohap-go/internal/logging"
	"github.com/opimobi/ohap-go/internal/urls"
	"github.com/opimobi/ohap-go/ohap"
)

// Command flags
var (
	unitURL     string
	scanTimeout int
	logLevel    string
	cmdTimeout  int
)

func init() {
	// Common flags for connecting commands (persistent on root)
	rootCmd.PersistentFlags().StringVar(&unitURL, "url", "", "Central unit URL (skips discovery)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error; empty = quiet)")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(unitsCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(setCmd)
}

// scanCmd discovers central units on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for central units on the network",
	Long: `Scan for OHAP central units using mDNS/DNS-SD discovery.

Discovered units are printed and remembered in the configuration file,
so later commands can connect to them without scanning again.`,
	Example: `  # Scan for 10 seconds (default)
  ohap-cli scan

  # Quick 3-second scan
  ohap-cli scan --timeout 3`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 10, "Scan timeout in seconds")
}

func runScan(cmd *cobra.Command, args []string) error {
	if err := initLogging(); err != nil {
		return err
	}

	fmt.Printf("Scanning for central units (timeout: %ds)...\n\n", scanTimeout)

	units, err := discovery.ScanForUnits(time.Duration(scanTimeout) * time.Second)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(units) == 0 {
		fmt.Println("No central units found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the central unit is powered on and on the same network")
		fmt.Println("  - Check that your network does not filter multicast traffic")
		fmt.Println("  - Try increasing --timeout for slower networks")
		fmt.Println("  - Use --url to specify the unit's address manually")
		fmt.Printf("\nSee %s\n", urls.DiscoveryTroubleshooting)
		return nil
	}

	fmt.Printf("Found %d central unit(s):\n\n", len(units))
	for i, unit := range units {
		fmt.Printf("%d. %s\n", i+1, unit.Instance)
		fmt.Printf("   Address: %s:%d\n", unit.IP, unit.Port)
		fmt.Printf("   URL:     %s\n", unit.BaseURL())
		if name := unit.GetMetadata("name"); name != "" {
			fmt.Printf("   Name:    %s\n", name)
		}
		fmt.Println()
	}

	// Remember the units for later runs.
	registry, err := config.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	for _, unit := range units {
		key := fmt.Sprintf("%s:%d", unit.IP, unit.Port)
		entry := registry.EnsureUnit(key, unit.BaseURL())
		if entry.Nickname == "" {
			entry.Nickname = unit.Instance
		}
	}
	if err := registry.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Println("Use 'ohap-cli watch --url <url>' to view a unit's item tree")
	return nil
}

// unitsCmd lists central units remembered in the configuration file
var unitsCmd = &cobra.Command{
	Use:   "units",
	Short: "List known central units",
	Long:  `List the central units remembered from previous scans and connections.`,
	RunE:  runUnits,
}

func runUnits(cmd *cobra.Command, args []string) error {
	registry, err := config.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if len(registry.Units) == 0 {
		fmt.Println("No known central units. Run 'ohap-cli scan' first.")
		fmt.Printf("\nSee %s\n", urls.GettingStarted)
		return nil
	}

	keys := make([]string, 0, len(registry.Units))
	for key := range registry.Units {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		unit := registry.Units[key]
		fmt.Printf("%s\n", key)
		if unit.Nickname != "" {
			fmt.Printf("   Nickname:       %s\n", unit.Nickname)
		}
		fmt.Printf("   URL:            %s\n", unit.URL)
		if !unit.LastConnected.IsZero() {
			fmt.Printf("   Last connected: %s\n", unit.LastConnected.Format(time.RFC3339))
		}
		fmt.Println()
	}
	return nil
}

// watchCmd mirrors a central unit's tree and prints its events
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a central unit's item tree",
	Long: `Connect to a central unit and print its item tree and every change
as it happens: items appearing and disappearing, and device values changing.

Runs until interrupted with Ctrl-C.`,
	Example: `  # Watch the only unit on the network
  ohap-cli watch

  # Watch a specific unit
  ohap-cli watch --url ws://192.168.4.16:18001/`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := initLogging(); err != nil {
		return err
	}

	rawURL, err := resolveUnitURL()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := client.Dial(ctx, client.Config{URL: rawURL})
	if err != nil {
		return err
	}
	defer sess.Close()
	recordConnection(rawURL)

	fmt.Printf("Connected to %s, watching (Ctrl-C to stop)...\n\n", rawURL)

	followAndPrint(sess.Root())
	sess.Root().StartListening()

	err = sess.Run(ctx)
	if errors.Is(err, context.Canceled) {
		fmt.Println("\nStopped.")
		return nil
	}
	return err
}

// followAndPrint subscribes to a container and, recursively, to everything
// that later appears under it. The callbacks run on the session's goroutine.
func followAndPrint(c *ohap.Container) {
	c.ItemAdded().Subscribe(func(parent *ohap.Container, item ohap.Item) {
		switch item := item.(type) {
		case *ohap.Container:
			fmt.Printf("+ container %d %q\n", item.ID(), item.Name())
			followAndPrint(item)
			item.StartListening()
		case *ohap.Device:
			fmt.Printf("+ device %d %q (%s, %s) = %s\n",
				item.ID(), item.Name(), item.Type(), item.ValueKind(), formatValue(item))
			item.ValueChanged().Subscribe(func(d *ohap.Device, _ struct{}) {
				fmt.Printf("~ device %d %q = %s\n", d.ID(), d.Name(), formatValue(d))
			})
		}
	})
	c.ItemRemoved().Subscribe(func(parent *ohap.Container, item ohap.Item) {
		fmt.Printf("- item %d %q removed\n", item.ID(), item.Name())
	})
}

func formatValue(d *ohap.Device) string {
	switch d.ValueKind() {
	case ohap.ValueKindBinary:
		if d.BinaryValue() {
			return "on"
		}
		return "off"
	default:
		if abbr := d.UnitAbbreviation(); abbr != "" {
			return fmt.Sprintf("%g %s", d.DecimalValue(), abbr)
		}
		return fmt.Sprintf("%g", d.DecimalValue())
	}
}

// setCmd commands an actuator
var setCmd = &cobra.Command{
	Use:   "set <device-id> <value>",
	Short: "Command an actuator",
	Long: `Connect to a central unit and command one of its actuators.

Binary actuators take on/off (or true/false); decimal actuators take a
number. The command waits until the central unit confirms the change.`,
	Example: `  # Turn a lamp on
  ohap-cli set 2 on --url ws://192.168.4.16:18001/

  # Set a heater to 21.5
  ohap-cli set 6 21.5 --url ws://192.168.4.16:18001/`,
	Args: cobra.ExactArgs(2),
	RunE: runSet,
}

func init() {
	setCmd.Flags().IntVar(&cmdTimeout, "timeout", 15, "Seconds to wait for the device and the confirmation")
}

func runSet(cmd *cobra.Command, args []string) error {
	if err := initLogging(); err != nil {
		return err
	}

	deviceID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid device identifier %q: %w", args[0], err)
	}

	rawURL, err := resolveUnitURL()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cmdTimeout)*time.Second)
	defer cancel()

	sess, err := client.Dial(ctx, client.Config{URL: rawURL})
	if err != nil {
		return err
	}
	defer sess.Close()
	recordConnection(rawURL)

	// Mirror the tree until the target device turns up, then command it and
	// wait for the echoed change. The mirrored device must only be read on
	// the session's goroutine, so the callbacks snapshot its state into plain
	// values and this goroutine works on those.
	found := make(chan deviceState, 1)
	echoed := make(chan string, 1)
	var follow func(c *ohap.Container)
	follow = func(c *ohap.Container) {
		c.ItemAdded().Subscribe(func(_ *ohap.Container, item ohap.Item) {
			switch item := item.(type) {
			case *ohap.Container:
				follow(item)
				item.StartListening()
			case *ohap.Device:
				if item.ID() != deviceID {
					return
				}
				item.ValueChanged().Subscribe(func(d *ohap.Device, _ struct{}) {
					select {
					case echoed <- formatValue(d):
					default:
					}
				})
				select {
				case found <- deviceState{
					name:    item.Name(),
					kind:    item.ValueKind(),
					binary:  item.BinaryValue(),
					decimal: item.DecimalValue(),
				}:
				default:
				}
			}
		})
	}
	follow(sess.Root())
	sess.Root().StartListening()
	go func() { _ = sess.Run(ctx) }()

	var device deviceState
	select {
	case device = <-found:
	case <-ctx.Done():
		return fmt.Errorf("device %d not found on the central unit", deviceID)
	}

	switch device.kind {
	case ohap.ValueKindBinary:
		value, err := parseBinaryValue(args[1])
		if err != nil {
			return err
		}
		if device.binary == value {
			fmt.Printf("Device %d %q is already %s.\n", deviceID, device.name, args[1])
			return nil
		}
		if err := sess.SetBinaryValue(deviceID, value); err != nil {
			return err
		}
	case ohap.ValueKindDecimal:
		value, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid decimal value %q: %w", args[1], err)
		}
		if device.decimal == value {
			fmt.Printf("Device %d %q is already at %g.\n", deviceID, device.name, value)
			return nil
		}
		if err := sess.SetDecimalValue(deviceID, value); err != nil {
			return err
		}
	}

	select {
	case formatted := <-echoed:
		fmt.Printf("Device %d %q is now %s.\n", deviceID, device.name, formatted)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("central unit did not confirm the change within %ds", cmdTimeout)
	}
}

// deviceState is a snapshot of a mirrored device, taken on the session's
// goroutine so the command logic never touches the live tree.
type deviceState struct {
	name    string
	kind    ohap.ValueKind
	binary  bool
	decimal float64
}

func parseBinaryValue(s string) (bool, error) {
	switch s {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	value, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid binary value %q (use on/off)", s)
	}
	return value, nil
}

// resolveUnitURL picks the central unit to talk to: the --url flag if given,
// otherwise a single unit found by a quick scan.
func resolveUnitURL() (string, error) {
	if unitURL != "" {
		return unitURL, nil
	}

	fmt.Println("No unit URL specified, attempting auto-discovery...")
	units, err := discovery.QuickScan()
	if err != nil {
		return "", fmt.Errorf("discovery failed: %w", err)
	}

	if len(units) == 0 {
		return "", fmt.Errorf("no central units found. Use --url to specify one manually (see %s)", urls.GettingStarted)
	}
	if len(units) > 1 {
		fmt.Printf("Found %d central units:\n", len(units))
		for i, unit := range units {
			fmt.Printf("%d. %s (%s)\n", i+1, unit.Instance, unit.BaseURL())
		}
		return "", fmt.Errorf("multiple central units found. Use --url to specify which one")
	}

	unit := units[0]
	fmt.Printf("Found central unit: %s (%s)\n\n", unit.Instance, unit.BaseURL())
	return unit.BaseURL(), nil
}

// recordConnection updates the configuration registry after a successful
// connection. Failures are not worth aborting the command for.
func recordConnection(rawURL string) {
	registry, err := config.LoadRegistry()
	if err != nil {
		return
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return
	}
	registry.UpdateUnitLastConnected(u.Host, rawURL)
	_ = registry.Save()
}

func initLogging() error {
	if logLevel == "" {
		return logging.InitializeFromEnv()
	}
	return logging.Initialize(logLevel)
}
