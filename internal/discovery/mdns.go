package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type central units advertise under
	ServiceType = "_ohap._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for unit discovery
	DefaultScanTimeout = 10 * time.Second

	// DefaultPort is the conventional OHAP WebSocket port
	DefaultPort = 18001
)

// Scanner handles mDNS central-unit discovery
type Scanner struct {
	// Timeout is the maximum time to wait for discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// ScanForUnits discovers all central units on the local network
// Returns a list of discovered units or an error
func (s *Scanner) ScanForUnits() ([]*Unit, error) {
	return s.ScanForUnitsWithContext(context.Background())
}

// ScanForUnitsWithContext discovers units with a custom context
func (s *Scanner) ScanForUnitsWithContext(ctx context.Context) ([]*Unit, error) {
	// Create a context with timeout
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	// Channel to receive service entries
	entries := make(chan *zeroconf.ServiceEntry)
	units := make([]*Unit, 0)
	collected := make(chan struct{})

	// Start the resolver
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	// Collect entries in a goroutine
	go func() {
		defer close(collected)
		for entry := range entries {
			unit := s.parseServiceEntry(entry)
			if unit != nil {
				units = append(units, unit)
			}
		}
	}()

	// Start browsing for OHAP services
	err = resolver.Browse(ctx, ServiceType, ServiceDomain, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	// Wait for the browse to finish (timeout or cancellation) and the
	// collector to drain the entry channel
	<-ctx.Done()
	<-collected

	return units, nil
}

// WaitForUnit waits for a specific unit by instance name
// Returns the unit or an error if not found within timeout
func (s *Scanner) WaitForUnit(instance string) (*Unit, error) {
	return s.WaitForUnitWithContext(context.Background(), instance)
}

// WaitForUnitWithContext waits for a specific unit with a custom context
func (s *Scanner) WaitForUnitWithContext(ctx context.Context, instance string) (*Unit, error) {
	// Create a context with timeout
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	// Channel to receive service entries
	entries := make(chan *zeroconf.ServiceEntry)
	unitChan := make(chan *Unit, 1)

	// Start the resolver
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	// Watch for the matching unit in a goroutine
	go func() {
		for entry := range entries {
			unit := s.parseServiceEntry(entry)
			if unit != nil && unit.Instance == instance {
				unitChan <- unit
				cancel() // Found the unit, cancel context
				return
			}
		}
	}()

	// Start browsing for OHAP services
	err = resolver.Browse(ctx, ServiceType, ServiceDomain, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	// Wait for unit or timeout
	select {
	case unit := <-unitChan:
		return unit, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("central unit %q not found within timeout", instance)
	}
}

// parseServiceEntry converts a zeroconf service entry to a Unit
// Returns nil if the entry is unusable (no address)
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Unit {
	// Get IP address (prefer IPv4)
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}

	// Fallback to IPv6 if no IPv4
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}

	if ip == "" {
		return nil
	}

	// Get port (default if not specified)
	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	// Parse TXT records into metadata
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		// TXT records are in "key=value" format
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			// Key without value
			metadata[parts[0]] = ""
		}
	}

	path := metadata["path"]
	if path == "" {
		path = "/"
	}

	return &Unit{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Path:         path,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// ScanForUnits is a convenience function to scan for units with a custom timeout
func ScanForUnits(timeout time.Duration) ([]*Unit, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.ScanForUnits()
}

// QuickScan performs a fast scan with a 3-second timeout
func QuickScan() ([]*Unit, error) {
	scanner := NewScanner()
	scanner.Timeout = 3 * time.Second
	return scanner.ScanForUnits()
}

// FindUnit searches for a specific unit by instance name with default timeout
func FindUnit(instance string) (*Unit, error) {
	scanner := NewScanner()
	return scanner.WaitForUnit(instance)
}
