package discovery

import (
	"fmt"
	"time"
)

// Unit represents a discovered OHAP central unit on the network
type Unit struct {
	// Instance is the mDNS service instance name (e.g., "OHAP Home")
	Instance string

	// Hostname is the mDNS hostname (e.g., "ohap-hub.local")
	Hostname string

	// IP is the IPv4 address (e.g., "192.168.4.16")
	IP string

	// Port is the WebSocket port (typically 18001)
	Port int

	// Path is the WebSocket endpoint path from the TXT record (default "/")
	Path string

	// Metadata contains additional mDNS TXT record data
	// Common fields: "path=/", "name=Home"
	Metadata map[string]string

	// DiscoveredAt is when the unit was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the unit
func (u *Unit) String() string {
	return fmt.Sprintf("Central unit %q (%s) at %s:%d", u.Instance, u.Hostname, u.IP, u.Port)
}

// BaseURL returns the WebSocket URL for connecting to the unit
func (u *Unit) BaseURL() string {
	return fmt.Sprintf("ws://%s:%d%s", u.IP, u.Port, u.Path)
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (u *Unit) GetMetadata(key string) string {
	if u.Metadata == nil {
		return ""
	}
	return u.Metadata[key]
}
