package config

import "time"

// Registry represents the entire user configuration file.
// This stores user-defined metadata for central units and application
// preferences.
type Registry struct {
	Version     int              `yaml:"version"`
	Units       map[string]*Unit `yaml:"units,omitempty"` // Keyed by the unit's host:port
	Preferences *Preferences     `yaml:"preferences,omitempty"`
}

// Unit represents user-defined metadata for a single central unit.
// This is keyed by the unit's host:port in the Registry. The unit itself only
// knows its URL; everything else here is client-side convenience.
type Unit struct {
	URL           string    `yaml:"url"`                      // Full connection URL (ws:// or wss://)
	Nickname      string    `yaml:"nickname,omitempty"`       // User-friendly name ("Summer Cottage")
	LastConnected time.Time `yaml:"last_connected,omitempty"` // Last successful connection time
	AutoListen    bool      `yaml:"auto_listen,omitempty"`    // Start listening the root container on connect
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	AutoDiscover    bool `yaml:"auto_discover"`    // Enable automatic mDNS discovery on startup
	DiscoverTimeout int  `yaml:"discover_timeout"` // mDNS discovery timeout in seconds
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version: 1,
		Units:   make(map[string]*Unit),
		Preferences: &Preferences{
			AutoDiscover:    true,
			DiscoverTimeout: 10,
		},
	}
}

// GetUnit retrieves central-unit metadata by host:port key.
// Returns nil if the unit doesn't exist in the registry.
func (r *Registry) GetUnit(key string) *Unit {
	return r.Units[key]
}

// EnsureUnit ensures a central-unit entry exists in the registry.
// If the unit doesn't exist, creates a new entry for the given URL.
// Returns the unit entry (existing or newly created).
func (r *Registry) EnsureUnit(key, url string) *Unit {
	if r.Units == nil {
		r.Units = make(map[string]*Unit)
	}

	if unit, exists := r.Units[key]; exists {
		return unit
	}

	unit := &Unit{URL: url}
	r.Units[key] = unit
	return unit
}

// UpdateUnitLastConnected records a successful connection to a central unit.
func (r *Registry) UpdateUnitLastConnected(key, url string) {
	unit := r.EnsureUnit(key, url)
	unit.URL = url
	unit.LastConnected = time.Now()
}
