package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	// Should not be empty
	if configDir == "" {
		t.Error("GetConfigDir() returned empty string")
	}

	// Should contain "ohap"
	if !strings.Contains(configDir, "ohap") {
		t.Errorf("GetConfigDir() = %v, should contain 'ohap'", configDir)
	}

	// Platform-specific checks
	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(configDir, "AppData") && !strings.Contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	case "darwin", "linux":
		if !strings.Contains(configDir, ".config") {
			t.Errorf("Unix config dir should contain '.config', got: %v", configDir)
		}
	}

	t.Logf("Config directory: %s", configDir)
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	// Should end with config.yaml
	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}

	t.Logf("Config path: %s", configPath)
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}

	if reg.Units == nil {
		t.Error("NewRegistry().Units should not be nil")
	}

	if reg.Preferences == nil {
		t.Fatal("NewRegistry().Preferences should not be nil")
	}

	if reg.Preferences.AutoDiscover != true {
		t.Error("NewRegistry().Preferences.AutoDiscover should be true by default")
	}

	if reg.Preferences.DiscoverTimeout != 10 {
		t.Errorf("NewRegistry().Preferences.DiscoverTimeout = %v, want 10", reg.Preferences.DiscoverTimeout)
	}
}

func TestRegistryEnsureUnit(t *testing.T) {
	reg := NewRegistry()

	// First call should create the unit
	unit1 := reg.EnsureUnit("ohap.example.net:18001", "ws://ohap.example.net:18001/")
	if unit1 == nil {
		t.Fatal("EnsureUnit() returned nil")
	}
	if unit1.URL != "ws://ohap.example.net:18001/" {
		t.Errorf("EnsureUnit() URL = %v", unit1.URL)
	}

	// Second call should return same unit
	unit2 := reg.EnsureUnit("ohap.example.net:18001", "ws://ohap.example.net:18001/")
	if unit1 != unit2 {
		t.Error("EnsureUnit() should return same instance for same key")
	}

	// Different key should create new unit
	unit3 := reg.EnsureUnit("10.0.0.2:18001", "ws://10.0.0.2:18001/")
	if unit1 == unit3 {
		t.Error("EnsureUnit() should create new instance for different key")
	}
}

func TestRegistryUpdateUnitLastConnected(t *testing.T) {
	reg := NewRegistry()

	before := time.Now()
	reg.UpdateUnitLastConnected("ohap.example.net:18001", "ws://ohap.example.net:18001/")
	after := time.Now()

	unit := reg.GetUnit("ohap.example.net:18001")
	if unit == nil {
		t.Fatal("Unit should exist after UpdateUnitLastConnected()")
	}

	if unit.URL != "ws://ohap.example.net:18001/" {
		t.Errorf("URL = %v, want ws://ohap.example.net:18001/", unit.URL)
	}

	if unit.LastConnected.Before(before) || unit.LastConnected.After(after) {
		t.Errorf("LastConnected = %v, should be between %v and %v", unit.LastConnected, before, after)
	}
}

func TestRegistrySaveAndReload(t *testing.T) {
	// Redirect the config directory into the test's temp dir.
	tmp := t.TempDir()
	switch runtime.GOOS {
	case "windows":
		t.Setenv("LOCALAPPDATA", tmp)
	case "darwin":
		t.Setenv("HOME", tmp)
	default:
		t.Setenv("XDG_CONFIG_HOME", tmp)
	}

	reg := NewRegistry()
	reg.EnsureUnit("ohap.example.net:18001", "ws://ohap.example.net:18001/").Nickname = "Home"

	if err := reg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// Reload bypassing the global cache.
	loaded, err := loadRegistryFromDisk()
	if err != nil {
		t.Fatalf("loadRegistryFromDisk() error = %v", err)
	}

	unit := loaded.GetUnit("ohap.example.net:18001")
	if unit == nil {
		t.Fatal("saved unit missing after reload")
	}
	if unit.Nickname != "Home" {
		t.Errorf("Nickname = %q, want %q", unit.Nickname, "Home")
	}

	// No stray temp file left behind.
	configPath, _ := GetConfigPath()
	if _, err := os.Stat(configPath + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary config file left behind after Save()")
	}
}
