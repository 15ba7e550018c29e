// Package config manages persistent client-side configuration: the registry
// of known central units and application-wide preferences.
//
// The configuration lives in a YAML file at the platform config directory
// (~/.config/ohap/config.yaml on Linux and macOS, %LOCALAPPDATA%\ohap on
// Windows). A central unit itself stores nothing for us; everything here is
// client convenience such as nicknames and last-connected timestamps.
//
// # Usage
//
//	reg, err := config.LoadRegistry()
//	if err != nil {
//	    return err
//	}
//	reg.UpdateUnitLastConnected("ohap.example.net:18001", "ws://ohap.example.net:18001/")
//	if err := reg.Save(); err != nil {
//	    return err
//	}
//
// LoadRegistry is lazy and returns the same instance on every call. Save
// writes atomically (temp file plus rename) so a crash cannot leave a
// half-written file behind.
package config
