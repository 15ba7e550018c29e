// Package logging provides structured logging for the OHAP client tooling.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the client, the simulator and the CLI. It provides
// both general logging functions and specialized functions for
// protocol-specific logging needs.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (hex dumps of wire messages)
//   - Info: Normal operations (connections, item events, state changes)
//   - Warn: Non-fatal issues (connection drops, unapplicable updates)
//   - Error: Fatal issues (startup failures, protocol violations)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Connected to central unit",
//	    zap.String("url", "ws://ohap.example.net:18001/"),
//	    zap.String("remote_addr", "192.168.1.10:18001"),
//	)
//
// # Specialized Logging
//
// The package provides domain-specific logging functions:
//
//	logging.LogConnection(remoteAddr, "websocket_connected")
//	logging.LogWireMessage(remoteAddr, "received", payload)
//	logging.LogItemEvent("device_added", 6, "Ceiling Lamp")
//	logging.LogListeningState(5, true)
//
// # Configuration
//
// Logging is silent by default so the CLI output stays clean. Set the
// OHAP_LOG_LEVEL environment variable (or call Initialize with an explicit
// level) to enable it:
//
//	if err := logging.InitializeFromEnv(); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap
// logger handles synchronization automatically.
package logging
