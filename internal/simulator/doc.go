// Package simulator implements a central-unit server for development and
// testing, serving a simulated installation over the same WebSocket protocol
// a real central unit speaks.
//
// The installation is an ordinary ohap item tree, either the built-in demo
// house or one loaded from a YAML tree definition file:
//
//	name: Summer cottage
//	containers:
//	  - id: 1
//	    name: Porch
//	    devices:
//	      - id: 2
//	        type: actuator
//	        value: binary
//	        name: Porch light
//	      - id: 3
//	        type: sensor
//	        value: decimal
//	        name: Thermometer
//	        decimal: 14.0
//	        min: -40
//	        max: 60
//	        unit: celsius
//	        abbreviation: °C
//
// A Listen message subscribes the connection to one container and is answered
// with a snapshot of the container's direct children. Set commands from
// clients are applied to the authoritative tree and echoed to every listening
// connection, including the sender; the UpdateBinary, UpdateDecimal and
// RemoveItem methods do the same for server-side changes such as simulated
// sensor readings.
package simulator
