// Package discovery finds OHAP central units on the local network using
// mDNS/DNS-SD (zeroconf).
//
// Central units advertise a "_ohap._tcp" service in the "local." domain. The
// TXT record may carry a "path" key with the WebSocket endpoint path and a
// "name" key with a human-readable installation name.
//
// # Usage
//
//	units, err := discovery.ScanForUnits(10 * time.Second)
//	if err != nil {
//	    return err
//	}
//	for _, unit := range units {
//	    fmt.Println(unit, "->", unit.BaseURL())
//	}
//
// Discovery is passive within the timeout: the scanner collects every
// advertisement it hears and returns when the timeout elapses. WaitForUnit
// returns early as soon as a specific instance shows up.
package discovery
