package urls

// Documentation URLs for guides and troubleshooting
// All URLs point to the documentation site at https://opimobi.github.io/ohap-go/

// GettingStarted is the quick start guide for connecting to a central unit
// for the first time.
const GettingStarted = "https://opimobi.github.io/ohap-go/getting-started/"

// DiscoveryTroubleshooting provides solutions to common mDNS discovery
// issues (multicast filtering, VLANs, firewalls).
const DiscoveryTroubleshooting = "https://opimobi.github.io/ohap-go/discovery/troubleshooting/"

// ProtocolReference documents the wire messages exchanged with a central
// unit, for implementers of servers and bridges.
const ProtocolReference = "https://opimobi.github.io/ohap-go/protocol/"

// SimulatorGuide explains how to run the central-unit simulator and write
// tree definition files for it.
const SimulatorGuide = "https://opimobi.github.io/ohap-go/simulator/"
