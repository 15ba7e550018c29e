// Package ohap implements the client-side object model of an OHAP (Open Home
// Automation Protocol) installation: a central unit at the root, containers
// grouping items below it, and devices as leaves.
//
// The model is a live mirror. Code that synchronizes with an OHAP server
// constructs and destroys items as the server reports changes, and consumers
// (a UI, an automation script) observe the tree through event sources instead
// of polling.
//
// # Tree structure
//
// Every node implements the Item interface and carries an identifier that is
// unique within its central unit. Items link themselves into the tree at
// construction: they register with the central unit first and then append
// themselves to their parent container. Destroy reverses both steps, firing
// the destroyed event while the item is still fully linked.
//
//	cu, _ := ohap.NewCentralUnit("ws://ohap.example.net:18001/", nil)
//	room, _ := ohap.NewContainer(&cu.Container, 2)
//	lamp, _ := ohap.NewDevice(room, 3, ohap.DeviceTypeActuator, ohap.ValueKindBinary)
//
// # Events
//
// All change notifications go through EventSource, a small synchronous
// publish/subscribe primitive. Subscribing returns a handle that is later
// passed to Unsubscribe:
//
//	sub := lamp.ValueChanged().Subscribe(func(d *ohap.Device, _ struct{}) {
//	    fmt.Println("lamp is now", d.BinaryValue())
//	})
//	defer lamp.ValueChanged().Unsubscribe(sub)
//
// # Listening
//
// A container does not populate itself. Calling StartListening asks the
// central unit to begin synchronizing the container's children from the
// server; the central unit's ListeningStateFunc (supplied at construction)
// receives every off/on transition of the reference-counted listening state.
// See the internal/client package for the concrete deployment.
//
// # Concurrency
//
// The model is single-threaded by design. One logical owner drives all
// construction, destruction and mutation, and every event fires synchronously
// on that owner's goroutine before the triggering call returns. Callers that
// need the tree on several goroutines must add their own locking around it.
package ohap
