// Package client maintains a live ohap item tree by talking to a central-unit
// server over WebSocket.
//
// A Session owns one connection and one *ohap.CentralUnit. It supplies the
// central unit's listening-state hook: when any code starts listening to a
// container of the mirrored tree, the session sends a Listen message for it,
// and the server starts streaming that container's children and their value
// changes. Incoming updates are decoded and applied to the tree, which fires
// the model's event sources exactly as if the tree had been mutated by hand.
//
//	session, err := client.Dial(ctx, client.Config{URL: "ws://ohap.example.net:18001/"})
//	if err != nil {
//	    return err
//	}
//	defer session.Close()
//
//	root := session.Root()
//	root.ItemAdded().Subscribe(func(_ *ohap.Container, item ohap.Item) {
//	    fmt.Println("new item:", item.ID(), item.Name())
//	})
//	root.StartListening()
//
//	err = session.Run(ctx) // blocks, applying updates
//
// # Threading
//
// All tree mutations happen on the goroutine running Run, and every model
// event fires there. Consumers should do their own subscribing either before
// Run starts or from within event callbacks; the model itself is not locked,
// so reading mirrored items from other goroutines while Run is live is a
// race. Outgoing messages (listen requests, actuator commands) go through an
// internal queue and may be enqueued from any goroutine; command validation
// consults a locked index of the mirrored items, never the live tree.
//
// # Commands
//
// Actuator values are never written into the mirror directly. SetBinaryValue
// and SetDecimalValue send a command to the server; the server applies it and
// echoes a value-changed update, which then mutates the mirror like any other
// update.
package client
