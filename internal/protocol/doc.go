// Package protocol implements the binary message codec spoken between an
// OHAP client and a central-unit server.
//
// Each WebSocket binary message carries exactly one protocol message: a
// single type byte followed by the type's fields. All integers are
// big-endian, decimals are IEEE-754 bits, booleans are one byte (0 or 1),
// and strings are UTF-8 bytes behind a uint16 length prefix.
//
// # Message directions
//
// Client to server:
//   - Listen / Unlisten: start or stop receiving updates for a container's
//     children.
//   - SetBinary / SetDecimal: command an actuator. The server applies the
//     change and echoes it back as BinaryChanged / DecimalChanged; the
//     client never mutates its mirror directly.
//
// Server to client:
//   - ContainerAdded / DeviceAdded: a new item, with everything needed to
//     construct it locally.
//   - ItemRemoved: an item (and, for a container, its subtree) is gone.
//   - BinaryChanged / DecimalChanged: a device value changed.
//
// # Usage
//
//	data, err := protocol.Encode(protocol.Listen{ContainerID: 5})
//	...
//	msg, err := protocol.Decode(data)
//	switch msg := msg.(type) {
//	case protocol.DeviceAdded:
//	    ...
//	}
//
// Decode rejects unknown message types and truncated or oversized payloads;
// a decode error means the connection is not speaking this protocol and
// should be dropped.
package protocol
