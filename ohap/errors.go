package ohap

import "errors"

// Errors reported by item constructors and device mutators. Constructors wrap
// these with the offending value, so match with errors.Is.
var (
	// ErrNoParent is returned when an item is constructed without a parent
	// container. Only a central unit may be parentless.
	ErrNoParent = errors.New("ohap: item must have a parent container")

	// ErrInvalidID is returned when an item is constructed with a
	// non-positive identifier. Identifier 0 belongs to the central unit and
	// -1 marks a destroyed item.
	ErrInvalidID = errors.New("ohap: item identifier must be a positive integer")

	// ErrDuplicateID is returned when an item is constructed with an
	// identifier that is already registered with the central unit. The
	// registry and the tree are unchanged; the rejected item was never
	// linked in.
	ErrDuplicateID = errors.New("ohap: an item with the same identifier already exists")

	// ErrValueKind is returned by device accessors invoked for the wrong
	// value kind, e.g. SetDecimalValue on a binary device. The device is
	// unchanged. Callers should check ValueKind first; hitting this error
	// usually indicates a programming mistake.
	ErrValueKind = errors.New("ohap: operation does not match the device value kind")
)
