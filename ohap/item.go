package ohap

import "fmt"

// DestroyedID is the identifier an item carries after it has been destroyed.
// It is never a valid lookup key.
const DestroyedID int64 = -1

// Location is the position of an item within the installation, in whatever
// integer grid the installation uses.
type Location struct {
	X int
	Y int
	Z int
}

// Item is any addressable node in a central unit's tree: a container, a
// device, or the central unit itself. The set of implementations is closed;
// other packages consume the interface but cannot implement it.
//
// An item is valid from its construction until Destroy. A destroyed item
// reports DestroyedID, has no parent and no central unit, and must not be
// used further.
type Item interface {
	// ID returns the identifier of the item, unique within its central unit,
	// or DestroyedID after the item has been destroyed.
	ID() int64

	// Name returns the user-visible name of the item.
	Name() string
	// SetName stores the user-visible name. No event fires.
	SetName(name string)

	// Description returns the user-visible description of the item.
	Description() string
	// SetDescription stores the user-visible description. No event fires.
	SetDescription(description string)

	// Internal reports whether the item is internal to the installation
	// rather than displayable to the user by default.
	Internal() bool
	// SetInternal stores the internal flag. No event fires.
	SetInternal(internal bool)

	// Location returns the position of the item.
	Location() Location
	// SetLocation stores the position of the item. No event fires.
	SetLocation(loc Location)

	// Parent returns the container the item belongs to, or nil for a central
	// unit and for destroyed items.
	Parent() *Container

	// CentralUnit returns the central unit the item is registered with, or
	// nil after the item has been destroyed.
	CentralUnit() *CentralUnit

	// Destroy removes the item from the tree. The destroyed event fires
	// first, while the item is still linked, then the item removes itself
	// from its parent, unregisters from the central unit and invalidates its
	// identifier. Destroying an already destroyed item has no effect.
	Destroy()

	// Destroyed is the event source fired at the start of Destroy. The
	// payload is empty; the source argument is the item being destroyed,
	// still fully linked at that point.
	Destroyed() *EventSource[Item, struct{}]

	// base closes the interface to implementations in this package.
	base() *itemBase
}

// itemBase carries the state common to every item. Concrete items embed it
// and link it into the tree with link (or linkRoot for a central unit).
type itemBase struct {
	self        Item
	id          int64
	name        string
	description string
	internal    bool
	location    Location
	parent      *Container
	central     *CentralUnit
	destroyed   *EventSource[Item, struct{}]
}

// link validates the construction arguments and inserts the item into the
// tree: registration with the central unit first, then insertion into the
// parent container. The registered and added events fire in that order.
// On error nothing was linked and the half-built item must be discarded.
func (b *itemBase) link(self Item, parent *Container, id int64) error {
	if parent == nil {
		return ErrNoParent
	}
	if id < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidID, id)
	}

	b.self = self
	b.id = id
	b.parent = parent
	b.central = parent.CentralUnit()
	b.destroyed = NewEventSource[Item, struct{}](self)

	if err := b.central.register(self); err != nil {
		b.parent = nil
		b.central = nil
		return err
	}
	parent.add(self)
	return nil
}

// linkRoot initializes the base of a central unit, which has identifier 0,
// no parent, and is not registered in its own registry.
func (b *itemBase) linkRoot(self Item, central *CentralUnit) {
	b.self = self
	b.central = central
	b.destroyed = NewEventSource[Item, struct{}](self)
}

func (b *itemBase) ID() int64 { return b.id }

func (b *itemBase) Name() string        { return b.name }
func (b *itemBase) SetName(name string) { b.name = name }

func (b *itemBase) Description() string               { return b.description }
func (b *itemBase) SetDescription(description string) { b.description = description }

func (b *itemBase) Internal() bool            { return b.internal }
func (b *itemBase) SetInternal(internal bool) { b.internal = internal }

func (b *itemBase) Location() Location       { return b.location }
func (b *itemBase) SetLocation(loc Location) { b.location = loc }

func (b *itemBase) Parent() *Container { return b.parent }

func (b *itemBase) CentralUnit() *CentralUnit { return b.central }

func (b *itemBase) Destroyed() *EventSource[Item, struct{}] { return b.destroyed }

func (b *itemBase) Destroy() {
	if b.id == DestroyedID {
		return
	}
	b.destroyed.Fire(struct{}{})
	if b.parent != nil {
		b.parent.remove(b.self)
		b.central.unregister(b.self)
		b.parent = nil
		b.central = nil
	}
	b.id = DestroyedID
}

func (b *itemBase) base() *itemBase { return b }
