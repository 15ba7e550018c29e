package ohap

// Container is an item that groups other items in insertion order.
//
// A fresh container is empty. It fills up once something starts listening to
// it: StartListening asks the central unit to begin synchronizing the
// container's children from the server, and the synchronization code then
// constructs the children, which insert themselves. Items always add and
// remove themselves; there is no public mutator for the child list.
type Container struct {
	itemBase

	items     []Item
	listeners int

	itemAdded   *EventSource[*Container, Item]
	itemRemoved *EventSource[*Container, Item]
}

// NewContainer constructs a container under parent with the given identifier
// and links it into the tree. Returns ErrNoParent, ErrInvalidID or
// ErrDuplicateID when the arguments do not make a valid item.
func NewContainer(parent *Container, id int64) (*Container, error) {
	c := &Container{}
	c.initEvents()
	if err := c.link(c, parent, id); err != nil {
		return nil, err
	}
	return c, nil
}

// initEvents wires the container-level event sources. Split out so that
// CentralUnit can initialize its embedded Container without a parent.
func (c *Container) initEvents() {
	c.itemAdded = NewEventSource[*Container, Item](c)
	c.itemRemoved = NewEventSource[*Container, Item](c)
}

// ItemCount returns the number of child items in the container.
func (c *Container) ItemCount() int {
	return len(c.items)
}

// ItemByIndex returns the child at the given position in insertion order.
// It panics when index is out of range, like a slice access.
func (c *Container) ItemByIndex(index int) Item {
	return c.items[index]
}

// ItemAdded is the event source fired after a child has inserted itself into
// the container. The payload is the added item.
func (c *Container) ItemAdded() *EventSource[*Container, Item] {
	return c.itemAdded
}

// ItemRemoved is the event source fired after a child has removed itself from
// the container. The payload is the removed item.
func (c *Container) ItemRemoved() *EventSource[*Container, Item] {
	return c.itemRemoved
}

// Listening reports whether at least one StartListening call is outstanding.
func (c *Container) Listening() bool {
	return c.listeners != 0
}

// StartListening asks the container to keep its children synchronized with
// the server. Calls nest: the central unit's listening hook fires only when
// the first listener arrives, and the container stays listening until
// StopListening has been called once per StartListening.
func (c *Container) StartListening() {
	c.listeners++
	if c.listeners == 1 {
		c.central.notifyListeningState(c, true)
	}
}

// StopListening undoes one StartListening call. The central unit's listening
// hook fires with false when the last listener leaves.
//
// StopListening without a matching StartListening panics, in the same spirit
// as a sync.WaitGroup counter going negative.
func (c *Container) StopListening() {
	if c.listeners == 0 {
		panic("ohap: StopListening called more times than StartListening")
	}
	c.listeners--
	if c.listeners == 0 {
		c.central.notifyListeningState(c, false)
	}
}

// Destroy destroys the children, most recently added first, and then the
// container itself. The child list is already empty when the container's own
// destroyed event fires.
func (c *Container) Destroy() {
	if c.id == DestroyedID {
		return
	}
	for len(c.items) > 0 {
		c.items[len(c.items)-1].Destroy()
	}
	c.itemBase.Destroy()
}

// add appends a child. Used only by the item inserting itself at
// construction.
func (c *Container) add(item Item) {
	c.items = append(c.items, item)
	c.itemAdded.Fire(item)
}

// remove erases the first matching child. Used only by the item removing
// itself at destruction.
func (c *Container) remove(item Item) {
	for i, existing := range c.items {
		if existing == item {
			c.items = append(c.items[:i], c.items[i+1:]...)
			break
		}
	}
	c.itemRemoved.Fire(item)
}
