package ohap

import (
	"fmt"
	"net/url"
)

// ListeningStateFunc is the extension point between the object model and
// whatever synchronizes it with a server. The central unit calls it
// synchronously, on the goroutine that called StartListening or
// StopListening, exactly once per off-to-on and on-to-off transition of a
// container's listening state. The implementation typically begins or ceases
// requesting updates for that container from the server.
type ListeningStateFunc func(container *Container, listening bool)

// CentralUnit is the root of an item tree. It is itself a container (with
// identifier 0 and no parent) and additionally owns the installation-wide
// identifier registry and the address of the OHAP server the tree mirrors.
//
// Every item registers itself with its central unit at construction and
// unregisters at destruction; ItemByID reaches any live item in the tree
// regardless of nesting depth.
type CentralUnit struct {
	Container

	url         *url.URL
	items       map[int64]Item
	onListening ListeningStateFunc

	itemRegistered   *EventSource[*CentralUnit, Item]
	itemUnregistered *EventSource[*CentralUnit, Item]
}

// NewCentralUnit constructs the root of a new, empty tree. rawURL is the
// address used when connecting to the OHAP server. onListening receives the
// listening-state transitions of every container in the tree; it may be nil
// for a tree that is populated by hand (tests, simulators).
func NewCentralUnit(rawURL string, onListening ListeningStateFunc) (*CentralUnit, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("ohap: invalid central unit URL %q: %w", rawURL, err)
	}

	cu := &CentralUnit{
		url:         u,
		items:       make(map[int64]Item),
		onListening: onListening,
	}
	cu.itemRegistered = NewEventSource[*CentralUnit, Item](cu)
	cu.itemUnregistered = NewEventSource[*CentralUnit, Item](cu)
	cu.Container.initEvents()
	cu.linkRoot(cu, cu)
	return cu, nil
}

// URL returns the address of the OHAP server this tree mirrors.
func (cu *CentralUnit) URL() *url.URL {
	return cu.url
}

// ItemByID returns the live item with the given identifier, from any level of
// the tree, and whether one exists. Identifier 0 is the central unit itself
// and is not in the registry.
func (cu *CentralUnit) ItemByID(id int64) (Item, bool) {
	item, ok := cu.items[id]
	return item, ok
}

// ItemIDCount returns the number of live items registered with the central
// unit, the central unit itself excluded.
func (cu *CentralUnit) ItemIDCount() int {
	return len(cu.items)
}

// ItemRegistered is the event source fired after an item has registered
// itself with the central unit. The payload is the registered item.
func (cu *CentralUnit) ItemRegistered() *EventSource[*CentralUnit, Item] {
	return cu.itemRegistered
}

// ItemUnregistered is the event source fired after an item has unregistered
// itself from the central unit. The payload is the unregistered item.
func (cu *CentralUnit) ItemUnregistered() *EventSource[*CentralUnit, Item] {
	return cu.itemUnregistered
}

// register inserts a freshly constructed item into the registry. Used only by
// the item linking itself in. A duplicate identifier leaves the registry
// untouched and returns ErrDuplicateID; the rejected item must be discarded.
func (cu *CentralUnit) register(item Item) error {
	id := item.ID()
	if _, exists := cu.items[id]; exists {
		return fmt.Errorf("%w: %d", ErrDuplicateID, id)
	}
	cu.items[id] = item
	cu.itemRegistered.Fire(item)
	return nil
}

// unregister removes an item from the registry. Used only by the item
// destroying itself.
func (cu *CentralUnit) unregister(item Item) {
	delete(cu.items, item.ID())
	cu.itemUnregistered.Fire(item)
}

// notifyListeningState forwards a container's listening transition to the
// injected hook.
func (cu *CentralUnit) notifyListeningState(c *Container, listening bool) {
	if cu.onListening != nil {
		cu.onListening(c, listening)
	}
}
