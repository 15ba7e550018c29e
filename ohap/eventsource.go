package ohap

import "slices"

// Listener receives events fired by an EventSource. The source argument is
// the object owning the event source, the event argument carries the payload
// of the event (some sources fire an empty payload and expect the listener to
// re-read state from the source).
type Listener[S, E any] func(source S, event E)

// Subscription identifies one listener registration on an EventSource.
// It is returned by Subscribe and later passed to Unsubscribe. The zero
// Subscription matches nothing.
type Subscription struct {
	id uint64
}

// EventSource is a synchronous publish/subscribe primitive. It is aggregated
// into the object that owns it, parameterized over the owner type S and the
// event payload type E:
//
//	type Kettle struct {
//	    boiled *ohap.EventSource[*Kettle, struct{}]
//	}
//
// Firing calls every subscribed listener directly on the caller's goroutine,
// in subscription order, before Fire returns. EventSource performs no
// locking; it inherits the single-owner model of the package.
type EventSource[S, E any] struct {
	source S
	nextID uint64
	subs   []subscriber[S, E]
}

type subscriber[S, E any] struct {
	id       uint64
	listener Listener[S, E]
}

// NewEventSource creates an event source owned by source.
func NewEventSource[S, E any](source S) *EventSource[S, E] {
	return &EventSource[S, E]{source: source}
}

// Subscribe registers a listener and returns the handle that removes it
// again. The same function may be subscribed more than once; each call is an
// independent registration with its own handle.
func (s *EventSource[S, E]) Subscribe(l Listener[S, E]) Subscription {
	s.nextID++
	s.subs = append(s.subs, subscriber[S, E]{id: s.nextID, listener: l})
	return Subscription{id: s.nextID}
}

// Unsubscribe removes the registration identified by sub. Unknown or zero
// handles are ignored, so unsubscribing twice is harmless.
func (s *EventSource[S, E]) Unsubscribe(sub Subscription) {
	for i := range s.subs {
		if s.subs[i].id == sub.id {
			s.subs = slices.Delete(s.subs, i, i+1)
			return
		}
	}
}

// Fire calls every currently subscribed listener with the owning source and
// the event payload, in subscription order. Firing with no subscribers does
// nothing.
//
// Delivery iterates a snapshot of the subscriber list: listeners that
// subscribe or unsubscribe during a fire only affect the next one. A listener
// panic propagates to the caller of Fire; the source itself stays consistent
// and later fires reach the remaining listeners.
func (s *EventSource[S, E]) Fire(event E) {
	if len(s.subs) == 0 {
		return
	}
	for _, sub := range slices.Clone(s.subs) {
		sub.listener(s.source, event)
	}
}

// SubscriberCount returns the number of current registrations.
func (s *EventSource[S, E]) SubscriberCount() int {
	return len(s.subs)
}
