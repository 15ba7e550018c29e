package ohap

import "testing"

type eventOwner struct {
	name string
}

func TestEventSourceDeliveryOrder(t *testing.T) {
	owner := &eventOwner{name: "owner"}
	src := NewEventSource[*eventOwner, int](owner)

	var got []int
	src.Subscribe(func(o *eventOwner, e int) {
		if o != owner {
			t.Errorf("listener 1 got owner %v, want %v", o, owner)
		}
		got = append(got, e*10)
	})
	src.Subscribe(func(o *eventOwner, e int) {
		got = append(got, e*100)
	})

	src.Fire(7)

	if len(got) != 2 || got[0] != 70 || got[1] != 700 {
		t.Errorf("delivery order = %v, want [70 700]", got)
	}
}

func TestEventSourceFireWithoutSubscribers(t *testing.T) {
	src := NewEventSource[*eventOwner, string](&eventOwner{})

	// Must be a no-op, not a panic.
	src.Fire("nobody listens")

	if src.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", src.SubscriberCount())
	}
}

func TestEventSourceUnsubscribe(t *testing.T) {
	src := NewEventSource[*eventOwner, struct{}](&eventOwner{})

	calls := make([]int, 3)
	subs := make([]Subscription, 3)
	for i := 0; i < 3; i++ {
		i := i
		subs[i] = src.Subscribe(func(*eventOwner, struct{}) {
			calls[i]++
		})
	}

	src.Unsubscribe(subs[1])
	src.Fire(struct{}{})

	if calls[0] != 1 || calls[1] != 0 || calls[2] != 1 {
		t.Errorf("calls after unsubscribe = %v, want [1 0 1]", calls)
	}

	// Unsubscribing twice, or with a zero handle, is harmless.
	src.Unsubscribe(subs[1])
	src.Unsubscribe(Subscription{})
	src.Fire(struct{}{})

	if calls[0] != 2 || calls[2] != 2 {
		t.Errorf("calls after second fire = %v, want [2 0 2]", calls)
	}
}

func TestEventSourceDuplicateSubscriptionsAreIndependent(t *testing.T) {
	src := NewEventSource[*eventOwner, struct{}](&eventOwner{})

	count := 0
	listener := func(*eventOwner, struct{}) { count++ }

	first := src.Subscribe(listener)
	src.Subscribe(listener)

	src.Fire(struct{}{})
	if count != 2 {
		t.Fatalf("count after fire with duplicate subscriptions = %d, want 2", count)
	}

	src.Unsubscribe(first)
	src.Fire(struct{}{})
	if count != 3 {
		t.Errorf("count after removing one of two subscriptions = %d, want 3", count)
	}
}

func TestEventSourceListenerPanicPropagatesAndKeepsSubscribers(t *testing.T) {
	src := NewEventSource[*eventOwner, struct{}](&eventOwner{})

	var order []int
	panicNext := true
	src.Subscribe(func(*eventOwner, struct{}) { order = append(order, 1) })
	src.Subscribe(func(*eventOwner, struct{}) {
		order = append(order, 2)
		if panicNext {
			panicNext = false
			panic("listener failure")
		}
	})
	src.Subscribe(func(*eventOwner, struct{}) { order = append(order, 3) })

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("listener panic did not propagate to Fire's caller")
			}
		}()
		src.Fire(struct{}{})
	}()

	// Delivery stopped at the panicking listener.
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("delivery before the panic = %v, want [1 2]", order)
	}
	if src.SubscriberCount() != 3 {
		t.Fatalf("SubscriberCount() after panic = %d, want 3", src.SubscriberCount())
	}

	// The next fire reaches every listener again.
	order = nil
	src.Fire(struct{}{})
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("delivery after recovering = %v, want [1 2 3]", order)
	}
}

func TestEventSourceMutationDuringFireAffectsNextFireOnly(t *testing.T) {
	src := NewEventSource[*eventOwner, struct{}](&eventOwner{})

	var sub2 Subscription
	calls1, calls2, calls3 := 0, 0, 0

	src.Subscribe(func(*eventOwner, struct{}) {
		calls1++
		// Remove the next listener and add a new one mid-delivery. The
		// current pass must still see the original subscriber list.
		src.Unsubscribe(sub2)
		src.Subscribe(func(*eventOwner, struct{}) { calls3++ })
	})
	sub2 = src.Subscribe(func(*eventOwner, struct{}) { calls2++ })

	src.Fire(struct{}{})
	if calls1 != 1 || calls2 != 1 || calls3 != 0 {
		t.Fatalf("first fire calls = [%d %d %d], want [1 1 0]", calls1, calls2, calls3)
	}

	src.Fire(struct{}{})
	if calls2 != 1 {
		t.Errorf("unsubscribed listener called again, calls2 = %d", calls2)
	}
	if calls3 != 1 {
		t.Errorf("listener added during fire not seen by next fire, calls3 = %d", calls3)
	}
	// calls1 grows by one per fire plus one new calls3 listener per pass.
	if calls1 != 2 {
		t.Errorf("calls1 = %d, want 2", calls1)
	}
}
