package ohap

import (
	"errors"
	"testing"
)

func TestCentralUnitURL(t *testing.T) {
	cu, err := NewCentralUnit("ws://ohap.example.net:18001/home", nil)
	if err != nil {
		t.Fatalf("NewCentralUnit() error = %v", err)
	}
	if got := cu.URL().String(); got != "ws://ohap.example.net:18001/home" {
		t.Errorf("URL() = %q", got)
	}

	if _, err := NewCentralUnit("://not-a-url", nil); err == nil {
		t.Error("NewCentralUnit with malformed URL succeeded")
	}
}

func TestCentralUnitIsAnUnparentedRoot(t *testing.T) {
	cu := newTestCentralUnit(t)

	if cu.ID() != 0 {
		t.Errorf("central unit ID() = %d, want 0", cu.ID())
	}
	if cu.Parent() != nil {
		t.Error("central unit has a parent")
	}
	if cu.CentralUnit() != cu {
		t.Error("central unit's CentralUnit() is not itself")
	}
	// Identifier 0 is reserved for the central unit but not registered.
	if _, ok := cu.ItemByID(0); ok {
		t.Error("ItemByID(0) finds the central unit in its own registry")
	}
}

func TestCentralUnitRejectsDuplicateIdentifier(t *testing.T) {
	cu := newTestCentralUnit(t)
	c, err := NewContainer(&cu.Container, 7)
	if err != nil {
		t.Fatalf("NewContainer() error = %v", err)
	}

	registered := 0
	cu.ItemRegistered().Subscribe(func(*CentralUnit, Item) { registered++ })

	if _, err := NewDevice(&cu.Container, 7, DeviceTypeSensor, ValueKindBinary); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("duplicate NewDevice() error = %v, want ErrDuplicateID", err)
	}

	// The prior mapping, registry size and tree are untouched, and nothing
	// was announced for the rejected item.
	if got, ok := cu.ItemByID(7); !ok || got != Item(c) {
		t.Error("ItemByID(7) no longer returns the original container")
	}
	if cu.ItemIDCount() != 1 {
		t.Errorf("registry size = %d, want 1", cu.ItemIDCount())
	}
	if cu.ItemCount() != 1 {
		t.Errorf("root child count = %d, want 1", cu.ItemCount())
	}
	if registered != 0 {
		t.Errorf("item-registered fired %d times for a rejected item", registered)
	}
}

func TestCentralUnitLookupAcrossLevels(t *testing.T) {
	cu := newTestCentralUnit(t)
	floor, _ := NewContainer(&cu.Container, 2)
	room, _ := NewContainer(floor, 3)
	lamp, _ := NewDevice(room, 4, DeviceTypeActuator, ValueKindBinary)

	if got, ok := cu.ItemByID(4); !ok || got != Item(lamp) {
		t.Error("ItemByID(4) does not find the deeply nested device")
	}
	if _, ok := cu.ItemByID(99); ok {
		t.Error("ItemByID(99) finds a nonexistent item")
	}
	if _, ok := cu.ItemByID(DestroyedID); ok {
		t.Error("ItemByID(DestroyedID) finds an item")
	}
}

// TestCentralUnitMirrorScenario walks the documented end-to-end scenario:
// build a small tree, observe a value change, tear a subtree down.
func TestCentralUnitMirrorScenario(t *testing.T) {
	cu, err := NewCentralUnit("http://example/", nil)
	if err != nil {
		t.Fatalf("NewCentralUnit() error = %v", err)
	}

	g, err := NewContainer(&cu.Container, 5)
	if err != nil {
		t.Fatalf("NewContainer() error = %v", err)
	}
	d, err := NewDevice(g, 6, DeviceTypeActuator, ValueKindDecimal)
	if err != nil {
		t.Fatalf("NewDevice() error = %v", err)
	}
	if err := d.SetMinMaxValues(0, 100); err != nil {
		t.Fatalf("SetMinMaxValues() error = %v", err)
	}

	valueChanges := 0
	d.ValueChanged().Subscribe(func(owner *Device, _ struct{}) {
		valueChanges++
		if owner != d {
			t.Error("value-changed owner is not the device")
		}
	})

	if err := d.SetDecimalValue(42); err != nil {
		t.Fatalf("SetDecimalValue() error = %v", err)
	}
	if valueChanges != 1 {
		t.Errorf("value-changed fired %d times, want 1", valueChanges)
	}
	if got, ok := cu.ItemByID(6); !ok || got != Item(d) {
		t.Error("ItemByID(6) does not return the device")
	}

	deviceDestroyed := 0
	d.Destroyed().Subscribe(func(Item, struct{}) { deviceDestroyed++ })

	g.Destroy()

	if deviceDestroyed != 1 {
		t.Errorf("device destroyed event fired %d times, want 1", deviceDestroyed)
	}
	if _, ok := cu.ItemByID(6); ok {
		t.Error("ItemByID(6) still finds the device after its container was destroyed")
	}
	if _, ok := cu.ItemByID(5); ok {
		t.Error("ItemByID(5) still finds the destroyed container")
	}
}
