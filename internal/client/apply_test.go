package client

import (
	"math"
	"testing"

	"github.com/opimobi/ohap-go/internal/protocol"
	"github.com/opimobi/ohap-go/ohap"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s, err := newMirrorSession("ws://ohap.example.net:18001/")
	if err != nil {
		t.Fatalf("newMirrorSession: %v", err)
	}
	return s
}

func TestApplyContainerAdded(t *testing.T) {
	s := newTestSession(t)

	err := s.apply(protocol.ContainerAdded{
		ID:          3,
		ParentID:    0,
		Name:        "Living room",
		Description: "Downstairs",
		Internal:    false,
		X:           1, Y: 2, Z: 0,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	item, ok := s.CentralUnit().ItemByID(3)
	if !ok {
		t.Fatal("container 3 not in the registry")
	}
	container, ok := item.(*ohap.Container)
	if !ok {
		t.Fatalf("item 3 is %T, want *ohap.Container", item)
	}
	if container.Name() != "Living room" || container.Description() != "Downstairs" {
		t.Errorf("metadata = %q/%q", container.Name(), container.Description())
	}
	if loc := container.Location(); loc != (ohap.Location{X: 1, Y: 2, Z: 0}) {
		t.Errorf("location = %+v", loc)
	}
	if container.Parent() != s.Root() {
		t.Error("container not under the root")
	}

	// Nesting under the new container.
	if err := s.apply(protocol.ContainerAdded{ID: 4, ParentID: 3, Name: "Bookshelf"}); err != nil {
		t.Fatalf("apply nested: %v", err)
	}
	if s.Root().ItemCount() != 1 || container.ItemCount() != 1 {
		t.Errorf("tree shape: root has %d items, container has %d", s.Root().ItemCount(), container.ItemCount())
	}
}

func TestApplyContainerAddedUnknownParent(t *testing.T) {
	s := newTestSession(t)

	if err := s.apply(protocol.ContainerAdded{ID: 3, ParentID: 99}); err == nil {
		t.Fatal("expected error for unknown parent")
	}
	if _, ok := s.CentralUnit().ItemByID(3); ok {
		t.Error("container registered despite the failed apply")
	}
}

func TestApplyDeviceAddedDecimal(t *testing.T) {
	s := newTestSession(t)

	fired := 0
	s.Root().ItemAdded().Subscribe(func(_ *ohap.Container, item ohap.Item) {
		item.(*ohap.Device).ValueChanged().Subscribe(func(*ohap.Device, struct{}) {
			fired++
		})
	})

	err := s.apply(protocol.DeviceAdded{
		ID:               6,
		ParentID:         0,
		DeviceType:       protocol.DeviceSensor,
		ValueKind:        protocol.ValueDecimal,
		Name:             "Thermometer",
		DecimalValue:     21.5,
		MinValue:         -40,
		MaxValue:         60,
		Unit:             "celsius",
		UnitAbbreviation: "°C",
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	item, _ := s.CentralUnit().ItemByID(6)
	device, ok := item.(*ohap.Device)
	if !ok {
		t.Fatalf("item 6 is %T, want *ohap.Device", item)
	}
	if device.Type() != ohap.DeviceTypeSensor || device.ValueKind() != ohap.ValueKindDecimal {
		t.Errorf("type/kind = %v/%v", device.Type(), device.ValueKind())
	}
	if device.DecimalValue() != 21.5 {
		t.Errorf("value = %v, want 21.5", device.DecimalValue())
	}
	if device.MinValue() != -40 || device.MaxValue() != 60 {
		t.Errorf("range = [%v, %v]", device.MinValue(), device.MaxValue())
	}
	if device.Unit() != "celsius" || device.UnitAbbreviation() != "°C" {
		t.Errorf("unit = %q/%q", device.Unit(), device.UnitAbbreviation())
	}
	// A subscriber attached during item-added sees the seeded value arrive.
	if fired != 1 {
		t.Errorf("value-changed fired %d times, want 1", fired)
	}
}

func TestApplyDeviceAddedDecimalWithoutValue(t *testing.T) {
	s := newTestSession(t)

	err := s.apply(protocol.DeviceAdded{
		ID:           6,
		ParentID:     0,
		DeviceType:   protocol.DeviceSensor,
		ValueKind:    protocol.ValueDecimal,
		DecimalValue: math.NaN(),
		MinValue:     math.NaN(),
		MaxValue:     math.NaN(),
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	item, _ := s.CentralUnit().ItemByID(6)
	device := item.(*ohap.Device)
	if !math.IsNaN(device.DecimalValue()) {
		t.Errorf("value = %v, want NaN", device.DecimalValue())
	}
	if !math.IsNaN(device.MinValue()) || !math.IsNaN(device.MaxValue()) {
		t.Errorf("range = [%v, %v], want NaNs", device.MinValue(), device.MaxValue())
	}
}

func TestApplyDeviceAddedBinary(t *testing.T) {
	s := newTestSession(t)

	err := s.apply(protocol.DeviceAdded{
		ID:          7,
		ParentID:    0,
		DeviceType:  protocol.DeviceActuator,
		ValueKind:   protocol.ValueBinary,
		Name:        "Ceiling lamp",
		BinaryValue: true,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	item, _ := s.CentralUnit().ItemByID(7)
	device := item.(*ohap.Device)
	if device.Type() != ohap.DeviceTypeActuator || device.ValueKind() != ohap.ValueKindBinary {
		t.Errorf("type/kind = %v/%v", device.Type(), device.ValueKind())
	}
	if !device.BinaryValue() {
		t.Error("binary value not seeded")
	}
}

func TestApplyDeviceAddedBadEnums(t *testing.T) {
	s := newTestSession(t)

	if err := s.apply(protocol.DeviceAdded{ID: 7, ParentID: 0, DeviceType: 0x7f}); err == nil {
		t.Error("expected error for unknown device type byte")
	}
	if err := s.apply(protocol.DeviceAdded{ID: 7, ParentID: 0, ValueKind: 0x7f}); err == nil {
		t.Error("expected error for unknown value kind byte")
	}
	if _, ok := s.CentralUnit().ItemByID(7); ok {
		t.Error("device registered despite the failed applies")
	}
}

func TestApplyDeviceAddedUnderDevice(t *testing.T) {
	s := newTestSession(t)

	if err := s.apply(protocol.DeviceAdded{ID: 7, ParentID: 0, DeviceType: protocol.DeviceActuator, ValueKind: protocol.ValueBinary}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := s.apply(protocol.DeviceAdded{ID: 8, ParentID: 7, DeviceType: protocol.DeviceActuator, ValueKind: protocol.ValueBinary}); err == nil {
		t.Error("expected error for a device as parent")
	}
}

func TestApplyItemRemoved(t *testing.T) {
	s := newTestSession(t)

	mustApply(t, s, protocol.ContainerAdded{ID: 3, ParentID: 0})
	mustApply(t, s, protocol.DeviceAdded{ID: 6, ParentID: 3, DeviceType: protocol.DeviceSensor, ValueKind: protocol.ValueBinary})

	if err := s.apply(protocol.ItemRemoved{ID: 3}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, ok := s.CentralUnit().ItemByID(3); ok {
		t.Error("container 3 still registered")
	}
	if _, ok := s.CentralUnit().ItemByID(6); ok {
		t.Error("device 6 survived its container's removal")
	}
	if s.Root().ItemCount() != 0 {
		t.Errorf("root still holds %d items", s.Root().ItemCount())
	}

	if err := s.apply(protocol.ItemRemoved{ID: 3}); err == nil {
		t.Error("expected error for a repeated removal")
	}
}

func TestApplyValueChanges(t *testing.T) {
	s := newTestSession(t)

	mustApply(t, s, protocol.DeviceAdded{ID: 6, ParentID: 0, DeviceType: protocol.DeviceSensor, ValueKind: protocol.ValueDecimal, DecimalValue: math.NaN(), MinValue: math.NaN(), MaxValue: math.NaN()})
	mustApply(t, s, protocol.DeviceAdded{ID: 7, ParentID: 0, DeviceType: protocol.DeviceActuator, ValueKind: protocol.ValueBinary})

	if err := s.apply(protocol.DecimalChanged{DeviceID: 6, Value: 19.25}); err != nil {
		t.Fatalf("apply decimal: %v", err)
	}
	if err := s.apply(protocol.BinaryChanged{DeviceID: 7, Value: true}); err != nil {
		t.Fatalf("apply binary: %v", err)
	}

	d6, _ := s.CentralUnit().ItemByID(6)
	if got := d6.(*ohap.Device).DecimalValue(); got != 19.25 {
		t.Errorf("decimal value = %v, want 19.25", got)
	}
	d7, _ := s.CentralUnit().ItemByID(7)
	if !d7.(*ohap.Device).BinaryValue() {
		t.Error("binary value not applied")
	}

	// Changes for identifiers the mirror has never seen are errors the read
	// loop tolerates; they must not disturb the tree.
	if err := s.apply(protocol.BinaryChanged{DeviceID: 99, Value: true}); err == nil {
		t.Error("expected error for unknown device")
	}
	// Kind mismatches surface as errors too.
	if err := s.apply(protocol.BinaryChanged{DeviceID: 6, Value: true}); err == nil {
		t.Error("expected error for a binary change on a decimal device")
	}
}

func TestCheckCommand(t *testing.T) {
	s := newTestSession(t)

	mustApply(t, s, protocol.DeviceAdded{ID: 6, ParentID: 0, DeviceType: protocol.DeviceSensor, ValueKind: protocol.ValueDecimal, DecimalValue: math.NaN(), MinValue: math.NaN(), MaxValue: math.NaN()})
	mustApply(t, s, protocol.DeviceAdded{ID: 7, ParentID: 0, DeviceType: protocol.DeviceActuator, ValueKind: protocol.ValueBinary})
	mustApply(t, s, protocol.ContainerAdded{ID: 3, ParentID: 0})

	if err := s.checkCommand(7, ohap.ValueKindBinary); err != nil {
		t.Errorf("valid command rejected: %v", err)
	}
	if err := s.checkCommand(6, ohap.ValueKindDecimal); err == nil {
		t.Error("command to a sensor accepted")
	}
	if err := s.checkCommand(7, ohap.ValueKindDecimal); err == nil {
		t.Error("kind mismatch accepted")
	}
	if err := s.checkCommand(3, ohap.ValueKindBinary); err == nil {
		t.Error("command to a container accepted")
	}
	// The server is the authority for devices the mirror has not seen.
	if err := s.checkCommand(42, ohap.ValueKindBinary); err != nil {
		t.Errorf("unmirrored device rejected: %v", err)
	}
}

// Commands may be sent from any goroutine while the session goroutine is
// still mirroring the tree, so validation must not touch the live tree. The
// race detector verifies the command index carries that load.
func TestCheckCommandConcurrentWithMirroring(t *testing.T) {
	s := newTestSession(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for id := int64(1); id <= 50; id++ {
			_ = s.apply(protocol.DeviceAdded{
				ID:         id,
				ParentID:   0,
				DeviceType: protocol.DeviceActuator,
				ValueKind:  protocol.ValueBinary,
			})
		}
	}()

	for i := 0; i < 1000; i++ {
		_ = s.checkCommand(25, ohap.ValueKindBinary)
	}
	<-done

	if err := s.checkCommand(25, ohap.ValueKindBinary); err != nil {
		t.Errorf("valid command rejected after mirroring: %v", err)
	}
}

// The command index forgets items that leave the tree, so a command for a
// removed device falls back to server-side validation instead of failing on
// stale shape information.
func TestCheckCommandAfterRemoval(t *testing.T) {
	s := newTestSession(t)

	mustApply(t, s, protocol.ContainerAdded{ID: 3, ParentID: 0})
	mustApply(t, s, protocol.DeviceAdded{ID: 6, ParentID: 3, DeviceType: protocol.DeviceSensor, ValueKind: protocol.ValueBinary})

	if err := s.checkCommand(6, ohap.ValueKindBinary); err == nil {
		t.Fatal("command to a sensor accepted")
	}
	mustApply(t, s, protocol.ItemRemoved{ID: 3})
	if err := s.checkCommand(6, ohap.ValueKindBinary); err != nil {
		t.Errorf("command for a removed device rejected locally: %v", err)
	}
	if err := s.checkCommand(3, ohap.ValueKindBinary); err != nil {
		t.Errorf("command for a removed container rejected locally: %v", err)
	}
}

func mustApply(t *testing.T, s *Session, msg protocol.Message) {
	t.Helper()
	if err := s.apply(msg); err != nil {
		t.Fatalf("apply %T: %v", msg, err)
	}
}
