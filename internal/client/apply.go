package client

import (
	"fmt"
	"math"

	"github.com/opimobi/ohap-go/internal/logging"
	"github.com/opimobi/ohap-go/internal/protocol"
	"github.com/opimobi/ohap-go/ohap"
)

// apply mutates the mirror according to one server update. Errors mean the
// update did not fit the current tree (unknown parent, stale identifier);
// the caller decides whether that is survivable.
func (s *Session) apply(msg protocol.Message) error {
	switch msg := msg.(type) {
	case protocol.ContainerAdded:
		return s.applyContainerAdded(msg)
	case protocol.DeviceAdded:
		return s.applyDeviceAdded(msg)
	case protocol.ItemRemoved:
		return s.applyItemRemoved(msg)
	case protocol.BinaryChanged:
		device, err := s.deviceByID(msg.DeviceID)
		if err != nil {
			return err
		}
		return device.SetBinaryValue(msg.Value)
	case protocol.DecimalChanged:
		device, err := s.deviceByID(msg.DeviceID)
		if err != nil {
			return err
		}
		return device.SetDecimalValue(msg.Value)
	default:
		return fmt.Errorf("unexpected message %T from server", msg)
	}
}

func (s *Session) applyContainerAdded(msg protocol.ContainerAdded) error {
	parent, err := s.containerByID(msg.ParentID)
	if err != nil {
		return err
	}
	container, err := ohap.NewContainer(parent, msg.ID)
	if err != nil {
		return fmt.Errorf("adding container %d: %w", msg.ID, err)
	}
	applyItemFields(container, msg.Name, msg.Description, msg.Internal, msg.X, msg.Y, msg.Z)
	s.rememberTarget(msg.ID, commandTarget{})

	logging.LogItemEvent("container_added", container.ID(), container.Name())
	return nil
}

func (s *Session) applyDeviceAdded(msg protocol.DeviceAdded) error {
	parent, err := s.containerByID(msg.ParentID)
	if err != nil {
		return err
	}

	deviceType, err := deviceTypeFromWire(msg.DeviceType)
	if err != nil {
		return fmt.Errorf("adding device %d: %w", msg.ID, err)
	}
	valueKind, err := valueKindFromWire(msg.ValueKind)
	if err != nil {
		return fmt.Errorf("adding device %d: %w", msg.ID, err)
	}

	device, err := ohap.NewDevice(parent, msg.ID, deviceType, valueKind)
	if err != nil {
		return fmt.Errorf("adding device %d: %w", msg.ID, err)
	}
	applyItemFields(device, msg.Name, msg.Description, msg.Internal, msg.X, msg.Y, msg.Z)
	s.rememberTarget(msg.ID, commandTarget{
		isDevice:   true,
		deviceType: deviceType,
		valueKind:  valueKind,
	})

	// Seed the value state. Setters fire value-changed for anything that
	// differs from the defaults, which is exactly what a consumer that
	// subscribed during the item-added event wants to see.
	switch valueKind {
	case ohap.ValueKindBinary:
		if err := device.SetBinaryValue(msg.BinaryValue); err != nil {
			return err
		}
	case ohap.ValueKindDecimal:
		if !math.IsNaN(msg.MinValue) || !math.IsNaN(msg.MaxValue) {
			if err := device.SetMinMaxValues(msg.MinValue, msg.MaxValue); err != nil {
				return err
			}
		}
		if msg.Unit != "" || msg.UnitAbbreviation != "" {
			if err := device.SetUnit(msg.Unit, msg.UnitAbbreviation); err != nil {
				return err
			}
		}
		if !math.IsNaN(msg.DecimalValue) {
			if err := device.SetDecimalValue(msg.DecimalValue); err != nil {
				return err
			}
		}
	}

	logging.LogItemEvent("device_added", device.ID(), device.Name())
	return nil
}

func (s *Session) applyItemRemoved(msg protocol.ItemRemoved) error {
	item, ok := s.central.ItemByID(msg.ID)
	if !ok {
		return fmt.Errorf("removal of unknown item %d", msg.ID)
	}
	name := item.Name()
	item.Destroy()

	logging.LogItemEvent("item_removed", msg.ID, name)
	return nil
}

// containerByID resolves a parent reference from the wire. Identifier 0 is
// the root container of the central unit.
func (s *Session) containerByID(id int64) (*ohap.Container, error) {
	if id == 0 {
		return &s.central.Container, nil
	}
	item, ok := s.central.ItemByID(id)
	if !ok {
		return nil, fmt.Errorf("unknown container %d", id)
	}
	container, ok := item.(*ohap.Container)
	if !ok {
		return nil, fmt.Errorf("item %d is not a container", id)
	}
	return container, nil
}

func (s *Session) deviceByID(id int64) (*ohap.Device, error) {
	item, ok := s.central.ItemByID(id)
	if !ok {
		return nil, fmt.Errorf("unknown device %d", id)
	}
	device, ok := item.(*ohap.Device)
	if !ok {
		return nil, fmt.Errorf("item %d is not a device", id)
	}
	return device, nil
}

func applyItemFields(item ohap.Item, name, description string, internal bool, x, y, z int32) {
	item.SetName(name)
	item.SetDescription(description)
	item.SetInternal(internal)
	item.SetLocation(ohap.Location{X: int(x), Y: int(y), Z: int(z)})
}

func deviceTypeFromWire(b byte) (ohap.DeviceType, error) {
	switch b {
	case protocol.DeviceActuator:
		return ohap.DeviceTypeActuator, nil
	case protocol.DeviceSensor:
		return ohap.DeviceTypeSensor, nil
	default:
		return 0, fmt.Errorf("unknown device type 0x%02x", b)
	}
}

func valueKindFromWire(b byte) (ohap.ValueKind, error) {
	switch b {
	case protocol.ValueBinary:
		return ohap.ValueKindBinary, nil
	case protocol.ValueDecimal:
		return ohap.ValueKindDecimal, nil
	default:
		return 0, fmt.Errorf("unknown value kind 0x%02x", b)
	}
}
