package ohap

import (
	"fmt"
	"math"
)

// DeviceType tells whether a device accepts commands or only reports.
type DeviceType int

const (
	// DeviceTypeActuator devices accept value changes from the client.
	DeviceTypeActuator DeviceType = iota
	// DeviceTypeSensor devices only report values measured by the
	// installation.
	DeviceTypeSensor
)

// String returns the lower-case name of the device type.
func (t DeviceType) String() string {
	switch t {
	case DeviceTypeActuator:
		return "actuator"
	case DeviceTypeSensor:
		return "sensor"
	default:
		return fmt.Sprintf("DeviceType(%d)", int(t))
	}
}

// ValueKind tells which of a device's value accessors are meaningful. The
// kind is fixed at construction; the accessors of the other kind return
// ErrValueKind.
type ValueKind int

const (
	// ValueKindBinary devices carry an on/off value.
	ValueKindBinary ValueKind = iota
	// ValueKindDecimal devices carry a floating-point value with an optional
	// range and unit.
	ValueKindDecimal
)

// String returns the lower-case name of the value kind.
func (k ValueKind) String() string {
	switch k {
	case ValueKindBinary:
		return "binary"
	case ValueKindDecimal:
		return "decimal"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// Device is a leaf item carrying one typed value: a lamp, a thermometer, a
// wall plug. The fields of the kind the device was constructed without keep
// their sentinels permanently (false for the binary value, NaN for the
// decimal value and its range, empty strings for the unit).
type Device struct {
	itemBase

	deviceType DeviceType
	valueKind  ValueKind

	binaryValue      bool
	decimalValue     float64
	minValue         float64
	maxValue         float64
	unit             string
	unitAbbreviation string

	valueChanged *EventSource[*Device, struct{}]
}

// NewDevice constructs a device under parent with the given identifier,
// device type and value kind, and links it into the tree. Returns
// ErrNoParent, ErrInvalidID or ErrDuplicateID when the arguments do not make
// a valid item, or a plain error for an unknown type or kind.
func NewDevice(parent *Container, id int64, deviceType DeviceType, valueKind ValueKind) (*Device, error) {
	switch deviceType {
	case DeviceTypeActuator, DeviceTypeSensor:
	default:
		return nil, fmt.Errorf("ohap: unknown device type %d", int(deviceType))
	}
	switch valueKind {
	case ValueKindBinary, ValueKindDecimal:
	default:
		return nil, fmt.Errorf("ohap: unknown value kind %d", int(valueKind))
	}

	d := &Device{
		deviceType:   deviceType,
		valueKind:    valueKind,
		decimalValue: math.NaN(),
		minValue:     math.NaN(),
		maxValue:     math.NaN(),
	}
	d.valueChanged = NewEventSource[*Device, struct{}](d)
	if err := d.link(d, parent, id); err != nil {
		return nil, err
	}
	return d, nil
}

// Type returns the device type chosen at construction.
func (d *Device) Type() DeviceType {
	return d.deviceType
}

// ValueKind returns the value kind chosen at construction.
func (d *Device) ValueKind() ValueKind {
	return d.valueKind
}

// ValueChanged is the event source fired after the device's value has
// changed. The payload is empty; listeners re-read the value from the device.
func (d *Device) ValueChanged() *EventSource[*Device, struct{}] {
	return d.valueChanged
}

// BinaryValue returns the binary value, or false when the device is not of
// the binary kind.
func (d *Device) BinaryValue() bool {
	return d.binaryValue
}

// SetBinaryValue stores a new binary value and fires the value-changed event.
// Storing the current value again fires nothing. Returns ErrValueKind when
// the device is not of the binary kind.
func (d *Device) SetBinaryValue(value bool) error {
	if d.valueKind != ValueKindBinary {
		return fmt.Errorf("%w: binary value on a %s device", ErrValueKind, d.valueKind)
	}
	if d.binaryValue == value {
		return nil
	}
	d.binaryValue = value
	d.valueChanged.Fire(struct{}{})
	return nil
}

// DecimalValue returns the decimal value, or NaN when the device is not of
// the decimal kind or the value has not been set yet.
func (d *Device) DecimalValue() float64 {
	return d.decimalValue
}

// SetDecimalValue stores a new decimal value and fires the value-changed
// event. Storing a value exactly equal to the current one fires nothing.
// Returns ErrValueKind when the device is not of the decimal kind.
func (d *Device) SetDecimalValue(value float64) error {
	if d.valueKind != ValueKindDecimal {
		return fmt.Errorf("%w: decimal value on a %s device", ErrValueKind, d.valueKind)
	}
	if d.decimalValue == value {
		return nil
	}
	d.decimalValue = value
	d.valueChanged.Fire(struct{}{})
	return nil
}

// MinValue returns the lower bound of the decimal value, or NaN when the
// device is not of the decimal kind or no range has been set.
func (d *Device) MinValue() float64 {
	return d.minValue
}

// MaxValue returns the upper bound of the decimal value, or NaN when the
// device is not of the decimal kind or no range has been set.
func (d *Device) MaxValue() float64 {
	return d.maxValue
}

// SetMinMaxValues stores the range of the decimal value. The range is
// metadata; no value-changed event fires. Returns ErrValueKind when the
// device is not of the decimal kind.
func (d *Device) SetMinMaxValues(minValue, maxValue float64) error {
	if d.valueKind != ValueKindDecimal {
		return fmt.Errorf("%w: value range on a %s device", ErrValueKind, d.valueKind)
	}
	d.minValue = minValue
	d.maxValue = maxValue
	return nil
}

// Unit returns the unit of the decimal value as text ("celsius"), or the
// empty string when the device is not of the decimal kind or no unit has
// been set.
func (d *Device) Unit() string {
	return d.unit
}

// UnitAbbreviation returns the abbreviated unit of the decimal value ("°C"),
// or the empty string when the device is not of the decimal kind or no unit
// has been set.
func (d *Device) UnitAbbreviation() string {
	return d.unitAbbreviation
}

// SetUnit stores the unit of the decimal value and its abbreviation. The
// unit is metadata; no value-changed event fires. Returns ErrValueKind when
// the device is not of the decimal kind.
func (d *Device) SetUnit(unit, abbreviation string) error {
	if d.valueKind != ValueKindDecimal {
		return fmt.Errorf("%w: unit on a %s device", ErrValueKind, d.valueKind)
	}
	d.unit = unit
	d.unitAbbreviation = abbreviation
	return nil
}
