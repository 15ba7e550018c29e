package protocol

// Message type bytes. The high bit marks server-to-client traffic.
const (
	TypeListen         byte = 0x01
	TypeUnlisten       byte = 0x02
	TypeSetBinary      byte = 0x03
	TypeSetDecimal     byte = 0x04
	TypeContainerAdded byte = 0x81
	TypeDeviceAdded    byte = 0x82
	TypeItemRemoved    byte = 0x83
	TypeBinaryChanged  byte = 0x84
	TypeDecimalChanged byte = 0x85
)

// Device type wire values.
const (
	DeviceActuator byte = 0x00
	DeviceSensor   byte = 0x01
)

// Value kind wire values.
const (
	ValueBinary  byte = 0x00
	ValueDecimal byte = 0x01
)

// Message is one protocol message in either direction.
type Message interface {
	// MessageType returns the message's wire type byte.
	MessageType() byte
}

// Listen asks the server to start reporting changes to the children of a
// container. Identifier 0 is the root container of the central unit.
type Listen struct {
	ContainerID int64
}

// Unlisten cancels a Listen for the same container.
type Unlisten struct {
	ContainerID int64
}

// SetBinary commands a binary actuator to a new value.
type SetBinary struct {
	DeviceID int64
	Value    bool
}

// SetDecimal commands a decimal actuator to a new value.
type SetDecimal struct {
	DeviceID int64
	Value    float64
}

// ContainerAdded reports a new container under ParentID.
type ContainerAdded struct {
	ID          int64
	ParentID    int64
	Name        string
	Description string
	Internal    bool
	X, Y, Z     int32
}

// DeviceAdded reports a new device under ParentID, including the full value
// state so the client can mirror it without further round trips. The decimal
// fields are meaningful only when ValueKind is ValueDecimal, the binary value
// only when it is ValueBinary.
type DeviceAdded struct {
	ID               int64
	ParentID         int64
	DeviceType       byte
	ValueKind        byte
	Name             string
	Description      string
	Internal         bool
	X, Y, Z          int32
	BinaryValue      bool
	DecimalValue     float64
	MinValue         float64
	MaxValue         float64
	Unit             string
	UnitAbbreviation string
}

// ItemRemoved reports that an item left the tree. Removing a container
// implies its whole subtree.
type ItemRemoved struct {
	ID int64
}

// BinaryChanged reports a binary device's new value.
type BinaryChanged struct {
	DeviceID int64
	Value    bool
}

// DecimalChanged reports a decimal device's new value.
type DecimalChanged struct {
	DeviceID int64
	Value    float64
}

func (Listen) MessageType() byte         { return TypeListen }
func (Unlisten) MessageType() byte       { return TypeUnlisten }
func (SetBinary) MessageType() byte      { return TypeSetBinary }
func (SetDecimal) MessageType() byte     { return TypeSetDecimal }
func (ContainerAdded) MessageType() byte { return TypeContainerAdded }
func (DeviceAdded) MessageType() byte    { return TypeDeviceAdded }
func (ItemRemoved) MessageType() byte    { return TypeItemRemoved }
func (BinaryChanged) MessageType() byte  { return TypeBinaryChanged }
func (DecimalChanged) MessageType() byte { return TypeDecimalChanged }
