package simulator

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/opimobi/ohap-go/ohap"
)

// TreeDef is the root of a simulated installation, loaded from a YAML tree
// definition file. Top-level containers and devices become children of the
// central unit's root container.
type TreeDef struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Containers  []ContainerDef `yaml:"containers"`
	Devices     []DeviceDef    `yaml:"devices"`
}

// ContainerDef describes one container and its subtree.
type ContainerDef struct {
	ID          int64          `yaml:"id"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Internal    bool           `yaml:"internal"`
	Location    LocationDef    `yaml:"location"`
	Containers  []ContainerDef `yaml:"containers"`
	Devices     []DeviceDef    `yaml:"devices"`
}

// DeviceDef describes one device. Type is "actuator" or "sensor"; Value is
// "binary" or "decimal". The decimal fields are pointers so that an absent
// value stays absent instead of becoming zero.
type DeviceDef struct {
	ID           int64       `yaml:"id"`
	Type         string      `yaml:"type"`
	Value        string      `yaml:"value"`
	Name         string      `yaml:"name"`
	Description  string      `yaml:"description"`
	Internal     bool        `yaml:"internal"`
	Location     LocationDef `yaml:"location"`
	Binary       bool        `yaml:"binary"`
	Decimal      *float64    `yaml:"decimal"`
	Min          *float64    `yaml:"min"`
	Max          *float64    `yaml:"max"`
	Unit         string      `yaml:"unit"`
	Abbreviation string      `yaml:"abbreviation"`
}

// LocationDef is an item position in the installation grid.
type LocationDef struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	Z int `yaml:"z"`
}

// LoadTree reads and parses a tree definition file.
func LoadTree(path string) (*TreeDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tree definition: %w", err)
	}
	return ParseTree(data)
}

// ParseTree parses a YAML tree definition.
func ParseTree(data []byte) (*TreeDef, error) {
	var def TreeDef
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse tree definition: %w", err)
	}
	return &def, nil
}

// Build constructs the authoritative item tree described by the definition.
func (def *TreeDef) Build() (*ohap.CentralUnit, error) {
	central, err := ohap.NewCentralUnit("sim://local/", nil)
	if err != nil {
		return nil, err
	}
	central.SetName(def.Name)
	central.SetDescription(def.Description)

	if err := buildChildren(&central.Container, def.Containers, def.Devices); err != nil {
		return nil, err
	}
	return central, nil
}

func buildChildren(parent *ohap.Container, containers []ContainerDef, devices []DeviceDef) error {
	for _, cd := range containers {
		container, err := ohap.NewContainer(parent, cd.ID)
		if err != nil {
			return fmt.Errorf("container %q: %w", cd.Name, err)
		}
		container.SetName(cd.Name)
		container.SetDescription(cd.Description)
		container.SetInternal(cd.Internal)
		container.SetLocation(ohap.Location{X: cd.Location.X, Y: cd.Location.Y, Z: cd.Location.Z})

		if err := buildChildren(container, cd.Containers, cd.Devices); err != nil {
			return err
		}
	}
	for _, dd := range devices {
		if err := buildDevice(parent, dd); err != nil {
			return err
		}
	}
	return nil
}

func buildDevice(parent *ohap.Container, dd DeviceDef) error {
	deviceType, err := parseDeviceType(dd.Type)
	if err != nil {
		return fmt.Errorf("device %q: %w", dd.Name, err)
	}
	valueKind, err := parseValueKind(dd.Value)
	if err != nil {
		return fmt.Errorf("device %q: %w", dd.Name, err)
	}

	device, err := ohap.NewDevice(parent, dd.ID, deviceType, valueKind)
	if err != nil {
		return fmt.Errorf("device %q: %w", dd.Name, err)
	}
	device.SetName(dd.Name)
	device.SetDescription(dd.Description)
	device.SetInternal(dd.Internal)
	device.SetLocation(ohap.Location{X: dd.Location.X, Y: dd.Location.Y, Z: dd.Location.Z})

	switch valueKind {
	case ohap.ValueKindBinary:
		if err := device.SetBinaryValue(dd.Binary); err != nil {
			return err
		}
	case ohap.ValueKindDecimal:
		if dd.Min != nil || dd.Max != nil {
			minValue, maxValue := 0.0, 0.0
			if dd.Min != nil {
				minValue = *dd.Min
			}
			if dd.Max != nil {
				maxValue = *dd.Max
			}
			if err := device.SetMinMaxValues(minValue, maxValue); err != nil {
				return err
			}
		}
		if dd.Unit != "" || dd.Abbreviation != "" {
			if err := device.SetUnit(dd.Unit, dd.Abbreviation); err != nil {
				return err
			}
		}
		if dd.Decimal != nil {
			if err := device.SetDecimalValue(*dd.Decimal); err != nil {
				return err
			}
		}
	}
	return nil
}

func parseDeviceType(s string) (ohap.DeviceType, error) {
	switch s {
	case "actuator":
		return ohap.DeviceTypeActuator, nil
	case "sensor":
		return ohap.DeviceTypeSensor, nil
	default:
		return 0, fmt.Errorf("unknown device type %q (want actuator or sensor)", s)
	}
}

func parseValueKind(s string) (ohap.ValueKind, error) {
	switch s {
	case "binary":
		return ohap.ValueKindBinary, nil
	case "decimal":
		return ohap.ValueKindDecimal, nil
	default:
		return 0, fmt.Errorf("unknown value kind %q (want binary or decimal)", s)
	}
}

// DefaultTree is the demo installation served when no tree definition file is
// given.
func DefaultTree() *TreeDef {
	temp := 21.5
	tempMin, tempMax := -40.0, 60.0
	return &TreeDef{
		Name:        "Simulated house",
		Description: "Built-in demo installation",
		Containers: []ContainerDef{
			{
				ID:   1,
				Name: "Living room",
				Devices: []DeviceDef{
					{ID: 2, Type: "actuator", Value: "binary", Name: "Ceiling lamp"},
					{
						ID: 3, Type: "sensor", Value: "decimal", Name: "Thermometer",
						Decimal: &temp, Min: &tempMin, Max: &tempMax,
						Unit: "celsius", Abbreviation: "°C",
					},
				},
			},
			{
				ID:   4,
				Name: "Hallway",
				Devices: []DeviceDef{
					{ID: 5, Type: "actuator", Value: "binary", Name: "Wall plug"},
				},
			},
		},
	}
}
