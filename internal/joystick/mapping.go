package joystick

import (
	"math"
	"strings"
)

// AxisMapping defines how a raw axis index maps to a controller input.
type AxisMapping struct {
	Index     int32
	Target    string // "LS.x", "LS.y", "RS.x", "RS.y", "LT", "RT"
	IsTrigger bool
	Invert    bool
	// For triggers: raw range. Some devices use -32768..32767, others 0..32767.
	RawMin int16
	RawMax int16
}

// Control returns the control symbol of the target and, for stick axes,
// which component it drives.
func (a AxisMapping) Control() (symbol, component string) {
	symbol, component, _ = strings.Cut(a.Target, ".")
	return symbol, component
}

// ButtonMapping defines how a raw button index maps to a control symbol.
type ButtonMapping struct {
	Index  int32
	Target string // "A", "B", "X", "Y", "LB", "RB", "back", "start", "guide", "LSb", "RSb"
}

// DeviceMapping holds the complete mapping for a specific device type.
type DeviceMapping struct {
	Name    string
	Axes    []AxisMapping
	Buttons []ButtonMapping
	HasHat  bool
}

// NormalizeAxis converts a raw axis value (-32768..32767) to -1.0..1.0.
func NormalizeAxis(raw int16) float64 {
	v := float64(raw) / math.MaxInt16
	if v < -1.0 {
		v = -1.0
	}
	return v
}

// NormalizeTrigger converts a raw trigger value to 0.0..1.0.
func NormalizeTrigger(raw int16, rawMin, rawMax int16) float64 {
	if rawMax == rawMin {
		return 0
	}
	v := (float64(raw) - float64(rawMin)) / (float64(rawMax) - float64(rawMin))
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return v
}

// ApplyDeadzone returns 0 if the value is within the deadzone threshold.
func ApplyDeadzone(v float64, threshold float64) float64 {
	if math.Abs(v) < threshold {
		return 0
	}
	return v
}

var standardAxes = []AxisMapping{
	{Index: 0, Target: "LS.x"},
	{Index: 1, Target: "LS.y", Invert: true},
	{Index: 2, Target: "RS.x"},
	{Index: 3, Target: "RS.y", Invert: true},
	{Index: 4, Target: "LT", IsTrigger: true, RawMin: -32768, RawMax: 32767},
	{Index: 5, Target: "RT", IsTrigger: true, RawMin: -32768, RawMax: 32767},
}

var standardButtons = []ButtonMapping{
	{Index: 0, Target: "A"},
	{Index: 1, Target: "B"},
	{Index: 2, Target: "X"},
	{Index: 3, Target: "Y"},
	{Index: 4, Target: "LB"},
	{Index: 5, Target: "RB"},
	{Index: 6, Target: "back"},
	{Index: 7, Target: "start"},
	{Index: 8, Target: "LSb"},
	{Index: 9, Target: "RSb"},
	{Index: 10, Target: "guide"},
}

// Built-in mappings for common controllers.

var xboxMapping = &DeviceMapping{
	Name:    "xbox",
	Axes:    standardAxes,
	Buttons: standardButtons,
	HasHat:  true,
}

var playstationMapping = &DeviceMapping{
	Name: "playstation",
	Axes: standardAxes,
	Buttons: []ButtonMapping{
		{Index: 0, Target: "A"},     // Cross (×)
		{Index: 1, Target: "B"},     // Circle (○)
		{Index: 2, Target: "X"},     // Square (□)
		{Index: 3, Target: "Y"},     // Triangle (△)
		{Index: 4, Target: "back"},  // Share / Create
		{Index: 5, Target: "guide"}, // PS button
		{Index: 6, Target: "start"}, // Options
		{Index: 7, Target: "LSb"},
		{Index: 8, Target: "RSb"},
		{Index: 9, Target: "LB"},  // L1
		{Index: 10, Target: "RB"}, // R1
	},
	HasHat: true,
}

// The Switch Pro reports its triggers as buttons.
var switchProMapping = &DeviceMapping{
	Name: "switch_pro",
	Axes: standardAxes[:4],
	Buttons: append(standardButtons[:11:11],
		ButtonMapping{Index: 11, Target: "LTb"},
		ButtonMapping{Index: 12, Target: "RTb"},
	),
	HasHat: true,
}

var genericMapping = &DeviceMapping{
	Name:    "generic",
	Axes:    standardAxes,
	Buttons: standardButtons,
	HasHat:  true,
}

// Known vendor/product IDs.
type deviceKey struct {
	VendorID  uint16
	ProductID uint16
}

var knownDevices = map[deviceKey]*DeviceMapping{
	// Microsoft Xbox controllers
	{0x045E, 0x028E}: xboxMapping, // Xbox 360
	{0x045E, 0x02FF}: xboxMapping, // Xbox One
	{0x045E, 0x0B12}: xboxMapping, // Xbox Series X|S
	{0x045E, 0x0B13}: xboxMapping, // Xbox Series X|S (wireless)
	// Sony PlayStation controllers
	{0x054C, 0x0CE6}: playstationMapping, // DualSense
	{0x054C, 0x09CC}: playstationMapping, // DualShock 4 v2
	{0x054C, 0x05C4}: playstationMapping, // DualShock 4 v1
	// Nintendo Switch Pro Controller
	{0x057E, 0x2009}: switchProMapping,
}

// GetMapping returns the appropriate mapping for a device identified by vendor/product ID.
// Falls back to generic mapping if no specific mapping is found.
func GetMapping(vendorID, productID uint16) *DeviceMapping {
	key := deviceKey{VendorID: vendorID, ProductID: productID}
	if m, ok := knownDevices[key]; ok {
		return m
	}
	return genericMapping
}
