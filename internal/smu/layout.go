package smu

import (
	"fmt"
	"math"
	"slices"
)

// FieldWidth is the byte width of every PM table field: a little-endian
// IEEE-754 single-precision float.
const FieldWidth = 4

// Scalar names a single-value field of the PM table.
type Scalar int

const (
	PPTLimit Scalar = iota
	PPTValue
	TDCLimit
	TDCValue
	ThermalLimit
	Tctl
	EDCLimit
	EDCValue
	PackagePower
	SoCPower
	CoreVoltage
	SoCTemp
	SoCVoltage
	FabricClock
	MemoryClock

	scalarCount
)

var scalarNames = [scalarCount]string{
	PPTLimit:     "ppt_limit",
	PPTValue:     "ppt_value",
	TDCLimit:     "tdc_limit",
	TDCValue:     "tdc_value",
	ThermalLimit: "thm_limit",
	Tctl:         "tctl",
	EDCLimit:     "edc_limit",
	EDCValue:     "edc_value",
	PackagePower: "package_power",
	SoCPower:     "soc_power",
	CoreVoltage:  "core_voltage",
	SoCTemp:      "soc_temp",
	SoCVoltage:   "soc_voltage",
	FabricClock:  "fclk",
	MemoryClock:  "mclk",
}

func (s Scalar) String() string {
	if s >= 0 && s < scalarCount {
		return scalarNames[s]
	}
	return fmt.Sprintf("Scalar(%d)", int(s))
}

// Scalars lists every scalar field in declaration order.
func Scalars() []Scalar {
	out := make([]Scalar, scalarCount)
	for i := range out {
		out[i] = Scalar(i)
	}
	return out
}

// PerCore names a per-core array of the PM table.
type PerCore int

const (
	CorePower PerCore = iota
	CoreTemp
	CoreFreq
	CoreFreqEff
	CoreC0

	perCoreCount
)

var perCoreNames = [perCoreCount]string{
	CorePower:   "core_power",
	CoreTemp:    "core_temps",
	CoreFreq:    "core_freqs",
	CoreFreqEff: "core_freqs_eff",
	CoreC0:      "core_c0",
}

func (p PerCore) String() string {
	if p >= 0 && p < perCoreCount {
		return perCoreNames[p]
	}
	return fmt.Sprintf("PerCore(%d)", int(p))
}

// PerCoreArrays lists every per-core array in declaration order.
func PerCoreArrays() []PerCore {
	out := make([]PerCore, perCoreCount)
	for i := range out {
		out[i] = PerCore(i)
	}
	return out
}

// CoreArray locates one per-core array: core i lives at Base + i*Stride.
// An Absent array is not exported by that table version.
type CoreArray struct {
	Base   int
	Stride int
	Absent bool
}

// Offset returns the byte offset of core i.
func (a CoreArray) Offset(core int) int { return a.Base + core*a.Stride }

// Layout is the byte map of one PM table version.
type Layout struct {
	Version uint32
	Name    string
	Scalars [scalarCount]int
	PerCore [perCoreCount]CoreArray
}

// MinSize returns the smallest buffer length that holds every scalar
// and every present per-core array for coreCount cores. A count whose
// extent does not fit in an int yields math.MaxInt, which no buffer
// satisfies.
func (l Layout) MinSize(coreCount int) int {
	size := 0
	for _, off := range l.Scalars {
		size = max(size, off+FieldWidth)
	}
	if coreCount <= 0 {
		return size
	}
	for _, a := range l.PerCore {
		if a.Absent {
			continue
		}
		if a.Stride > 0 && coreCount-1 > (math.MaxInt-a.Base-FieldWidth)/a.Stride {
			return math.MaxInt
		}
		// The last core's field ends at Base + (n-1)*Stride + width,
		// which for the 4-byte stride every layout uses is Base + n*Stride.
		size = max(size, a.Offset(coreCount-1)+FieldWidth)
	}
	return size
}

// Registry maps table versions to layouts. It is immutable once built.
type Registry struct {
	layouts map[uint32]Layout
}

// NewRegistry builds a registry from layouts. A later layout with the
// same version replaces an earlier one.
func NewRegistry(layouts ...Layout) Registry {
	r := Registry{layouts: make(map[uint32]Layout, len(layouts))}
	for _, l := range layouts {
		r.layouts[l.Version] = l
	}
	return r
}

// Lookup returns the layout registered for version.
func (r Registry) Lookup(version uint32) (Layout, bool) {
	l, ok := r.layouts[version]
	return l, ok
}

// Versions returns the registered versions in ascending order.
func (r Registry) Versions() []uint32 {
	out := make([]uint32, 0, len(r.layouts))
	for v := range r.layouts {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

func stride4(base int) CoreArray { return CoreArray{Base: base, Stride: FieldWidth} }

var absent = CoreArray{Absent: true}

// Layout0x240903 is the Matisse/Vermeer (Zen 2/3) table.
var Layout0x240903 = Layout{
	Version: 0x240903,
	Name:    "Matisse/Vermeer",
	Scalars: [scalarCount]int{
		PPTLimit:     0x000,
		PPTValue:     0x004,
		TDCLimit:     0x008,
		TDCValue:     0x00C,
		ThermalLimit: 0x010,
		Tctl:         0x014,
		EDCLimit:     0x020,
		EDCValue:     0x024,
		PackagePower: 0x060,
		SoCPower:     0x064,
		CoreVoltage:  0x0A0,
		SoCTemp:      0x0A8,
		SoCVoltage:   0x0B4,
		FabricClock:  0x0C0,
		MemoryClock:  0x0C8,
	},
	// Above 8 cores the arrays run into each other: core 8 of
	// CoreFreqEff is core 0 of CoreC0, and so on. Each array still
	// decodes from its own base.
	PerCore: [perCoreCount]CoreArray{
		CorePower:   stride4(0x24C),
		CoreTemp:    stride4(0x2C0),
		CoreFreq:    stride4(0x2EC),
		CoreFreqEff: stride4(0x30C),
		CoreC0:      stride4(0x32C),
	},
}

// Layout0x620205 is the Granite Ridge (Zen 5) table. It carries no
// per-core frequency or C0 residency.
var Layout0x620205 = Layout{
	Version: 0x620205,
	Name:    "Granite Ridge",
	Scalars: [scalarCount]int{
		PPTLimit:     0x020,
		PPTValue:     0x024,
		TDCLimit:     0x028,
		TDCValue:     0x02C,
		ThermalLimit: 0x008,
		Tctl:         0x00C,
		EDCLimit:     0x0FC,
		EDCValue:     0x100,
		PackagePower: 0x024,
		SoCPower:     0x054,
		CoreVoltage:  0x048,
		SoCTemp:      0x0F8,
		SoCVoltage:   0x04C,
		FabricClock:  0x11C,
		MemoryClock:  0x12C,
	},
	PerCore: [perCoreCount]CoreArray{
		CorePower:   stride4(0x4B4),
		CoreTemp:    stride4(0x534),
		CoreFreq:    absent,
		CoreFreqEff: absent,
		CoreC0:      absent,
	},
}

// Layouts is the registry of every supported table version.
var Layouts = NewRegistry(Layout0x240903, Layout0x620205)
