package smu

import (
	"encoding/binary"
	"math"
)

// Decode decodes data as a PM table of the given version using the
// built-in layouts.
func Decode(data []byte, version uint32, codename Codename, coreCount int) (*Snapshot, error) {
	return Layouts.Decode(data, version, codename, coreCount)
}

// Decode looks up the layout for version and decodes data with it.
// The version is checked before the buffer is looked at.
func (r Registry) Decode(data []byte, version uint32, codename Codename, coreCount int) (*Snapshot, error) {
	layout, ok := r.Lookup(version)
	if !ok {
		return nil, &Error{Kind: KindUnsupportedVersion, Version: version}
	}
	return DecodeLayout(data, layout, codename, coreCount)
}

// DecodeLayout decodes data with an explicit layout. Values are copied
// verbatim: no clamping, filtering or NaN substitution. Per-core arrays
// the layout marks absent are filled with NaN so every per-core slice
// still has coreCount elements.
func DecodeLayout(data []byte, layout Layout, codename Codename, coreCount int) (*Snapshot, error) {
	if coreCount <= 0 {
		return nil, &Error{Kind: KindCoreCountUnknown}
	}
	// Bounds are checked once up front; nothing below reads past need.
	need := layout.MinSize(coreCount)
	if len(data) < need {
		return nil, &Error{Kind: KindSizeMismatch, Expected: need, Actual: len(data)}
	}

	var scalars [scalarCount]float32
	for i, off := range layout.Scalars {
		scalars[i] = readFloat(data, off)
	}

	var cores [perCoreCount][]float32
	for i, a := range layout.PerCore {
		values := make([]float32, coreCount)
		for core := range values {
			if a.Absent {
				values[core] = float32(math.NaN())
				continue
			}
			values[core] = readFloat(data, a.Offset(core))
		}
		cores[i] = values
	}

	return &Snapshot{
		Version:   layout.Version,
		Codename:  codename,
		CoreCount: coreCount,

		PPTLimit:     scalars[PPTLimit],
		TDCLimit:     scalars[TDCLimit],
		EDCLimit:     scalars[EDCLimit],
		ThermalLimit: scalars[ThermalLimit],
		PPTValue:     scalars[PPTValue],
		TDCValue:     scalars[TDCValue],
		EDCValue:     scalars[EDCValue],
		Tctl:         scalars[Tctl],
		SoCTemp:      scalars[SoCTemp],
		PackagePower: scalars[PackagePower],
		SoCPower:     scalars[SoCPower],
		CoreVoltage:  scalars[CoreVoltage],
		SoCVoltage:   scalars[SoCVoltage],
		FabricClock:  scalars[FabricClock],
		MemoryClock:  scalars[MemoryClock],

		CoreTemps:    cores[CoreTemp],
		CoreFreqs:    cores[CoreFreq],
		CoreFreqsEff: cores[CoreFreqEff],
		CorePower:    cores[CorePower],
		CoreC0:       cores[CoreC0],
	}, nil
}

// ReadFloat returns the little-endian float32 at off, or false when
// the field does not fit in data.
func ReadFloat(data []byte, off int) (float32, bool) {
	if off < 0 || off+FieldWidth > len(data) {
		return 0, false
	}
	return readFloat(data, off), true
}

func readFloat(data []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+FieldWidth]))
}
