package smu

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func putFloat(data []byte, off int, v float32) {
	binary.LittleEndian.PutUint32(data[off:], math.Float32bits(v))
}

// syntheticTable returns a buffer of exactly layout.MinSize(cores)
// bytes with recognizable values at every documented offset. Past 8
// cores the 0x240903 arrays overlap and later writes win.
func syntheticTable(layout Layout, cores int) []byte {
	data := make([]byte, layout.MinSize(cores))
	values := map[Scalar]float32{
		PPTLimit:     142.0,
		PPTValue:     89.5,
		TDCLimit:     95.0,
		TDCValue:     62.3,
		ThermalLimit: 90.0,
		Tctl:         65.2,
		EDCLimit:     140.0,
		EDCValue:     98.7,
		PackagePower: 88.5,
		SoCPower:     12.4,
		CoreVoltage:  1.35,
		SoCTemp:      42.1,
		SoCVoltage:   1.10,
		FabricClock:  1800.0,
		MemoryClock:  1800.0,
	}
	for _, s := range Scalars() {
		putFloat(data, layout.Scalars[s], values[s])
	}
	for i := 0; i < cores; i++ {
		f := float32(i)
		arrays := map[PerCore]float32{
			CorePower:   8.0 + f*0.5,
			CoreTemp:    60.0 + f*0.5,
			CoreFreq:    4500.0 + f*50,
			CoreFreqEff: 4400.0 + f*50,
			CoreC0:      90.0 + f,
		}
		for p, v := range arrays {
			if a := layout.PerCore[p]; !a.Absent {
				putFloat(data, a.Offset(i), v)
			}
		}
	}
	return data
}

func TestDecodeVermeerReadings(t *testing.T) {
	data := syntheticTable(Layout0x240903, 8)

	snap, err := Decode(data, 0x240903, Vermeer, 8)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if snap.PPTLimit != 142.0 {
		t.Errorf("PPTLimit = %v, want 142", snap.PPTLimit)
	}
	if snap.Tctl != float32(65.2) {
		t.Errorf("Tctl = %v, want 65.2", snap.Tctl)
	}
	if snap.CoreTemps[7] != 63.5 {
		t.Errorf("CoreTemps[7] = %v, want 63.5", snap.CoreTemps[7])
	}
	if snap.SoCTemp != float32(42.1) {
		t.Errorf("SoCTemp = %v, want 42.1", snap.SoCTemp)
	}
	if snap.MemoryClock != 1800 || snap.FabricClock != 1800 {
		t.Errorf("clocks = %v/%v, want 1800/1800", snap.FabricClock, snap.MemoryClock)
	}
	if snap.Version != 0x240903 || snap.Codename != Vermeer || snap.CoreCount != 8 {
		t.Errorf("tags = %#x %v %d", snap.Version, snap.Codename, snap.CoreCount)
	}
	wantFreqs := []float32{4500, 4550, 4600, 4650, 4700, 4750, 4800, 4850}
	if diff := cmp.Diff(wantFreqs, snap.CoreFreqs); diff != "" {
		t.Errorf("CoreFreqs mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeTruncatedBuffer(t *testing.T) {
	data := syntheticTable(Layout0x240903, 8)[:100]

	_, err := Decode(data, 0x240903, Vermeer, 8)
	if !errors.Is(err, ErrSizeMismatch) {
		t.Fatalf("err = %v, want size mismatch", err)
	}
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("err is %T, want *Error", err)
	}
	if e.Expected != 844 || e.Actual != 100 {
		t.Errorf("Expected/Actual = %d/%d, want 844/100", e.Expected, e.Actual)
	}
}

func TestDecodeUnknownVersion(t *testing.T) {
	data := syntheticTable(Layout0x240903, 8)

	_, err := Decode(data, 0x999999, Vermeer, 8)
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("err = %v, want unsupported version", err)
	}
	var e *Error
	errors.As(err, &e)
	if e.Version != 0x999999 {
		t.Errorf("Version = %#x, want 0x999999", e.Version)
	}

	// The version is rejected before the buffer is examined, so
	// even an empty buffer reports the version.
	if _, err := Decode(nil, 0x999999, Vermeer, 8); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("nil buffer: err = %v, want unsupported version", err)
	}
}

func TestDecodeMinimumSizeBoundary(t *testing.T) {
	for _, version := range Layouts.Versions() {
		layout, _ := Layouts.Lookup(version)
		for _, cores := range []int{1, 4, 8, 12, 16} {
			data := syntheticTable(layout, cores)

			snap, err := Decode(data, version, Unsupported, cores)
			if err != nil {
				t.Fatalf("%#x/%d cores at min size: %v", version, cores, err)
			}
			for _, p := range PerCoreArrays() {
				if got := len(snap.PerCore(p)); got != cores {
					t.Errorf("%#x/%d: len(%v) = %d", version, cores, p, got)
				}
			}

			// Capacity past len must not be touched either.
			short := data[:len(data)-1]
			if _, err := Decode(short, version, Unsupported, cores); !errors.Is(err, ErrSizeMismatch) {
				t.Errorf("%#x/%d one byte short: err = %v, want size mismatch", version, cores, err)
			}
		}
	}
}

// Arrays of 0x240903 overlap past 8 cores, so each array is written
// into its own otherwise zeroed buffer.
func TestDecodeCoreOrder(t *testing.T) {
	layout := Layout0x240903
	for _, cores := range []int{1, 4, 8, 12, 16} {
		for _, p := range PerCoreArrays() {
			data := make([]byte, layout.MinSize(cores))
			for i := 0; i < cores; i++ {
				putFloat(data, layout.PerCore[p].Offset(i), 100+float32(i))
			}
			snap, err := Decode(data, 0x240903, Vermeer, cores)
			if err != nil {
				t.Fatalf("%d cores: %v", cores, err)
			}
			got := snap.PerCore(p)
			if len(got) != cores {
				t.Fatalf("%d cores: len(%v) = %d", cores, p, len(got))
			}
			for i, v := range got {
				if want := 100 + float32(i); v != want {
					t.Errorf("%d cores: %v[%d] = %v, want %v", cores, p, i, v, want)
				}
			}
		}
	}
}

func TestDecodeHugeCoreCount(t *testing.T) {
	data := syntheticTable(Layout0x240903, 8)
	for _, cores := range []int{1 << 62, math.MaxInt, math.MaxInt / FieldWidth} {
		_, err := Decode(data, 0x240903, Vermeer, cores)
		if !errors.Is(err, ErrSizeMismatch) {
			t.Errorf("cores=%d: err = %v, want size mismatch", cores, err)
		}
	}
	if got := Layout0x240903.MinSize(math.MaxInt); got != math.MaxInt {
		t.Errorf("MinSize(MaxInt) = %d, want MaxInt", got)
	}
}

func TestDecodeRoundTripsBits(t *testing.T) {
	layout := Layout0x240903
	values := []float32{
		0, 1, -1, 3.4028235e38, 1.0e-45,
		float32(math.Inf(1)), float32(math.Inf(-1)),
		math.Float32frombits(0x7fc00001), // NaN with payload
	}
	for _, v := range values {
		data := make([]byte, layout.MinSize(4))
		for _, s := range Scalars() {
			putFloat(data, layout.Scalars[s], v)
		}
		snap, err := DecodeLayout(data, layout, Matisse, 4)
		if err != nil {
			t.Fatalf("DecodeLayout: %v", err)
		}
		for _, s := range Scalars() {
			if got := math.Float32bits(snap.Scalar(s)); got != math.Float32bits(v) {
				t.Errorf("%v: bits %#08x, want %#08x", s, got, math.Float32bits(v))
			}
		}
	}
}

func TestDecodePreservesOfflineCoreValues(t *testing.T) {
	data := syntheticTable(Layout0x240903, 8)
	nan := math.Float32frombits(0x7fc00000)
	putFloat(data, Layout0x240903.PerCore[CoreTemp].Offset(3), nan)
	putFloat(data, Layout0x240903.PerCore[CoreFreq].Offset(5), 0)
	putFloat(data, Layout0x240903.PerCore[CorePower].Offset(6), 0.0001)

	snap, err := Decode(data, 0x240903, Vermeer, 8)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if math.Float32bits(snap.CoreTemps[3]) != 0x7fc00000 {
		t.Errorf("CoreTemps[3] = %v, want NaN kept", snap.CoreTemps[3])
	}
	if snap.CoreFreqs[5] != 0 {
		t.Errorf("CoreFreqs[5] = %v, want 0", snap.CoreFreqs[5])
	}
	if snap.CorePower[6] != 0.0001 {
		t.Errorf("CorePower[6] = %v, want residual kept", snap.CorePower[6])
	}
}

func TestDecodeAbsentArraysKeepLength(t *testing.T) {
	data := syntheticTable(Layout0x620205, 16)

	snap, err := Decode(data, 0x620205, GraniteRidge, 16)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if snap.PPTLimit != 142.0 || snap.Tctl != float32(65.2) || snap.SoCTemp != float32(42.1) {
		t.Errorf("scalars = %v %v %v", snap.PPTLimit, snap.Tctl, snap.SoCTemp)
	}
	if snap.CoreTemps[15] != 67.5 {
		t.Errorf("CoreTemps[15] = %v, want 67.5", snap.CoreTemps[15])
	}
	for _, p := range []PerCore{CoreFreq, CoreFreqEff, CoreC0} {
		values := snap.PerCore(p)
		if len(values) != 16 {
			t.Fatalf("len(%v) = %d, want 16", p, len(values))
		}
		for i, v := range values {
			if !math.IsNaN(float64(v)) {
				t.Errorf("%v[%d] = %v, want NaN", p, i, v)
			}
		}
	}
}

func TestDecodeDeterministic(t *testing.T) {
	data := syntheticTable(Layout0x620205, 8)
	first, err := Decode(data, 0x620205, GraniteRidge, 8)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	second, err := Decode(data, 0x620205, GraniteRidge, 8)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(first, second, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("repeated decode differs:\n%s", diff)
	}
}

func TestDecodeRejectsNonPositiveCoreCount(t *testing.T) {
	data := syntheticTable(Layout0x240903, 8)
	for _, cores := range []int{0, -1} {
		if _, err := Decode(data, 0x240903, Vermeer, cores); !errors.Is(err, ErrCoreCountUnknown) {
			t.Errorf("cores=%d: err = %v, want core count unknown", cores, err)
		}
	}
}

func TestMinSize(t *testing.T) {
	tests := []struct {
		layout Layout
		cores  int
		want   int
	}{
		{Layout0x240903, 1, 0x32C + 4},
		{Layout0x240903, 8, 844},
		{Layout0x240903, 16, 0x32C + 16*4},
		{Layout0x620205, 16, 0x534 + 16*4},
		{Layout0x240903, 0, 0x0C8 + 4},
	}
	for _, tt := range tests {
		if got := tt.layout.MinSize(tt.cores); got != tt.want {
			t.Errorf("%s MinSize(%d) = %d, want %d", tt.layout.Name, tt.cores, got, tt.want)
		}
	}
}

func TestRegistryAddsVersionsWithoutDecoderChanges(t *testing.T) {
	custom := Layout0x240903
	custom.Version = 0x123456
	custom.Name = "test"
	registry := NewRegistry(custom)

	data := syntheticTable(custom, 4)
	snap, err := registry.Decode(data, 0x123456, Unsupported, 4)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if snap.Version != 0x123456 {
		t.Errorf("Version = %#x", snap.Version)
	}
	if _, err := registry.Decode(data, 0x240903, Vermeer, 4); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("built-in version in custom registry: err = %v", err)
	}
	if diff := cmp.Diff([]uint32{0x240903, 0x620205}, Layouts.Versions()); diff != "" {
		t.Errorf("Versions (-want +got):\n%s", diff)
	}
}
