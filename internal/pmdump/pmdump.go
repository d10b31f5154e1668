// Package pmdump inspects raw PM tables for offset discovery: it dumps
// every 4-byte slot as a float, searches slots by value range, and
// scans for runs of consecutive in-range slots the way per-core arrays
// appear in the table.
package pmdump

import (
	"fmt"
	"io"

	"github.com/hartyporpoise/smusensors/internal/smu"
)

// Slot is one 4-byte field of the table.
type Slot struct {
	Offset int
	Value  float32

	// Label names the decoded field at Offset, if any.
	Label string
}

// Index is the slot number (Offset / 4).
func (s Slot) Index() int { return s.Offset / smu.FieldWidth }

// Range is an open value interval (Min, Max).
type Range struct {
	Min, Max float32
}

// Contains reports whether Min < v < Max. NaN is never contained.
func (r Range) Contains(v float32) bool {
	return v > r.Min && v < r.Max
}

// Labels maps offsets to field names for layout decoded with
// coreCount cores. Per-core fields are named like "core_temps[3]".
func Labels(layout smu.Layout, coreCount int) map[int]string {
	labels := make(map[int]string)
	for _, s := range smu.Scalars() {
		labels[layout.Scalars[s]] = s.String()
	}
	for _, p := range smu.PerCoreArrays() {
		a := layout.PerCore[p]
		if a.Absent {
			continue
		}
		for core := 0; core < coreCount; core++ {
			labels[a.Offset(core)] = fmt.Sprintf("%s[%d]", p, core)
		}
	}
	return labels
}

// Dump returns every whole 4-byte slot in data, labelled from labels
// (which may be nil). A trailing partial slot is ignored.
func Dump(data []byte, labels map[int]string) []Slot {
	out := make([]Slot, 0, len(data)/smu.FieldWidth)
	for off := 0; off+smu.FieldWidth <= len(data); off += smu.FieldWidth {
		v, _ := smu.ReadFloat(data, off)
		out = append(out, Slot{Offset: off, Value: v, Label: labels[off]})
	}
	return out
}

// Search returns the slots of data whose value lies in r.
func Search(data []byte, r Range, labels map[int]string) []Slot {
	var out []Slot
	for _, s := range Dump(data, labels) {
		if r.Contains(s.Value) {
			out = append(out, s)
		}
	}
	return out
}

// Array is a run of consecutive slots that all fall in a range.
type Array struct {
	Offset int
	Values []float32
}

// Mean returns the average of the run.
func (a Array) Mean() float32 {
	if len(a.Values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range a.Values {
		sum += float64(v)
	}
	return float32(sum / float64(len(a.Values)))
}

// FindArrays returns every window of n consecutive slots whose values
// all lie in r, one per starting offset. Overlapping windows are all
// reported.
func FindArrays(data []byte, n int, r Range) []Array {
	if n <= 0 {
		return nil
	}
	slots := len(data) / smu.FieldWidth
	values := make([]float32, slots)
	for i := range values {
		values[i], _ = smu.ReadFloat(data, i*smu.FieldWidth)
	}

	var out []Array
	run := 0
	for i, v := range values {
		if !r.Contains(v) {
			run = 0
			continue
		}
		run++
		if run >= n {
			start := i - n + 1
			out = append(out, Array{
				Offset: start * smu.FieldWidth,
				Values: append([]float32(nil), values[start:i+1]...),
			})
		}
	}
	return out
}

// WriteSlots prints one line per slot.
func WriteSlots(w io.Writer, slots []Slot) error {
	for _, s := range slots {
		label := ""
		if s.Label != "" {
			label = "  <- " + s.Label
		}
		if _, err := fmt.Fprintf(w, "  0x%04X (field %3d): %12.4f%s\n", s.Offset, s.Index(), s.Value, label); err != nil {
			return err
		}
	}
	return nil
}

// WriteArrays prints each run with its mean and per-element values.
func WriteArrays(w io.Writer, arrays []Array) error {
	for _, a := range arrays {
		if _, err := fmt.Fprintf(w, "\n  0x%04X: avg=%.2f\n", a.Offset, a.Mean()); err != nil {
			return err
		}
		for i, v := range a.Values {
			if _, err := fmt.Fprintf(w, "    [%2d] %.2f\n", i, v); err != nil {
				return err
			}
		}
	}
	return nil
}
