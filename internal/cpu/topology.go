// Package cpu enumerates the cores the operating system has online.
// The physical core count is the authoritative hint used to size the
// per-core arrays of a PM table decode; the codename topology is only
// a fallback for when this package cannot tell.
package cpu

import (
	"strings"

	gopsutil "github.com/shirou/gopsutil/v4/cpu"
)

// Topology describes the CPU landscape of the current machine.
type Topology struct {
	// ModelName is the human-readable CPU model string (e.g. "AMD Ryzen 9 5950X 16-Core Processor").
	ModelName string

	// VendorID is the CPUID vendor string ("AuthenticAMD" on Ryzen).
	VendorID string

	// PhysicalCores is the number of online physical (not SMT) cores.
	PhysicalCores int

	// LogicalCores is the number of online logical CPUs.
	LogicalCores int

	// Sockets is the number of populated processor packages.
	Sockets int
}

// Detect reads the CPU topology of the current machine. Detection is
// best-effort: fields that cannot be established are left zero.
func Detect() *Topology {
	t := &Topology{}

	if infos, err := gopsutil.Info(); err == nil && len(infos) > 0 {
		t.ModelName = strings.TrimSpace(infos[0].ModelName)
		t.VendorID = infos[0].VendorID
		sockets := map[string]struct{}{}
		for _, info := range infos {
			if info.PhysicalID != "" {
				sockets[info.PhysicalID] = struct{}{}
			}
		}
		t.Sockets = len(sockets)
	}
	if n, err := gopsutil.Counts(false); err == nil {
		t.PhysicalCores = n
	}
	if n, err := gopsutil.Counts(true); err == nil {
		t.LogicalCores = n
	}

	// Fill whatever the portable probe missed from platform sources.
	detectPlatformTopology(t)

	if t.PhysicalCores > t.LogicalCores && t.LogicalCores > 0 {
		t.PhysicalCores = t.LogicalCores
	}
	return t
}

// ActiveCores returns the number of online physical cores, or 0 when
// it cannot be determined. It is the core-count hint for SMU reads.
func ActiveCores() int {
	return Detect().PhysicalCores
}

// IsAMD reports whether the detected vendor is AMD.
func (t *Topology) IsAMD() bool {
	return t.VendorID == "AuthenticAMD"
}
