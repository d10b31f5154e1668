//go:build linux

package cpu

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// detectPlatformTopology is the Linux implementation. It falls back to
// sysfs when gopsutil could not produce core counts (restricted
// /proc, unusual cpuinfo layouts), and to the scheduler affinity mask
// for the logical count as a last resort.
func detectPlatformTopology(t *Topology) {
	detectFromSysfs(t, "/sys")
	if t.LogicalCores == 0 {
		var set unix.CPUSet
		if err := unix.SchedGetaffinity(0, &set); err == nil {
			t.LogicalCores = set.Count()
		}
	}
}

func detectFromSysfs(t *Topology, sysRoot string) {
	cpuBase := filepath.Join(sysRoot, "devices/system/cpu")
	cores, logical, sockets := countOnlineTopology(cpuBase)
	if t.PhysicalCores == 0 {
		t.PhysicalCores = cores
	}
	if t.LogicalCores == 0 {
		t.LogicalCores = logical
	}
	if t.Sockets == 0 {
		t.Sockets = sockets
	}
}

// countOnlineTopology counts unique (physical_package_id, core_id)
// pairs, online logical CPUs, and unique packages under cpuBase.
// Offline CPUs have online=0 and are skipped; cpu0 has no online file.
func countOnlineTopology(cpuBase string) (cores, logical, sockets int) {
	entries, err := os.ReadDir(cpuBase)
	if err != nil {
		return 0, 0, 0
	}

	type coreKey struct {
		packageID string
		coreID    string
	}
	uniqueCores := make(map[coreKey]struct{})
	uniquePackages := make(map[string]struct{})

	for _, entry := range entries {
		name := entry.Name()
		if !isCPUDir(name) {
			continue
		}
		cpuDir := filepath.Join(cpuBase, name)
		if readTrimmed(filepath.Join(cpuDir, "online")) == "0" {
			continue
		}
		packageID := readTrimmed(filepath.Join(cpuDir, "topology", "physical_package_id"))
		coreID := readTrimmed(filepath.Join(cpuDir, "topology", "core_id"))
		if packageID == "" || coreID == "" {
			continue
		}
		logical++
		uniqueCores[coreKey{packageID, coreID}] = struct{}{}
		uniquePackages[packageID] = struct{}{}
	}
	return len(uniqueCores), logical, len(uniquePackages)
}

// isCPUDir matches cpuN directory names (not cpufreq, cpuidle, ...).
func isCPUDir(name string) bool {
	suffix, ok := strings.CutPrefix(name, "cpu")
	if !ok || suffix == "" {
		return false
	}
	for _, c := range suffix {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func readTrimmed(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
