// Generic CPU topology detection fallback for non-Linux platforms.

//go:build !linux

package cpu

// detectPlatformTopology is a no-op outside Linux; the ryzen_smu
// driver only exists there.
func detectPlatformTopology(t *Topology) {}
