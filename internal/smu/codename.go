package smu

import "fmt"

// Codename is the processor family identity reported by the ryzen_smu
// driver. The numeric values are the driver's codename ids.
type Codename uint32

const (
	Unsupported Codename = iota
	Colfax
	Renoir
	Picasso
	Matisse
	Threadripper
	CastlePeak
	Raven
	Raven2
	SummitRidge
	PinnacleRidge
	Rembrandt
	Vermeer
	VanGogh
	Cezanne
	Milan
	Dali
	Lucienne
	Naples
	Chagall
	Raphael
	Phoenix
	HawkPoint
	GraniteRidge
	StrixPoint
	StormPeak
)

// Topology holds the core-layout defaults of a processor family.
type Topology struct {
	// CoresPerDie is the number of cores on one compute die (CCD).
	CoresPerDie int
	// MaxDies is the largest number of compute dies the family ships with.
	MaxDies int
}

// Cores returns CoresPerDie × MaxDies.
func (t Topology) Cores() int { return t.CoresPerDie * t.MaxDies }

type codenameInfo struct {
	name     string
	topology Topology
}

// codenames is the complete family table. Families that are not
// listed resolve to Unsupported and carry no topology.
var codenames = map[Codename]codenameInfo{
	Colfax:        {"Colfax", Topology{CoresPerDie: 8, MaxDies: 4}},
	Renoir:        {"Renoir", Topology{CoresPerDie: 8, MaxDies: 1}},
	Picasso:       {"Picasso", Topology{CoresPerDie: 4, MaxDies: 1}},
	Matisse:       {"Matisse", Topology{CoresPerDie: 8, MaxDies: 2}},
	Threadripper:  {"Threadripper", Topology{CoresPerDie: 8, MaxDies: 2}},
	CastlePeak:    {"Castle Peak", Topology{CoresPerDie: 8, MaxDies: 8}},
	Raven:         {"Raven", Topology{CoresPerDie: 4, MaxDies: 1}},
	Raven2:        {"Raven 2", Topology{CoresPerDie: 2, MaxDies: 1}},
	SummitRidge:   {"Summit Ridge", Topology{CoresPerDie: 8, MaxDies: 1}},
	PinnacleRidge: {"Pinnacle Ridge", Topology{CoresPerDie: 8, MaxDies: 1}},
	Rembrandt:     {"Rembrandt", Topology{CoresPerDie: 8, MaxDies: 1}},
	Vermeer:       {"Vermeer", Topology{CoresPerDie: 8, MaxDies: 2}},
	VanGogh:       {"Van Gogh", Topology{CoresPerDie: 4, MaxDies: 1}},
	Cezanne:       {"Cezanne", Topology{CoresPerDie: 8, MaxDies: 1}},
	Milan:         {"Milan", Topology{CoresPerDie: 8, MaxDies: 8}},
	Dali:          {"Dali", Topology{CoresPerDie: 2, MaxDies: 1}},
	Lucienne:      {"Lucienne", Topology{CoresPerDie: 8, MaxDies: 1}},
	Naples:        {"Naples", Topology{CoresPerDie: 8, MaxDies: 4}},
	Chagall:       {"Chagall", Topology{CoresPerDie: 8, MaxDies: 8}},
	Raphael:       {"Raphael", Topology{CoresPerDie: 8, MaxDies: 2}},
	Phoenix:       {"Phoenix", Topology{CoresPerDie: 8, MaxDies: 1}},
	HawkPoint:     {"Hawk Point", Topology{CoresPerDie: 8, MaxDies: 1}},
	GraniteRidge:  {"Granite Ridge", Topology{CoresPerDie: 8, MaxDies: 2}},
	StrixPoint:    {"Strix Point", Topology{CoresPerDie: 12, MaxDies: 1}},
	StormPeak:     {"Storm Peak", Topology{CoresPerDie: 8, MaxDies: 12}},
}

// CodenameFromID maps a driver codename id to a Codename. Unknown ids
// resolve to Unsupported; whether that is fatal is up to the caller.
func CodenameFromID(id uint32) Codename {
	c := Codename(id)
	if _, ok := codenames[c]; !ok {
		return Unsupported
	}
	return c
}

// Supported reports whether c is a known family.
func (c Codename) Supported() bool {
	_, ok := codenames[c]
	return ok
}

// Topology returns the family's core-layout defaults. Unsupported
// returns the zero Topology.
func (c Codename) Topology() Topology {
	return codenames[c].topology
}

func (c Codename) String() string {
	if info, ok := codenames[c]; ok {
		return info.name
	}
	if c == Unsupported {
		return "Unsupported"
	}
	return fmt.Sprintf("Codename(%d)", uint32(c))
}

// MarshalText encodes the display name, so JSON and CBOR carry
// "Vermeer" rather than 12.
func (c Codename) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText accepts a display name as produced by MarshalText.
// Unknown names decode to Unsupported.
func (c *Codename) UnmarshalText(text []byte) error {
	name := string(text)
	for id, info := range codenames {
		if info.name == name {
			*c = id
			return nil
		}
	}
	*c = Unsupported
	return nil
}
