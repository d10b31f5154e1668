package smu

import (
	"encoding/json"
	"testing"
)

func TestCodenameFromID(t *testing.T) {
	tests := []struct {
		id   uint32
		want Codename
		name string
	}{
		{0, Unsupported, "Unsupported"},
		{4, Matisse, "Matisse"},
		{6, CastlePeak, "Castle Peak"},
		{8, Raven2, "Raven 2"},
		{12, Vermeer, "Vermeer"},
		{13, VanGogh, "Van Gogh"},
		{23, GraniteRidge, "Granite Ridge"},
		{25, StormPeak, "Storm Peak"},
		{26, Unsupported, "Unsupported"},
		{0xffffffff, Unsupported, "Unsupported"},
	}
	for _, tt := range tests {
		got := CodenameFromID(tt.id)
		if got != tt.want {
			t.Errorf("CodenameFromID(%d) = %v, want %v", tt.id, got, tt.want)
		}
		if got.String() != tt.name {
			t.Errorf("CodenameFromID(%d).String() = %q, want %q", tt.id, got.String(), tt.name)
		}
	}
}

func TestEveryKnownCodenameHasTopology(t *testing.T) {
	for id := uint32(1); id <= uint32(StormPeak); id++ {
		c := CodenameFromID(id)
		if !c.Supported() {
			t.Errorf("id %d not supported", id)
			continue
		}
		topo := c.Topology()
		if topo.CoresPerDie <= 0 || topo.MaxDies <= 0 {
			t.Errorf("%v: topology %+v", c, topo)
		}
	}
	if Unsupported.Supported() {
		t.Error("Unsupported.Supported() = true")
	}
	if got := Unsupported.Topology(); got != (Topology{}) {
		t.Errorf("Unsupported.Topology() = %+v, want zero", got)
	}
}

func TestTopologyCores(t *testing.T) {
	tests := []struct {
		c    Codename
		want int
	}{
		{Vermeer, 16},
		{Cezanne, 8},
		{Milan, 64},
		{StrixPoint, 12},
		{StormPeak, 96},
		{Dali, 2},
	}
	for _, tt := range tests {
		if got := tt.c.Topology().Cores(); got != tt.want {
			t.Errorf("%v cores = %d, want %d", tt.c, got, tt.want)
		}
	}
}

func TestCodenameMarshalsAsName(t *testing.T) {
	data, err := json.Marshal(struct {
		Codename Codename `json:"codename"`
	}{GraniteRidge})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"codename":"Granite Ridge"}` {
		t.Errorf("got %s", data)
	}
}

func TestCodenameTextRoundTrip(t *testing.T) {
	for id := uint32(0); id <= uint32(StormPeak); id++ {
		want := CodenameFromID(id)
		text, _ := want.MarshalText()
		var got Codename
		if err := got.UnmarshalText(text); err != nil || got != want {
			t.Errorf("%q decoded to %v, %v; want %v", text, got, err, want)
		}
	}
	var c Codename = Vermeer
	if err := c.UnmarshalText([]byte("Bulldozer")); err != nil || c != Unsupported {
		t.Errorf("unknown name decoded to %v, %v", c, err)
	}
}
