package output

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/hartyporpoise/smusensors/internal/smu"
)

// jsonFloat renders NaN and ±Inf as null, which encoding/json refuses
// to encode for plain floats.
type jsonFloat float32

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 32), nil
}

// jsonSnapshot is the JSON wire form of smu.Snapshot.
type jsonSnapshot struct {
	Version    uint32       `json:"version"`
	VersionHex string       `json:"version_hex"`
	Codename   smu.Codename `json:"codename"`
	CoreCount  int          `json:"core_count"`

	PPTLimit     jsonFloat `json:"ppt_limit"`
	TDCLimit     jsonFloat `json:"tdc_limit"`
	EDCLimit     jsonFloat `json:"edc_limit"`
	ThermalLimit jsonFloat `json:"thm_limit"`
	PPTValue     jsonFloat `json:"ppt_value"`
	TDCValue     jsonFloat `json:"tdc_value"`
	EDCValue     jsonFloat `json:"edc_value"`
	Tctl         jsonFloat `json:"tctl"`
	SoCTemp      jsonFloat `json:"soc_temp"`
	PackagePower jsonFloat `json:"package_power"`
	SoCPower     jsonFloat `json:"soc_power"`
	CoreVoltage  jsonFloat `json:"core_voltage"`
	SoCVoltage   jsonFloat `json:"soc_voltage"`
	FabricClock  jsonFloat `json:"fclk"`
	MemoryClock  jsonFloat `json:"mclk"`

	CoreTemps    []jsonFloat `json:"core_temps"`
	CoreFreqs    []jsonFloat `json:"core_freqs"`
	CoreFreqsEff []jsonFloat `json:"core_freqs_eff"`
	CorePower    []jsonFloat `json:"core_power"`
	CoreC0       []jsonFloat `json:"core_c0"`
}

func toJSON(s *smu.Snapshot) jsonSnapshot {
	return jsonSnapshot{
		Version:    s.Version,
		VersionHex: fmt.Sprintf("%#x", s.Version),
		Codename:   s.Codename,
		CoreCount:  s.CoreCount,

		PPTLimit:     jsonFloat(s.PPTLimit),
		TDCLimit:     jsonFloat(s.TDCLimit),
		EDCLimit:     jsonFloat(s.EDCLimit),
		ThermalLimit: jsonFloat(s.ThermalLimit),
		PPTValue:     jsonFloat(s.PPTValue),
		TDCValue:     jsonFloat(s.TDCValue),
		EDCValue:     jsonFloat(s.EDCValue),
		Tctl:         jsonFloat(s.Tctl),
		SoCTemp:      jsonFloat(s.SoCTemp),
		PackagePower: jsonFloat(s.PackagePower),
		SoCPower:     jsonFloat(s.SoCPower),
		CoreVoltage:  jsonFloat(s.CoreVoltage),
		SoCVoltage:   jsonFloat(s.SoCVoltage),
		FabricClock:  jsonFloat(s.FabricClock),
		MemoryClock:  jsonFloat(s.MemoryClock),

		CoreTemps:    jsonFloats(s.CoreTemps),
		CoreFreqs:    jsonFloats(s.CoreFreqs),
		CoreFreqsEff: jsonFloats(s.CoreFreqsEff),
		CorePower:    jsonFloats(s.CorePower),
		CoreC0:       jsonFloats(s.CoreC0),
	}
}

func jsonFloats(values []float32) []jsonFloat {
	out := make([]jsonFloat, len(values))
	for i, v := range values {
		out[i] = jsonFloat(v)
	}
	return out
}

// MarshalJSON returns the compact JSON form of snap.
func MarshalJSON(snap *smu.Snapshot) ([]byte, error) {
	return json.Marshal(toJSON(snap))
}

// EncodeJSON writes snap to w followed by a newline, indented when
// pretty is set.
func EncodeJSON(w io.Writer, snap *smu.Snapshot, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(toJSON(snap))
}
