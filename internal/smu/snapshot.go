package smu

// Snapshot is one decoded PM table. Every per-core slice has exactly
// CoreCount elements, including slots of offline cores and of arrays the
// table version does not export (those hold NaN).
//
// A Snapshot is built fresh by each decode and not modified afterwards.
type Snapshot struct {
	Version   uint32   `json:"version"`
	Codename  Codename `json:"codename"`
	CoreCount int      `json:"core_count"`

	// Limits
	PPTLimit     float32 `json:"ppt_limit"` // W
	TDCLimit     float32 `json:"tdc_limit"` // A
	EDCLimit     float32 `json:"edc_limit"` // A
	ThermalLimit float32 `json:"thm_limit"` // °C

	// Current values
	PPTValue float32 `json:"ppt_value"`
	TDCValue float32 `json:"tdc_value"`
	EDCValue float32 `json:"edc_value"`

	// Temperatures (°C)
	Tctl    float32 `json:"tctl"`
	SoCTemp float32 `json:"soc_temp"`

	// Power (W). PackagePower is the core (VDDCR_CPU) domain.
	PackagePower float32 `json:"package_power"`
	SoCPower     float32 `json:"soc_power"`

	// Voltages (V)
	CoreVoltage float32 `json:"core_voltage"`
	SoCVoltage  float32 `json:"soc_voltage"`

	// Clocks (MHz)
	FabricClock float32 `json:"fclk"`
	MemoryClock float32 `json:"mclk"`

	// Per-core, indexed by core number.
	CoreTemps    []float32 `json:"core_temps"`
	CoreFreqs    []float32 `json:"core_freqs"`
	CoreFreqsEff []float32 `json:"core_freqs_eff"`
	CorePower    []float32 `json:"core_power"`
	CoreC0       []float32 `json:"core_c0"`
}

// Scalar returns the value of field f.
func (s *Snapshot) Scalar(f Scalar) float32 {
	switch f {
	case PPTLimit:
		return s.PPTLimit
	case PPTValue:
		return s.PPTValue
	case TDCLimit:
		return s.TDCLimit
	case TDCValue:
		return s.TDCValue
	case ThermalLimit:
		return s.ThermalLimit
	case Tctl:
		return s.Tctl
	case EDCLimit:
		return s.EDCLimit
	case EDCValue:
		return s.EDCValue
	case PackagePower:
		return s.PackagePower
	case SoCPower:
		return s.SoCPower
	case CoreVoltage:
		return s.CoreVoltage
	case SoCTemp:
		return s.SoCTemp
	case SoCVoltage:
		return s.SoCVoltage
	case FabricClock:
		return s.FabricClock
	case MemoryClock:
		return s.MemoryClock
	}
	return 0
}

// PerCore returns the per-core slice for array p. Callers must not
// modify it.
func (s *Snapshot) PerCore(p PerCore) []float32 {
	switch p {
	case CorePower:
		return s.CorePower
	case CoreTemp:
		return s.CoreTemps
	case CoreFreq:
		return s.CoreFreqs
	case CoreFreqEff:
		return s.CoreFreqsEff
	case CoreC0:
		return s.CoreC0
	}
	return nil
}
