package types

// ---- Conductivity control payloads ----

// Calibrate is sent to control/calibrate, calibrate_low and calibrate_high.
// TempC defaults to the last measured probe temperature when nil.
type Calibrate struct {
	SolutionMS float32  `json:"solution_ms"`
	TempC      *float32 `json:"temp_c,omitempty"`
}

// DualPointSet writes all four dual-point slots (control/dual_point).
type DualPointSet struct {
	RefLow   float32 `json:"ref_low"`
	RefHigh  float32 `json:"ref_high"`
	ReadLow  float32 `json:"read_low"`
	ReadHigh float32 `json:"read_high"`
}

// FlagSet toggles a config flag (control/use_dual_point, control/temp_comp).
type FlagSet struct {
	On bool `json:"on"`
}

// AddressSet moves the probe to a new bus address (control/set_address).
type AddressSet struct {
	Address uint16 `json:"address"`
}

// EEPROMRead / EEPROMWrite address one scratch cell.
type EEPROMRead struct {
	Addr uint8 `json:"addr"`
}

type EEPROMWrite struct {
	Addr  uint8   `json:"addr"`
	Value float32 `json:"value"`
}

// TextCommand carries one console line (control/text), e.g. "ec 21.5".
type TextCommand struct {
	Line string `json:"line"`
}

// TextReply is the one-key JSON object the console prints, plus its number.
type TextReply struct {
	OK    bool    `json:"ok"`
	Line  string  `json:"line"`
	Value float32 `json:"value"`
}
