package types

// ---- Conductivity capability payloads ----

// ProbeInfo is published under hal/cap/env/<kind>/<name>/info as Info.Detail.
type ProbeInfo struct {
	Address  uint16 `json:"address"`
	Version  uint8  `json:"version"`
	Firmware uint8  `json:"firmware"`
}

// ConductivityValue is published under .../conductivity/<name>/value
// (retained). Invalid readings carry -1 in the electrical fields.
type ConductivityValue struct {
	MS          float32 `json:"mS"`
	US          float32 `json:"uS"`
	S           float32 `json:"S"`
	PPM500      float32 `json:"ppm500"`
	PPM640      float32 `json:"ppm640"`
	PPM700      float32 `json:"ppm700"`
	SalinityPSU float32 `json:"salinity_psu"`
	Raw         float32 `json:"raw"`
	TempC       float32 `json:"temp_c"`
	TS          int64   `json:"ts_ms"`
}

// TemperatureValue is published under .../temperature/<name>/value.
// -127 marks a sensor fault.
type TemperatureValue struct {
	DeciC int32   `json:"deci_c"`
	TempC float32 `json:"temp_c"`
	TempF float32 `json:"temp_f"`
	TS    int64   `json:"ts_ms"`
}

// CalibrationValue mirrors the probe's stored calibration. Unset slots are
// reported as nil.
type CalibrationValue struct {
	Offset    *float32 `json:"offset"`
	RefLow    *float32 `json:"ref_low"`
	RefHigh   *float32 `json:"ref_high"`
	ReadLow   *float32 `json:"read_low"`
	ReadHigh  *float32 `json:"read_high"`
	DualPoint bool     `json:"dual_point"`
	TempComp  bool     `json:"temp_comp"`
}
