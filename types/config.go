package types

// ProbeConfig is published retained on config/probe. With UseProbeTemp the
// probe's own sensor is read before each EC measurement; otherwise TempC is
// used for compensation.
type ProbeConfig struct {
	Name         string  `json:"name"`
	Address      uint16  `json:"address"`
	IntervalMs   int     `json:"interval_ms"`
	Blocking     *bool   `json:"blocking,omitempty"`
	UseProbeTemp bool    `json:"use_probe_temp"`
	TempC        float32 `json:"temp_c"`
	Coefficient  float32 `json:"coefficient"`
}
