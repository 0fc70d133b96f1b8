package config

// Embedded configuration, keyed by board ID (the value placed in ctx under
// CtxDeviceKey).

const cfgPico = `{
  "probe": {
    "name": "probe0",
    "address": 60,
    "interval_ms": 2000,
    "use_probe_temp": true,
    "temp_c": 25,
    "coefficient": 0.019
  },
  "heartbeat": {
    "interval_ms": 30000
  }
}`

var embeddedConfigs = map[string][]byte{
	"pico": []byte(cfgPico),
}
