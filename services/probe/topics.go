package probe

import (
	"ecprobe-go/bus"
	"ecprobe-go/types"
)

const domainEnv = "env"

func topicConfigProbe() bus.Topic { return bus.T("config", "probe") }

// hal/cap/env/<kind>/<name>/...
func capBase(kind types.Kind, name string) bus.Topic {
	return bus.T("hal", "cap", domainEnv, string(kind), name)
}

func capInfo(kind types.Kind, name string) bus.Topic   { return capBase(kind, name).Append("info") }
func capStatus(kind types.Kind, name string) bus.Topic { return capBase(kind, name).Append("status") }
func capValue(kind types.Kind, name string) bus.Topic  { return capBase(kind, name).Append("value") }

// CapCtrl is the control topic for a verb:
// hal/cap/env/<kind>/<name>/control/<verb>
func CapCtrl(kind types.Kind, name, verb string) bus.Topic {
	return capBase(kind, name).Append("control", verb)
}

// CapValue is exported for consumers such as the metrics exporter.
func CapValue(kind types.Kind, name string) bus.Topic { return capValue(kind, name) }

// hal/cap/env/+/<name>/control/+
func ctrlWildcard(name string) bus.Topic {
	return bus.T("hal", "cap", domainEnv, bus.SingleWild, name, "control", bus.SingleWild)
}
