// Package exporter mirrors probe readings from the bus into Prometheus
// gauges.
package exporter

import (
	"context"
	"math"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ecprobe-go/bus"
	"ecprobe-go/drivers/ec"
	"ecprobe-go/services/heartbeat"
	"ecprobe-go/types"
)

const namespace = "ecprobe"

type Exporter struct {
	reg *prometheus.Registry

	conductivity *prometheus.GaugeVec
	salinity     *prometheus.GaugeVec
	raw          *prometheus.GaugeVec
	temperature  *prometheus.GaugeVec
	linkUp       *prometheus.GaugeVec
	readings     *prometheus.CounterVec
	uptime       prometheus.Gauge
}

func New() *Exporter {
	gauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, []string{"probe"})
	}
	e := &Exporter{
		reg:          prometheus.NewRegistry(),
		conductivity: gauge("conductivity_ms", "Temperature-compensated conductivity in mS/cm."),
		salinity:     gauge("salinity_psu", "Salinity in practical salinity units."),
		raw:          gauge("raw_counts", "Uncompensated raw probe reading."),
		temperature:  gauge("temperature_celsius", "Probe temperature in degrees Celsius."),
		linkUp:       gauge("link_up", "1 when the probe answers on the bus."),
		readings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_total",
			Help:      "Conductivity readings received.",
		}, []string{"probe"}),
		uptime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Node uptime from the last heartbeat.",
		}),
	}
	e.reg.MustRegister(e.conductivity, e.salinity, e.raw, e.temperature, e.linkUp, e.readings, e.uptime)
	return e
}

// Handler serves the exporter's registry.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.reg, promhttp.HandlerOpts{})
}

// Registry is exposed for tests and for callers adding their own collectors.
func (e *Exporter) Registry() *prometheus.Registry { return e.reg }

// Start consumes probe values and status until ctx is cancelled.
func (e *Exporter) Start(ctx context.Context, conn *bus.Connection) {
	values := conn.Subscribe(bus.T("hal", "cap", "env", bus.SingleWild, bus.SingleWild, "value"))
	status := conn.Subscribe(bus.T("hal", "cap", "env", string(types.KindConductivity), bus.SingleWild, "status"))
	beats := conn.Subscribe(heartbeat.Topic())
	go func() {
		defer conn.Unsubscribe(values)
		defer conn.Unsubscribe(status)
		defer conn.Unsubscribe(beats)
		for {
			select {
			case <-ctx.Done():
				return
			case m := <-values.Channel():
				e.observe(m)
			case m := <-status.Channel():
				e.observeStatus(m)
			case m := <-beats.Channel():
				if b, ok := m.Payload.(heartbeat.Beat); ok {
					e.uptime.Set(float64(b.UptimeS))
				}
			}
		}
	}()
}

func (e *Exporter) observe(m *bus.Message) {
	if m.Topic.Len() < 6 {
		return
	}
	name, _ := m.Topic.At(4).(string)
	switch v := m.Payload.(type) {
	case types.ConductivityValue:
		e.conductivity.WithLabelValues(name).Set(gaugeValue(v.MS, ec.Invalid))
		e.salinity.WithLabelValues(name).Set(gaugeValue(v.SalinityPSU, ec.Invalid))
		e.raw.WithLabelValues(name).Set(float64(v.Raw))
		e.readings.WithLabelValues(name).Inc()
	case types.TemperatureValue:
		e.temperature.WithLabelValues(name).Set(gaugeValue(v.TempC, ec.TempFault))
	}
}

func (e *Exporter) observeStatus(m *bus.Message) {
	st, ok := m.Payload.(types.CapabilityStatus)
	if !ok || m.Topic.Len() < 6 {
		return
	}
	name, _ := m.Topic.At(4).(string)
	up := 0.0
	if st.Link == types.LinkUp {
		up = 1
	}
	e.linkUp.WithLabelValues(name).Set(up)
}

// gaugeValue maps driver sentinels to NaN so they do not plot as readings.
func gaugeValue(v, sentinel float32) float64 {
	if v == sentinel || v != v {
		return math.NaN()
	}
	return float64(v)
}
