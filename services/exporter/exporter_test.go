package exporter

import (
	"context"
	"math"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"ecprobe-go/bus"
	"ecprobe-go/services/heartbeat"
	"ecprobe-go/types"
)

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met")
}

func TestExporterMirrorsValues(t *testing.T) {
	b := bus.NewBus(16)
	conn := b.NewConnection("test")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e := New()
	e.Start(ctx, b.NewConnection("exporter"))

	conn.Publish(conn.NewMessage(bus.T("hal", "cap", "env", "conductivity", "tank", "value"),
		types.ConductivityValue{MS: 1.5, SalinityPSU: 0.8, Raw: 150}, true))
	conn.Publish(conn.NewMessage(bus.T("hal", "cap", "env", "temperature", "tank", "value"),
		types.TemperatureValue{TempC: 21.5}, true))
	conn.Publish(conn.NewMessage(bus.T("hal", "cap", "env", "conductivity", "tank", "status"),
		types.CapabilityStatus{Link: types.LinkUp}, true))

	eventually(t, func() bool { return testutil.ToFloat64(e.linkUp.WithLabelValues("tank")) == 1 })
	eventually(t, func() bool { return testutil.ToFloat64(e.temperature.WithLabelValues("tank")) == 21.5 })
	if got := testutil.ToFloat64(e.conductivity.WithLabelValues("tank")); got != 1.5 {
		t.Fatalf("conductivity = %v", got)
	}
	if got := testutil.ToFloat64(e.readings.WithLabelValues("tank")); got != 1 {
		t.Fatalf("readings = %v", got)
	}

	rr := httptest.NewRecorder()
	e.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rr.Body.String(), `ecprobe_conductivity_ms{probe="tank"} 1.5`) {
		t.Fatalf("metrics output missing conductivity:\n%s", rr.Body.String())
	}
}

func TestExporterTracksHeartbeat(t *testing.T) {
	b := bus.NewBus(4)
	conn := b.NewConnection("test")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e := New()
	e.Start(ctx, b.NewConnection("exporter"))
	conn.Publish(conn.NewMessage(heartbeat.Topic(), heartbeat.Beat{Seq: 3, UptimeS: 42}, true))
	eventually(t, func() bool { return testutil.ToFloat64(e.uptime) == 42 })
}

func TestSentinelsBecomeNaN(t *testing.T) {
	if !math.IsNaN(gaugeValue(-1, -1)) || !math.IsNaN(gaugeValue(-127, -127)) {
		t.Fatal("sentinel should map to NaN")
	}
	if gaugeValue(0.5, -1) != 0.5 {
		t.Fatal("real value altered")
	}
}
