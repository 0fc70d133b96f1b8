package shell

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"ecprobe-go/drivers/ec"
	"ecprobe-go/drivers/ec/ecsim"
)

func newShell(t *testing.T) (*Shell, *ecsim.Probe, *bytes.Buffer) {
	t.Helper()
	sim := ecsim.New(ec.AddressDefault, 3, 9)
	sim.SolutionMS = 1.413
	cfg := ec.DefaultConfig()
	cfg.Sleep = func(time.Duration) {}
	var out bytes.Buffer
	return New(ec.New(sim, cfg), &out), sim, &out
}

func run(s *Shell, out *bytes.Buffer, line string) string {
	out.Reset()
	s.Exec(line)
	return out.String()
}

func TestMeasureAndData(t *testing.T) {
	s, _, out := newShell(t)

	if got := run(s, out, "ec 25"); got != "mS: 1.413\n" {
		t.Fatalf("ec: %q", got)
	}
	got := run(s, out, "data")
	for _, want := range []string{"mS: 1.413\n", "uS: 1413\n", "TDS 500 | 640 | 700: 706.5 | 904.32 | 989.1\n", "C/F: 25 / 77\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("data missing %q in:\n%s", want, got)
		}
	}
}

func TestTemperatureCommands(t *testing.T) {
	s, sim, out := newShell(t)
	sim.WaterTempC = 18.5
	if got := run(s, out, "temp"); got != "C/F: 18.5 / 65.3\n" {
		t.Fatalf("temp: %q", got)
	}
	if got := run(s, out, "temp 30"); got != "C/F: 30 / 86\n" {
		t.Fatalf("temp 30: %q", got)
	}
	if got := run(s, out, "tc 1 20"); got != "\ttemp. compensation: true\n\t\tconstant: 20\n" {
		t.Fatalf("tc: %q", got)
	}
	for _, line := range []string{"temp nan", "tc 1 NaN", "cal +Inf"} {
		if got := run(s, out, line); got != "error: invalid_params\n" {
			t.Fatalf("%s: %q", line, got)
		}
	}
	if got := run(s, out, "tc"); got != "\ttemp. compensation: true\n\t\tconstant: 20\n" {
		t.Fatalf("tc after rejected input: %q", got)
	}
}

func TestCalibrationCommands(t *testing.T) {
	s, sim, out := newShell(t)

	if got := run(s, out, "cal"); got != "offset: nan\n" {
		t.Fatalf("cal: %q", got)
	}
	if got := run(s, out, "cal 1.413"); got != "offset: 1.413\n" {
		t.Fatalf("cal 1.413: %q", got)
	}
	sim.SolutionMS = 0.084
	if got := run(s, out, "low 0.084"); got != "\tlow reference / read: 0.084 / 0.084\n" {
		t.Fatalf("low: %q", got)
	}
	sim.SolutionMS = 12.88
	if got := run(s, out, "high 12.88"); got != "\thigh reference / reading: 12.88 / 12.88\n" {
		t.Fatalf("high: %q", got)
	}
	if got := run(s, out, "dp 1"); got != "\tdual point: true\n" {
		t.Fatalf("dp: %q", got)
	}
	cfg := run(s, out, "config")
	for _, want := range []string{"connected", "dual point: true", "version: 3.9"} {
		if !strings.Contains(cfg, want) {
			t.Errorf("config missing %q:\n%s", want, cfg)
		}
	}
	run(s, out, "reset")
	if got := run(s, out, "dp"); got != "\tdual point: false\n" {
		t.Fatalf("dp after reset: %q", got)
	}
}

func TestAddressAndEEPROM(t *testing.T) {
	s, sim, out := newShell(t)
	if got := run(s, out, "write 3 2.5"); got != "" {
		t.Fatalf("write: %q", got)
	}
	if got := run(s, out, "read 3"); got != "2.5\n" {
		t.Fatalf("read: %q", got)
	}
	if got := run(s, out, "i2c 0x3d"); got != "address: 0x3d\n" {
		t.Fatalf("i2c: %q", got)
	}
	if sim.Address != 0x3d {
		t.Fatalf("sim address %#x", sim.Address)
	}
	if got := run(s, out, "i2c zz"); got != "error: invalid_params\n" {
		t.Fatalf("i2c zz: %q", got)
	}
	if got := run(s, out, "i2c 300"); got != "error: invalid_address\n" {
		t.Fatalf("i2c 300: %q", got)
	}
	if got := run(s, out, "i2c 0"); got != "error: invalid_address\n" {
		t.Fatalf("i2c 0: %q", got)
	}
}

func TestFallsBackToTextCommands(t *testing.T) {
	s, _, out := newShell(t)
	if got := run(s, out, "ecc"); got != "{\"ecc\":true}\n" {
		t.Fatalf("ecc: %q", got)
	}
	if got := run(s, out, "bogus"); !strings.HasPrefix(got, "unknown command") {
		t.Fatalf("bogus: %q", got)
	}
}

func TestRunLoop(t *testing.T) {
	s, _, out := newShell(t)
	if err := s.Run(strings.NewReader("version\nblocking 0\nexit\nversion\n")); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	if strings.Count(got, "version: 3.9") != 1 || !strings.Contains(got, "blocking: false") {
		t.Fatalf("run output:\n%s", got)
	}
}
