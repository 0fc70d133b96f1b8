package textcmd

import (
	"math"
	"strings"
	"testing"
	"time"

	"ecprobe-go/drivers/ec"
	"ecprobe-go/drivers/ec/ecsim"
)

func newProcessor(t *testing.T) (*Processor, *ecsim.Probe) {
	t.Helper()
	sim := ecsim.New(ec.AddressDefault, 3, 9)
	sim.SolutionMS = 1.413
	cfg := ec.DefaultConfig()
	cfg.Sleep = func(time.Duration) {}
	return New(ec.New(sim, cfg)), sim
}

func TestCommands(t *testing.T) {
	p, sim := newProcessor(t)
	sim.WaterTempC = 22.25

	steps := []struct {
		line string
		want string
	}{
		{"ecc", `{"ecc":true}`},
		{"ehr", `{"ehr":"-"}`},
		{"elr", `{"elr":"-"}`},
		{"eo", `{"eo":"-"}`},
		{"etc", `{"etc":25}`},
		{"etc 20", `{"etc":20}`},
		{"eco 0.02", `{"eco":0.02}`},
		{"ect", `{"ect":22.25}`},
		{"eo 1.413", `{"eo":1.413}`},
		{"elrf 0.084", `{"elrf":0.084}`},
		{"ehrf 12.88", `{"ehrf":12.88}`},
		{"ecr", `{"ecr":"ecr"}`},
		{"ehrf", `{"ehrf":"-"}`},
		{"eco", `{"eco":0.019}`},
		{"etc", `{"etc":25}`},
	}
	for _, s := range steps {
		if got := p.Process(s.line); got != s.want {
			t.Errorf("%q: got %s want %s", s.line, got, s.want)
		}
	}
}

func TestMeasureRoundsToTwoDecimals(t *testing.T) {
	p, sim := newProcessor(t)
	sim.SolutionMS = 1.41789
	sim.WaterTempC = 25
	if got := p.Process("ec 25"); got != `{"ec":1.42}` {
		t.Fatalf("got %s", got)
	}
	if p.Value() != 1.42 {
		t.Fatalf("value = %v", p.Value())
	}
	// No temperature means the 25 °C reference.
	if got := p.Process("ec"); got != `{"ec":1.42}` {
		t.Fatalf("got %s", got)
	}
}

func TestUnknownAndMalformed(t *testing.T) {
	p, _ := newProcessor(t)
	p.Process("ect")
	for _, line := range []string{"", "   ", "xyz 1", "EC"} {
		if got := p.Process(line); got != "" {
			t.Errorf("%q: got %s", line, got)
		}
		if p.Value() != -1 {
			t.Errorf("%q: value %v", line, p.Value())
		}
	}
	if got := p.Process("etc abc"); got != `{"etc":"invalid_params"}` {
		t.Fatalf("bad parameter: %s", got)
	}
}

func TestDisconnected(t *testing.T) {
	p, sim := newProcessor(t)
	sim.Address = 0x10
	if got := p.Process("ecc"); got != `{"ecc":false}` {
		t.Fatalf("got %s", got)
	}
	if got := p.Process("ect"); got != `{"ect":"bus_error"}` {
		t.Fatalf("got %s", got)
	}
}

func TestNonFiniteValues(t *testing.T) {
	sim := ecsim.New(ec.AddressDefault, 3, 9)
	cfg := ec.DefaultConfig()
	cfg.Sleep = func(time.Duration) {}
	dev := ec.New(sim, cfg)
	p := New(dev)

	if err := dev.SetTempConstant(float32(math.NaN())); err != nil {
		t.Fatal(err)
	}
	if err := dev.SetTempCoefficient(float32(math.Inf(1))); err != nil {
		t.Fatal(err)
	}
	for _, line := range []string{"etc", "eco"} {
		want := `{"` + line + `":"-"}`
		if got := p.Process(line); got != want {
			t.Errorf("%q: got %q want %s", line, got, want)
		}
		if p.Value() != -1 {
			t.Errorf("%q: value %v", line, p.Value())
		}
	}

	if err := dev.SetTempCoefficient(0.02); err != nil {
		t.Fatal(err)
	}
	for _, line := range []string{"eco nan", "eco NaN", "eco inf", "eco -Inf", "etc nan", "eo nan", "ec inf"} {
		want := `{"` + strings.Fields(line)[0] + `":"invalid_params"}`
		if got := p.Process(line); got != want {
			t.Errorf("%q: got %q want %s", line, got, want)
		}
		if p.Value() != -1 {
			t.Errorf("%q: value %v", line, p.Value())
		}
	}
	if got := sim.Float(13); got != 0.02 {
		t.Fatalf("coefficient register changed to %v", got)
	}
}
