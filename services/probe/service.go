// Package probe runs an EC probe as a bus service. One goroutine owns the
// driver: it polls measurements, publishes retained values and status, and
// serves control requests between polls.
package probe

import (
	"context"
	"time"

	"ecprobe-go/adapters/textcmd"
	"ecprobe-go/bus"
	"ecprobe-go/drivers/ec"
	"ecprobe-go/errcode"
	"ecprobe-go/internal/util"
	"ecprobe-go/types"
	"ecprobe-go/x/mathx"
	"ecprobe-go/x/strx"
	"ecprobe-go/x/timex"
)

const (
	DefaultName     = "probe0"
	DefaultInterval = 2 * time.Second
	minInterval     = 250 * time.Millisecond
	schemaVersion   = 1
	driverName      = "ufire_ec"
)

// Driver is the subset of *ec.Device the service uses.
type Driver interface {
	textcmd.Driver
	Connect(addr uint16) (bool, error)
	Address() uint16
	SetBlocking(bool)
	Version() (uint8, error)
	Firmware() (uint8, error)
	MeasureECWith(tempC, coef float32) (float32, error)
	Measurement() ec.Measurement
	SetDualPointCalibration(refLow, refHigh, readLow, readHigh float32) error
	UseDualPoint(bool) error
	UseTemperatureCompensation(bool) error
	ReadCalibration() (ec.Calibration, error)
	SetAddress(uint16) error
	ReadEEPROM(addr uint8) (float32, error)
	WriteEEPROM(addr uint8, v float32) error
}

type Service struct {
	dev  Driver
	conn *bus.Connection
	text *textcmd.Processor

	cfg       types.ProbeConfig
	ready     bool
	connected bool
	interval  time.Duration
}

func New(dev Driver) *Service {
	return &Service{dev: dev, text: textcmd.New(dev), interval: DefaultInterval}
}

// Start launches the service loop in a goroutine.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) {
	go s.Run(ctx, conn)
}

// Run blocks until ctx is cancelled. Nothing touches the probe until a
// config/probe message arrives.
func (s *Service) Run(ctx context.Context, conn *bus.Connection) {
	s.conn = conn
	cfgSub := conn.Subscribe(topicConfigProbe())
	defer conn.Unsubscribe(cfgSub)
	var ctrlSub *bus.Subscription
	var ctrlCh <-chan *bus.Message
	defer func() {
		if ctrlSub != nil {
			conn.Unsubscribe(ctrlSub)
		}
	}()

	poll := time.NewTimer(time.Hour)
	poll.Stop()
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			if s.ready {
				s.pubStatus(types.LinkDown, "stopped")
			}
			println("[probe] stopping")
			return

		case msg := <-cfgSub.Channel():
			var cfg types.ProbeConfig
			if err := util.DecodeJSON(msg.Payload, &cfg); err != nil {
				println("[probe] bad config:", err.Error())
				continue
			}
			if name := strx.Coalesce(cfg.Name, DefaultName); name != s.cfg.Name {
				if ctrlSub != nil {
					conn.Unsubscribe(ctrlSub)
				}
				ctrlSub = conn.Subscribe(ctrlWildcard(name))
				ctrlCh = ctrlSub.Channel()
			}
			s.applyConfig(cfg)
			util.ResetTimer(poll, 0)

		case m := <-ctrlCh:
			s.handleControl(m)

		case <-poll.C:
			s.poll()
			util.ResetTimer(poll, s.interval)
		}
	}
}

func (s *Service) applyConfig(cfg types.ProbeConfig) {
	cfg.Name = strx.Coalesce(cfg.Name, DefaultName)
	if cfg.Address == 0 {
		cfg.Address = ec.AddressDefault
	}
	if cfg.Coefficient == 0 {
		cfg.Coefficient = ec.TempCoefEC
	}
	if cfg.TempC == 0 {
		cfg.TempC = ec.TempConstantRef
	}
	s.interval = mathx.Max(timex.Ms(cfg.IntervalMs, DefaultInterval), minInterval)
	if cfg.Blocking != nil {
		s.dev.SetBlocking(*cfg.Blocking)
	} else {
		s.dev.SetBlocking(true)
	}

	moved := cfg.Address != s.cfg.Address
	s.cfg = cfg
	s.ready = true
	if moved || !s.connected {
		s.connect()
	}
}

func (s *Service) connect() {
	ok, err := s.dev.Connect(s.cfg.Address)
	s.connected = ok && err == nil
	if !s.connected {
		code := errcode.NotConnected
		if err != nil {
			code = errcode.MapDriverErr(err)
		}
		println("[probe] no probe at address", s.cfg.Address, string(code))
		s.pubStatus(types.LinkDown, string(code))
		return
	}
	s.pubInfo()
	s.pubStatus(types.LinkUp, "")
}

// poll takes one reading. The probe's temperature sensor is used for
// compensation when configured and healthy; otherwise the configured
// temperature stands in.
func (s *Service) poll() {
	if !s.connected {
		s.connect()
		if !s.connected {
			return
		}
	}
	if _, err := s.measure(); err != nil {
		s.fail(err)
	}
}

func (s *Service) measure() (float32, error) {
	tempC := s.cfg.TempC
	if s.cfg.UseProbeTemp {
		c, err := s.dev.MeasureTemp()
		if err != nil {
			return 0, err
		}
		s.pubTemperature(c)
		if c != ec.TempFault {
			tempC = c
		}
	}
	ms, err := s.dev.MeasureECWith(tempC, s.cfg.Coefficient)
	if err != nil {
		return 0, err
	}
	s.pubConductivity(s.dev.Measurement())
	s.pubStatus(types.LinkUp, "")
	return ms, nil
}

func (s *Service) fail(err error) {
	code := errcode.MapDriverErr(err)
	println("[probe] measurement failed:", string(code))
	s.pubStatus(types.LinkDegraded, string(code))
	if code == errcode.BusError {
		s.connected = false
	}
}

// calibrationTemp is the temperature used to rescale a calibration solution
// when the request does not carry one.
func (s *Service) calibrationTemp(req *float32) float32 {
	if req != nil {
		return *req
	}
	if s.cfg.UseProbeTemp {
		if c := s.dev.Measurement().TempC; c != ec.TempFault {
			return c
		}
	}
	return s.cfg.TempC
}

// ---- publication ----

func (s *Service) pubInfo() {
	var detail types.ProbeInfo
	detail.Address = s.dev.Address()
	detail.Version, _ = s.dev.Version()
	detail.Firmware, _ = s.dev.Firmware()
	info := types.Info{SchemaVersion: schemaVersion, Driver: driverName, Detail: detail}
	for _, k := range []types.Kind{types.KindConductivity, types.KindTemperature} {
		s.conn.Publish(s.conn.NewMessage(capInfo(k, s.cfg.Name), info, true))
	}
}

func (s *Service) pubStatus(link types.Link, errText string) {
	st := types.CapabilityStatus{Link: link, TS: timex.NowMs(), Error: errText}
	for _, k := range []types.Kind{types.KindConductivity, types.KindTemperature} {
		s.conn.Publish(s.conn.NewMessage(capStatus(k, s.cfg.Name), st, true))
	}
}

func (s *Service) pubConductivity(m ec.Measurement) {
	s.conn.Publish(s.conn.NewMessage(capValue(types.KindConductivity, s.cfg.Name), types.ConductivityValue{
		MS:          m.MS,
		US:          m.US,
		S:           m.S,
		PPM500:      m.PPM500,
		PPM640:      m.PPM640,
		PPM700:      m.PPM700,
		SalinityPSU: m.SalinityPSU,
		Raw:         m.Raw,
		TempC:       m.TempC,
		TS:          timex.NowMs(),
	}, true))
}

func (s *Service) pubTemperature(c float32) {
	m := s.dev.Measurement()
	s.conn.Publish(s.conn.NewMessage(capValue(types.KindTemperature, s.cfg.Name), types.TemperatureValue{
		DeciC: int32(mathx.RoundTo(c*10, 0)),
		TempC: c,
		TempF: m.TempF,
		TS:    timex.NowMs(),
	}, true))
}
