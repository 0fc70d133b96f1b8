// Package ble exposes a probe as a GATT service: one characteristic per
// quantity, values encoded as decimal strings. The characteristic table and
// write handling are transport-independent; bluetooth.go binds them to a
// BLE adapter.
package ble

import (
	"context"
	"math"
	"strconv"
	"sync"
	"time"

	"ecprobe-go/drivers/ec"
	"ecprobe-go/errcode"
)

const (
	LocalName   = "uFire EC"
	ServiceUUID = "4805d2d0-af9f-42c1-b950-eae78304c408"
)

type CharID uint8

const (
	CharMS CharID = iota
	CharTemp
	CharOffset
	CharHighRef
	CharHighRead
	CharLowRef
	CharLowRead
	CharTempComp
	CharDualPoint
	CharVersion
	numChars
)

// Char describes one characteristic.
type Char struct {
	ID     CharID
	UUID   string
	Desc   string
	Read   bool
	Write  bool
	Notify bool
}

// Chars is the characteristic table, in advertisement order.
var Chars = [numChars]Char{
	{CharMS, "ca0331f9-e237-4f81-b9d4-6b2facabfceb", "mS", true, false, true},
	{CharTemp, "aee115cf-26f0-4096-8914-686b32f123fd", "C", true, false, true},
	{CharOffset, "097335d9-60dd-4194-b606-2fdcb9c37330", "offset", true, true, false},
	{CharHighRef, "1dadca6b-3ecc-41bd-a116-f77248975310", "high reference", true, true, false},
	{CharHighRead, "e5c4e636-85d9-4da2-a39b-82b5364ea103", "high reading", true, false, false},
	{CharLowRef, "1baa566e-4657-4080-a580-d236af1c6bd9", "low reference", true, true, false},
	{CharLowRead, "b2e6fa56-ba50-4913-8b3e-906715dc5a40", "low reading", true, false, false},
	{CharTempComp, "eb245c07-da24-45bd-9d88-5f6e3cc76a23", "temp. compensation", true, true, false},
	{CharDualPoint, "374dc054-299c-44a6-8d6f-66e6dd412567", "dual point", true, true, false},
	{CharVersion, "61b9f392-52a9-4127-9048-c130e54f49b4", "version", true, false, false},
}

// Driver is the subset of *ec.Device the service uses.
type Driver interface {
	MeasureEC(tempC float32) (float32, error)
	MeasureTemp() (float32, error)
	CalibrateSingle(solutionMS, tempC float32) (float32, error)
	CalibrateLow(solutionMS, tempC float32) (float32, error)
	CalibrateHigh(solutionMS, tempC float32) (float32, error)
	ReadCalibration() (ec.Calibration, error)
	UseTemperatureCompensation(bool) error
	UseDualPoint(bool) error
	Version() (uint8, error)
}

// Writer receives characteristic values. *bluetooth.Characteristic
// satisfies it; writes on notify characteristics notify subscribers.
type Writer interface {
	Write(p []byte) (int, error)
}

// Service owns the driver for the BLE front-end. Write events arrive on the
// BLE stack's goroutine and refreshes on the caller's, so every driver call
// is made under mu.
type Service struct {
	mu    sync.Mutex
	dev   Driver
	chars [numChars]Writer
	last  [numChars]string
}

func New(dev Driver) *Service { return &Service{dev: dev} }

// Bind attaches the transport handle for a characteristic.
func (s *Service) Bind(id CharID, w Writer) {
	s.mu.Lock()
	s.chars[id] = w
	s.mu.Unlock()
}

// Refresh measures temperature and conductivity (compensated with the
// measured temperature) and pushes every value.
func (s *Service) Refresh() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.dev.MeasureTemp()
	if err != nil {
		return err
	}
	s.set(CharTemp, formatFloat(c))
	tempC := c
	if c == ec.TempFault {
		tempC = ec.TempConstantRef
	}
	ms, err := s.dev.MeasureEC(tempC)
	if err != nil {
		return err
	}
	s.set(CharMS, formatFloat(ms))
	return s.pushSettings()
}

// Run refreshes every interval until ctx is cancelled.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		if err := s.Refresh(); err != nil {
			println("[ble] refresh failed:", string(errcode.MapDriverErr(err)))
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// HandleWrite applies a value written by a client. Writes to read-only
// characteristics are rejected.
func (s *Service) HandleWrite(id CharID, value []byte) error {
	if id >= numChars || !Chars[id].Write {
		return errcode.Unsupported
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := strconv.ParseFloat(string(value), 32)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return errcode.InvalidPayload
	}
	v := float32(f)
	switch id {
	case CharOffset:
		_, err = s.dev.CalibrateSingle(v, ec.TempConstantRef)
	case CharHighRef:
		_, err = s.dev.CalibrateHigh(v, ec.TempConstantRef)
	case CharLowRef:
		_, err = s.dev.CalibrateLow(v, ec.TempConstantRef)
	case CharTempComp:
		err = s.dev.UseTemperatureCompensation(v != 0)
	case CharDualPoint:
		err = s.dev.UseDualPoint(v != 0)
	}
	if err != nil {
		return err
	}
	return s.pushSettings()
}

// Value returns the last value pushed for id.
func (s *Service) Value(id CharID) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last[id]
}

// pushSettings publishes calibration, flags and version. Caller holds mu.
func (s *Service) pushSettings() error {
	c, err := s.dev.ReadCalibration()
	if err != nil {
		return err
	}
	v, err := s.dev.Version()
	if err != nil {
		return err
	}
	s.set(CharOffset, formatFloat(c.Offset))
	s.set(CharHighRef, formatFloat(c.RefHigh))
	s.set(CharHighRead, formatFloat(c.ReadHigh))
	s.set(CharLowRef, formatFloat(c.RefLow))
	s.set(CharLowRead, formatFloat(c.ReadLow))
	s.set(CharTempComp, formatBool(c.TempComp))
	s.set(CharDualPoint, formatBool(c.DualPoint))
	s.set(CharVersion, strconv.Itoa(int(v)))
	return nil
}

func (s *Service) set(id CharID, v string) {
	s.last[id] = v
	if w := s.chars[id]; w != nil {
		if _, err := w.Write([]byte(v)); err != nil {
			println("[ble] write", Chars[id].Desc, "failed:", err.Error())
		}
	}
}

func formatFloat(v float32) string {
	if v != v {
		return "nan"
	}
	return strconv.FormatFloat(float64(v), 'f', 2, 32)
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
