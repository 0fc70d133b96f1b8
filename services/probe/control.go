package probe

import (
	"ecprobe-go/bus"
	"ecprobe-go/drivers/ec"
	"ecprobe-go/errcode"
	"ecprobe-go/internal/util"
	"ecprobe-go/types"
)

// Control verbs accepted under hal/cap/env/<kind>/<name>/control/<verb>.
const (
	VerbRead          = "read"
	VerbCalibrate     = "calibrate"
	VerbCalibrateLow  = "calibrate_low"
	VerbCalibrateHigh = "calibrate_high"
	VerbDualPoint     = "dual_point"
	VerbUseDualPoint  = "use_dual_point"
	VerbTempComp      = "temp_comp"
	VerbCalibration   = "calibration"
	VerbReset         = "reset"
	VerbSetAddress    = "set_address"
	VerbEEPROMRead    = "eeprom_read"
	VerbEEPROMWrite   = "eeprom_write"
	VerbText          = "text"
)

func (s *Service) handleControl(m *bus.Message) {
	if m.Topic.Len() < 7 {
		s.replyErr(m, errcode.InvalidTopic)
		return
	}
	verb, _ := m.Topic.At(6).(string)
	if !s.connected {
		s.replyErr(m, errcode.NotConnected)
		return
	}

	switch verb {
	case VerbRead:
		ms, err := s.measure()
		if err != nil {
			s.fail(err)
			s.replyFromError(m, err)
			return
		}
		s.replyValue(m, ms)

	case VerbCalibrate, VerbCalibrateLow, VerbCalibrateHigh:
		var p types.Calibrate
		if err := util.DecodeJSON(m.Payload, &p); err != nil || p.SolutionMS <= 0 {
			s.replyErr(m, errcode.InvalidPayload)
			return
		}
		cal := s.dev.CalibrateSingle
		switch verb {
		case VerbCalibrateLow:
			cal = s.dev.CalibrateLow
		case VerbCalibrateHigh:
			cal = s.dev.CalibrateHigh
		}
		v, err := cal(p.SolutionMS, s.calibrationTemp(p.TempC))
		if err != nil {
			s.replyFromError(m, err)
			return
		}
		println("[probe]", verb, "solution", p.SolutionMS, "stored", v)
		s.replyValue(m, v)

	case VerbDualPoint:
		var p types.DualPointSet
		if err := util.DecodeJSON(m.Payload, &p); err != nil {
			s.replyErr(m, errcode.InvalidPayload)
			return
		}
		s.replyResult(m, s.dev.SetDualPointCalibration(p.RefLow, p.RefHigh, p.ReadLow, p.ReadHigh))

	case VerbUseDualPoint, VerbTempComp:
		var p types.FlagSet
		if err := util.DecodeJSON(m.Payload, &p); err != nil {
			s.replyErr(m, errcode.InvalidPayload)
			return
		}
		if verb == VerbUseDualPoint {
			s.replyResult(m, s.dev.UseDualPoint(p.On))
		} else {
			s.replyResult(m, s.dev.UseTemperatureCompensation(p.On))
		}

	case VerbCalibration:
		c, err := s.dev.ReadCalibration()
		if err != nil {
			s.replyFromError(m, err)
			return
		}
		if m.CanReply() {
			s.conn.Reply(m, calibrationValue(c), false)
		}

	case VerbReset:
		s.replyResult(m, s.dev.Reset())

	case VerbSetAddress:
		var p types.AddressSet
		if err := util.DecodeJSON(m.Payload, &p); err != nil {
			s.replyErr(m, errcode.InvalidPayload)
			return
		}
		if err := s.dev.SetAddress(p.Address); err != nil {
			s.replyFromError(m, err)
			return
		}
		s.cfg.Address = p.Address
		// Keep the retained config in step so a later config update does
		// not look like a move back to the old address.
		s.conn.Publish(s.conn.NewMessage(topicConfigProbe(), s.cfg, true))
		s.pubInfo()
		s.replyOK(m)

	case VerbEEPROMRead:
		var p types.EEPROMRead
		if err := util.DecodeJSON(m.Payload, &p); err != nil {
			s.replyErr(m, errcode.InvalidPayload)
			return
		}
		v, err := s.dev.ReadEEPROM(p.Addr)
		if err != nil {
			s.replyFromError(m, err)
			return
		}
		s.replyValue(m, v)

	case VerbEEPROMWrite:
		var p types.EEPROMWrite
		if err := util.DecodeJSON(m.Payload, &p); err != nil {
			s.replyErr(m, errcode.InvalidPayload)
			return
		}
		s.replyResult(m, s.dev.WriteEEPROM(p.Addr, p.Value))

	case VerbText:
		var p types.TextCommand
		if err := util.DecodeJSON(m.Payload, &p); err != nil {
			s.replyErr(m, errcode.InvalidPayload)
			return
		}
		out := s.text.Process(p.Line)
		if out == "" {
			s.replyErr(m, errcode.UnknownCommand)
			return
		}
		if m.CanReply() {
			s.conn.Reply(m, types.TextReply{OK: true, Line: out, Value: s.text.Value()}, false)
		}

	default:
		s.replyErr(m, errcode.Unsupported)
	}
}

func (s *Service) replyResult(m *bus.Message, err error) {
	if err != nil {
		s.replyFromError(m, err)
		return
	}
	s.replyOK(m)
}

func calibrationValue(c ec.Calibration) types.CalibrationValue {
	slot := func(v float32) *float32 {
		if v != v {
			return nil
		}
		return &v
	}
	return types.CalibrationValue{
		Offset:    slot(c.Offset),
		RefLow:    slot(c.RefLow),
		RefHigh:   slot(c.RefHigh),
		ReadLow:   slot(c.ReadLow),
		ReadHigh:  slot(c.ReadHigh),
		DualPoint: c.DualPoint,
		TempComp:  c.TempComp,
	}
}
