package probe

import (
	"ecprobe-go/bus"
	"ecprobe-go/errcode"
	"ecprobe-go/types"
)

func (s *Service) replyOK(m *bus.Message) {
	if m.CanReply() {
		s.conn.Reply(m, types.OKReply{OK: true}, false)
	}
}

func (s *Service) replyValue(m *bus.Message, v float32) {
	if m.CanReply() {
		s.conn.Reply(m, types.ValueReply{OK: true, Value: v}, false)
	}
}

func (s *Service) replyErr(m *bus.Message, code errcode.Code) {
	if !m.CanReply() {
		return
	}
	if code == "" {
		code = errcode.Error
	}
	s.conn.Reply(m, types.ErrorReply{OK: false, Error: string(code)}, false)
}

func (s *Service) replyFromError(m *bus.Message, err error) {
	s.replyErr(m, errcode.MapDriverErr(err))
}
