// Package heartbeat publishes a retained liveness message so consumers can
// tell a stalled node from a quiet probe.
package heartbeat

import (
	"context"
	"time"

	"ecprobe-go/bus"
	"ecprobe-go/internal/util"
	"ecprobe-go/x/mathx"
	"ecprobe-go/x/timex"
)

const (
	DefaultInterval = 10 * time.Second
	minInterval     = 10 * time.Millisecond
	maxInterval     = time.Hour
)

// Config is read from config/heartbeat.
type Config struct {
	IntervalMs int `json:"interval_ms"`
}

// Beat is published retained on sys/heartbeat.
type Beat struct {
	Seq     uint32 `json:"seq"`
	UptimeS int64  `json:"uptime_s"`
	TS      int64  `json:"ts_ms"`
}

func topicConfig() bus.Topic { return bus.T("config", "heartbeat") }

// Topic is where beats are published.
func Topic() bus.Topic { return bus.T("sys", "heartbeat") }

type Service struct {
	started time.Time
	seq     uint32
}

func New() *Service { return &Service{} }

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfig())
	defer conn.Unsubscribe(cfgSub)

	s.started = time.Now()
	tick := time.NewTicker(DefaultInterval)
	defer tick.Stop()
	s.beat(conn)

	for {
		select {
		case <-ctx.Done():
			println("[heartbeat] stopping")
			return
		case <-tick.C:
			s.beat(conn)
		case msg := <-cfgSub.Channel():
			var cfg Config
			if err := util.DecodeJSON(msg.Payload, &cfg); err != nil {
				println("[heartbeat] bad config:", err.Error())
				continue
			}
			iv := mathx.Clamp(timex.Ms(cfg.IntervalMs, DefaultInterval), minInterval, maxInterval)
			tick.Reset(iv)
			println("[heartbeat] interval", int(iv/time.Millisecond), "ms")
		}
	}
}

func (s *Service) beat(conn *bus.Connection) {
	s.seq++
	conn.Publish(conn.NewMessage(Topic(), Beat{
		Seq:     s.seq,
		UptimeS: int64(time.Since(s.started) / time.Second),
		TS:      timex.NowMs(),
	}, true))
}

// Start launches the service loop in a goroutine.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) {
	go s.serviceLoop(ctx, conn)
}
