// services/sensor/session.go
package sensor

import (
	"context"
	"log/slog"
	"time"

	"sensorcode-go/bus"
	"sensorcode-go/drivers/vcnl4040"
	"sensorcode-go/errcode"
	"sensorcode-go/x/timex"
)

// Session owns one sensor on one bus. All device access happens on a
// single goroutine; callers talk to it through request channels, so no
// lock guards the device or its state.
type Session struct {
	opts Options
	log  *slog.Logger

	dev     *vcnl4040.Device
	busConn Bus
	watcher *pinWatcher
	conn    *bus.Connection

	reqQ   chan any
	cancel context.CancelFunc
	done   chan struct{}
}

// loop-internal request types; each carries its reply channel.
type latestReq struct {
	reply chan latestReply
}
type latestReply struct {
	snap  Snapshot
	valid bool
}
type configReq struct {
	reply chan vcnl4040.DeviceConfig
}
type setConfigReq struct {
	cfg   vcnl4040.DeviceConfig
	reply chan error
}
type sampleNowReq struct {
	reply chan error
}

// Open acquires the bus, verifies the device identity, programs the
// initial configuration and starts the session goroutine.
//
// A failed bus acquisition or identity check is fatal. A failed
// interrupt-pin acquisition is not: the session degrades to polling.
// conn may be nil when nothing consumes bus publications.
func Open(ctx context.Context, opts Options, buses BusOpener, pins PinOpener, conn *bus.Connection, log *slog.Logger) (*Session, error) {
	opts = opts.withDefaults()
	if log == nil {
		log = slog.Default()
	}
	log = log.With("sensor", opts.ID)

	b, err := buses.Open(opts.BusID, opts.Retries)
	if err != nil {
		return nil, &errcode.E{C: errcode.BusOpenFailed, Op: "open", Err: err}
	}

	dev := vcnl4040.New(b)
	if err := dev.Probe(); err != nil {
		_ = b.Close()
		return nil, &errcode.E{C: errcode.MapDriverErr(err), Op: "probe", Err: err}
	}

	cfg, err := opts.initialConfig()
	if err != nil {
		_ = b.Close()
		return nil, &errcode.E{C: errcode.MapDriverErr(err), Op: "configure", Err: err}
	}
	if err := dev.ApplyConfig(cfg); err != nil {
		_ = b.Close()
		return nil, &errcode.E{C: errcode.Transport, Op: "configure", Err: err}
	}

	s := &Session{
		opts:    opts,
		log:     log,
		dev:     dev,
		busConn: b,
		conn:    conn,
		reqQ:    make(chan any, 4),
		done:    make(chan struct{}),
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	if opts.InterruptPin != nil {
		pin, err := pins.Open(*opts.InterruptPin)
		if err != nil {
			log.Warn("interrupt pin unavailable, polling only",
				"pin", *opts.InterruptPin, "err", err)
		} else {
			w := newPinWatcher(*opts.InterruptPin, pin, 16)
			if err := w.start(loopCtx); err != nil {
				log.Warn("interrupt arm failed, polling only",
					"pin", *opts.InterruptPin, "err", err)
				_ = pin.Close()
			} else {
				s.watcher = w
			}
		}
	}

	go s.loop(loopCtx, cfg)
	return s, nil
}

// Latest returns the most recent snapshot; valid is false until the
// first successful sample.
func (s *Session) Latest() (Snapshot, bool) {
	req := latestReq{reply: make(chan latestReply, 1)}
	select {
	case s.reqQ <- req:
	case <-s.done:
		return Snapshot{}, false
	}
	select {
	case r := <-req.reply:
		return r.snap, r.valid
	case <-s.done:
		return Snapshot{}, false
	}
}

// Config returns the device configuration currently programmed.
func (s *Session) Config() (vcnl4040.DeviceConfig, error) {
	req := configReq{reply: make(chan vcnl4040.DeviceConfig, 1)}
	select {
	case s.reqQ <- req:
	case <-s.done:
		return vcnl4040.DeviceConfig{}, errcode.Closed
	}
	select {
	case cfg := <-req.reply:
		return cfg, nil
	case <-s.done:
		return vcnl4040.DeviceConfig{}, errcode.Closed
	}
}

// SetConfig rewrites every writable register from cfg and adopts it as
// the session's configuration.
func (s *Session) SetConfig(cfg vcnl4040.DeviceConfig) error {
	req := setConfigReq{cfg: cfg, reply: make(chan error, 1)}
	return s.await(req, req.reply)
}

// SampleNow takes a sample immediately, outside the polling schedule.
func (s *Session) SampleNow() error {
	req := sampleNowReq{reply: make(chan error, 1)}
	return s.await(req, req.reply)
}

// await submits a request and waits for its error reply, bailing out if
// the session shuts down first.
func (s *Session) await(req any, reply <-chan error) error {
	select {
	case s.reqQ <- req:
	case <-s.done:
		return errcode.Closed
	}
	select {
	case err := <-reply:
		return err
	case <-s.done:
		return errcode.Closed
	}
}

// Close stops the session goroutine and releases the pin and bus.
// Release failures are logged, not returned.
func (s *Session) Close() {
	s.cancel()
	<-s.done
	if s.watcher != nil {
		s.watcher.stop()
	}
	if err := s.busConn.Close(); err != nil {
		s.log.Warn("bus close failed", "err", err)
	}
}

// ---- actor loop ----

type sessionState struct {
	cfg vcnl4040.DeviceConfig

	alsFilter *vcnl4040.Filter[int32]
	psFilter  *vcnl4040.Filter[uint16]
	window    thresholdWindow

	latest Snapshot
	valid  bool
}

func (s *Session) loop(ctx context.Context, cfg vcnl4040.DeviceConfig) {
	defer close(s.done)

	st := &sessionState{
		cfg:       cfg,
		alsFilter: vcnl4040.NewFilter[int32](s.opts.FilterSize),
		psFilter:  vcnl4040.NewFilter[uint16](s.opts.FilterSize),
		window:    thresholdWindow{tolerance: s.opts.AmbientLight.InterruptTolerance},
	}

	var pinEv <-chan PinEvent
	if s.watcher != nil {
		pinEv = s.watcher.events()
	}

	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		drainTimer(timer)
	}
	defer timer.Stop()

	if !s.opts.DisablePolling {
		resetTimer(timer, s.opts.PollInterval)
	}

	for {
		select {
		case <-ctx.Done():
			s.publishStopped()
			return

		case <-timer.C:
			if err := s.sample(st); err != nil {
				s.log.Warn("sample failed", "err", err)
				s.publishState("degraded", err)
			}
			resetTimer(timer, s.opts.PollInterval)

		case ev := <-pinEv:
			// The device's interrupt line is active low.
			if ev.Level {
				continue
			}
			s.handleInterrupt(st)

		case req := <-s.reqQ:
			switch r := req.(type) {
			case latestReq:
				r.reply <- latestReply{snap: st.latest, valid: st.valid}
			case configReq:
				r.reply <- st.cfg
			case setConfigReq:
				r.reply <- s.applyConfig(st, r.cfg)
			case sampleNowReq:
				r.reply <- s.sample(st)
			}
		}
	}
}

// sample reads the enabled channels, updates the filters and the latest
// snapshot, and fans the snapshot out.
func (s *Session) sample(st *sessionState) error {
	var snap Snapshot

	if s.opts.AmbientLight.Enabled {
		raw, err := s.dev.ReadAmbientLight()
		if err != nil {
			return err
		}
		mlx, err := vcnl4040.MilliLux(raw, s.opts.AmbientLight.Integration)
		if err != nil {
			return err
		}
		st.alsFilter.Insert(mlx)
		med, _ := st.alsFilter.Median()
		snap.AmbientLight = AmbientReading{Raw: raw, MilliLux: mlx, Filtered: med}

		if !st.valid && s.opts.AmbientLight.InterruptTolerance > 0 {
			// Seed the window on the first reading.
			if err := s.recenterThresholds(st, raw); err != nil {
				return err
			}
		}
	}

	if s.opts.Proximity.Enabled {
		raw, err := s.dev.ReadProximity()
		if err != nil {
			return err
		}
		st.psFilter.Insert(raw)
		med, _ := st.psFilter.Median()
		snap.Proximity = ProximityReading{Raw: raw, Filtered: med}
	}

	snap.TsMs = timex.NowMs()
	st.latest = snap
	st.valid = true

	if s.opts.Notify != nil {
		select {
		case s.opts.Notify <- snap:
		default:
			// drop oldest so a stalled observer never blocks sampling
			select {
			case <-s.opts.Notify:
			default:
			}
			select {
			case s.opts.Notify <- snap:
			default:
			}
		}
	}
	if s.conn != nil {
		s.conn.Publish(s.conn.NewMessage(
			bus.Topic{"sensor", s.opts.ID, "snapshot"}, snap, false))
	}
	if s.opts.LogSamples {
		s.log.Info("sample",
			"als_raw", snap.AmbientLight.Raw,
			"als_mlx", snap.AmbientLight.MilliLux,
			"ps_raw", snap.Proximity.Raw)
	}
	return nil
}

// handleInterrupt services an asserted interrupt line: clear the flag,
// take a sample, and recenter the ambient window if the reading escaped
// it.
func (s *Session) handleInterrupt(st *sessionState) {
	if err := s.dev.ClearInterrupt(); err != nil {
		s.log.Warn("interrupt clear failed", "err", err)
		s.publishState("degraded", err)
		return
	}
	if err := s.sample(st); err != nil {
		s.log.Warn("interrupt sample failed", "err", err)
		s.publishState("degraded", err)
		return
	}
	if s.opts.AmbientLight.InterruptTolerance == 0 {
		return
	}
	if st.window.recenter(st.latest.AmbientLight.Raw) {
		if err := s.writeThresholds(st); err != nil {
			s.log.Warn("threshold rewrite failed", "err", err)
			s.publishState("degraded", err)
		}
	}
}

// recenterThresholds moves the window to raw unconditionally and writes
// the threshold registers.
func (s *Session) recenterThresholds(st *sessionState, raw uint16) error {
	st.window.base = raw
	return s.writeThresholds(st)
}

// writeThresholds pushes the window bounds to the two threshold
// registers; nothing else is rewritten.
func (s *Session) writeThresholds(st *sessionState) error {
	low, high := st.window.bounds()
	cfg, err := st.cfg.SetWord(vcnl4040.ALSThreshLow, low)
	if err != nil {
		return err
	}
	cfg, err = cfg.SetWord(vcnl4040.ALSThreshHigh, high)
	if err != nil {
		return err
	}
	if err := s.dev.WriteRegister(cfg, vcnl4040.ALSThreshLow); err != nil {
		return err
	}
	if err := s.dev.WriteRegister(cfg, vcnl4040.ALSThreshHigh); err != nil {
		return err
	}
	st.cfg = cfg
	return nil
}

// applyConfig rewrites the whole register file and adopts cfg.
func (s *Session) applyConfig(st *sessionState, cfg vcnl4040.DeviceConfig) error {
	if err := s.dev.ApplyConfig(cfg); err != nil {
		return &errcode.E{C: errcode.Transport, Op: "set_config", Err: err}
	}
	st.cfg = cfg
	return nil
}

// publishStopped reports the terminal state, carrying the pin-event drop
// count so a starved consumer shows up in the retained record.
func (s *Session) publishStopped() {
	var drops uint32
	if s.watcher != nil {
		drops = s.watcher.isrDrops()
	}
	if drops > 0 {
		s.log.Warn("pin events dropped", "count", drops)
	}
	if s.conn == nil {
		return
	}
	s.conn.Publish(s.conn.NewMessage(
		bus.Topic{"sensor", s.opts.ID, "state"},
		map[string]any{"status": "stopped", "pin_drops": drops, "ts_ms": timex.NowMs()},
		true))
}

func (s *Session) publishState(status string, err error) {
	if s.conn == nil {
		return
	}
	payload := map[string]any{"status": status, "ts_ms": timex.NowMs()}
	if err != nil {
		payload["error"] = err.Error()
		payload["code"] = string(errcode.Of(err))
	}
	s.conn.Publish(s.conn.NewMessage(
		bus.Topic{"sensor", s.opts.ID, "state"}, payload, true))
}
