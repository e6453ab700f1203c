// services/sensor/types.go
package sensor

import (
	"time"

	"tinygo.org/x/drivers"

	"sensorcode-go/drivers/vcnl4040"
)

// ---- Hardware boundary ----
//
// The session consumes these; a transport collaborator implements them
// (transport/periphio on Linux hosts, fakes in tests).

// Bus is an open two-wire bus handle.
type Bus interface {
	drivers.I2C
	// Close is best-effort; the session ignores failures during teardown.
	Close() error
}

// BusOpener acquires a bus handle, spending at most the given retry budget.
type BusOpener interface {
	Open(id string, retries int) (Bus, error)
}

// Edge selection for pin interrupts.
type Edge uint8

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
	EdgeBoth
)

// IRQPin is an interrupt-capable input pin.
type IRQPin interface {
	Get() bool
	SetIRQ(edge Edge, handler func()) error
	ClearIRQ() error
	Close() error
}

// PinOpener acquires interrupt-capable pins by number.
type PinOpener interface {
	Open(pin int) (IRQPin, error)
}

// PinEvent is one observed pin transition, delivered to the session inbox.
type PinEvent struct {
	Pin   int
	Level bool
	At    time.Time
}

// ---- Readings and snapshots ----

// AmbientReading is the ambient-light channel's latest state.
type AmbientReading struct {
	Raw      uint16 // raw 16-bit count
	MilliLux int32  // derived via the integration-time scale
	Filtered int32  // median of recent derived values, milli-lux
}

// ProximityReading is the proximity channel's latest state.
type ProximityReading struct {
	Raw      uint16
	Filtered uint16 // median of recent raw counts
}

// Snapshot is delivered to the observer channel after every successful
// sample and published on the bus.
type Snapshot struct {
	AmbientLight AmbientReading
	Proximity    ProximityReading
	TsMs         int64
}

// ---- Options ----

// AmbientOptions configures the ambient-light channel.
type AmbientOptions struct {
	Enabled     bool
	Integration time.Duration // one of 80/160/320/640 ms; default 80 ms
	// InterruptTolerance, when nonzero, enables threshold interrupts and
	// adaptive recentering: thresholds track the raw reading at base +/-
	// tolerance. Requires an interrupt pin.
	InterruptTolerance uint16
	// Persistence counts consecutive out-of-window readings before the
	// interrupt asserts; default 1.
	Persistence int
}

// ProximityOptions configures the proximity channel.
type ProximityOptions struct {
	Enabled     bool
	Integration vcnl4040.PSIntegration
	LEDCurrent  int // mA; default 50
}

// Options configures one session. Zero values take the documented defaults.
type Options struct {
	ID      string // session identity for bus topics and logs
	BusID   string
	Retries int

	// InterruptPin, when set, is opened for both-edge notification.
	InterruptPin *int

	// PollInterval defaults to 1s; DisablePolling turns the timer off
	// entirely (interrupt-driven only).
	PollInterval   time.Duration
	DisablePolling bool

	// FilterSize is the per-channel median window; default 9.
	FilterSize int

	AmbientLight AmbientOptions
	Proximity    ProximityOptions

	// Notify, when set, receives a snapshot after every successful sample.
	// Sends never block; a full channel drops the oldest snapshot.
	Notify chan Snapshot

	// LogSamples emits a log record per sample.
	LogSamples bool
}

const (
	defaultPollInterval = time.Second
	defaultRetries      = 2
)

func (o Options) withDefaults() Options {
	if o.ID == "" {
		o.ID = o.BusID
	}
	if o.Retries <= 0 {
		o.Retries = defaultRetries
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}
	if o.FilterSize <= 0 {
		o.FilterSize = vcnl4040.DefaultFilterSize
	}
	if o.AmbientLight.Integration <= 0 {
		o.AmbientLight.Integration = 80 * time.Millisecond
	}
	if o.AmbientLight.Persistence <= 0 {
		o.AmbientLight.Persistence = 1
	}
	if o.Proximity.LEDCurrent <= 0 {
		o.Proximity.LEDCurrent = 50
	}
	return o
}

// initialConfig composes the device configuration for the enabled channels
// from the convenience builders.
func (o Options) initialConfig() (vcnl4040.DeviceConfig, error) {
	cfg := vcnl4040.NewConfig()
	if o.AmbientLight.Enabled {
		var (
			part vcnl4040.DeviceConfig
			err  error
		)
		if o.AmbientLight.InterruptTolerance > 0 {
			tol := o.AmbientLight.InterruptTolerance
			part, err = vcnl4040.AmbientWithInterrupts(
				o.AmbientLight.Integration, 0, tol, o.AmbientLight.Persistence)
		} else {
			part, err = vcnl4040.AmbientPolling(o.AmbientLight.Integration)
		}
		if err != nil {
			return vcnl4040.DeviceConfig{}, err
		}
		cfg = cfg.Merge(part)
	}
	if o.Proximity.Enabled {
		part, err := vcnl4040.ProximityPolling(o.Proximity.Integration, o.Proximity.LEDCurrent)
		if err != nil {
			return vcnl4040.DeviceConfig{}, err
		}
		cfg = cfg.Merge(part)
	}
	return cfg, nil
}
