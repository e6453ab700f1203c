// Package periphio provides the Linux host implementations of the
// sensor service's bus and pin openers, backed by periph.io.
package periphio

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"sensorcode-go/services/sensor"
)

var (
	initOnce sync.Once
	initErr  error
)

// Init loads the host drivers. Safe to call more than once.
func Init() error {
	initOnce.Do(func() {
		_, initErr = host.Init()
	})
	return initErr
}

// ---- bus ----

type busHandle struct {
	bus i2c.BusCloser
}

func (b *busHandle) Tx(addr uint16, w, r []byte) error { return b.bus.Tx(addr, w, r) }
func (b *busHandle) Close() error                      { return b.bus.Close() }

// BusOpener opens I2C buses by registry name ("" selects the first
// available bus), retrying with a short backoff.
type BusOpener struct{}

func (BusOpener) Open(id string, retries int) (sensor.Bus, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
		}
		bus, err := i2creg.Open(id)
		if err == nil {
			return &busHandle{bus: bus}, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("open i2c bus %q: %w", id, lastErr)
}

// ---- pin ----

type irqPin struct {
	pin  gpio.PinIO
	stop chan struct{}
	done chan struct{}
}

func (p *irqPin) Get() bool { return p.pin.Read() == gpio.High }

// SetIRQ emulates callback delivery on top of periph's blocking
// WaitForEdge. The poll timeout bounds shutdown latency only; edges are
// latched by the kernel between waits.
func (p *irqPin) SetIRQ(edge sensor.Edge, handler func()) error {
	var pe gpio.Edge
	switch edge {
	case sensor.EdgeRising:
		pe = gpio.RisingEdge
	case sensor.EdgeFalling:
		pe = gpio.FallingEdge
	case sensor.EdgeBoth:
		pe = gpio.BothEdges
	default:
		return nil
	}
	if err := p.pin.In(gpio.PullUp, pe); err != nil {
		return err
	}
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go func() {
		defer close(p.done)
		for {
			select {
			case <-p.stop:
				return
			default:
			}
			if p.pin.WaitForEdge(250 * time.Millisecond) {
				handler()
			}
		}
	}()
	return nil
}

func (p *irqPin) ClearIRQ() error {
	if p.stop != nil {
		close(p.stop)
		<-p.done
		p.stop = nil
	}
	return p.pin.In(gpio.PullUp, gpio.NoEdge)
}

func (p *irqPin) Close() error { return p.pin.Halt() }

// PinOpener resolves pins by BCM number via the gpio registry.
type PinOpener struct{}

func (PinOpener) Open(pin int) (sensor.IRQPin, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	p := gpioreg.ByName(strconv.Itoa(pin))
	if p == nil {
		return nil, fmt.Errorf("no gpio pin %d", pin)
	}
	if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, err
	}
	return &irqPin{pin: p}, nil
}
