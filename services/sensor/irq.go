// services/sensor/irq.go
package sensor

import (
	"context"
	"sync/atomic"
	"time"
)

// pinWatcher bridges a pin's ISR callback to the session loop. The ISR
// handler only reads the level and does a non-blocking send; level
// qualification happens in the worker goroutine.
type pinWatcher struct {
	pin int

	// Written by ISR; MUST NOT block the ISR:
	isrQ chan bool
	// Consumed by the session loop:
	outQ    chan PinEvent
	stopped chan struct{}

	irqPin    IRQPin
	lastLevel bool

	drops uint32 // ISR drop counter
}

func newPinWatcher(pin int, irqPin IRQPin, buf int) *pinWatcher {
	if buf <= 0 {
		buf = 16
	}
	return &pinWatcher{
		pin:     pin,
		isrQ:    make(chan bool, buf),
		outQ:    make(chan PinEvent, buf),
		stopped: make(chan struct{}),
		irqPin:  irqPin,
	}
}

// start arms the IRQ and launches the worker goroutine.
func (w *pinWatcher) start(ctx context.Context) error {
	w.lastLevel = w.irqPin.Get()

	// ISR handler: fast level read + non-blocking channel send.
	handler := func() {
		l := w.irqPin.Get()
		select {
		case w.isrQ <- l:
		default:
			atomic.AddUint32(&w.drops, 1) // protect ISR path
		}
	}
	if err := w.irqPin.SetIRQ(EdgeBoth, handler); err != nil {
		return err
	}

	go func() {
		defer close(w.stopped)
		for {
			select {
			case <-ctx.Done():
				return
			case level := <-w.isrQ:
				if level == w.lastLevel {
					continue
				}
				w.lastLevel = level
				select {
				case w.outQ <- PinEvent{Pin: w.pin, Level: level, At: time.Now()}:
				default:
					// drop to protect system if consumer is slow
				}
			}
		}
	}()
	return nil
}

func (w *pinWatcher) events() <-chan PinEvent { return w.outQ }

func (w *pinWatcher) stop() {
	_ = w.irqPin.ClearIRQ()
	_ = w.irqPin.Close()
}

func (w *pinWatcher) isrDrops() uint32 { return atomic.LoadUint32(&w.drops) }
