package vcnl4040

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

// fakeI2C emulates the chip's word registers for host-side tests.
type fakeI2C struct {
	regs   map[uint8]uint16
	writes [][]byte
	fail   map[uint8]error
	reads  []uint8
}

func newFakeI2C() *fakeI2C {
	return &fakeI2C{
		regs: map[uint8]uint16{regDeviceID: DeviceID},
		fail: map[uint8]error{},
	}
}

func (f *fakeI2C) Tx(addr uint16, w, r []byte) error {
	if addr != Address {
		return errors.New("wrong address")
	}
	reg := w[0]
	if err := f.fail[reg]; err != nil {
		return err
	}
	if len(r) > 0 {
		f.reads = append(f.reads, reg)
		v := f.regs[reg]
		r[0] = byte(v)
		r[1] = byte(v >> 8)
		return nil
	}
	f.writes = append(f.writes, append([]byte(nil), w...))
	return nil
}

func TestProbe(t *testing.T) {
	bus := newFakeI2C()
	if err := New(bus).Probe(); err != nil {
		t.Fatalf("probe against matching identity: %v", err)
	}

	bus.regs[regDeviceID] = 0x0188
	if err := New(bus).Probe(); !errors.Is(err, ErrInvalidDevice) {
		t.Fatalf("probe against foreign identity: got %v", err)
	}

	cause := errors.New("nak")
	bus.fail[regDeviceID] = cause
	err := New(bus).Probe()
	var terr *TransportError
	if !errors.As(err, &terr) || !errors.Is(err, cause) {
		t.Fatalf("probe with failing bus: got %v", err)
	}
	if terr.Op != "read" || terr.Reg != regDeviceID {
		t.Fatalf("transport error detail: %+v", terr)
	}
}

func TestApplyConfigWritesEveryRegisterInOrder(t *testing.T) {
	bus := newFakeI2C()
	dev := New(bus)

	cfg, err := AmbientPolling(320 * time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if err := dev.ApplyConfig(cfg); err != nil {
		t.Fatal(err)
	}
	if len(bus.writes) != 8 {
		t.Fatalf("wrote %d payloads, want 8", len(bus.writes))
	}
	for i, addr := range []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07} {
		if bus.writes[i][0] != addr {
			t.Errorf("payload %d addressed %#02x, want %#02x", i, bus.writes[i][0], addr)
		}
		if len(bus.writes[i]) != 3 {
			t.Errorf("payload %d is %d bytes, want 3", i, len(bus.writes[i]))
		}
	}
	// als_conf: integration 320ms, shutdown cleared.
	if want := []byte{0x00, 0x80, 0x00}; !bytes.Equal(bus.writes[0], want) {
		t.Errorf("als_conf payload = %x, want %x", bus.writes[0], want)
	}
}

func TestWriteRegisterTouchesOnlyItsAddress(t *testing.T) {
	bus := newFakeI2C()
	dev := New(bus)

	cfg, err := NewConfig().SetWord(ALSThreshHigh, 2100)
	if err != nil {
		t.Fatal(err)
	}
	if err := dev.WriteRegister(cfg, ALSThreshHigh); err != nil {
		t.Fatal(err)
	}
	if len(bus.writes) != 1 {
		t.Fatalf("wrote %d payloads, want 1", len(bus.writes))
	}
	if want := []byte{0x01, 0x34, 0x08}; !bytes.Equal(bus.writes[0], want) {
		t.Fatalf("payload = %x, want %x", bus.writes[0], want)
	}
}

func TestDataReads(t *testing.T) {
	bus := newFakeI2C()
	bus.regs[regALSData] = 0x1234
	bus.regs[regPSData] = 0x0056
	bus.regs[regWhiteData] = 0x0078
	dev := New(bus)

	if v, err := dev.ReadAmbientLight(); err != nil || v != 0x1234 {
		t.Errorf("ReadAmbientLight = %#04x (%v), want 0x1234", v, err)
	}
	if v, err := dev.ReadProximity(); err != nil || v != 0x0056 {
		t.Errorf("ReadProximity = %#04x (%v), want 0x0056", v, err)
	}
	if v, err := dev.ReadWhite(); err != nil || v != 0x0078 {
		t.Errorf("ReadWhite = %#04x (%v), want 0x0078", v, err)
	}
}

func TestClearInterruptReadsFlagRegister(t *testing.T) {
	bus := newFakeI2C()
	dev := New(bus)
	if err := dev.ClearInterrupt(); err != nil {
		t.Fatal(err)
	}
	if len(bus.reads) != 1 || bus.reads[0] != regIntFlag {
		t.Fatalf("reads = %v, want [%#02x]", bus.reads, regIntFlag)
	}
}
