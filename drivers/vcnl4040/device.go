package vcnl4040

import (
	"tinygo.org/x/drivers"
)

// Device represents a VCNL4040 instance on an I2C bus.
//
// All word access is little-endian: data-low then data-high. The device
// has a single fixed address and no address pins.
type Device struct {
	i2c  drivers.I2C
	addr uint16

	// Fixed buffers to avoid per-call heap allocations.
	w [3]byte
	r [2]byte
}

// New constructs a Device on the given bus. It does not touch the hardware.
func New(i2c drivers.I2C) *Device {
	return &Device{i2c: i2c, addr: Address}
}

// ReadID returns the contents of the identity register.
func (d *Device) ReadID() (uint16, error) {
	return d.readWord(regDeviceID)
}

// Probe validates the device identity. A read failure or a value other
// than DeviceID is fatal to startup and is never retried here.
func (d *Device) Probe() error {
	id, err := d.ReadID()
	if err != nil {
		return err
	}
	if id != DeviceID {
		return ErrInvalidDevice
	}
	return nil
}

// ApplyConfig writes every register payload of cfg in transmission order.
func (d *Device) ApplyConfig(cfg DeviceConfig) error {
	for _, p := range cfg.AllWritePayloads() {
		if err := d.writePayload(p); err != nil {
			return err
		}
	}
	return nil
}

// WriteRegister writes the single payload carrying the labeled register.
func (d *Device) WriteRegister(cfg DeviceConfig, label Label) error {
	p, err := cfg.RegisterPayload(label)
	if err != nil {
		return err
	}
	return d.writePayload(p)
}

// ReadProximity returns the raw proximity count.
func (d *Device) ReadProximity() (uint16, error) {
	return d.readWord(regPSData)
}

// ReadAmbientLight returns the raw ambient-light count.
func (d *Device) ReadAmbientLight() (uint16, error) {
	return d.readWord(regALSData)
}

// ReadWhite returns the raw white-channel count.
func (d *Device) ReadWhite() (uint16, error) {
	return d.readWord(regWhiteData)
}

// ClearInterrupt reads the interrupt-flag register, which clears the
// asserted flags. The returned content is discarded.
func (d *Device) ClearInterrupt() error {
	_, err := d.readWord(regIntFlag)
	return err
}

// --- Low-level word access ---

func (d *Device) readWord(reg uint8) (uint16, error) {
	d.w[0] = reg
	if err := d.i2c.Tx(d.addr, d.w[:1], d.r[:2]); err != nil {
		return 0, &TransportError{Op: "read", Reg: reg, Err: err}
	}
	return uint16(d.r[0]) | uint16(d.r[1])<<8, nil
}

func (d *Device) writePayload(p []byte) error {
	if err := d.i2c.Tx(d.addr, p, nil); err != nil {
		return &TransportError{Op: "write", Reg: p[0], Err: err}
	}
	return nil
}
