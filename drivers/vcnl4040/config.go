package vcnl4040

import "time"

// FieldValues holds symbolic values keyed by field name.
type FieldValues map[Field]any

// fieldWord is the symbolic record key for wide (16-bit) registers.
const fieldWord Field = "value"

// DeviceConfig is an immutable byte image of the chip's writable registers
// plus a parallel record of the symbolic values that produced it. Every
// mutating operation returns a new value; registers never explicitly set
// resolve to the chip's power-on defaults.
type DeviceConfig struct {
	bytes  map[Label][]byte
	fields map[Label]FieldValues
}

// NewConfig returns the empty configuration: every register at its
// power-on default.
func NewConfig() DeviceConfig {
	return DeviceConfig{}
}

func (c DeviceConfig) clone() DeviceConfig {
	out := DeviceConfig{
		bytes:  make(map[Label][]byte, len(c.bytes)+1),
		fields: make(map[Label]FieldValues, len(c.fields)+1),
	}
	for k, v := range c.bytes {
		out.bytes[k] = v
	}
	for k, v := range c.fields {
		out.fields[k] = v
	}
	return out
}

// Set replaces one register's byte payload and symbolic record wholesale.
// The payload width must match the register's declared width (8 or 16 bits).
func (c DeviceConfig) Set(label Label, payload []byte, vals FieldValues) (DeviceConfig, error) {
	spec, ok := lookupRegister(label)
	if !ok {
		return DeviceConfig{}, ErrUnknownRegister
	}
	if len(payload) != spec.widthBytes() {
		return DeviceConfig{}, &RegisterWidthMismatchError{Label: label, Got: len(payload), Want: spec.widthBytes()}
	}
	out := c.clone()
	out.bytes[label] = append([]byte(nil), payload...)
	fv := make(FieldValues, len(vals))
	for k, v := range vals {
		fv[k] = v
	}
	out.fields[label] = fv
	return out, nil
}

// Update re-derives a packed register from its last-known symbolic values
// (or the codec defaults if never set) merged with the given overrides,
// re-encodes, and stores both. Changing a single field this way preserves
// every previously set field of the register.
func (c DeviceConfig) Update(label Label, overrides FieldValues) (DeviceConfig, error) {
	spec, ok := lookupRegister(label)
	if !ok {
		return DeviceConfig{}, ErrUnknownRegister
	}
	if spec.wide {
		// Wide registers carry one 16-bit value; use SetWord.
		return DeviceConfig{}, &UnknownFieldError{Label: label, Field: fieldWord}
	}
	merged := make(FieldValues, len(spec.fields))
	for k, v := range c.fields[label] {
		merged[k] = v
	}
	for k, v := range overrides {
		if _, ok := spec.findField(k); !ok {
			return DeviceConfig{}, &UnknownFieldError{Label: label, Field: k}
		}
		merged[k] = v
	}
	b, err := packFields(spec, merged)
	if err != nil {
		return DeviceConfig{}, err
	}
	out := c.clone()
	out.bytes[label] = []byte{b}
	out.fields[label] = merged
	return out, nil
}

// SetWord sets a wide register (threshold pair or cancellation level) to an
// unsigned 16-bit value, stored little-endian.
func (c DeviceConfig) SetWord(label Label, v uint16) (DeviceConfig, error) {
	spec, ok := lookupRegister(label)
	if !ok {
		return DeviceConfig{}, ErrUnknownRegister
	}
	if !spec.wide {
		return DeviceConfig{}, &RegisterWidthMismatchError{Label: label, Got: 2, Want: 1}
	}
	return c.Set(label, []byte{byte(v), byte(v >> 8)}, FieldValues{fieldWord: v})
}

// Merge overlays o onto c: every register present in o overrides c's entry
// at whole-register granularity.
func (c DeviceConfig) Merge(o DeviceConfig) DeviceConfig {
	out := c.clone()
	for k, v := range o.bytes {
		out.bytes[k] = v
	}
	for k, v := range o.fields {
		out.fields[k] = v
	}
	return out
}

// Bytes returns the register's current byte image, resolving to the
// power-on default when the register was never set.
func (c DeviceConfig) Bytes(label Label) ([]byte, error) {
	spec, ok := lookupRegister(label)
	if !ok {
		return nil, ErrUnknownRegister
	}
	return append([]byte(nil), c.resolveBytes(spec)...), nil
}

// Word returns a wide register's current 16-bit value.
func (c DeviceConfig) Word(label Label) (uint16, error) {
	spec, ok := lookupRegister(label)
	if !ok {
		return 0, ErrUnknownRegister
	}
	if !spec.wide {
		return 0, &RegisterWidthMismatchError{Label: label, Got: 2, Want: 1}
	}
	b := c.resolveBytes(spec)
	return uint16(b[0]) | uint16(b[1])<<8, nil
}

// Fields returns a copy of the register's symbolic record, or ok=false if
// it was never explicitly set.
func (c DeviceConfig) Fields(label Label) (FieldValues, bool) {
	fv, ok := c.fields[label]
	if !ok {
		return nil, false
	}
	out := make(FieldValues, len(fv))
	for k, v := range fv {
		out[k] = v
	}
	return out, true
}

func (c DeviceConfig) resolveBytes(spec registerSpec) []byte {
	if spec.label != "" {
		if b, ok := c.bytes[spec.label]; ok {
			return b
		}
	}
	if spec.wide {
		return []byte{0, 0}
	}
	// Defaults always encode; the table is self-consistent.
	b, _ := packFields(spec, nil)
	return []byte{b}
}

// RegisterPayload returns the register's address byte followed by the bytes
// of every sub-register sharing that address, ordered by byte offset. Wide
// registers supply both bytes of their address; their high-order placeholder
// contributes the empty range.
func (c DeviceConfig) RegisterPayload(label Label) ([]byte, error) {
	spec, ok := lookupRegister(label)
	if !ok {
		return nil, ErrUnknownRegister
	}
	return c.payloadAt(spec.addr), nil
}

func (c DeviceConfig) payloadAt(addr uint8) []byte {
	out := []byte{addr}
	for _, spec := range registersAt(addr) {
		out = append(out, c.resolveBytes(spec)...)
	}
	return out
}

// AllWritePayloads returns the payload of every independently addressable
// writable register, in transmission order, ready for sequential writes.
func (c DeviceConfig) AllWritePayloads() [][]byte {
	out := make([][]byte, 0, len(writeAddresses))
	for _, addr := range writeAddresses {
		out = append(out, c.payloadAt(addr))
	}
	return out
}

// --- Convenience builders ---
//
// Pure compositions of Update/SetWord/Merge. Zero-valued optional arguments
// fall back to the documented defaults noted per builder.

// AmbientPolling enables the ambient-light channel for timer-driven reads
// at the given integration time.
func AmbientPolling(integration time.Duration) (DeviceConfig, error) {
	return NewConfig().Update(ALSConf, FieldValues{
		FieldALSShutdown:    false,
		FieldALSIntegration: integration,
	})
}

// AmbientWithInterrupts enables the ambient-light channel with threshold
// interrupts. persistence <= 0 defaults to 1 (assert on the first
// out-of-window reading).
func AmbientWithInterrupts(integration time.Duration, low, high uint16, persistence int) (DeviceConfig, error) {
	if persistence <= 0 {
		persistence = 1
	}
	cfg, err := NewConfig().Update(ALSConf, FieldValues{
		FieldALSShutdown:    false,
		FieldALSIntegration: integration,
		FieldALSInterrupt:   true,
		FieldALSPersistence: persistence,
	})
	if err != nil {
		return DeviceConfig{}, err
	}
	if cfg, err = cfg.SetWord(ALSThreshLow, low); err != nil {
		return DeviceConfig{}, err
	}
	return cfg.SetWord(ALSThreshHigh, high)
}

// ProximityPolling enables the proximity channel for timer-driven reads.
// ledCurrent <= 0 defaults to 50 mA.
func ProximityPolling(integration PSIntegration, ledCurrent int) (DeviceConfig, error) {
	if ledCurrent <= 0 {
		ledCurrent = 50
	}
	cfg, err := NewConfig().Update(PSConf1, FieldValues{
		FieldPSShutdown:    false,
		FieldPSIntegration: integration,
	})
	if err != nil {
		return DeviceConfig{}, err
	}
	return cfg.Update(PSMS, FieldValues{FieldLEDCurrent: ledCurrent})
}

// ProximityWithInterrupts enables the proximity channel with threshold
// interrupts in the given mode. ledCurrent <= 0 defaults to 50 mA.
func ProximityWithInterrupts(integration PSIntegration, ledCurrent int, low, high uint16, mode PSInterruptMode) (DeviceConfig, error) {
	cfg, err := ProximityPolling(integration, ledCurrent)
	if err != nil {
		return DeviceConfig{}, err
	}
	if cfg, err = cfg.Update(PSConf2, FieldValues{FieldPSInterrupt: mode}); err != nil {
		return DeviceConfig{}, err
	}
	if cfg, err = cfg.SetWord(PSThreshLow, low); err != nil {
		return DeviceConfig{}, err
	}
	return cfg.SetWord(PSThreshHigh, high)
}
