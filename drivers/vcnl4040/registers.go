// Package vcnl4040 provides constants and the register/field layout for the
// Vishay VCNL4040 combined ambient-light and proximity sensor.
package vcnl4040

const (
	// 7-bit I2C address (fixed, no address pins).
	Address = 0x60

	// Identity value read from regDeviceID (little-endian).
	DeviceID = 0x0186

	// --- Register sub-addresses (16-bit word registers) ---

	// Config / control (writable)
	regALSConf      = 0x00 // R/W low byte; high byte reserved
	regALSThreshHi  = 0x01 // R/W 16-bit ALS interrupt high threshold
	regALSThreshLo  = 0x02 // R/W 16-bit ALS interrupt low threshold
	regPSConf12     = 0x03 // R/W PS_CONF1 (low) + PS_CONF2 (high)
	regPSConf3MS    = 0x04 // R/W PS_CONF3 (low) + PS_MS (high)
	regPSCancel     = 0x05 // R/W 16-bit PS cancellation level
	regPSThreshLo   = 0x06 // R/W 16-bit PS interrupt low threshold
	regPSThreshHi   = 0x07 // R/W 16-bit PS interrupt high threshold

	// Readouts / status
	regPSData    = 0x08 // R, LE uint16 proximity count
	regALSData   = 0x09 // R, LE uint16 ambient-light count
	regWhiteData = 0x0A // R, LE uint16 white-channel count
	regIntFlag   = 0x0B // R, flags in high byte; cleared by reading
	regDeviceID  = 0x0C // R, 0x0186
)

// Label identifies one logical writable register.
type Label string

const (
	ALSConf       Label = "als_conf"
	ALSThreshHigh Label = "als_thresh_high"
	ALSThreshLow  Label = "als_thresh_low"
	PSConf1       Label = "ps_conf1"
	PSConf2       Label = "ps_conf2"
	PSConf3       Label = "ps_conf3"
	PSMS          Label = "ps_ms"
	PSCancel      Label = "ps_canc"
	PSThreshLow   Label = "ps_thresh_low"
	PSThreshHigh  Label = "ps_thresh_high"
)

// Field names one bit-slice within a packed register byte.
type Field string

const (
	FieldALSIntegration Field = "als_it"
	FieldALSPersistence Field = "als_pers"
	FieldALSInterrupt   Field = "als_int_en"
	FieldALSShutdown    Field = "als_sd"

	FieldPSDuty          Field = "ps_duty"
	FieldPSPersistence   Field = "ps_pers"
	FieldPSIntegration   Field = "ps_it"
	FieldPSShutdown      Field = "ps_sd"
	FieldPSHD            Field = "ps_hd"
	FieldPSInterrupt     Field = "ps_int"
	FieldPSMultiPulse    Field = "ps_mps"
	FieldPSSmartPersist  Field = "ps_smart_pers"
	FieldPSActiveForce   Field = "ps_af"
	FieldPSTrigger       Field = "ps_trig"
	FieldPSSunlightCancel Field = "ps_sc_en"
	FieldWhiteChannel    Field = "white_en"
	FieldPSMSMode        Field = "ps_ms"
	FieldLEDCurrent      Field = "led_i"
)

// bitField is one MSB-first slice of a packed register byte. A nil codec
// marks reserved bits, which always encode to zero.
type bitField struct {
	name  Field
	width uint8
	enc   codec
	def   any // hardware power-on default symbolic value
}

// registerSpec describes one logical register: either a packed byte at a
// byte offset within the 16-bit hardware write, or a wide 16-bit value.
// A wide register owns both bytes of its address; its high-order half is a
// structural placeholder and contributes no bytes of its own.
type registerSpec struct {
	label  Label
	addr   uint8
	offset uint8
	wide   bool
	fields []bitField // MSB-first; per byte the widths sum to 8
}

// registerMap lists every writable register in address/offset order.
// Reserved whole bytes (the high byte of 0x00) appear as unlabeled specs so
// payload assembly can account for them.
var registerMap = []registerSpec{
	{
		label: ALSConf, addr: regALSConf, offset: 0,
		fields: []bitField{
			{name: FieldALSIntegration, width: 2, enc: alsIntegrationCodec, def: defaultALSIntegration},
			{width: 2}, // reserved
			{name: FieldALSPersistence, width: 2, enc: alsPersistenceCodec, def: 1},
			{name: FieldALSInterrupt, width: 1, enc: boolCodec(FieldALSInterrupt), def: false},
			{name: FieldALSShutdown, width: 1, enc: boolCodec(FieldALSShutdown), def: true},
		},
	},
	{
		// High byte of 0x00 is reserved; it ships as 0x00 in every payload.
		addr: regALSConf, offset: 1,
		fields: []bitField{{width: 8}},
	},
	{label: ALSThreshHigh, addr: regALSThreshHi, wide: true},
	{label: ALSThreshLow, addr: regALSThreshLo, wide: true},
	{
		label: PSConf1, addr: regPSConf12, offset: 0,
		fields: []bitField{
			{name: FieldPSDuty, width: 2, enc: psDutyCodec, def: 40},
			{name: FieldPSPersistence, width: 2, enc: psPersistenceCodec, def: 1},
			{name: FieldPSIntegration, width: 3, enc: psIntegrationCodec, def: PSIntegration1T},
			{name: FieldPSShutdown, width: 1, enc: boolCodec(FieldPSShutdown), def: true},
		},
	},
	{
		label: PSConf2, addr: regPSConf12, offset: 1,
		fields: []bitField{
			{width: 4}, // reserved
			{name: FieldPSHD, width: 1, enc: boolCodec(FieldPSHD), def: false},
			{width: 1}, // reserved
			{name: FieldPSInterrupt, width: 2, enc: psInterruptCodec, def: PSInterruptDisabled},
		},
	},
	{
		label: PSConf3, addr: regPSConf3MS, offset: 0,
		fields: []bitField{
			{width: 1}, // reserved
			{name: FieldPSMultiPulse, width: 2, enc: psMultiPulseCodec, def: 1},
			{name: FieldPSSmartPersist, width: 1, enc: boolCodec(FieldPSSmartPersist), def: false},
			{name: FieldPSActiveForce, width: 1, enc: boolCodec(FieldPSActiveForce), def: false},
			{name: FieldPSTrigger, width: 1, enc: boolCodec(FieldPSTrigger), def: false},
			{width: 1}, // reserved
			{name: FieldPSSunlightCancel, width: 1, enc: boolCodec(FieldPSSunlightCancel), def: false},
		},
	},
	{
		label: PSMS, addr: regPSConf3MS, offset: 1,
		fields: []bitField{
			// white_en: the hardware bit disables the channel when set, so
			// the symbolic value true (channel enabled) encodes to 0.
			{name: FieldWhiteChannel, width: 1, enc: whiteChannelCodec, def: true},
			{name: FieldPSMSMode, width: 1, enc: boolCodec(FieldPSMSMode), def: false},
			{width: 3}, // reserved
			{name: FieldLEDCurrent, width: 3, enc: ledCurrentCodec, def: 50},
		},
	},
	{label: PSCancel, addr: regPSCancel, wide: true},
	{label: PSThreshLow, addr: regPSThreshLo, wide: true},
	{label: PSThreshHigh, addr: regPSThreshHi, wide: true},
}

// lookupRegister returns the spec for a writable register label.
func lookupRegister(label Label) (registerSpec, bool) {
	for _, r := range registerMap {
		if r.label == label {
			return r, true
		}
	}
	return registerSpec{}, false
}

// registersAt returns every spec sharing an address, ordered by byte offset.
func registersAt(addr uint8) []registerSpec {
	var out []registerSpec
	for _, r := range registerMap {
		if r.addr == addr {
			out = append(out, r)
		}
	}
	return out
}

// writeAddresses lists the independently addressable writable registers in
// transmission order.
var writeAddresses = []uint8{
	regALSConf, regALSThreshHi, regALSThreshLo, regPSConf12,
	regPSConf3MS, regPSCancel, regPSThreshLo, regPSThreshHi,
}

// width reports the register's declared width in bytes (1 or 2).
func (r registerSpec) widthBytes() int {
	if r.wide {
		return 2
	}
	return 1
}

// findField returns the bit-slice spec for a named field of this register.
func (r registerSpec) findField(name Field) (bitField, bool) {
	for _, f := range r.fields {
		if f.name == name {
			return f, true
		}
	}
	return bitField{}, false
}
