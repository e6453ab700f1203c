package vcnl4040

import "time"

// Symbolic field domains. Enumerated settings are typed; counts and
// milliamp values use plain ints so config literals stay untyped.

// PSIntegration selects the proximity integration time (multiples of T).
type PSIntegration uint8

const (
	PSIntegration1T PSIntegration = iota
	PSIntegration1_5T
	PSIntegration2T
	PSIntegration2_5T
	PSIntegration3T
	PSIntegration3_5T
	PSIntegration4T
	PSIntegration8T
)

// PSInterruptMode selects which proximity events raise the interrupt line.
type PSInterruptMode uint8

const (
	PSInterruptDisabled PSInterruptMode = iota
	PSInterruptClose
	PSInterruptAway
	PSInterruptBoth
)

const defaultALSIntegration = 80 * time.Millisecond

// codec encodes one symbolic field value to its fixed-width bit pattern.
// Decode tables are not needed: configuration is write-only and the byte
// image is always re-derivable from the symbolic record.
type codec interface {
	encode(v any) (uint8, error)
}

// enumCodec is a straight value-to-bits table.
type enumCodec struct {
	field Field
	table map[any]uint8
}

func (c enumCodec) encode(v any) (uint8, error) {
	bits, ok := c.table[v]
	if !ok {
		return 0, &InvalidFieldValueError{Field: c.field, Value: v}
	}
	return bits, nil
}

// boolFieldCodec encodes true as 1, false as 0.
type boolFieldCodec struct {
	field Field
}

func boolCodec(f Field) codec { return boolFieldCodec{field: f} }

func (c boolFieldCodec) encode(v any) (uint8, error) {
	b, ok := v.(bool)
	if !ok {
		return 0, &InvalidFieldValueError{Field: c.field, Value: v}
	}
	if b {
		return 1, nil
	}
	return 0, nil
}

var alsIntegrationCodec = enumCodec{field: FieldALSIntegration, table: map[any]uint8{
	80 * time.Millisecond:  0b00,
	160 * time.Millisecond: 0b01,
	320 * time.Millisecond: 0b10,
	640 * time.Millisecond: 0b11,
}}

// alsPersistenceCodec counts consecutive out-of-threshold readings needed
// to assert the interrupt.
var alsPersistenceCodec = enumCodec{field: FieldALSPersistence, table: map[any]uint8{
	1: 0b00, 2: 0b01, 4: 0b10, 8: 0b11,
}}

// psDutyCodec takes the denominator of the IRED on/off duty ratio (1/40..1/320).
var psDutyCodec = enumCodec{field: FieldPSDuty, table: map[any]uint8{
	40: 0b00, 80: 0b01, 160: 0b10, 320: 0b11,
}}

var psPersistenceCodec = enumCodec{field: FieldPSPersistence, table: map[any]uint8{
	1: 0b00, 2: 0b01, 3: 0b10, 4: 0b11,
}}

var psIntegrationCodec = enumCodec{field: FieldPSIntegration, table: map[any]uint8{
	PSIntegration1T:   0b000,
	PSIntegration1_5T: 0b001,
	PSIntegration2T:   0b010,
	PSIntegration2_5T: 0b011,
	PSIntegration3T:   0b100,
	PSIntegration3_5T: 0b101,
	PSIntegration4T:   0b110,
	PSIntegration8T:   0b111,
}}

var psInterruptCodec = enumCodec{field: FieldPSInterrupt, table: map[any]uint8{
	PSInterruptDisabled: 0b00,
	PSInterruptClose:    0b01,
	PSInterruptAway:     0b10,
	PSInterruptBoth:     0b11,
}}

var psMultiPulseCodec = enumCodec{field: FieldPSMultiPulse, table: map[any]uint8{
	1: 0b00, 2: 0b01, 4: 0b10, 8: 0b11,
}}

// whiteChannelCodec inverts: the hardware bit is a disable flag.
var whiteChannelCodec = enumCodec{field: FieldWhiteChannel, table: map[any]uint8{
	true: 0, false: 1,
}}

// ledCurrentCodec takes the IRED drive current in milliamps.
var ledCurrentCodec = enumCodec{field: FieldLEDCurrent, table: map[any]uint8{
	50: 0b000, 75: 0b001, 100: 0b010, 120: 0b011,
	140: 0b100, 160: 0b101, 180: 0b110, 200: 0b111,
}}

// packFields concatenates the register's field bit patterns MSB-first into
// a single byte. Reserved slices contribute zeros. Values come from vals,
// falling back to the hardware default for fields not present.
func packFields(spec registerSpec, vals FieldValues) (uint8, error) {
	var out uint8
	for _, f := range spec.fields {
		out <<= f.width
		if f.enc == nil {
			continue
		}
		v, ok := vals[f.name]
		if !ok {
			v = f.def
		}
		bits, err := f.enc.encode(v)
		if err != nil {
			return 0, err
		}
		out |= bits & ((1 << f.width) - 1)
	}
	return out, nil
}

// --- Derived-value scaling ---

// milliLuxPerCount maps ALS integration time to the fixed lux scale,
// held in integer milli-lux (0.12, 0.06, 0.03, 0.015 lux/count).
var milliLuxPerCount = map[time.Duration]int32{
	80 * time.Millisecond:  120,
	160 * time.Millisecond: 60,
	320 * time.Millisecond: 30,
	640 * time.Millisecond: 15,
}

// MilliLux derives the ambient-light value from a raw count and the
// configured integration time. Unknown integration times report an
// InvalidFieldValue error.
func MilliLux(raw uint16, integration time.Duration) (int32, error) {
	scale, ok := milliLuxPerCount[integration]
	if !ok {
		return 0, &InvalidFieldValueError{Field: FieldALSIntegration, Value: integration}
	}
	// 0.12 lux/count at 16 bits stays well inside int32 as milli-lux.
	return int32(raw) * scale, nil
}
