package vcnl4040

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

// deviceImage concatenates the data bytes of every write payload (address
// bytes stripped), i.e. the full 16-byte register image 0x00..0x07.
func deviceImage(t *testing.T, cfg DeviceConfig) []byte {
	t.Helper()
	var img []byte
	for _, p := range cfg.AllWritePayloads() {
		img = append(img, p[1:]...)
	}
	return img
}

func TestPowerOnDefaultImage(t *testing.T) {
	// 01 00 | 0000 | 0000 | 01 00 | 00 00 | 0000 | 0000 | 0000
	want := []byte{
		0x01, 0x00,
		0x00, 0x00,
		0x00, 0x00,
		0x01, 0x00,
		0x00, 0x00,
		0x00, 0x00,
		0x00, 0x00,
		0x00, 0x00,
	}
	got := deviceImage(t, NewConfig())
	if !bytes.Equal(got, want) {
		t.Fatalf("default image mismatch:\n got  %x\n want %x", got, want)
	}
}

func TestExplicitDefaultsMatchUnsetRegisters(t *testing.T) {
	// Re-encoding every packed register from its documented defaults must
	// reproduce the untouched image byte for byte.
	cfg := NewConfig()
	var err error
	for _, label := range []Label{ALSConf, PSConf1, PSConf2, PSConf3, PSMS} {
		if cfg, err = cfg.Update(label, FieldValues{}); err != nil {
			t.Fatalf("update %s: %v", label, err)
		}
	}
	for _, label := range []Label{ALSThreshHigh, ALSThreshLow, PSCancel, PSThreshLow, PSThreshHigh} {
		if cfg, err = cfg.SetWord(label, 0); err != nil {
			t.Fatalf("set %s: %v", label, err)
		}
	}
	if got, want := deviceImage(t, cfg), deviceImage(t, NewConfig()); !bytes.Equal(got, want) {
		t.Fatalf("explicit defaults diverge from unset image:\n got  %x\n want %x", got, want)
	}
}

func TestRegisterPayloadAddressing(t *testing.T) {
	cfg := NewConfig()

	p, err := cfg.RegisterPayload(ALSConf)
	if err != nil {
		t.Fatalf("als_conf payload: %v", err)
	}
	if want := []byte{0x00, 0x01, 0x00}; !bytes.Equal(p, want) {
		t.Fatalf("als_conf payload = %x, want %x", p, want)
	}

	// The second proximity-config register shares address 0x03; its payload
	// carries both bytes of the pair.
	p, err = cfg.RegisterPayload(PSConf2)
	if err != nil {
		t.Fatalf("ps_conf2 payload: %v", err)
	}
	if want := []byte{0x03, 0x01, 0x00}; !bytes.Equal(p, want) {
		t.Fatalf("ps_conf2 payload = %x, want %x", p, want)
	}

	// Threshold pairs: the low-byte register supplies both bytes, LE.
	cfg, err = cfg.SetWord(ALSThreshHigh, 0x1234)
	if err != nil {
		t.Fatalf("set als_thresh_high: %v", err)
	}
	p, err = cfg.RegisterPayload(ALSThreshHigh)
	if err != nil {
		t.Fatalf("als_thresh_high payload: %v", err)
	}
	if want := []byte{0x01, 0x34, 0x12}; !bytes.Equal(p, want) {
		t.Fatalf("als_thresh_high payload = %x, want %x", p, want)
	}
}

func TestUpdatePreservesDisjointFields(t *testing.T) {
	cfg, err := NewConfig().Update(ALSConf, FieldValues{FieldALSShutdown: false})
	if err != nil {
		t.Fatalf("first update: %v", err)
	}
	cfg, err = cfg.Update(ALSConf, FieldValues{FieldALSPersistence: 8})
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	b, err := cfg.Bytes(ALSConf)
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}
	// persistence 8 -> bits 3:2 = 11, shutdown stays clear.
	if b[0] != 0x0C {
		t.Fatalf("als_conf byte = %#02x, want 0x0c", b[0])
	}
}

func TestMergeOverridesWholeRegisters(t *testing.T) {
	a, err := NewConfig().Update(ALSConf, FieldValues{FieldALSShutdown: false, FieldALSPersistence: 4})
	if err != nil {
		t.Fatal(err)
	}
	a, err = a.SetWord(ALSThreshLow, 100)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewConfig().Update(ALSConf, FieldValues{FieldALSIntegration: 320 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}

	m := a.Merge(b)

	// b's als_conf wins wholesale: integration 320ms with default shutdown,
	// not a field-level blend with a's persistence.
	got, err := m.Bytes(ALSConf)
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 0x81 {
		t.Fatalf("merged als_conf = %#02x, want 0x81", got[0])
	}
	// a's threshold survives untouched.
	if v, err := m.Word(ALSThreshLow); err != nil || v != 100 {
		t.Fatalf("merged als_thresh_low = %d (%v), want 100", v, err)
	}
}

func TestBuilderArgumentsAllReachTheImage(t *testing.T) {
	// Every builder argument must change the byte image somewhere:
	// no configuration knob may be a byte-wise no-op.
	base := func() DeviceConfig {
		cfg, err := AmbientWithInterrupts(80*time.Millisecond, 100, 200, 1)
		if err != nil {
			t.Fatalf("base builder: %v", err)
		}
		return cfg
	}
	variants := map[string]func() (DeviceConfig, error){
		"integration": func() (DeviceConfig, error) { return AmbientWithInterrupts(160*time.Millisecond, 100, 200, 1) },
		"low":         func() (DeviceConfig, error) { return AmbientWithInterrupts(80*time.Millisecond, 101, 200, 1) },
		"high":        func() (DeviceConfig, error) { return AmbientWithInterrupts(80*time.Millisecond, 100, 201, 1) },
		"persistence": func() (DeviceConfig, error) { return AmbientWithInterrupts(80*time.Millisecond, 100, 200, 2) },
	}
	ref := deviceImage(t, base())
	for name, build := range variants {
		cfg, err := build()
		if err != nil {
			t.Fatalf("%s variant: %v", name, err)
		}
		if bytes.Equal(deviceImage(t, cfg), ref) {
			t.Errorf("changing %s did not change the byte image", name)
		}
	}

	psBase, err := ProximityWithInterrupts(PSIntegration1T, 50, 10, 20, PSInterruptBoth)
	if err != nil {
		t.Fatalf("ps base builder: %v", err)
	}
	psVariants := map[string]func() (DeviceConfig, error){
		"integration": func() (DeviceConfig, error) {
			return ProximityWithInterrupts(PSIntegration8T, 50, 10, 20, PSInterruptBoth)
		},
		"led": func() (DeviceConfig, error) {
			return ProximityWithInterrupts(PSIntegration1T, 200, 10, 20, PSInterruptBoth)
		},
		"low": func() (DeviceConfig, error) {
			return ProximityWithInterrupts(PSIntegration1T, 50, 11, 20, PSInterruptBoth)
		},
		"high": func() (DeviceConfig, error) {
			return ProximityWithInterrupts(PSIntegration1T, 50, 10, 21, PSInterruptBoth)
		},
		"mode": func() (DeviceConfig, error) {
			return ProximityWithInterrupts(PSIntegration1T, 50, 10, 20, PSInterruptClose)
		},
	}
	psRef := deviceImage(t, psBase)
	for name, build := range psVariants {
		cfg, err := build()
		if err != nil {
			t.Fatalf("ps %s variant: %v", name, err)
		}
		if bytes.Equal(deviceImage(t, cfg), psRef) {
			t.Errorf("changing ps %s did not change the byte image", name)
		}
	}
}

func TestConfigurationErrors(t *testing.T) {
	cfg := NewConfig()

	if _, err := cfg.Set("bogus", []byte{0}, nil); !errors.Is(err, ErrUnknownRegister) {
		t.Errorf("unknown label: got %v", err)
	}

	var widthErr *RegisterWidthMismatchError
	if _, err := cfg.Set(ALSConf, []byte{0, 0}, nil); !errors.As(err, &widthErr) {
		t.Errorf("wide payload on packed register: got %v", err)
	}
	if _, err := cfg.SetWord(PSConf1, 1); !errors.As(err, &widthErr) {
		t.Errorf("SetWord on packed register: got %v", err)
	}

	var fieldErr *UnknownFieldError
	if _, err := cfg.Update(ALSConf, FieldValues{FieldPSDuty: 40}); !errors.As(err, &fieldErr) {
		t.Errorf("foreign field on als_conf: got %v", err)
	}
	if _, err := cfg.Update(ALSThreshHigh, FieldValues{FieldALSShutdown: true}); !errors.As(err, &fieldErr) {
		t.Errorf("Update on wide register: got %v", err)
	}

	var valErr *InvalidFieldValueError
	if _, err := cfg.Update(ALSConf, FieldValues{FieldALSIntegration: 100 * time.Millisecond}); !errors.As(err, &valErr) {
		t.Errorf("unlisted integration time: got %v", err)
	}
	if _, err := cfg.Update(PSMS, FieldValues{FieldLEDCurrent: 99}); !errors.As(err, &valErr) {
		t.Errorf("unlisted LED current: got %v", err)
	}
}

func TestMilliLuxScale(t *testing.T) {
	cases := []struct {
		integration time.Duration
		raw         uint16
		want        int32
	}{
		{80 * time.Millisecond, 100, 12000},
		{160 * time.Millisecond, 100, 6000},
		{320 * time.Millisecond, 100, 3000},
		{640 * time.Millisecond, 100, 1500},
		{640 * time.Millisecond, 0xFFFF, 983025},
	}
	for _, c := range cases {
		got, err := MilliLux(c.raw, c.integration)
		if err != nil {
			t.Fatalf("MilliLux(%d, %v): %v", c.raw, c.integration, err)
		}
		if got != c.want {
			t.Errorf("MilliLux(%d, %v) = %d, want %d", c.raw, c.integration, got, c.want)
		}
	}
	if _, err := MilliLux(1, 50*time.Millisecond); err == nil {
		t.Error("expected error for unlisted integration time")
	}
}
