package vcnl4040

import (
	"errors"
	"fmt"
)

// Errors returned by the driver.
var (
	// ErrInvalidDevice reports an identity register that does not read
	// back DeviceID. Fatal to startup; never retried here.
	ErrInvalidDevice = errors.New("vcnl4040: unexpected device identity")

	// ErrUnknownRegister reports a register label outside the writable set.
	ErrUnknownRegister = errors.New("vcnl4040: unknown register label")
)

// TransportError wraps a failed bus operation with the register and
// operation it belonged to.
type TransportError struct {
	Op  string // "read", "write"
	Reg uint8
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("vcnl4040: %s reg 0x%02X: %v", e.Op, e.Reg, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UnknownFieldError reports a field name the target register does not have.
type UnknownFieldError struct {
	Label Label
	Field Field
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("vcnl4040: register %s has no field %q", e.Label, e.Field)
}

// InvalidFieldValueError reports a symbolic value with no codec entry,
// e.g. an integration time not among the discrete options.
type InvalidFieldValueError struct {
	Field Field
	Value any
}

func (e *InvalidFieldValueError) Error() string {
	return fmt.Sprintf("vcnl4040: invalid value %v for field %q", e.Value, e.Field)
}

// RegisterWidthMismatchError reports a payload whose width does not match
// the register's declared width.
type RegisterWidthMismatchError struct {
	Label Label
	Got   int // bytes supplied
	Want  int // bytes declared
}

func (e *RegisterWidthMismatchError) Error() string {
	return fmt.Sprintf("vcnl4040: register %s takes %d byte(s), got %d", e.Label, e.Want, e.Got)
}
