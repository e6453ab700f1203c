package errcode

import (
	"errors"

	"sensorcode-go/drivers/vcnl4040"
)

// Code is a stable, bus-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK Code = "ok"

	// Session startup / transport
	BusOpenFailed Code = "bus_open_failed"
	InvalidDevice Code = "invalid_device"
	PinOpenFailed Code = "pin_open_failed"
	Transport     Code = "transport"

	// Configuration construction (programmer errors)
	UnknownRegister       Code = "unknown_register"
	UnknownField          Code = "unknown_field"
	InvalidFieldValue     Code = "invalid_field_value"
	RegisterWidthMismatch Code = "register_width_mismatch"

	Closed Code = "closed"
	Error  Code = "error" // generic fallback
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	if e.Msg != "" {
		return string(e.C) + ": " + e.Msg
	}
	return string(e.C)
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return MapDriverErr(err)
}

// MapDriverErr maps low-level driver errors to a Code.
func MapDriverErr(err error) Code {
	if err == nil {
		return OK
	}
	var (
		transportErr *vcnl4040.TransportError
		fieldErr     *vcnl4040.UnknownFieldError
		valueErr     *vcnl4040.InvalidFieldValueError
		widthErr     *vcnl4040.RegisterWidthMismatchError
	)
	switch {
	case errors.Is(err, vcnl4040.ErrInvalidDevice):
		return InvalidDevice
	case errors.Is(err, vcnl4040.ErrUnknownRegister):
		return UnknownRegister
	case errors.As(err, &transportErr):
		return Transport
	case errors.As(err, &fieldErr):
		return UnknownField
	case errors.As(err, &valueErr):
		return InvalidFieldValue
	case errors.As(err, &widthErr):
		return RegisterWidthMismatch
	default:
		return Error
	}
}
