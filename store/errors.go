package store

import (
	"errors"
	"fmt"
)

// Code identifies a store failure class. The numeric values are stable
// and match the persisted-format documentation, so they can be reported
// over diagnostic channels that expect the historical codes.
type Code uint16

const (
	// CodeNotInit: an operation was attempted on a store that has not
	// been opened.
	CodeNotInit Code = 0x0001

	// CodeIllegalID: a read or write used an identifier outside
	// 0..MaxIDs-1.
	CodeIllegalID Code = 0x0002

	// CodePageErase: the device failed to erase a page, or the erased
	// page did not verify as all-ones.
	CodePageErase Code = 0x0003

	// CodePageWrite: the device failed to program, or the programmed
	// words did not verify against what was written.
	CodePageWrite Code = 0x0004

	// CodeActivePageCount: recovery found three or more active pages,
	// which is outside the recovery model's assumptions.
	CodeActivePageCount Code = 0x0005

	// CodeRange: the configured region or page geometry violates the
	// Open preconditions.
	CodeRange Code = 0x0006

	// CodeAvailEntry: a page swap completed but left no free entry slot,
	// meaning the page size is too small for the configured id count.
	CodeAvailEntry Code = 0x0007

	// CodeTwoActiveNoFull: recovery found two active pages but neither
	// is full. Two active pages can only result from an interrupted
	// swap, and swaps only run on full pages.
	CodeTwoActiveNoFull Code = 0x0008

	// CodePageRange: a byte-range request addresses beyond the emulated
	// EEPROM (wrapper level).
	CodePageRange Code = 0x0009
)

// swapFlag is ORed into Errno for failures that occurred during a page
// swap, so callers that only see the numeric form can still tell that
// recovery will run on the next open.
const swapFlag uint16 = 0x8000

// Error is the error type returned by all store operations. DuringSwap
// marks failures that happened inside a page-swap compaction; those
// leave the flash in a state that the next Open will repair. Media
// failures wrap the underlying flash error.
type Error struct {
	Code       Code
	DuringSwap bool
	Err        error
}

func (e *Error) Error() string {
	msg := codeName(e.Code)
	if e.DuringSwap {
		msg += " (during page swap)"
	}
	if e.Err != nil {
		return fmt.Sprintf("softeeprom: %s: %v", msg, e.Err)
	}
	return "softeeprom: " + msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errno returns the stable numeric form of the error: the code, with
// 0x8000 ORed in for failures during a swap.
func (e *Error) Errno() uint16 {
	n := uint16(e.Code)
	if e.DuringSwap {
		n |= swapFlag
	}
	return n
}

// CodeOf returns the Code carried by err, or 0 if err is not a store
// error.
func CodeOf(err error) Code {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// IsCode reports whether err is a store error with the given code.
func IsCode(err error, c Code) bool {
	return CodeOf(err) == c
}

func codeName(c Code) string {
	switch c {
	case CodeNotInit:
		return "store not initialized"
	case CodeIllegalID:
		return "illegal identifier"
	case CodePageErase:
		return "page erase failed"
	case CodePageWrite:
		return "page write failed"
	case CodeActivePageCount:
		return "more than two active pages"
	case CodeRange:
		return "region out of range"
	case CodeAvailEntry:
		return "no available entry after swap"
	case CodeTwoActiveNoFull:
		return "two active pages but none full"
	case CodePageRange:
		return "byte range out of range"
	default:
		return fmt.Sprintf("unknown error code 0x%04X", uint16(c))
	}
}

// swapTagged marks a store error as having occurred during a page swap.
// Non-store errors pass through unchanged.
func swapTagged(err error) error {
	var se *Error
	if errors.As(err, &se) {
		se.DuringSwap = true
	}
	return err
}
