package flash

import (
	"errors"
	"fmt"
)

// WordSize is the program granularity of the devices in this package, in
// bytes. All offsets passed to ReadWord and Program must be aligned to it.
const WordSize = 4

// ErasedWord is the value a word reads as after a successful erase.
const ErasedWord uint32 = 0xFFFFFFFF

// Device is the raw flash interface consumed by the store engine.
//
// Program must honor the write-once-per-erase constraint of NOR flash:
// it may clear bits but never set them. Implementations are not required
// to detect a violation; the engine reads back and compares after every
// program operation.
//
// Operations are plain blocking calls. On real hardware an erase can take
// milliseconds; there is no cancellation, because interrupting an erase or
// program mid-flight is exactly the failure mode the engine's recovery
// exists to tolerate.
type Device interface {
	// ReadWord returns the 32-bit word at the given byte offset.
	ReadWord(off uint32) uint32

	// Program writes the given words starting at the given byte offset.
	Program(off uint32, words []uint32) error

	// EraseBlock erases the erase block containing the given byte offset,
	// resetting it to all-ones. The offset must be block-aligned.
	EraseBlock(off uint32) error

	// Size returns the device capacity in bytes.
	Size() uint32

	// EraseBlockSize returns the minimal erasable unit in bytes.
	EraseBlockSize() uint32
}

// ErrInjected is the cause of failures produced by the fault injection
// hooks on MemDevice. Tests can identify it with errors.Is.
var ErrInjected = errors.New("injected fault")

// AddrError indicates that an operation was attempted with an offset or
// length outside the device, or misaligned for the operation.
type AddrError struct {
	Op  string
	Off uint32
	Len uint32
}

func (e *AddrError) Error() string {
	return fmt.Sprintf("flash: %s at offset 0x%X (%d bytes): address out of range or misaligned",
		e.Op, e.Off, e.Len)
}

// OpError indicates that a program or erase operation failed on the
// device. It wraps the underlying cause.
type OpError struct {
	Op  string
	Off uint32
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("flash: %s at offset 0x%X: %v", e.Op, e.Off, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}
