package flash

import (
	"encoding/binary"
)

// MemDevice is a Device backed by a byte slice, with real NOR program
// semantics: erase sets a block to 0xFF, program ANDs the written words
// into the existing contents. A program that tries to flip a bit from 0
// back to 1 therefore succeeds at the device level but leaves the wrong
// value behind, exactly like hardware, and is caught by the engine's
// read-back verification.
//
// MemDevice also provides one-shot fault injection hooks so tests can
// simulate a power loss at an arbitrary point of a program or erase
// sequence.
//
// MemDevice is not safe for concurrent use, matching the single-threaded
// model of the store engine.
type MemDevice struct {
	mem       []byte
	blockSize uint32

	// fault injection state; -1 means disarmed
	programsUntilFail int
	programCutWords   int
	erasesUntilFail   int
}

// NewMemDevice creates a simulated flash device of the given size with
// the given erase block size, fully erased. Panics if the geometry is
// invalid (zero sizes or size not a multiple of the block size); a
// simulated device with impossible geometry is a test bug, not a runtime
// condition.
func NewMemDevice(size, blockSize uint32) *MemDevice {
	if size == 0 || blockSize == 0 || blockSize%WordSize != 0 || size%blockSize != 0 {
		panic("flash: invalid MemDevice geometry")
	}
	d := &MemDevice{
		mem:               make([]byte, size),
		blockSize:         blockSize,
		programsUntilFail: -1,
		erasesUntilFail:   -1,
	}
	for i := range d.mem {
		d.mem[i] = 0xFF
	}
	return d
}

// ReadWord returns the word at the given byte offset. Panics if the
// offset is out of range or misaligned; the engine validates all offsets
// against the configured region, so this is unreachable from the public
// store API.
func (d *MemDevice) ReadWord(off uint32) uint32 {
	if off%WordSize != 0 || off+WordSize > uint32(len(d.mem)) {
		panic((&AddrError{Op: "read", Off: off, Len: WordSize}).Error())
	}
	return binary.LittleEndian.Uint32(d.mem[off:])
}

// Program ANDs the given words into the device at the given byte offset.
func (d *MemDevice) Program(off uint32, words []uint32) error {
	n := uint32(len(words)) * WordSize
	if off%WordSize != 0 || off+n > uint32(len(d.mem)) || n == 0 {
		return &AddrError{Op: "program", Off: off, Len: n}
	}

	apply := len(words)
	fail := false
	if d.programsUntilFail == 0 {
		// Injected power cut: only the leading words reach the array.
		apply = d.programCutWords
		if apply > len(words) {
			apply = len(words)
		}
		fail = true
		d.programsUntilFail = -1
	} else if d.programsUntilFail > 0 {
		d.programsUntilFail--
	}

	for i := 0; i < apply; i++ {
		o := off + uint32(i)*WordSize
		cur := binary.LittleEndian.Uint32(d.mem[o:])
		binary.LittleEndian.PutUint32(d.mem[o:], cur&words[i])
	}

	if fail {
		return &OpError{Op: "program", Off: off, Err: ErrInjected}
	}
	return nil
}

// EraseBlock erases the block at the given block-aligned byte offset.
func (d *MemDevice) EraseBlock(off uint32) error {
	if off%d.blockSize != 0 || off+d.blockSize > uint32(len(d.mem)) {
		return &AddrError{Op: "erase", Off: off, Len: d.blockSize}
	}

	if d.erasesUntilFail == 0 {
		d.erasesUntilFail = -1
		return &OpError{Op: "erase", Off: off, Err: ErrInjected}
	}
	if d.erasesUntilFail > 0 {
		d.erasesUntilFail--
	}

	for i := off; i < off+d.blockSize; i++ {
		d.mem[i] = 0xFF
	}
	return nil
}

// Size returns the device capacity in bytes.
func (d *MemDevice) Size() uint32 {
	return uint32(len(d.mem))
}

// EraseBlockSize returns the erase block size in bytes.
func (d *MemDevice) EraseBlockSize() uint32 {
	return d.blockSize
}

// FailProgramAfter arms a one-shot program fault: the next Program call
// after `calls` successful ones applies only the first `partialWords`
// words and then returns an error wrapping ErrInjected, simulating a
// power loss mid-program. The hook disarms itself after firing.
func (d *MemDevice) FailProgramAfter(calls, partialWords int) {
	d.programsUntilFail = calls
	d.programCutWords = partialWords
}

// FailEraseAfter arms a one-shot erase fault: the next EraseBlock call
// after `calls` successful ones fails without touching the array. The
// hook disarms itself after firing.
func (d *MemDevice) FailEraseAfter(calls int) {
	d.erasesUntilFail = calls
}

// Bytes returns the underlying image. Tests use it to inspect the
// persisted layout and to fabricate corrupt page states that cannot be
// reached through the store API.
func (d *MemDevice) Bytes() []byte {
	return d.mem
}
