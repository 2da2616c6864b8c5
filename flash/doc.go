// Package flash defines the raw flash device interface consumed by the
// EEPROM emulation engine, together with simulated devices for testing
// and for file-backed flash images.
//
// # Device Model
//
// The engine does not talk to hardware directly. It operates on a Device,
// an abstraction of byte-addressable NOR flash with the two constraints
// that make EEPROM emulation necessary in the first place:
//
//   - Erase works on whole blocks and resets every bit to 1.
//   - Program can only clear bits (1 -> 0). Re-programming a word without
//     an intervening erase silently loses the 0 -> 1 transitions, which is
//     why callers are expected to read back and verify.
//
// All addressing is done with logical byte offsets from the start of the
// device, never raw pointers. Words are 32 bits, little-endian in the
// underlying byte image.
//
// # Provided Implementations
//
//   - MemDevice: a byte-slice-backed simulation with real NOR program
//     semantics (program ANDs bits) and fault injection hooks for
//     power-loss testing.
//   - FileDevice: a MemDevice persisted to a flash image file, used by the
//     softeepromctl tool.
//
// # Hardware Independence
//
// A real driver only needs to satisfy Device:
//
//	type MyFlash struct{ /* MMIO, flash controller, ... */ }
//
//	func (f *MyFlash) ReadWord(off uint32) uint32        { ... }
//	func (f *MyFlash) Program(off uint32, w []uint32) error { ... }
//	func (f *MyFlash) EraseBlock(off uint32) error       { ... }
//	func (f *MyFlash) Size() uint32                      { ... }
//	func (f *MyFlash) EraseBlockSize() uint32            { ... }
package flash
