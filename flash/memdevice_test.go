package flash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMemDeviceStartsErased(t *testing.T) {
	dev := NewMemDevice(256, 64)

	assert.Equal(t, uint32(256), dev.Size())
	assert.Equal(t, uint32(64), dev.EraseBlockSize())
	for off := uint32(0); off < dev.Size(); off += WordSize {
		require.Equal(t, ErasedWord, dev.ReadWord(off))
	}
}

func TestNewMemDeviceBadGeometryPanics(t *testing.T) {
	assert.Panics(t, func() { NewMemDevice(0, 64) })
	assert.Panics(t, func() { NewMemDevice(256, 0) })
	assert.Panics(t, func() { NewMemDevice(250, 64) })
	assert.Panics(t, func() { NewMemDevice(256, 6) })
}

func TestProgramClearsBitsOnly(t *testing.T) {
	dev := NewMemDevice(256, 64)

	require.NoError(t, dev.Program(8, []uint32{0x00FF12AB}))
	assert.Equal(t, uint32(0x00FF12AB), dev.ReadWord(8))

	// Re-programming without an erase can only clear bits further; the
	// result is the AND of both writes, like real NOR flash.
	require.NoError(t, dev.Program(8, []uint32{0xFFFF0FFF}))
	assert.Equal(t, uint32(0x00FF02AB), dev.ReadWord(8))
}

func TestProgramRange(t *testing.T) {
	dev := NewMemDevice(256, 64)

	var addrErr *AddrError

	err := dev.Program(254, []uint32{1})
	require.ErrorAs(t, err, &addrErr)

	err = dev.Program(6, []uint32{1})
	require.ErrorAs(t, err, &addrErr)

	err = dev.Program(0, nil)
	require.ErrorAs(t, err, &addrErr)
}

func TestEraseBlock(t *testing.T) {
	dev := NewMemDevice(256, 64)

	require.NoError(t, dev.Program(64, []uint32{0x12345678}))
	require.NoError(t, dev.EraseBlock(64))
	assert.Equal(t, ErasedWord, dev.ReadWord(64))

	var addrErr *AddrError
	require.ErrorAs(t, dev.EraseBlock(32), &addrErr)
	require.ErrorAs(t, dev.EraseBlock(256), &addrErr)
}

func TestReadWordPanicsOutOfRange(t *testing.T) {
	dev := NewMemDevice(256, 64)

	assert.Panics(t, func() { dev.ReadWord(256) })
	assert.Panics(t, func() { dev.ReadWord(2) })
}

func TestProgramFaultInjection(t *testing.T) {
	dev := NewMemDevice(256, 64)
	dev.FailProgramAfter(1, 1)

	// First call is allowed through untouched.
	require.NoError(t, dev.Program(0, []uint32{0xAAAAAAAA}))

	// Second call is cut after one word.
	err := dev.Program(8, []uint32{0x11111111, 0x22222222, 0x33333333})
	require.ErrorIs(t, err, ErrInjected)
	assert.Equal(t, uint32(0x11111111), dev.ReadWord(8))
	assert.Equal(t, ErasedWord, dev.ReadWord(12))
	assert.Equal(t, ErasedWord, dev.ReadWord(16))

	// The hook is one-shot; power is back.
	require.NoError(t, dev.Program(12, []uint32{0x22222222}))
	assert.Equal(t, uint32(0x22222222), dev.ReadWord(12))
}

func TestEraseFaultInjection(t *testing.T) {
	dev := NewMemDevice(256, 64)
	require.NoError(t, dev.Program(0, []uint32{0}))

	dev.FailEraseAfter(0)
	err := dev.EraseBlock(0)
	require.ErrorIs(t, err, ErrInjected)

	// The failed erase left the array untouched.
	assert.Equal(t, uint32(0), dev.ReadWord(0))

	require.NoError(t, dev.EraseBlock(0))
	assert.Equal(t, ErasedWord, dev.ReadWord(0))
}
