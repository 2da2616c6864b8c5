package eeprom

import (
	"github.com/emberfield/go-softeeprom/store"
)

// erasedValue is what an entry reads as when its id was never written.
const erasedValue uint16 = 0xFFFF

// EEPROM maps byte ranges onto the store engine's fixed-width entries.
// It implements io.ReaderAt and io.WriterAt.
//
// Like the store itself, EEPROM assumes a single logical thread of
// control.
type EEPROM struct {
	st *store.Store
}

// New wraps a store. Panics if st is nil.
func New(st *store.Store) *EEPROM {
	if st == nil {
		panic("eeprom: store cannot be nil")
	}
	return &EEPROM{st: st}
}

// Size returns the size of the emulated EEPROM in bytes.
func (e *EEPROM) Size() int {
	return 2 * int(e.st.MaxIDs())
}

// checkRange validates a byte range against the emulated address space.
func (e *EEPROM) checkRange(off int64, n int) error {
	if off < 0 || (off+int64(n))/2 > int64(e.st.MaxIDs()) {
		return &store.Error{Code: store.CodePageRange}
	}
	return nil
}

// readHalf reads the half-word for the given id, substituting the
// erased value when the id has never been written.
func (e *EEPROM) readHalf(id uint16) (uint16, error) {
	v, found, err := e.st.Read(id)
	if err != nil {
		return 0, err
	}
	if !found {
		v = erasedValue
	}
	return v, nil
}

// WriteAt writes len(p) bytes at byte offset off. An unaligned leading
// or trailing byte is merged into the existing half-word so the
// neighboring byte keeps its value; aligned interior bytes go two at a
// time, one entry each. On error it returns the number of bytes fully
// persisted before the failure.
func (e *EEPROM) WriteAt(p []byte, off int64) (int, error) {
	if err := e.checkRange(off, len(p)); err != nil {
		return 0, err
	}

	addr := uint32(off)
	n := 0
	for n < len(p) {
		id := uint16(addr / 2)

		if addr%2 == 1 || len(p)-n == 1 {
			v, err := e.readHalf(id)
			if err != nil {
				return n, err
			}
			if addr%2 == 1 {
				v = v&0x00FF | uint16(p[n])<<8
			} else {
				v = v&0xFF00 | uint16(p[n])
			}
			if err := e.st.Write(id, v); err != nil {
				return n, err
			}
			addr++
			n++
			continue
		}

		v := uint16(p[n]) | uint16(p[n+1])<<8
		if err := e.st.Write(id, v); err != nil {
			return n, err
		}
		addr += 2
		n += 2
	}

	return n, nil
}

// ReadAt reads len(p) bytes from byte offset off. Bytes whose id was
// never written read back as 0xFF.
func (e *EEPROM) ReadAt(p []byte, off int64) (int, error) {
	if err := e.checkRange(off, len(p)); err != nil {
		return 0, err
	}

	addr := uint32(off)
	n := 0
	for n < len(p) {
		v, err := e.readHalf(uint16(addr / 2))
		if err != nil {
			return n, err
		}

		if addr%2 == 1 {
			p[n] = byte(v >> 8)
			addr++
			n++
			continue
		}

		p[n] = byte(v)
		n++
		addr++
		if n < len(p) {
			p[n] = byte(v >> 8)
			n++
			addr++
		}
	}

	return n, nil
}
