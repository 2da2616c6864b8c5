package store

import (
	"github.com/emberfield/go-softeeprom/flash"
)

// Persisted page layout constants. The on-flash format is fixed: two
// 32-bit status words followed by an array of 32-bit entries, each entry
// holding the identifier in the high half and the value in the low half.
const (
	wordSize    = flash.WordSize
	statusWords = 2
	entryStart  = statusWords * wordSize

	erasedWord = flash.ErasedWord

	// emptyID is the identifier read from an erased entry. It is
	// reserved and never valid as a real id.
	emptyID uint16 = 0xFFFF

	// usedMarker is programmed into the second status word to retire a
	// page. Any non-erased value means used; all-zero matches the
	// historical persisted format.
	usedMarker uint32 = 0x00000000

	// maxBurstWords is the largest number of entry words batched into a
	// single program call during a swap. Purely a batching granularity;
	// the result is identical to programming one entry at a time.
	maxBurstWords = 32
)

// Store is a log-structured key/value store over raw NOR flash,
// emulating a small EEPROM of fixed-size records addressed by a numeric
// identifier. All mutable state lives in the Store handle, so multiple
// independent stores (for example over simulated devices in tests) can
// coexist.
//
// Store is not reentrant and has no internal locking: it assumes a
// single logical thread of control, consistent with single-core
// microcontroller use. Write may block for the duration of an
// erase-plus-compaction cycle when the active page fills.
type Store struct {
	dev flash.Device
	cfg Config

	start    uint32
	end      uint32
	pageSize uint32

	// active is the byte offset of the active page; next is the byte
	// offset of the next free entry slot within it. next may point one
	// past the page end, meaning the page is full and the next Write
	// will trigger a swap.
	active uint32
	next   uint32

	ready bool
}

// Open validates the region geometry, runs crash recovery against
// whatever page states the flash currently holds, and returns a ready
// store.
//
// The region is [start, end) in device byte offsets. Preconditions, all
// reported as CodeRange:
//
//   - end > start, both aligned to the device erase block size
//   - pageSize a non-zero multiple of the erase block size
//   - the region an exact multiple of pageSize, at least 2 pages
//   - end within the device
//   - pageSize/4 - 2 >= 2*MaxIDs, so a page always has room for every
//     id after a swap
//
// Open never writes outside the region. It is the only place automatic
// corrective action is taken; every other operation reports failures
// upward and leaves repair to the next Open.
func Open(dev flash.Device, start, end, pageSize uint32, opts ...Option) (*Store, error) {
	if dev == nil {
		panic("store: device cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Store{
		dev:      dev,
		cfg:      cfg,
		start:    start,
		end:      end,
		pageSize: pageSize,
	}

	bs := dev.EraseBlockSize()
	switch {
	case cfg.MaxIDs == 0 || cfg.MaxIDs > 255:
		return nil, &Error{Code: CodeRange}
	case end <= start:
		return nil, &Error{Code: CodeRange}
	case bs == 0 || start%bs != 0 || end%bs != 0:
		return nil, &Error{Code: CodeRange}
	case pageSize == 0 || pageSize%bs != 0:
		return nil, &Error{Code: CodeRange}
	case (end-start)%pageSize != 0 || (end-start)/pageSize < 2:
		return nil, &Error{Code: CodeRange}
	case end > dev.Size():
		return nil, &Error{Code: CodeRange}
	case pageSize/wordSize-statusWords < 2*uint32(cfg.MaxIDs):
		return nil, &Error{Code: CodeRange}
	}

	if err := s.recover(); err != nil {
		return nil, err
	}

	s.ready = true
	return s, nil
}

// Write appends a new entry for id with the given value. If the active
// page is full, a page-swap compaction runs first, synchronously. A
// failure during the swap is tagged DuringSwap; the flash is then left
// as found by the next Open.
func (s *Store) Write(id, value uint16) error {
	if !s.ready {
		return &Error{Code: CodeNotInit}
	}
	if id >= s.cfg.MaxIDs {
		return &Error{Code: CodeIllegalID}
	}

	if s.next >= s.active+s.pageSize {
		if err := s.swap(s.active); err != nil {
			return err
		}
	}

	entry := uint32(id)<<16 | uint32(value)
	if err := s.program(s.next, []uint32{entry}); err != nil {
		return err
	}
	s.next += wordSize

	return nil
}

// Read returns the most recent value written for id in the active page.
// found is false if no entry for id exists there; absence is a valid
// outcome, not an error. Only the active page is inspected: a page swap
// carries every id's latest value forward before retiring the old page,
// so the active page is always authoritative.
func (s *Store) Read(id uint16) (value uint16, found bool, err error) {
	if !s.ready {
		return 0, false, &Error{Code: CodeNotInit}
	}
	if id >= s.cfg.MaxIDs {
		return 0, false, &Error{Code: CodeIllegalID}
	}

	// Scan backward from the most recently written entry; the first
	// match is the current value.
	for off := s.next - wordSize; off >= s.active+entryStart; off -= wordSize {
		w := s.dev.ReadWord(off)
		if uint16(w>>16) == id {
			return uint16(w), true, nil
		}
	}

	return 0, false, nil
}

// Clear discards all data: it retires the active page and activates the
// ring successor empty. This is the only operation that intentionally
// loses data. If interrupted, the next Open completes the clear (still
// losing the data, consistent with the caller's intent).
func (s *Store) Clear() error {
	if !s.ready {
		return &Error{Code: CodeNotInit}
	}

	// Mark the active page used first; recovery relies on this ordering
	// to distinguish an interrupted clear from an interrupted swap.
	if err := s.program(s.active+wordSize, []uint32{usedMarker}); err != nil {
		return err
	}

	newPage := s.nextPage(s.active)
	if err := s.pageErase(newPage); err != nil {
		return err
	}

	gen := s.generation(s.active) + 1
	if err := s.program(newPage, []uint32{gen}); err != nil {
		return err
	}

	s.active = newPage
	s.next = newPage + entryStart

	s.logInfo("store cleared", "generation", gen)
	return nil
}

// Stats describes the current page accounting of the store.
type Stats struct {
	// Pages is the total number of pages in the region.
	Pages int

	// UsedPages is the number of pages marked used.
	UsedPages int

	// ActivePage is the index of the active page within the region.
	ActivePage int

	// Generation is the active page's generation counter.
	Generation uint32

	// FreeEntries is the number of free entry slots left in the active
	// page.
	FreeEntries int
}

// Stats returns the current page accounting. It reads only status words
// and the in-memory cursors.
func (s *Store) Stats() (Stats, error) {
	if !s.ready {
		return Stats{}, &Error{Code: CodeNotInit}
	}
	return Stats{
		Pages:       int((s.end - s.start) / s.pageSize),
		UsedPages:   s.usedPageCount(),
		ActivePage:  int((s.active - s.start) / s.pageSize),
		Generation:  s.generation(s.active),
		FreeEntries: int(s.active+s.pageSize-s.next) / wordSize,
	}, nil
}

// MaxIDs returns the configured number of valid identifiers.
func (s *Store) MaxIDs() uint16 {
	return s.cfg.MaxIDs
}

// EntriesPerPage returns the number of entry slots in a page.
func (s *Store) EntriesPerPage() int {
	return int(s.pageSize/wordSize) - statusWords
}

// program writes words at off and verifies them by reading back and
// comparing, so a silent program failure (for example a bit that would
// need to flip 0 -> 1) is always detected.
func (s *Store) program(off uint32, words []uint32) error {
	if err := s.dev.Program(off, words); err != nil {
		return &Error{Code: CodePageWrite, Err: err}
	}
	for i, w := range words {
		if s.dev.ReadWord(off+uint32(i)*wordSize) != w {
			return &Error{Code: CodePageWrite}
		}
	}
	return nil
}

// pageErase erases every block of the page at the given offset and
// verifies the status words read as erased. A failed erase of the entry
// area is caught later by write verification, so checking the status
// words is sufficient here.
func (s *Store) pageErase(page uint32) error {
	bs := s.dev.EraseBlockSize()
	for off := page; off < page+s.pageSize; off += bs {
		if err := s.dev.EraseBlock(off); err != nil {
			return &Error{Code: CodePageErase, Err: err}
		}
	}
	if s.dev.ReadWord(page) != erasedWord || s.dev.ReadWord(page+wordSize) != erasedWord {
		return &Error{Code: CodePageErase}
	}
	return nil
}

func (s *Store) logDebug(msg string, keysAndValues ...interface{}) {
	if s.cfg.Logger != nil {
		s.cfg.Logger.Debug(msg, keysAndValues...)
	}
}

func (s *Store) logInfo(msg string, keysAndValues ...interface{}) {
	if s.cfg.Logger != nil {
		s.cfg.Logger.Info(msg, keysAndValues...)
	}
}
