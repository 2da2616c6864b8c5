// Package selftest exercises a live store end to end: it forces a page
// swap and verifies compaction, then round-trips the byte-range wrapper
// at both alignments. It is informative, not required for correctness,
// and destructive: it clears the store before and after.
//
// Failures are returned as errors; the caller decides the fault policy.
package selftest

import (
	"fmt"

	"github.com/emberfield/go-softeeprom/eeprom"
	"github.com/emberfield/go-softeeprom/store"
)

// Phase identifies a stage of the self test.
type Phase string

const (
	PhaseClear    Phase = "clear"
	PhaseSwap     Phase = "swap"
	PhaseWrapper  Phase = "wrapper"
	PhaseComplete Phase = "complete"
)

// Event is reported to the optional callback as the test progresses.
type Event struct {
	Phase   Phase
	Message string
}

// ReportFunc receives progress events. Implementations should return
// quickly.
type ReportFunc func(Event)

// ids used by the swap exercise; arbitrary, but distinct and valid for
// any MaxIDs >= 3.
const (
	idA uint16 = 0x01
	idB uint16 = 0x02
)

// Run executes the self test against st. report may be nil.
func Run(st *store.Store, report ReportFunc) error {
	emit := func(ph Phase, msg string) {
		if report != nil {
			report(Event{Phase: ph, Message: msg})
		}
	}

	emit(PhaseClear, "clearing store")
	if err := st.Clear(); err != nil {
		return fmt.Errorf("self test: initial clear: %w", err)
	}

	emit(PhaseSwap, "exercising page swap")
	if err := testSwap(st); err != nil {
		return err
	}

	if err := st.Clear(); err != nil {
		return fmt.Errorf("self test: clear after swap test: %w", err)
	}

	emit(PhaseWrapper, "exercising byte-range addressing")
	if err := testWrapper(st); err != nil {
		return err
	}

	if err := st.Clear(); err != nil {
		return fmt.Errorf("self test: final clear: %w", err)
	}

	emit(PhaseComplete, "self test passed")
	return nil
}

// testSwap fills the active page alternating two ids, then writes one
// more entry to force a compaction and verifies that the most recent
// values survive and the page accounting moved.
func testSwap(st *store.Store) error {
	before, err := st.Stats()
	if err != nil {
		return fmt.Errorf("self test: stats: %w", err)
	}

	entries := st.EntriesPerPage()
	for i := 0; i < entries; i++ {
		id := idA
		if i >= entries/2 {
			id = idB
		}
		if err := st.Write(id, uint16(i)); err != nil {
			return fmt.Errorf("self test: fill write %d (id %d): %w", i, id, err)
		}
		v, found, err := st.Read(id)
		if err != nil || !found || v != uint16(i) {
			return fmt.Errorf("self test: fill read-back %d (id %d): got (%#x, %v, %v)",
				i, id, v, found, err)
		}
	}

	// The page is now full; this write must trigger exactly one swap.
	if err := st.Write(idA, 0xDEAD); err != nil {
		return fmt.Errorf("self test: overflow write: %w", err)
	}
	v, found, err := st.Read(idA)
	if err != nil || !found || v != 0xDEAD {
		return fmt.Errorf("self test: read after swap: got (%#x, %v, %v)", v, found, err)
	}

	after, err := st.Stats()
	if err != nil {
		return fmt.Errorf("self test: stats: %w", err)
	}
	if after.ActivePage == before.ActivePage {
		return fmt.Errorf("self test: active page did not move on swap (page %d)",
			after.ActivePage)
	}
	if after.Generation != before.Generation+1 {
		return fmt.Errorf("self test: generation %d after swap, want %d",
			after.Generation, before.Generation+1)
	}
	if after.UsedPages == 0 {
		return fmt.Errorf("self test: no used page after swap")
	}

	// The other id's latest value must have been carried forward.
	v, found, err = st.Read(idB)
	if err != nil || !found || v != uint16(entries-1) {
		return fmt.Errorf("self test: id %d not carried by swap: got (%#x, %v, %v)",
			idB, v, found, err)
	}

	// And the new page must still accept entries.
	if err := st.Write(idB, 0xBEEF); err != nil {
		return fmt.Errorf("self test: write after swap: %w", err)
	}
	v, found, err = st.Read(idB)
	if err != nil || !found || v != 0xBEEF {
		return fmt.Errorf("self test: read after post-swap write: got (%#x, %v, %v)",
			v, found, err)
	}

	return nil
}

// testWrapper round-trips the full byte range through the wrapper at
// offset 0, then again at offset 1 to cover the unaligned case, checking
// that byte 0 is left untouched by the shifted write.
func testWrapper(st *store.Store) error {
	e := eeprom.New(st)
	size := e.Size()

	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i)
	}

	if _, err := e.WriteAt(data, 0); err != nil {
		return fmt.Errorf("self test: wrapper write at 0: %w", err)
	}
	got := make([]byte, size)
	if _, err := e.ReadAt(got, 0); err != nil {
		return fmt.Errorf("self test: wrapper read at 0: %w", err)
	}
	for i := range got {
		if got[i] != byte(i) {
			return fmt.Errorf("self test: wrapper mismatch at byte %d: got %#x want %#x",
				i, got[i], byte(i))
		}
	}

	if _, err := e.WriteAt(data[:size-1], 1); err != nil {
		return fmt.Errorf("self test: wrapper write at 1: %w", err)
	}
	shifted := make([]byte, size-1)
	if _, err := e.ReadAt(shifted, 1); err != nil {
		return fmt.Errorf("self test: wrapper read at 1: %w", err)
	}
	for i := range shifted {
		if shifted[i] != byte(i) {
			return fmt.Errorf("self test: shifted wrapper mismatch at byte %d: got %#x want %#x",
				i+1, shifted[i], byte(i))
		}
	}

	// Byte 0 was outside the shifted write and must keep its old value.
	first := make([]byte, 1)
	if _, err := e.ReadAt(first, 0); err != nil {
		return fmt.Errorf("self test: wrapper read byte 0: %w", err)
	}
	if first[0] != 0x00 {
		return fmt.Errorf("self test: byte 0 clobbered by shifted write: got %#x", first[0])
	}

	return nil
}
