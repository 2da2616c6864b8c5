package store

// swap runs a page-swap compaction against the given full page:
//
//  1. Erase the ring successor.
//  2. Scan the full page backward, copying the first occurrence of each
//     id to the successor. The backward scan makes the first occurrence
//     the most recent value; a bitset over the id space marks ids
//     already carried over.
//  3. Mark the successor active with generation+1.
//  4. Mark the full page used.
//
// Entry copies are batched into program bursts of up to maxBurstWords
// words. Any flash failure aborts with the DuringSwap tag set; the next
// Open detects the half-finished swap from the page status words and
// replays it. Steps 3 and 4 are ordered so that the only mid-swap states
// ever visible are "one active page" and "two active pages, the old one
// full", both of which recovery resolves.
func (s *Store) swap(full uint32) error {
	newPage := s.nextPage(full)
	if err := s.pageErase(newPage); err != nil {
		return swapTagged(err)
	}

	copied := make([]bool, s.cfg.MaxIDs)
	burst := make([]uint32, 0, maxBurstWords)
	dst := newPage + entryStart
	live := 0

	for off := full + s.pageSize - wordSize; off >= full+entryStart; off -= wordSize {
		w := s.dev.ReadWord(off)
		id := uint16(w >> 16)

		// Skip erased slots; a swap normally only runs on a full page,
		// but recovery can replay one against a page with trailing
		// holes. Identifiers outside the configured range cannot be
		// live data and are dropped rather than indexed.
		if id == emptyID || int(id) >= len(copied) || copied[id] {
			continue
		}
		copied[id] = true
		live++

		burst = append(burst, w)
		if len(burst) == maxBurstWords {
			if err := s.program(dst, burst); err != nil {
				return swapTagged(err)
			}
			dst += uint32(len(burst)) * wordSize
			burst = burst[:0]
		}
	}

	if len(burst) > 0 {
		if err := s.program(dst, burst); err != nil {
			return swapTagged(err)
		}
		dst += uint32(len(burst)) * wordSize
	}

	gen := s.generation(full) + 1
	if err := s.program(newPage, []uint32{gen}); err != nil {
		return swapTagged(err)
	}

	if err := s.program(full+wordSize, []uint32{usedMarker}); err != nil {
		return swapTagged(err)
	}

	s.active = newPage
	s.next = dst

	// A page sized exactly to the id count can come out of a swap with
	// every slot occupied. That is a configuration problem, not a
	// transient one, so it is reported rather than retried.
	if s.next >= s.active+s.pageSize {
		return &Error{Code: CodeAvailEntry, DuringSwap: true}
	}

	s.logInfo("page swap complete",
		"generation", gen,
		"entries_copied", live,
	)

	return nil
}
