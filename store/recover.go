package store

// recover is the crash-recovery state machine, run inside Open. It
// trusts nothing but the page status words on flash, since no in-memory
// state survives a restart. Each case corresponds to one row of the
// recovery table:
//
//	0 active, 0 used  -> fresh start
//	0 active, used    -> clear was interrupted after retiring the old page
//	1 active          -> normal boot, or a clear interrupted mid-activation
//	                     (detected by a generation mismatch with the
//	                     predecessor page)
//	2 active          -> swap was interrupted between activating the new
//	                     page and retiring the full one; replay the swap
//	>2 active         -> outside the model, fatal
func (s *Store) recover() error {
	switch n := s.activePageCount(); n {
	case 0:
		if s.usedPageCount() == 0 {
			return s.recoverFresh()
		}
		return s.recoverInterruptedClear()
	case 1:
		return s.recoverOneActive()
	case 2:
		return s.recoverTwoActive()
	default:
		return &Error{Code: CodeActivePageCount}
	}
}

// recoverFresh initializes factory-fresh flash: page 0 becomes active
// with generation 0.
func (s *Store) recoverFresh() error {
	if err := s.pageErase(s.start); err != nil {
		return err
	}
	if err := s.program(s.start, []uint32{0}); err != nil {
		return err
	}

	s.active = s.start
	s.next = s.start + entryStart

	s.logInfo("fresh start", "pages", int((s.end-s.start)/s.pageSize))
	return nil
}

// recoverInterruptedClear completes a clear that was interrupted after
// the old page was marked used but before a new page was activated. The
// data is intentionally lost, consistent with the clear the caller had
// requested.
func (s *Store) recoverInterruptedClear() error {
	mru, _ := s.mostRecentlyUsedPage()
	gen := s.generation(mru) + 1

	page := s.nextPage(mru)
	if err := s.pageErase(page); err != nil {
		return err
	}
	if err := s.program(page, []uint32{gen}); err != nil {
		return err
	}

	s.active = page
	s.next = page + entryStart

	s.logInfo("completed interrupted clear", "generation", gen)
	return nil
}

// recoverOneActive handles the single-active-page cases. A normal boot
// has either an unused predecessor or a predecessor whose generation is
// exactly one less. Anything else means a clear got as far as marking
// the old page used and writing some inconsistent active marker; the
// incorrectly active page is rebuilt empty with the right generation.
func (s *Store) recoverOneActive() error {
	active := s.findActivePage()
	prev := s.prevPage(active)

	if s.pageIsUsed(prev) && s.generation(prev)+1 != s.generation(active) {
		if err := s.pageErase(active); err != nil {
			return err
		}
		gen := s.generation(prev) + 1
		if err := s.program(active, []uint32{gen}); err != nil {
			return err
		}

		s.active = active
		s.next = active + entryStart

		s.logInfo("repaired generation mismatch", "generation", gen)
		return nil
	}

	s.active = active
	s.next = s.firstFreeEntry(active)

	s.logDebug("normal boot",
		"generation", s.generation(active),
		"free_entries", int(active+s.pageSize-s.next)/wordSize,
	)
	return nil
}

// recoverTwoActive handles an interrupted swap. Exactly one of the two
// active pages must be full: the pre-swap page, since swaps only run
// against full pages. Replaying the swap erases the half-written
// successor and converges back to a single active page with all data
// carried forward.
func (s *Store) recoverTwoActive() error {
	full := uint32(0)
	found := false
	for page := s.start; page < s.end; page += s.pageSize {
		if s.pageIsActive(page) && s.pageIsFull(page) {
			full = page
			found = true
			break
		}
	}
	if !found {
		return &Error{Code: CodeTwoActiveNoFull}
	}

	s.active = full
	s.next = full + s.pageSize

	s.logInfo("replaying interrupted page swap", "generation", s.generation(full))
	return s.swap(full)
}
