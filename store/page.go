package store

// Page state is encoded entirely by the two status words:
//
//	status0 == erased, status1 == erased  -> erased
//	status0 == counter, status1 == erased -> active
//	status0 == counter, status1 != erased -> used
//
// status0 is the generation counter, strictly increasing (modulo 2^32)
// as pages cycle.

func (s *Store) generation(page uint32) uint32 {
	return s.dev.ReadWord(page)
}

func (s *Store) pageIsActive(page uint32) bool {
	return s.dev.ReadWord(page) != erasedWord &&
		s.dev.ReadWord(page+wordSize) == erasedWord
}

func (s *Store) pageIsUsed(page uint32) bool {
	return s.dev.ReadWord(page) != erasedWord &&
		s.dev.ReadWord(page+wordSize) != erasedWord
}

// pageIsFull reports whether the last entry slot of the page has been
// programmed.
func (s *Store) pageIsFull(page uint32) bool {
	return s.dev.ReadWord(page+s.pageSize-wordSize) != erasedWord
}

// nextPage returns the ring successor of the given page.
func (s *Store) nextPage(page uint32) uint32 {
	if page+s.pageSize < s.end {
		return page + s.pageSize
	}
	return s.start
}

// prevPage returns the ring predecessor of the given page.
func (s *Store) prevPage(page uint32) uint32 {
	if page == s.start {
		return s.end - s.pageSize
	}
	return page - s.pageSize
}

func (s *Store) activePageCount() int {
	n := 0
	for page := s.start; page < s.end; page += s.pageSize {
		if s.pageIsActive(page) {
			n++
		}
	}
	return n
}

func (s *Store) usedPageCount() int {
	n := 0
	for page := s.start; page < s.end; page += s.pageSize {
		if s.pageIsUsed(page) {
			n++
		}
	}
	return n
}

// findActivePage returns the offset of the first page marked active.
// Only meaningful when the active page count is known to be at least 1.
func (s *Store) findActivePage() uint32 {
	for page := s.start; page < s.end; page += s.pageSize {
		if s.pageIsActive(page) {
			return page
		}
	}
	return s.start
}

// mostRecentlyUsedPage returns the used page with the highest generation
// counter. ok is false if no page is marked used.
func (s *Store) mostRecentlyUsedPage() (page uint32, ok bool) {
	var best uint32
	for p := s.start; p < s.end; p += s.pageSize {
		if s.pageIsUsed(p) && (!ok || s.generation(p) > best) {
			best = s.generation(p)
			page = p
			ok = true
		}
	}
	return page, ok
}

// firstFreeEntry scans the page forward and returns the offset of the
// first erased entry slot. If the page is full it returns the offset
// just past the page end, which the next Write detects and answers with
// a page swap.
func (s *Store) firstFreeEntry(page uint32) uint32 {
	for off := page + entryStart; off < page+s.pageSize; off += wordSize {
		if s.dev.ReadWord(off) == erasedWord {
			return off
		}
	}
	return page + s.pageSize
}
