// Package store implements a log-structured, wear-leveling key/value
// store over raw NOR flash, emulating a small EEPROM.
//
// # Overview
//
// NOR flash is byte-addressable but write-once between erases, and
// erases work on whole blocks. The store turns that into a persistent
// map from small numeric identifiers to 16-bit values by treating a ring
// of fixed-size pages as an append-only log:
//
//   - An update never overwrites in place; it appends a new (id, value)
//     entry to the active page.
//   - A read scans the active page backward; the first match is the
//     current value.
//   - When the active page fills, a page-swap compaction copies the
//     latest value of every id to the next page and retires the old one.
//   - Page states (erased / active / used) and a generation counter are
//     encoded in two status words per page, and nothing else: after a
//     power loss at any point, Open reconstructs a consistent state from
//     the status words alone.
//
// # Basic Usage
//
//	dev := flash.NewMemDevice(2048, 1024)
//
//	st, err := store.Open(dev, 0, 2048, 1024)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := st.Write(7, 0x1234); err != nil {
//	    log.Fatal(err)
//	}
//
//	v, found, err := st.Read(7)
//
// # Persisted Layout
//
// Words are 32 bits, little-endian in the byte image. A page is:
//
//	[status0][status1][entry 0][entry 1]...[entry k]
//
// status0 all-ones means erased, otherwise it is the generation counter.
// status1 all-ones means not yet retired, otherwise the page is used.
// An entry holds the id in bits 31..16 and the value in bits 15..0; an
// erased entry reads 0xFFFFFFFF, which is why id 0xFFFF is reserved.
//
// # Error Handling
//
// Every operation returns *Error carrying a stable numeric Code. Errors
// from a failed page swap additionally carry the DuringSwap flag, since
// the caller never invokes the swap directly and needs to know that the
// next Open will run recovery. The store never retries and never halts;
// fault policy (retry, reset, degrade) belongs to the caller.
//
// # Concurrency
//
// The store assumes a single logical thread of control and provides no
// internal locking; callers must serialize access externally. Write may
// block for a full erase-plus-compaction cycle, which on real NOR flash
// is a hard latency cliff measured in milliseconds.
package store
