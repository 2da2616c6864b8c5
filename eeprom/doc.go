// Package eeprom presents the store engine as byte-addressable EEPROM.
//
// The engine persists fixed 32-bit entries pairing a 16-bit identifier
// with a 16-bit value. This package maps an arbitrary byte range onto
// those entries: byte address 2n is the low byte of id n, byte address
// 2n+1 the high byte. Writes that start or end mid-word read-modify-write
// the half-word so the untouched neighboring byte is preserved.
//
// EEPROM implements io.ReaderAt and io.WriterAt over an address space of
// Size() == 2*MaxIDs bytes. Bytes that were never written read back as
// 0xFF, like erased EEPROM.
//
//	st, _ := store.Open(dev, 0, 2048, 1024)
//	e := eeprom.New(st)
//
//	if _, err := e.WriteAt([]byte{0xDE, 0xAD, 0xBE}, 5); err != nil {
//	    log.Fatal(err)
//	}
//
//	buf := make([]byte, 3)
//	_, err := e.ReadAt(buf, 5)
//
// Requests beyond Size() fail with store code CodePageRange. Engine
// errors propagate to the caller unchanged; this layer adds no fault
// policy of its own.
package eeprom
