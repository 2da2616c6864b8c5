// Package netconfig persists a device's network identity (MAC address,
// IP address, netmask, gateway) in emulated EEPROM at fixed byte
// offsets, so the configuration survives power cycles.
package netconfig

import (
	"fmt"
	"net"

	"github.com/emberfield/go-softeeprom/eeprom"
)

// Byte offsets of the persisted fields within the emulated EEPROM.
const (
	MACOffset     = 0  // 6 bytes
	IPOffset      = 6  // 4 bytes
	NetmaskOffset = 10 // 4 bytes
	GatewayOffset = 14 // 4 bytes

	// TotalSize is the number of EEPROM bytes the layout occupies.
	TotalSize = 18
)

// Config is the persisted network identity. Fields that have never been
// written load as nil.
type Config struct {
	MAC     net.HardwareAddr
	IP      net.IP
	Netmask net.IP
	Gateway net.IP
}

// Save persists the non-nil fields of c. The MAC must be 6 bytes and the
// addresses IPv4.
func Save(e *eeprom.EEPROM, c Config) error {
	if c.MAC != nil {
		if len(c.MAC) != 6 {
			return fmt.Errorf("netconfig: MAC must be 6 bytes, got %d", len(c.MAC))
		}
		if _, err := e.WriteAt(c.MAC, MACOffset); err != nil {
			return fmt.Errorf("netconfig: save MAC: %w", err)
		}
	}

	for _, f := range []struct {
		name string
		ip   net.IP
		off  int64
	}{
		{"IP", c.IP, IPOffset},
		{"netmask", c.Netmask, NetmaskOffset},
		{"gateway", c.Gateway, GatewayOffset},
	} {
		if f.ip == nil {
			continue
		}
		v4 := f.ip.To4()
		if v4 == nil {
			return fmt.Errorf("netconfig: %s is not an IPv4 address: %v", f.name, f.ip)
		}
		if _, err := e.WriteAt(v4, f.off); err != nil {
			return fmt.Errorf("netconfig: save %s: %w", f.name, err)
		}
	}

	return nil
}

// Load reads the persisted configuration. A field whose EEPROM bytes are
// all 0xFF (never written) is returned as nil.
func Load(e *eeprom.EEPROM) (Config, error) {
	buf := make([]byte, TotalSize)
	if _, err := e.ReadAt(buf, 0); err != nil {
		return Config{}, fmt.Errorf("netconfig: load: %w", err)
	}

	var c Config
	if b := field(buf, MACOffset, 6); b != nil {
		c.MAC = net.HardwareAddr(b)
	}
	if b := field(buf, IPOffset, 4); b != nil {
		c.IP = net.IP(b)
	}
	if b := field(buf, NetmaskOffset, 4); b != nil {
		c.Netmask = net.IP(b)
	}
	if b := field(buf, GatewayOffset, 4); b != nil {
		c.Gateway = net.IP(b)
	}
	return c, nil
}

// field copies one layout field out of buf, or returns nil if the field
// is still in the erased state.
func field(buf []byte, off, n int) []byte {
	erased := true
	for _, b := range buf[off : off+n] {
		if b != 0xFF {
			erased = false
			break
		}
	}
	if erased {
		return nil
	}
	out := make([]byte, n)
	copy(out, buf[off:off+n])
	return out
}
