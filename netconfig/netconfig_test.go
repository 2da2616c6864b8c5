package netconfig_test

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberfield/go-softeeprom/eeprom"
	"github.com/emberfield/go-softeeprom/flash"
	"github.com/emberfield/go-softeeprom/netconfig"
	"github.com/emberfield/go-softeeprom/store"
)

// The layout needs 18 bytes of EEPROM, so the store must carry at least
// 9 ids; 16 keeps the page geometry round.
const (
	testMaxIDs   = 16
	testPageSize = 136
)

func newTestEEPROM(t *testing.T) *eeprom.EEPROM {
	t.Helper()
	dev := flash.NewMemDevice(2*testPageSize, testPageSize)
	st, err := store.Open(dev, 0, dev.Size(), testPageSize, store.WithMaxIDs(testMaxIDs))
	require.NoError(t, err)
	return eeprom.New(st)
}

func TestRoundTrip(t *testing.T) {
	e := newTestEEPROM(t)

	in := netconfig.Config{
		MAC:     net.HardwareAddr{0x00, 0x1A, 0xB6, 0x01, 0x02, 0x03},
		IP:      net.IPv4(192, 168, 1, 20),
		Netmask: net.IPv4(255, 255, 255, 0),
		Gateway: net.IPv4(192, 168, 1, 1),
	}
	require.NoError(t, netconfig.Save(e, in))

	out, err := netconfig.Load(e)
	require.NoError(t, err)
	assert.Equal(t, in.MAC, out.MAC)
	assert.True(t, in.IP.Equal(out.IP))
	assert.True(t, in.Netmask.Equal(out.Netmask))
	assert.True(t, in.Gateway.Equal(out.Gateway))
}

func TestLoadUnwrittenIsNil(t *testing.T) {
	e := newTestEEPROM(t)

	c, err := netconfig.Load(e)
	require.NoError(t, err)
	assert.Nil(t, c.MAC)
	assert.Nil(t, c.IP)
	assert.Nil(t, c.Netmask)
	assert.Nil(t, c.Gateway)
}

func TestPartialSave(t *testing.T) {
	e := newTestEEPROM(t)

	require.NoError(t, netconfig.Save(e, netconfig.Config{
		IP: net.IPv4(10, 0, 0, 5),
	}))

	c, err := netconfig.Load(e)
	require.NoError(t, err)
	assert.Nil(t, c.MAC)
	assert.True(t, c.IP.Equal(net.IPv4(10, 0, 0, 5)))
	assert.Nil(t, c.Netmask)
	assert.Nil(t, c.Gateway)

	// A later save of the remaining fields leaves the IP in place.
	require.NoError(t, netconfig.Save(e, netconfig.Config{
		Gateway: net.IPv4(10, 0, 0, 1),
	}))
	c, err = netconfig.Load(e)
	require.NoError(t, err)
	assert.True(t, c.IP.Equal(net.IPv4(10, 0, 0, 5)))
	assert.True(t, c.Gateway.Equal(net.IPv4(10, 0, 0, 1)))
}

func TestSaveRejectsBadMAC(t *testing.T) {
	e := newTestEEPROM(t)

	err := netconfig.Save(e, netconfig.Config{
		MAC: net.HardwareAddr{0x00, 0x1A, 0xB6},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAC")
}

func TestSaveRejectsIPv6(t *testing.T) {
	e := newTestEEPROM(t)

	err := netconfig.Save(e, netconfig.Config{
		IP: net.ParseIP("2001:db8::1"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IPv4")
}

func TestSurvivesReopen(t *testing.T) {
	dev := flash.NewMemDevice(2*testPageSize, testPageSize)
	st, err := store.Open(dev, 0, dev.Size(), testPageSize, store.WithMaxIDs(testMaxIDs))
	require.NoError(t, err)

	mac := net.HardwareAddr{0x00, 0x1A, 0xB6, 0xAA, 0xBB, 0xCC}
	require.NoError(t, netconfig.Save(eeprom.New(st), netconfig.Config{MAC: mac}))

	st2, err := store.Open(dev, 0, dev.Size(), testPageSize, store.WithMaxIDs(testMaxIDs))
	require.NoError(t, err)
	c, err := netconfig.Load(eeprom.New(st2))
	require.NoError(t, err)
	assert.Equal(t, mac, c.MAC)
}
