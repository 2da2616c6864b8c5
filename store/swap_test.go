package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberfield/go-softeeprom/flash"
)

// TestCompactionScenario fills a page with a mix of fresh ids and
// updates, then writes one more id to force a swap and checks that every
// id reads back with the value it had immediately before the swap.
func TestCompactionScenario(t *testing.T) {
	dev := newTestDevice(2)
	st := openTest(t, dev)

	type write struct{ id, value uint16 }
	writes := []write{
		{1, 10}, {2, 20}, {1, 11}, {3, 30}, {4, 40},
	}
	// Pad the page to exactly full with further updates of id 1.
	for i := len(writes); i < testEntries; i++ {
		writes = append(writes, write{1, uint16(100 + i)})
	}

	expected := map[uint16]uint16{}
	for _, w := range writes {
		require.NoError(t, st.Write(w.id, w.value))
		expected[w.id] = w.value
	}

	s, err := st.Stats()
	require.NoError(t, err)
	require.Equal(t, 0, s.FreeEntries, "page must be exactly full before the trigger write")

	// This write does not fit and must trigger exactly one compaction.
	require.NoError(t, st.Write(5, 50))
	expected[5] = 50

	s, err = st.Stats()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), s.Generation)
	assert.Equal(t, 1, s.ActivePage)
	assert.Equal(t, 1, s.UsedPages)
	assert.Equal(t, 1, countActivePages(dev, testPageSize))

	for id, want := range expected {
		v, found, err := st.Read(id)
		require.NoError(t, err)
		require.True(t, found, "id %d lost by compaction", id)
		assert.Equal(t, want, v, "id %d", id)
	}

	// Only the live entries were carried: distinct ids plus the trigger
	// write occupy the new page.
	assert.Equal(t, testEntries-len(expected), s.FreeEntries)
}

// TestCompactionCopiesMostRecentFirst checks the persisted order: the
// backward scan of the full page writes the most recent entries at the
// lowest offsets of the new page.
func TestCompactionCopiesMostRecentFirst(t *testing.T) {
	dev := newTestDevice(2)
	st := openTest(t, dev)

	for i := 0; i < testEntries-2; i++ {
		require.NoError(t, st.Write(1, uint16(i)))
	}
	require.NoError(t, st.Write(2, 0x0022))
	require.NoError(t, st.Write(1, 0x0011)) // page now full
	require.NoError(t, st.Write(3, 0x0033)) // triggers swap

	// New page is page 1. First copied entry is the last written (id 1),
	// then id 2, then the trigger entry for id 3.
	page := uint32(testPageSize)
	assert.Equal(t, uint32(0x0001_0011), readWord(dev, page+8))
	assert.Equal(t, uint32(0x0002_0022), readWord(dev, page+12))
	assert.Equal(t, uint32(0x0003_0033), readWord(dev, page+16))
	assert.Equal(t, flash.ErasedWord, readWord(dev, page+20))

	// Old page is retired: generation still 0, used marker set.
	assert.Equal(t, uint32(0), readWord(dev, 0))
	assert.NotEqual(t, flash.ErasedWord, readWord(dev, 4))
}

func TestExhaustionDistinctIDs(t *testing.T) {
	st := openTest(t, newTestDevice(2))

	// One entry per id, then updates until the page is exactly full.
	for id := uint16(0); id < testMaxIDs; id++ {
		require.NoError(t, st.Write(id, id*10))
	}
	for i := testMaxIDs; i < testEntries; i++ {
		require.NoError(t, st.Write(0, uint16(i)))
	}

	// The next write triggers exactly one compaction and succeeds.
	require.NoError(t, st.Write(1, 0xFFFE))

	s, err := st.Stats()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), s.Generation)

	v, found, err := st.Read(0)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, uint16(testEntries-1), v)

	v, found, err = st.Read(1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, uint16(0xFFFE), v)

	for id := uint16(2); id < testMaxIDs; id++ {
		v, found, err := st.Read(id)
		require.NoError(t, err)
		require.True(t, found, "id %d lost", id)
		assert.Equal(t, id*10, v)
	}
}

// TestSingleIDHammering rewrites one id enough times to cycle the page
// ring several times. The store must compact transparently and never
// lose the id.
func TestSingleIDHammering(t *testing.T) {
	st := openTest(t, newTestDevice(2))

	const rounds = 5 * testEntries
	for i := 0; i < rounds; i++ {
		require.NoError(t, st.Write(4, uint16(i)), "write %d", i)

		v, found, err := st.Read(4)
		require.NoError(t, err)
		require.True(t, found, "id lost after write %d", i)
		require.Equal(t, uint16(i), v)
	}

	s, err := st.Stats()
	require.NoError(t, err)
	// One swap per filled page; after each swap only one live entry is
	// carried, so the page holds testEntries-1 fresh writes per cycle.
	assert.GreaterOrEqual(t, s.Generation, uint32(4))
}

// TestGenerationMonotonicAcrossSwapsAndClears walks the ring with a mix
// of swaps and clears and checks the generation counter never repeats
// or goes backward.
func TestGenerationMonotonicAcrossSwapsAndClears(t *testing.T) {
	st := openTest(t, newTestDevice(2))

	last := uint32(0)
	for cycle := 0; cycle < 4; cycle++ {
		for i := 0; i < testEntries+1; i++ { // +1 forces a swap
			require.NoError(t, st.Write(0, uint16(i)))
		}
		s, err := st.Stats()
		require.NoError(t, err)
		assert.Greater(t, s.Generation, last)
		last = s.Generation

		require.NoError(t, st.Clear())
		s, err = st.Stats()
		require.NoError(t, err)
		assert.Greater(t, s.Generation, last)
		last = s.Generation
	}
}
