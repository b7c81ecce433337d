package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pkgData struct{ name string }
type tgtData struct{ name string }

func TestAllocAndGet(t *testing.T) {
	a := New[pkgData](0)
	first := a.Alloc(pkgData{name: "a"})
	second := a.Alloc(pkgData{name: "b"})

	assert.Equal(t, 2, a.Len())
	assert.Equal(t, "a", a.Get(first).name)
	assert.Equal(t, "b", a.Get(second).name)
	assert.NotEqual(t, first, second)
}

func TestIndicesStableAcrossGrowth(t *testing.T) {
	a := New[pkgData](1)
	idx := a.Alloc(pkgData{name: "root"})
	for i := 0; i < 100; i++ {
		a.Alloc(pkgData{name: "filler"})
	}

	assert.Equal(t, "root", a.Get(idx).name)
	assert.Equal(t, uint32(0), idx.Raw())
}

func TestGetMutatesInPlace(t *testing.T) {
	a := New[pkgData](0)
	idx := a.Alloc(pkgData{name: "before"})
	a.Get(idx).name = "after"

	assert.Equal(t, "after", a.Get(idx).name)
}

func TestLookupOutOfRange(t *testing.T) {
	a := New[tgtData](0)
	_, ok := a.Lookup(Idx[tgtData]{raw: 3})
	assert.False(t, ok)

	assert.Panics(t, func() { a.Get(Idx[tgtData]{raw: 3}) })
}

func TestIndicesAndEach(t *testing.T) {
	a := New[pkgData](0)
	names := []string{"x", "y", "z"}
	for _, n := range names {
		a.Alloc(pkgData{name: n})
	}

	idxs := a.Indices()
	require.Len(t, idxs, 3)
	for i, idx := range idxs {
		assert.Equal(t, names[i], a.Get(idx).name)
	}

	var seen []string
	a.Each(func(_ Idx[pkgData], v *pkgData) bool {
		seen = append(seen, v.name)
		return v.name != "y"
	})
	assert.Equal(t, []string{"x", "y"}, seen)
}

func TestIdxString(t *testing.T) {
	assert.Equal(t, "#7", Idx[pkgData]{raw: 7}.String())
}
