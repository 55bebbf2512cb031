package seen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_Deterministic(t *testing.T) {
	a := ID("forSale", "1700000000", "iPhone 12 for sale")
	b := ID("forSale", "1700000000", "iPhone 12 for sale")

	assert.Equal(t, a, b)
	assert.Regexp(t, `^forSale_1700000000_[0-9a-f]{16}$`, a)
}

func TestID_DistinguishesInputs(t *testing.T) {
	base := ID("forSale", "1700000000", "iPhone 12")

	assert.NotEqual(t, base, ID("vehicles", "1700000000", "iPhone 12"))
	assert.NotEqual(t, base, ID("forSale", "1700000001", "iPhone 12"))
	assert.NotEqual(t, base, ID("forSale", "1700000000", "iPhone 13"))
}

func TestID_SameSecondSameTitleCollides(t *testing.T) {
	assert.Equal(t,
		ID("forSale", "1700000000", "Sofa"),
		ID("forSale", "1700000000", "Sofa"),
	)
}

func TestSet_MarkSeen(t *testing.T) {
	s := New()
	id := ID("forSale", "1", "x")

	require.True(t, s.IsNew(id))

	s.MarkSeen(id)
	assert.False(t, s.IsNew(id))
	assert.Equal(t, 1, s.Len())

	s.MarkSeen(id)
	assert.Equal(t, 1, s.Len())
}

func TestSet_IDsSorted(t *testing.T) {
	s := Set{"b": true, "a": true, "c": false}

	assert.Equal(t, []string{"a", "b"}, s.IDs())
}
