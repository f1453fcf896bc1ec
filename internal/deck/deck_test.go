package deck

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokerroom/internal/randutil"
)

func TestNewDeckOrder(t *testing.T) {
	d := New()
	cards := d.Cards()

	require.Len(t, cards, Size)
	assert.Equal(t, "Hearts 2", cards[0].String())
	assert.Equal(t, "Hearts A", cards[12].String())
	assert.Equal(t, "Diamonds 2", cards[13].String())
	assert.Equal(t, "Spades A", cards[51].String())
	assert.True(t, d.IsFresh())
}

func TestShuffleIsPermutation(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		d := NewShuffled(randutil.New(seed))

		seen := make(map[Card]bool, Size)
		for _, c := range d.Cards() {
			assert.False(t, seen[c], "duplicate card %s with seed %d", c, seed)
			seen[c] = true
		}
		assert.Len(t, seen, Size)
		for _, c := range New().Cards() {
			assert.True(t, seen[c], "missing card %s with seed %d", c, seed)
		}
	}
}

func TestShuffleDeterministicForSeed(t *testing.T) {
	a := NewShuffled(randutil.New(42)).Cards()
	b := NewShuffled(randutil.New(42)).Cards()
	c := NewShuffled(randutil.New(43)).Cards()

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, New().Cards(), a)
}

func TestDealFromTop(t *testing.T) {
	d := New()
	all := d.Cards()

	dealt, err := d.DealFromTop(3)
	require.NoError(t, err)

	assert.Equal(t, all[49:], dealt)
	assert.Equal(t, 49, d.Remaining())
	assert.False(t, d.IsFresh())

	card, err := d.Pop()
	require.NoError(t, err)
	assert.Equal(t, all[48], card)
	assert.Equal(t, 48, d.Remaining())
}

func TestDealFromTopNotEnoughCards(t *testing.T) {
	d := New()
	_, err := d.DealFromTop(50)
	require.NoError(t, err)

	_, err = d.DealFromTop(3)
	assert.True(t, errors.Is(err, ErrNotEnoughCards))
	assert.Equal(t, 2, d.Remaining(), "failed deal must not remove cards")

	_, _ = d.Pop()
	_, _ = d.Pop()
	_, err = d.Pop()
	assert.ErrorIs(t, err, ErrNotEnoughCards)
}
