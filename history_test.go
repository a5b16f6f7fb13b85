package xrayprep

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMixtureHistory_UndoRedo(t *testing.T) {
	h := NewMixtureHistory(10)
	assert.Nil(t, h.Current())

	_, ok := h.Undo()
	assert.False(t, ok)

	n2 := mixture("N2", 1.0)
	h.Push(n2)
	h.Push(AddGas(h.Current(), "Ar", 0.2))
	h.Push(AddGas(h.Current(), "He", 0.5))
	require.Equal(t, 3, h.Len())
	require.Len(t, h.Current(), 3)

	prev, ok := h.Undo()
	require.True(t, ok)
	assert.Len(t, prev, 2)

	prev, ok = h.Undo()
	require.True(t, ok)
	assert.Equal(t, n2, prev)

	_, ok = h.Undo()
	assert.False(t, ok, "nothing before the first entry")

	next, ok := h.Redo()
	require.True(t, ok)
	assert.Len(t, next, 2)
	assert.Equal(t, next, h.Current())
}

func TestMixtureHistory_PushDropsRedo(t *testing.T) {
	h := NewMixtureHistory(10)
	h.Push(mixture("N2", 1.0))
	h.Push(mixture("N2", 0.5, "Ar", 0.5))
	h.Undo()

	h.Push(mixture("He", 1.0))
	assert.Equal(t, 2, h.Len())

	_, ok := h.Redo()
	assert.False(t, ok)
	assert.Equal(t, "He", h.Current()[0].Name)
}

func TestMixtureHistory_Capacity(t *testing.T) {
	h := NewMixtureHistory(3)
	for i := 1; i <= 5; i++ {
		h.Push(mixture("N2", float64(i)))
	}
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, 5.0, h.Current()[0].Fraction)

	h.Undo()
	prev, ok := h.Undo()
	require.True(t, ok)
	assert.Equal(t, 3.0, prev[0].Fraction, "oldest entries are overwritten")

	_, ok = h.Undo()
	assert.False(t, ok)
}

func TestMixtureHistory_StoresCopies(t *testing.T) {
	h := NewMixtureHistory(0)
	m := mixture("N2", 1.0)
	h.Push(m)

	m[0].Fraction = 0.1
	assert.Equal(t, 1.0, h.Current()[0].Fraction)

	cur := h.Current()
	cur[0].Name = "Ar"
	assert.Equal(t, "N2", h.Current()[0].Name)
}

func TestMixtureHistory_Concurrent(t *testing.T) {
	h := NewMixtureHistory(16)
	h.Push(mixture("N2", 1.0))

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				switch i % 4 {
				case 0:
					h.Push(UpdateGas(mixture("N2", 0.5, "Ar", 0.5), 0, float64(g)/8))
				case 1:
					h.Undo()
				case 2:
					h.Redo()
				default:
					_ = h.Current()
				}
			}
		}(g)
	}
	wg.Wait()

	assert.LessOrEqual(t, h.Len(), 16)
	AssertMixtureNormalized(t, h.Current(), DefaultAssertionConfig())
}
