package suggest

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ICompleter = (*Vocabulary)(nil)

func words(s []Suggestion) []string {
	out := make([]string, len(s))
	for i, sg := range s {
		out[i] = sg.Word
	}
	return out
}

func TestCompleteOrdering(t *testing.T) {
	v := NewVocabulary()
	v.Add("граф", 40)
	v.Add("графиня", 12)
	v.Add("график", 40)
	v.Add("грамм", 7)
	v.Add("кот", 3)

	assert.Equal(t, []string{"граф", "график", "графиня"}, words(v.Complete("граф", 10)))
	assert.Equal(t, []string{"граф", "график"}, words(v.Complete("гра", 2)))
	assert.Len(t, v.Complete("", 0), 5)
	assert.Empty(t, v.Complete("собака", 10))
	assert.Equal(t, 5, v.Len())
}

func TestAddReplacesCount(t *testing.T) {
	v := NewVocabulary()
	v.Add("cat", 1)
	v.Add("cat", 9)
	v.Add("", 4)

	got := v.Complete("c", 0)
	require.Len(t, got, 1)
	assert.Equal(t, 9, got[0].Neighbors)
	assert.Equal(t, 1, v.Len())
	assert.True(t, v.Contains("cat"))
	assert.False(t, v.Contains("ca"))
}

func TestMinNeighbors(t *testing.T) {
	v := NewVocabulary()
	v.Add("cat", 1)
	v.Add("car", 5)
	v.SetMinNeighbors(2)
	assert.Equal(t, []string{"car"}, words(v.Complete("ca", 0)))
}

func TestConcurrentComplete(t *testing.T) {
	v := NewVocabulary()
	for i := 0; i < 200; i++ {
		v.Add(fmt.Sprintf("w%03d", i), i%7)
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				assert.Len(t, v.Complete("w1", 0), 100)
			}
		}()
	}
	wg.Wait()
}

func TestHotCacheEvictsLeastRecentlyUsed(t *testing.T) {
	hc := NewHotCache[int](2)
	hc.Put("a", 1)
	hc.Put("b", 2)
	_, ok := hc.Get("a")
	require.True(t, ok)

	hc.Put("c", 3)
	_, ok = hc.Get("b")
	assert.False(t, ok, "b was least recently used")
	v, ok := hc.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, hc.Len())

	stats := hc.Stats()
	assert.Equal(t, 2, stats["hotCacheHits"])
	assert.Equal(t, 1, stats["hotCacheMisses"])
}

func TestHotCacheDisabled(t *testing.T) {
	hc := NewHotCache[string](0)
	hc.Put("a", "x")
	_, ok := hc.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, hc.Len())
}
