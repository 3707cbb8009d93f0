package search

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequencerDiscardsOlderRequests(t *testing.T) {
	var seq Sequencer
	assert.False(t, seq.IsLatest(0))

	first := seq.Next()
	assert.True(t, seq.IsLatest(first))

	second := seq.Next()
	assert.Greater(t, second, first)
	assert.False(t, seq.IsLatest(first))
	assert.True(t, seq.IsLatest(second))
	assert.Equal(t, second, seq.Latest())
}

func TestSequencerConcurrentNextIsUnique(t *testing.T) {
	var seq Sequencer
	const n = 200

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[uint64]struct{}, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := seq.Next()
			mu.Lock()
			seen[v] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
	assert.Equal(t, uint64(n), seq.Latest())
}
