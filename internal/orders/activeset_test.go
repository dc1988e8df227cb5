package orders

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActiveSet_AddContainsDiscard(t *testing.T) {
	s := NewActiveSet()

	assert.False(t, s.Contains("ORD-1"))
	s.Add("ORD-1")
	assert.True(t, s.Contains("ORD-1"))
	assert.Equal(t, 1, s.Len())

	assert.True(t, s.Discard("ORD-1"))
	assert.False(t, s.Contains("ORD-1"))
	assert.False(t, s.Discard("ORD-1"), "second discard must report absence")
	assert.Equal(t, 0, s.Len())
}

func TestActiveSet_DiscardIsExactlyOnce(t *testing.T) {
	s := NewActiveSet()
	s.Add("ORD-1")

	const goroutines = 16
	var wg sync.WaitGroup
	var wins int32
	winCh := make(chan struct{}, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Discard("ORD-1") {
				winCh <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(winCh)

	for range winCh {
		wins++
	}
	assert.Equal(t, int32(1), wins, "exactly one discarder may win")
}
