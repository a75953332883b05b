package usersync

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()

	const iterations = 200
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < iterations; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock(1)
			defer km.Unlock(1)
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, iterations, counter)
	assert.Zero(t, km.Len(), "idle entries are dropped")
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	km := NewKeyedMutex()

	km.Lock(1)

	done := make(chan struct{})
	go func() {
		km.Lock(2)
		km.Unlock(2)
		close(done)
	}()

	// A different key must not block behind key 1.
	<-done

	km.Unlock(1)
	assert.Zero(t, km.Len())
}

func TestKeyedMutex_UnlockUnknownKeyIsNoop(t *testing.T) {
	km := NewKeyedMutex()

	assert.NotPanics(t, func() {
		km.Unlock(99)
	})
}
