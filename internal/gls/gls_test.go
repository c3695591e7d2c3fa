package gls

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterCurrentPerGoroutine(t *testing.T) {
	var wg sync.WaitGroup
	const n = 8
	results := make([]int, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			Register(i)
			defer Unregister()
			got := Current().(int)
			results[i] = got
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		assert.Equal(t, i, got)
	}
}

func TestCurrentPanicsWithoutRegister(t *testing.T) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.Panics(t, func() { Current() })
	}()
	<-done
}

func TestUnregisterDropsBinding(t *testing.T) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		Register("bound")
		require.Equal(t, "bound", Current())
		Unregister()
		assert.Panics(t, func() { Current() })
	}()
	<-done
}
