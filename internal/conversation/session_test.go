// ABOUTME: Tests for in-memory sessions and the per-chat keyed lock
// ABOUTME: Checks idle deletion, lock exclusivity and lock entry cleanup

package conversation

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemorySessions(t *testing.T) {
	s := NewMemorySessions()

	_, ok := s.Get(1)
	assert.False(t, ok)

	s.Set(1, pending(CommandLogin, StepEmail))
	got, ok := s.Get(1)
	assert.True(t, ok)
	assert.Equal(t, CommandLogin, got.Command)

	s.Set(1, Idle)
	_, ok = s.Get(1)
	assert.False(t, ok, "setting idle removes the session")

	s.Set(2, pending(CommandVerify2FA, StepCode))
	s.Delete(2)
	assert.Equal(t, 0, s.Len())
}

func TestChatLocks_SerializesSameChat(t *testing.T) {
	locks := newChatLocks()

	var active, maxActive int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(7)
			defer unlock()

			n := atomic.AddInt32(&active, 1)
			for {
				m := atomic.LoadInt32(&maxActive)
				if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxActive)
	assert.Equal(t, 0, locks.size(), "entries are released after the last unlock")
}

func TestChatLocks_DifferentChatsDoNotBlock(t *testing.T) {
	locks := newChatLocks()
	unlockA := locks.Lock(1)
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := locks.Lock(2)
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on chat 2 blocked behind chat 1")
	}
}
