package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/catalogbot/internal/domain"
)

func TestGetReturnsDefaultSession(t *testing.T) {
	store := NewMemoryStore(time.Minute, testclock.NewClock(time.Now()))

	s := store.Get("chat-1")
	assert.Equal(t, "chat-1", s.ID)
	assert.False(t, s.Authenticated)
	assert.Equal(t, domain.FlowUnauthenticated, s.Flow)
	assert.Equal(t, 0, store.Len(), "Get must not create an entry")
}

func TestPutAndGet(t *testing.T) {
	clk := testclock.NewClock(time.Now())
	store := NewMemoryStore(time.Minute, clk)

	s := store.Get("chat-1")
	s.Authenticated = true
	s.Username = "alice"
	s.Flow = domain.FlowMenuIdle
	store.Put("chat-1", s)

	got := store.Get("chat-1")
	assert.True(t, got.Authenticated)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, domain.FlowMenuIdle, got.Flow)
	assert.Equal(t, clk.Now(), got.LastActivity)
	assert.Equal(t, 1, store.Len())
}

func TestGetReturnsCopy(t *testing.T) {
	store := NewMemoryStore(time.Minute, testclock.NewClock(time.Now()))
	store.Put("chat-1", domain.Session{Flow: domain.FlowMenuIdle, Authenticated: true})

	s := store.Get("chat-1")
	s.Flow = domain.FlowAwaitAddName
	s.Scratch.Draft.Name = "Widget"

	got := store.Get("chat-1")
	assert.Equal(t, domain.FlowMenuIdle, got.Flow)
	assert.Empty(t, got.Scratch.Draft.Name)
}

func TestSessionsAreIndependent(t *testing.T) {
	store := NewMemoryStore(time.Minute, testclock.NewClock(time.Now()))
	store.Put("a", domain.Session{Authenticated: true, Flow: domain.FlowMenuIdle})

	assert.False(t, store.Get("b").Authenticated)
}

func TestSessionExpiresAfterTTL(t *testing.T) {
	clk := testclock.NewClock(time.Now())
	store := NewMemoryStore(time.Minute, clk)
	store.Put("chat-1", domain.Session{Authenticated: true, Flow: domain.FlowMenuIdle, LastActivity: clk.Now()})

	clk.Advance(59 * time.Second)
	assert.True(t, store.Get("chat-1").Authenticated)

	clk.Advance(2 * time.Second)
	s := store.Get("chat-1")
	assert.False(t, s.Authenticated)
	assert.Equal(t, domain.FlowUnauthenticated, s.Flow)
	assert.Equal(t, 0, store.Len())
}

func TestEvictExpired(t *testing.T) {
	clk := testclock.NewClock(time.Now())
	store := NewMemoryStore(time.Minute, clk)
	store.Put("old", domain.Session{})
	clk.Advance(45 * time.Second)
	store.Put("new", domain.Session{})
	clk.Advance(30 * time.Second)

	assert.Equal(t, 1, store.EvictExpired())
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 0, store.EvictExpired())
}

func TestDelete(t *testing.T) {
	store := NewMemoryStore(0, nil)
	store.Put("chat-1", domain.Session{Authenticated: true})
	store.Delete("chat-1")

	assert.False(t, store.Get("chat-1").Authenticated)
}

func TestConcurrentAccess(t *testing.T) {
	store := NewMemoryStore(time.Minute, nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i))
			s := store.Get(id)
			s.Authenticated = true
			store.Put(id, s)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, store.Len())
}

func TestJanitorSweeps(t *testing.T) {
	clk := testclock.NewClock(time.Now())
	store := NewMemoryStore(time.Minute, clk)
	store.Put("chat-1", domain.Session{})

	j := NewJanitor(store, 10*time.Second, clk)
	j.Start(context.Background())
	defer j.Stop()

	// Move past the TTL, then fire the sweep timer.
	require.NoError(t, clk.WaitAdvance(61*time.Second, time.Second, 1))

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.sessions) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestJanitorStopIsIdempotent(t *testing.T) {
	j := NewJanitor(NewMemoryStore(time.Minute, nil), time.Hour, nil)
	j.Start(context.Background())
	j.Start(context.Background())
	j.Stop()
	j.Stop()
}
