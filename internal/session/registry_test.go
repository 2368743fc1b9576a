package session

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type conn struct {
	name   string
	closed bool
}

func TestRegistry_Lifecycle(t *testing.T) {
	var created, closed []string
	reg := NewRegistry(Hooks[*conn]{
		OnCreate: func(id string, c *conn) { created = append(created, id) },
		OnClose: func(id string, c *conn) {
			c.closed = true
			closed = append(closed, id)
		},
	})

	a, err := reg.GetOrCreate("a", func() (*conn, error) { return &conn{name: "a"}, nil })
	require.NoError(t, err)

	again, err := reg.GetOrCreate("a", func() (*conn, error) {
		t.Fatal("existing session must be reused")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Same(t, a, again)

	_, err = reg.GetOrCreate("b", func() (*conn, error) { return &conn{name: "b"}, nil })
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, reg.IDs())

	assert.True(t, reg.Close("a"))
	assert.False(t, reg.Close("a"))
	assert.True(t, a.closed)

	reg.CloseAll()
	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, []string{"a", "b"}, created)
	assert.Equal(t, []string{"a", "b"}, closed)
}

func TestRegistry_CreateError(t *testing.T) {
	reg := NewRegistry(Hooks[*conn]{})
	_, err := reg.GetOrCreate("x", func() (*conn, error) { return nil, errors.New("dial failed") })

	assert.ErrorContains(t, err, "dial failed")
	_, ok := reg.Get("x")
	assert.False(t, ok)
}

func TestRegistry_ConcurrentCreateSharesSession(t *testing.T) {
	reg := NewRegistry(Hooks[*conn]{})
	var calls int32

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reg.GetOrCreate("shared", func() (*conn, error) {
				atomic.AddInt32(&calls, 1)
				return &conn{name: "shared"}, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRegistry_SlowCreateDoesNotBlockOtherIds(t *testing.T) {
	reg := NewRegistry(Hooks[*conn]{})
	_, err := reg.GetOrCreate("fast", func() (*conn, error) { return &conn{name: "fast"}, nil })
	require.NoError(t, err)

	release := make(chan struct{})
	entered := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := reg.GetOrCreate("slow", func() (*conn, error) {
			close(entered)
			<-release
			return &conn{name: "slow"}, nil
		})
		assert.NoError(t, err)
	}()
	<-entered

	start := time.Now()
	c, ok := reg.Get("fast")
	require.True(t, ok)
	assert.Equal(t, "fast", c.name)

	other, err := reg.GetOrCreate("other", func() (*conn, error) { return &conn{name: "other"}, nil })
	require.NoError(t, err)
	assert.Equal(t, "other", other.name)
	assert.True(t, reg.Close("fast"))
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	_, ok = reg.Get("slow")
	assert.False(t, ok)

	close(release)
	<-done
	_, ok = reg.Get("slow")
	assert.True(t, ok)
}
