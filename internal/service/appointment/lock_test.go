package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutexGivesUpWithContext(t *testing.T) {
	locks := newKeyedMutex()

	unlock, err := locks.Lock(context.Background(), "1|2024-01-16|09:00")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locks.Lock(ctx, "1|2024-01-16|09:00")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, locks.size())

	// other keys are independent
	other, err := locks.Lock(ctx, "1|2024-01-16|09:30")
	require.NoError(t, err)
	other()

	unlock()
	assert.Zero(t, locks.size())

	again, err := locks.Lock(context.Background(), "1|2024-01-16|09:00")
	require.NoError(t, err)
	again()
}

func TestKeyedMutexHandsOverToWaiter(t *testing.T) {
	locks := newKeyedMutex()
	unlock, err := locks.Lock(context.Background(), "k")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		next, err := locks.Lock(context.Background(), "k")
		if assert.NoError(t, err) {
			next()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("lock acquired while held")
	case <-time.After(20 * time.Millisecond):
	}
	unlock()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the lock")
	}
	assert.Zero(t, locks.size())
}
