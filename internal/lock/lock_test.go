package redlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func newTestClient(t *testing.T) redis.UniversalClient {
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestParseLockExcludesSecondHolder(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	first := NewParseLock(client, "version_1")
	second := NewParseLock(client, "version_1")

	assert.NoError(t, first.Lock(ctx, time.Minute))
	assert.Error(t, second.Lock(ctx, time.Minute))

	// A different version is an independent lock.
	other := NewParseLock(client, "version_2")
	assert.NoError(t, other.Lock(ctx, time.Minute))
}

func TestUnlockOnlyByHolder(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	holder := NewParseLock(client, "version_1")
	intruder := NewParseLock(client, "version_1")

	assert.NoError(t, holder.Lock(ctx, time.Minute))
	assert.Error(t, intruder.Unlock(ctx))
	assert.NoError(t, holder.Unlock(ctx))

	// Once released, the lock can be taken again.
	assert.NoError(t, intruder.Lock(ctx, time.Minute))
}

func TestExtendLock(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	holder := NewParseLock(client, "version_1")
	assert.NoError(t, holder.Lock(ctx, time.Minute))
	assert.NoError(t, holder.ExtendLock(ctx, 2*time.Minute))

	intruder := NewParseLock(client, "version_1")
	assert.Error(t, intruder.ExtendLock(ctx, time.Minute))
}
