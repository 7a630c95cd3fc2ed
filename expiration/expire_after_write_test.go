package expiration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/krisalay/paginated-query-cache/types"
)

func TestExpireAfterWrite(t *testing.T) {
	exp := &ExpireAfterWrite{TTL: time.Second}
	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	ent := &types.CacheEntry{Key: "k"}
	exp.OnWrite(ent, t0)
	assert.Equal(t, t0, ent.WrittenAt)

	assert.False(t, exp.IsExpired(ent, t0))
	assert.False(t, exp.IsExpired(ent, t0.Add(999*time.Millisecond)))
	assert.True(t, exp.IsExpired(ent, t0.Add(time.Second)), "exactly TTL old is stale")
	assert.True(t, exp.IsExpired(ent, t0.Add(time.Second+time.Nanosecond)))
}

func TestSweepIntervalIsHalfTheWindow(t *testing.T) {
	exp := &ExpireAfterWrite{TTL: 5 * time.Minute}
	assert.Equal(t, 150*time.Second, exp.SweepInterval())
}
