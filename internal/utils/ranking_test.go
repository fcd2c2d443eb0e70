package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHotRank(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("fresh item with one point ranks zero", func(t *testing.T) {
		assert.InDelta(t, 0, HotRank(1, now, now), 1e-9)
	})

	t.Run("newer beats older at equal score", func(t *testing.T) {
		fresh := HotRank(10, now.Add(-time.Hour), now)
		stale := HotRank(10, now.Add(-24*time.Hour), now)
		assert.Greater(t, fresh, stale)
	})

	t.Run("higher score wins at equal age", func(t *testing.T) {
		created := now.Add(-3 * time.Hour)
		assert.Greater(t, HotRank(20, created, now), HotRank(5, created, now))
	})

	t.Run("future timestamps are treated as brand new", func(t *testing.T) {
		assert.Equal(t, HotRank(5, now, now), HotRank(5, now.Add(time.Hour), now))
	})
}
