package utils

import (
	"math"
	"time"
)

// Gravity controls how fast an item sinks in the hot listing as it ages.
const Gravity = 1.8

// HotRank is the Hacker News ranking: (score - 1) / (age_hours + 2)^gravity.
// Newer items beat older items with the same score.
func HotRank(score int, createdAt, now time.Time) float64 {
	hours := now.Sub(createdAt).Hours()
	if hours < 0 {
		hours = 0
	}
	return float64(score-1) / math.Pow(hours+2, Gravity)
}
