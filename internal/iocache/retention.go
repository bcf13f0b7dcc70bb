package iocache

// msPerDay is the number of milliseconds in a retention day.
const msPerDay = 24 * 60 * 60 * 1000

// RetentionCutoff returns the start timestamp (epoch ms) before which events
// fall outside a retention window of days ending at now.
func RetentionCutoff(days int, now int64) int64 {
	return now - int64(days)*msPerDay
}
