package analytics

import (
	"sort"
	"time"

	"ascended/internal/model"
)

// HourlyEngagement aggregates events into per-hour buckets.
func HourlyEngagement(events []model.Engagement) map[time.Time]map[model.EngagementType]int {
	buckets := make(map[time.Time]map[model.EngagementType]int)
	for _, e := range events {
		ts := e.CreatedAt.UTC()
		key := time.Date(ts.Year(), ts.Month(), ts.Day(), ts.Hour(), 0, 0, 0, time.UTC)
		if _, ok := buckets[key]; !ok {
			buckets[key] = make(map[model.EngagementType]int)
		}
		buckets[key][e.Type]++
	}
	return buckets
}

// SortedBucketKeys returns sorted hour keys.
func SortedBucketKeys(m map[time.Time]map[model.EngagementType]int) []time.Time {
	keys := make([]time.Time, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	return keys
}
