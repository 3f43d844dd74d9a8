package telemetry

import (
	"encoding/json"
	"sort"
	"time"
)

type Stats struct {
	Period             string            `json:"period"`
	EventCounts        map[EventType]int `json:"event_counts"`
	BlocksAdded        int               `json:"blocks_added"`
	Completions        int               `json:"completions"`
	Reopens            int               `json:"reopens"`
	Deletions          int               `json:"deletions"`
	RecurringGenerated int               `json:"recurring_generated"`
	ActiveDays         int               `json:"active_days"`
	ActiveDates        []string          `json:"active_dates"`
	CompletionsPerDay  float64           `json:"completions_per_day"`
	CompletionsByCat   map[string]int    `json:"completions_by_category"`
}

// CalculateStats aggregates activity events recorded since the given time.
func CalculateStats(events []Event, since time.Time) (Stats, error) {
	stats := Stats{
		Period:           since.Format("2006-01-02"),
		EventCounts:      make(map[EventType]int),
		CompletionsByCat: make(map[string]int),
	}

	days := map[string]bool{}
	for _, event := range events {
		stats.EventCounts[event.Type]++
		days[event.Timestamp.In(time.Local).Format("2006-01-02")] = true

		var metadata EventMetadata
		if err := json.Unmarshal([]byte(event.Metadata), &metadata); err != nil {
			metadata = EventMetadata{}
		}

		switch event.Type {
		case EventBlockAdded:
			stats.BlocksAdded++
		case EventBlockCompleted:
			stats.Completions++
			if cat, ok := metadata["category"].(string); ok {
				stats.CompletionsByCat[cat]++
			}
		case EventBlockReopened:
			stats.Reopens++
		case EventBlockDeleted:
			stats.Deletions++
		case EventRecurrenceGenerated:
			if n, ok := metadata["count"].(float64); ok {
				stats.RecurringGenerated += int(n)
			}
		}
	}

	stats.ActiveDays = len(days)
	stats.ActiveDates = make([]string, 0, len(days))
	for d := range days {
		stats.ActiveDates = append(stats.ActiveDates, d)
	}
	sort.Strings(stats.ActiveDates)

	if stats.ActiveDays > 0 {
		stats.CompletionsPerDay = float64(stats.Completions) / float64(stats.ActiveDays)
	}

	return stats, nil
}
