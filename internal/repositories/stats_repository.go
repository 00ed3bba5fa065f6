package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sahayak-agent/internal/models"
	"sahayak-agent/internal/store"
)

const pointsPerRecord = 50

// StatsRepository keeps the enumerator's gamification counters: points
// per saved record and a streak of consecutive active days.
type StatsRepository struct {
	Store *store.Store
}

func NewStatsRepository(s *store.Store) *StatsRepository {
	return &StatsRepository{Store: s}
}

// Get returns the current stats, zero-valued if none recorded yet.
func (r *StatsRepository) Get(ctx context.Context) (models.EnumeratorStats, error) {
	var all []models.EnumeratorStats
	if err := r.Store.List(models.CollectionStats, &all); err != nil {
		return models.EnumeratorStats{}, err
	}
	if len(all) == 0 {
		return models.EnumeratorStats{}, nil
	}
	return all[0], nil
}

// RecordActivity awards points for a saved record and advances the
// streak: +1 when the previous active day was yesterday, reset to 1
// after a gap, unchanged within the same day.
func (r *StatsRepository) RecordActivity(ctx context.Context, now time.Time) (models.EnumeratorStats, error) {
	today := now.Format("2006-01-02")
	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")

	// Multiple services award points concurrently; the read-modify-write
	// runs inside the store lock so no award is lost.
	var stats models.EnumeratorStats
	err := r.Store.Update(models.CollectionStats, func(raws []json.RawMessage) ([]json.RawMessage, error) {
		if len(raws) > 0 {
			if err := json.Unmarshal(raws[0], &stats); err != nil {
				return nil, fmt.Errorf("stats: corrupt record: %w", err)
			}
		}

		stats.Points += pointsPerRecord
		switch stats.LastRecordDate {
		case yesterday:
			stats.Streak++
		case today:
			// already counted today
		default:
			stats.Streak = 1
		}
		stats.LastRecordDate = today

		encoded, err := json.Marshal(stats)
		if err != nil {
			return nil, fmt.Errorf("stats: marshal record: %w", err)
		}
		return []json.RawMessage{encoded}, nil
	})
	if err != nil {
		return models.EnumeratorStats{}, err
	}
	return stats, nil
}
