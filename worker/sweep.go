package worker

import (
	"time"

	"github.com/drewmudry/chatshorts-api/metrics"
	"github.com/drewmudry/chatshorts-api/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// inFlight are the statuses a worker holds while it is working on a
// generation. A generation left in one of them was abandoned by a crashed
// or restarted worker.
var inFlight = []string{models.StatusProcessingEnrich, models.StatusRendering}

// SweepStale marks generations that have sat in an in-flight status since
// before now-staleAfter as failed_stale. Their cues are kept.
func SweepStale(db *gorm.DB, staleAfter time.Duration, now time.Time) (int64, error) {
	cutoff := now.Add(-staleAfter)
	result := db.Model(&models.Generation{}).
		Where("status IN ? AND updated_at < ?", inFlight, cutoff).
		Updates(map[string]interface{}{
			"status": models.StatusFailedStale,
			"error":  "no progress since " + cutoff.UTC().Format(time.RFC3339),
		})
	if result.Error != nil {
		return 0, result.Error
	}

	if result.RowsAffected > 0 {
		metrics.StaleGenerations.Add(float64(result.RowsAffected))
		log.Printf("Marked %d stale generations as failed", result.RowsAffected)
	}
	return result.RowsAffected, nil
}
