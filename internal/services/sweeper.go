package services

import (
	"time"

	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/database"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/models"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/pkg/logger"
)

// Sweeper promotes due scheduled communication-log rows to actual delivery
// attempts. Each due row gets exactly one attempt; a failed row is never
// retried. The status guard in every update is the concurrency primitive: a
// concurrently-committed cancel wins by making the sweeper's update affect
// zero rows, and vice versa.
type Sweeper struct {
	notifier *Notifier
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

func NewSweeper(notifier *Notifier, interval time.Duration) *Sweeper {
	return &Sweeper{
		notifier: notifier,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the background loop. Call Stop to terminate it.
func (s *Sweeper) Start() {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		logger.Info().Dur("interval", s.interval).Msg("scheduled-send sweeper started")
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.SweepOnce()
			}
		}
	}()
}

// Stop terminates the loop and waits for the in-flight pass to finish.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}

// SweepOnce processes every due scheduled row. Failures are isolated per
// row; a bad recipient never halts the rest of the batch. Returns how many
// rows were transitioned.
func (s *Sweeper) SweepOnce() int {
	var due []models.CommunicationLog
	err := database.DB.
		Where("status = ? AND scheduled_for <= ?", models.CommStatusScheduled, time.Now()).
		Order("scheduled_for asc").
		Find(&due).Error
	if err != nil {
		logger.Error().Err(err).Msg("sweeper: failed to select due scheduled sends")
		return 0
	}

	processed := 0
	for _, entry := range due {
		if s.processEntry(entry) {
			processed++
		}
	}
	if processed > 0 {
		logger.Info().Int("processed", processed).Msg("sweeper pass complete")
	}
	return processed
}

func (s *Sweeper) processEntry(entry models.CommunicationLog) bool {
	sendErr := s.notifier.Deliver(entry.Channel, entry.ContactAddress, entry.Subject, entry.Body)

	now := time.Now()
	updates := map[string]interface{}{
		"status":  models.CommStatusSent,
		"sent_at": &now,
	}
	if sendErr != nil {
		updates["status"] = models.CommStatusFailed
		updates["error_message"] = sendErr.Error()
		logger.Warn().Err(sendErr).
			Str("id", entry.ID).
			Str("channel", string(entry.Channel)).
			Msg("scheduled send delivery failed")
	}

	// conditional update: loses silently if a concurrent cancel committed first
	res := database.DB.Model(&models.CommunicationLog{}).
		Where("id = ? AND status = ?", entry.ID, models.CommStatusScheduled).
		Updates(updates)
	if res.Error != nil {
		logger.Error().Err(res.Error).Str("id", entry.ID).Msg("sweeper: status transition failed")
		return false
	}
	return res.RowsAffected > 0
}

// CancelScheduled flips a scheduled entry to cancelled. Compare-and-set on
// status: an entry the sweeper already transitioned (or a second cancel)
// affects zero rows and is reported as not found.
func CancelScheduled(id string) bool {
	res := database.DB.Model(&models.CommunicationLog{}).
		Where("id = ? AND status = ?", id, models.CommStatusScheduled).
		Update("status", models.CommStatusCancelled)
	if res.Error != nil {
		logger.Error().Err(res.Error).Str("id", id).Msg("cancel scheduled send failed")
		return false
	}
	return res.RowsAffected > 0
}
