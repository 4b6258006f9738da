package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/database"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/models"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/pkg/logger"
)

// Notifier resolves contact channels, renders content and delivers it,
// writing a communication log row for every attempt regardless of outcome.
// Channel failures never propagate as errors; callers inspect the returned
// row's status.
type Notifier struct {
	Email EmailSender
	SMS   SMSSender
}

func NewNotifier(email EmailSender, sms SMSSender) *Notifier {
	return &Notifier{Email: email, SMS: sms}
}

// DispatchRequest describes one outbound notification to one recipient.
// Subject and Body may contain {{variable}} placeholders resolved from Vars.
type DispatchRequest struct {
	RecipientID   string
	RecipientRole models.ParticipantRole
	Channel       models.CommChannel
	Subject       string
	Body          string
	Vars          map[string]string
	SenderID      string
}

// SendAndLog attempts immediate delivery and writes the log row. The row is
// returned so callers can count partial successes across recipients.
func (n *Notifier) SendAndLog(req DispatchRequest) *models.CommunicationLog {
	entry := n.buildEntry(req)

	name, address, err := ResolveContact(req.RecipientID, req.RecipientRole, req.Channel)
	entry.RecipientName = name
	entry.ContactAddress = address

	if err == nil {
		err = n.Deliver(req.Channel, address, entry.Subject, entry.Body)
	}

	now := time.Now()
	if err != nil {
		entry.Status = models.CommStatusFailed
		entry.ErrorMessage = err.Error()
		logger.Warn().Err(err).
			Str("recipient", req.RecipientID).
			Str("role", string(req.RecipientRole)).
			Str("channel", string(req.Channel)).
			Msg("notification delivery failed")
	} else {
		entry.Status = models.CommStatusSent
		entry.SentAt = &now
	}

	if dbErr := database.DB.Create(entry).Error; dbErr != nil {
		logger.Error().Err(dbErr).Str("recipient", req.RecipientID).Msg("failed to write communication log")
	}
	return entry
}

// LogScheduled records a deferred send without attempting delivery. The
// compose boundary has already validated that scheduledFor is in the future.
func (n *Notifier) LogScheduled(req DispatchRequest, scheduledFor time.Time) (*models.CommunicationLog, error) {
	entry := n.buildEntry(req)
	entry.Status = models.CommStatusScheduled
	entry.ScheduledFor = &scheduledFor

	name, address, err := ResolveContact(req.RecipientID, req.RecipientRole, req.Channel)
	entry.RecipientName = name
	entry.ContactAddress = address
	if err != nil {
		// no address to ever deliver to: record the failure now rather than
		// letting the sweeper discover it later
		entry.Status = models.CommStatusFailed
		entry.ErrorMessage = err.Error()
	}

	if dbErr := database.DB.Create(entry).Error; dbErr != nil {
		return nil, dbErr
	}
	return entry, nil
}

// Deliver routes rendered content through the channel's sender.
func (n *Notifier) Deliver(channel models.CommChannel, address, subject, body string) error {
	switch channel {
	case models.ChannelEmail:
		if n.Email == nil {
			return fmt.Errorf("email channel not configured")
		}
		return n.Email.Send(address, subject, body)
	case models.ChannelSMS:
		if n.SMS == nil {
			return fmt.Errorf("sms channel not configured")
		}
		return n.SMS.Send(address, body)
	default:
		return fmt.Errorf("unknown channel %q", channel)
	}
}

func (n *Notifier) buildEntry(req DispatchRequest) *models.CommunicationLog {
	return &models.CommunicationLog{
		RecipientID:   req.RecipientID,
		RecipientRole: req.RecipientRole,
		Channel:       req.Channel,
		Direction:     "outbound",
		Subject:       RenderTemplate(req.Subject, req.Vars),
		Body:          RenderTemplate(req.Body, req.Vars),
		SentByID:      req.SenderID,
	}
}

// DispatchResult aggregates a multi-recipient dispatch.
type DispatchResult struct {
	Sent   int
	Failed int
}

// SendToAll dispatches to every recipient concurrently and collects the
// outcome per recipient, so one provider failure never hides the rest.
func (n *Notifier) SendToAll(reqs []DispatchRequest) DispatchResult {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		result DispatchResult
	)

	for _, req := range reqs {
		wg.Add(1)
		go func(r DispatchRequest) {
			defer wg.Done()
			entry := n.SendAndLog(r)

			mu.Lock()
			defer mu.Unlock()
			if entry.Status == models.CommStatusSent {
				result.Sent++
			} else {
				result.Failed++
			}
		}(req)
	}

	wg.Wait()
	return result
}
