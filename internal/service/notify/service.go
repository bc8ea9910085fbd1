// Package notify pushes the weekly summary and the Sunday reminder to the owner's phone.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/coopkeeper/internal/domain/models"
	client "github.com/mamadbah2/coopkeeper/pkg/clients/whatsapp"
)

// ErrDisabled indicates notifications are not configured.
var ErrDisabled = errors.New("notifications are disabled")

// SundayReminder is sent once per Sunday.
const SundayReminder = "CoopKeeper reminder: it's Sunday! Review this week's egg count and export your records."

// SummarySource produces the weekly summary text.
type SummarySource interface {
	GenerateWeeklyReport(ctx context.Context, day models.DayKey) (string, error)
}

// Service sends owner notifications over WhatsApp.
type Service struct {
	client  client.Client
	ownerID string
	reports SummarySource
	logger  *zap.Logger
}

// NewService wires a notifier. A nil client disables sending.
func NewService(c client.Client, ownerID string, reports SummarySource, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: c, ownerID: ownerID, reports: reports, logger: logger}
}

// Enabled reports whether messages can be sent.
func (s *Service) Enabled() bool {
	return s != nil && s.client != nil && s.ownerID != ""
}

// SendWeeklySummary formats the week ending with day and sends it to the owner.
func (s *Service) SendWeeklySummary(ctx context.Context, day models.DayKey) error {
	if !s.Enabled() {
		return ErrDisabled
	}

	report, err := s.reports.GenerateWeeklyReport(ctx, day)
	if err != nil {
		return fmt.Errorf("generate weekly report: %w", err)
	}

	if err := s.send(ctx, report); err != nil {
		return fmt.Errorf("send weekly report: %w", err)
	}
	s.logger.Info("weekly summary sent", zap.String("day", day.String()))
	return nil
}

// SendReminder sends the Sunday reminder to the owner.
func (s *Service) SendReminder(ctx context.Context) error {
	if !s.Enabled() {
		return ErrDisabled
	}
	if err := s.send(ctx, SundayReminder); err != nil {
		return fmt.Errorf("send reminder: %w", err)
	}
	return nil
}

func (s *Service) send(ctx context.Context, body string) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:   s.ownerID,
		Body: body,
	})
	return err
}
