// Package whatsapp handles inbound WhatsApp webhooks: owner messages are parsed as
// chat commands and answered on the same thread.
package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/coopkeeper/internal/config"
	"github.com/mamadbah2/coopkeeper/internal/domain/models"
	"github.com/mamadbah2/coopkeeper/internal/metrics"
	"github.com/mamadbah2/coopkeeper/internal/service/commands"
	client "github.com/mamadbah2/coopkeeper/pkg/clients/whatsapp"
)

// ErrVerification indicates a failed webhook subscription handshake.
var ErrVerification = errors.New("webhook verification failed")

const replyTimeout = 10 * time.Second

// MessagingService describes the operations the HTTP layer can perform.
type MessagingService interface {
	VerifyWebhookToken(mode, verifyToken, challenge string) (string, error)
	HandleWebhook(ctx context.Context, payload models.WebhookPayload) error
}

// MetaWhatsAppService is the production implementation backed by WhatsApp Cloud API.
type MetaWhatsAppService struct {
	cfg        config.WhatsAppConfig
	client     client.Client
	dispatcher commands.Dispatcher
	seen       *SeenMessages
	loc        *time.Location
	now        func() time.Time
	logger     *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance. Message days are computed in loc.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, c client.Client, dispatcher commands.Dispatcher, loc *time.Location, logger *zap.Logger) *MetaWhatsAppService {
	svc := &MetaWhatsAppService{
		cfg:        cfg,
		client:     c,
		dispatcher: dispatcher,
		seen:       NewSeenMessages(0),
		loc:        loc,
		now:        time.Now,
		logger:     logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	if svc.loc == nil {
		svc.loc = time.UTC
	}
	return svc
}

// VerifyWebhookToken validates the callback verification token.
func (s *MetaWhatsAppService) VerifyWebhookToken(mode, verifyToken, challenge string) (string, error) {
	if mode == "" || verifyToken == "" {
		return "", fmt.Errorf("%w: missing mode or verify token", ErrVerification)
	}

	if !strings.EqualFold(mode, "subscribe") {
		return "", fmt.Errorf("%w: unsupported hub.mode %s", ErrVerification, mode)
	}

	if s.cfg.VerifyToken == "" || verifyToken != s.cfg.VerifyToken {
		return "", fmt.Errorf("%w: invalid verify token", ErrVerification)
	}

	return challenge, nil
}

// HandleWebhook processes inbound webhook payloads. Messages from anyone but the owner
// and status receipts are ignored.
func (s *MetaWhatsAppService) HandleWebhook(ctx context.Context, payload models.WebhookPayload) error {
	var errs []error

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if err := s.handleInboundMessage(ctx, msg); err != nil {
					s.logger.Error("failed to handle inbound message", zap.Error(err), zap.String("message_id", msg.ID))
					errs = append(errs, err)
				}
			}
		}
	}

	return errors.Join(errs...)
}

func (s *MetaWhatsAppService) handleInboundMessage(ctx context.Context, msg models.InboundMessage) error {
	if !sameNumber(msg.From, s.cfg.OwnerID) {
		s.logger.Debug("ignoring message from non-owner", zap.String("from", msg.From))
		return nil
	}

	text := extractMessageText(msg)
	if text == "" {
		s.logger.Debug("ignoring message without text", zap.String("type", msg.Type))
		return nil
	}

	if !s.seen.MarkSeen(msg.ID) {
		s.logger.Debug("duplicate delivery ignored", zap.String("message_id", msg.ID))
		return nil
	}

	cmd := models.ParseCommand(text)
	day := s.messageDay(msg)

	s.logger.Info("parsed inbound command",
		zap.String("command", string(cmd.Type)),
		zap.String("day", day.String()),
		zap.Strings("args", cmd.Args))

	reply, err := s.dispatcher.HandleCommand(ctx, day, cmd)
	switch {
	case errors.Is(err, commands.ErrInvalidArguments):
		metrics.RecordOperation("chat", string(cmd.Type), false)
	case err != nil:
		metrics.RecordOperation("chat", string(cmd.Type), false)
		s.seen.Forget(msg.ID)
		reply = "Sorry, that did not work. Please try again later."
		if sendErr := s.reply(ctx, msg.From, reply); sendErr != nil {
			s.logger.Warn("failed to send error reply", zap.Error(sendErr))
		}
		return fmt.Errorf("handle %s: %w", cmd.Type, err)
	default:
		metrics.RecordOperation("chat", string(cmd.Type), true)
	}

	return s.reply(ctx, msg.From, reply)
}

func (s *MetaWhatsAppService) reply(ctx context.Context, to, body string) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, replyTimeout)
	defer cancel()

	_, err := s.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:   to,
		Body: body,
	})
	if err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}

// messageDay uses the send time carried by the message, falling back to the clock.
func (s *MetaWhatsAppService) messageDay(msg models.InboundMessage) models.DayKey {
	at := s.now()
	if secs, err := strconv.ParseInt(msg.Timestamp, 10, 64); err == nil && secs > 0 {
		at = time.Unix(secs, 0)
	}
	return models.DayKeyOf(at.In(s.loc))
}

func extractMessageText(msg models.InboundMessage) string {
	if msg.Text != nil {
		return strings.TrimSpace(msg.Text.Body)
	}

	if msg.Interactive != nil && msg.Interactive.ButtonReply != nil {
		return msg.Interactive.ButtonReply.ID
	}

	return ""
}

// sameNumber compares phone numbers ignoring a leading "+" and spacing.
func sameNumber(a, b string) bool {
	normalize := func(v string) string {
		v = strings.TrimPrefix(strings.TrimSpace(v), "+")
		return strings.ReplaceAll(v, " ", "")
	}
	return a != "" && normalize(a) == normalize(b)
}
