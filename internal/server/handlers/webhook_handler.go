package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/coopkeeper/internal/domain/models"
	chat "github.com/mamadbah2/coopkeeper/internal/service/whatsapp"
)

const (
	// businessAccountObject is the only webhook object carrying chat messages.
	businessAccountObject = "whatsapp_business_account"
	maxWebhookBody        = 1 << 20
)

// WebhookHandler turns WhatsApp webhook calls into chat commands.
type WebhookHandler struct {
	chat   chat.MessagingService
	logger *zap.Logger
}

// NewWebhookHandler constructs the webhook adapter over the chat service.
func NewWebhookHandler(svc chat.MessagingService, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{chat: svc, logger: logger}
}

// Verify completes the subscription handshake by echoing hub.challenge.
func (h *WebhookHandler) Verify(c *gin.Context) {
	challenge, err := h.chat.VerifyWebhookToken(
		c.Query("hub.mode"),
		c.Query("hub.verify_token"),
		c.Query("hub.challenge"),
	)
	if err != nil {
		h.logger.Warn("webhook subscription rejected", zap.Error(err))
		c.String(http.StatusForbidden, "verification failed")
		return
	}
	c.String(http.StatusOK, challenge)
}

// Receive hands owner messages to the chat service. The callback is acknowledged even
// when a command fails: any other status makes Meta redeliver the whole batch.
func (h *WebhookHandler) Receive(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)

	var payload models.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.logger.Warn("undecodable webhook body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if payload.Object != "" && payload.Object != businessAccountObject {
		h.logger.Debug("webhook for unrelated object ignored", zap.String("object", payload.Object))
		c.Status(http.StatusOK)
		return
	}

	if err := h.chat.HandleWebhook(c.Request.Context(), payload); err != nil {
		h.logger.Error("chat command processing failed", zap.Error(err))
	}
	c.Status(http.StatusOK)
}
