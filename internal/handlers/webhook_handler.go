package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"education-service/internal/service"
)

// Update is the envelope the messenger posts to the webhook. Exactly one
// of Message and Callback is set per delivery.
type Update struct {
	UpdateType string    `json:"update_type"`
	Message    *Message  `json:"message,omitempty"`
	Callback   *Callback `json:"callback,omitempty"`
}

type Sender struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type Message struct {
	Sender Sender `json:"sender"`
	Body   struct {
		Text string `json:"text"`
	} `json:"body"`
}

type Callback struct {
	User    Sender `json:"user"`
	Payload string `json:"payload"`
}

type WebhookHandler struct {
	bot    *service.BotService
	secret string
}

func NewWebhookHandler(bot *service.BotService, secret string) *WebhookHandler {
	return &WebhookHandler{bot: bot, secret: secret}
}

// Handle accepts one update. The response is always 200 once the payload
// parses; processing errors are logged so the messenger does not redeliver
// an update we cannot handle anyway.
func (h *WebhookHandler) Handle(c *gin.Context) {
	if h.secret != "" && c.Query("secret") != h.secret {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid webhook secret"})
		return
	}

	var update Update
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid update payload"})
		return
	}

	if err := h.dispatch(c.Request.Context(), update); err != nil {
		log.Printf("Failed to process %s update: %v", update.UpdateType, err)
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *WebhookHandler) dispatch(ctx context.Context, update Update) error {
	switch {
	case update.Message != nil:
		return h.bot.HandleMessage(ctx, profileOf(update.Message.Sender), update.Message.Body.Text)
	case update.Callback != nil:
		return h.bot.HandleCallback(ctx, profileOf(update.Callback.User), update.Callback.Payload)
	}
	return nil
}

func profileOf(sender Sender) service.Profile {
	return service.Profile{
		MessengerID: sender.UserID,
		Username:    sender.Username,
		FirstName:   sender.FirstName,
		LastName:    sender.LastName,
	}
}
