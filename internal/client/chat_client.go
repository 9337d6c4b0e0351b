package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"education-service/config"
)

// Button is one inline keyboard callback button.
type Button struct {
	Text    string `json:"text"`
	Payload string `json:"payload"`
}

// Keyboard is rows of buttons rendered under a message.
type Keyboard [][]Button

// ChatClient sends and edits chat messages through the messenger bot API.
type ChatClient struct {
	apiURL     string
	token      string
	httpClient *http.Client
}

func NewChatClient(cfg *config.BotConfig) *ChatClient {
	return &ChatClient{
		apiURL:     cfg.APIURL,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type outgoingMessage struct {
	ChatID   int64      `json:"chat_id"`
	Text     string     `json:"text"`
	Keyboard [][]Button `json:"keyboard,omitempty"`
}

func (c *ChatClient) post(ctx context.Context, method string, query url.Values, body interface{}) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	query.Set("access_token", c.token)
	endpoint := fmt.Sprintf("%s/%s?%s", c.apiURL, method, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to bot API failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("bot API returned status %d for %s", resp.StatusCode, method)
	}
	return nil
}

func (c *ChatClient) SendMessage(ctx context.Context, chatID int64, text string, keyboard Keyboard) error {
	return c.post(ctx, "messages", url.Values{}, outgoingMessage{
		ChatID:   chatID,
		Text:     text,
		Keyboard: keyboard,
	})
}

// EditMessage rewrites a previously sent message in place; used to redraw
// the current question instead of flooding the chat.
func (c *ChatClient) EditMessage(ctx context.Context, chatID, messageID int64, text string, keyboard Keyboard) error {
	query := url.Values{}
	query.Set("message_id", strconv.FormatInt(messageID, 10))
	return c.post(ctx, "messages/edit", query, outgoingMessage{
		ChatID:   chatID,
		Text:     text,
		Keyboard: keyboard,
	})
}
