package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ContactEventPublisher announces delivered contact messages.
type ContactEventPublisher interface {
	PublishContactMessageSent(ctx context.Context, event *models.ContactMessageSentEvent) error
}

// Client sends contact-form messages through a Resend-compatible
// transactional email API. Sender and recipient are fixed; the submitter's
// address goes into reply-to.
type Client struct {
	apiURL     string
	apiKey     string
	sender     string
	recipient  string
	httpClient *http.Client
	publisher  ContactEventPublisher
	logger     *zap.Logger
}

// NewClient creates a new mailer client. A nil publisher disables the
// delivery event.
func NewClient(apiURL, apiKey, sender, recipient string, publisher ContactEventPublisher) *Client {
	return &Client{
		apiURL:    apiURL,
		apiKey:    apiKey,
		sender:    sender,
		recipient: recipient,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

type emailRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	ReplyTo string `json:"reply_to"`
}

type emailErrorResponse struct {
	Message string `json:"message"`
}

// Send validates the submission and forwards it as a plain-text email.
func (c *Client) Send(ctx context.Context, msg *models.ContactMessage) error {
	if msg.Name == "" || msg.Email == "" || msg.Subject == "" || msg.Message == "" {
		return fmt.Errorf("missing required fields")
	}

	body := fmt.Sprintf("Name: %s\nEmail: %s\nSubject: %s\n\nMessage:\n%s\n",
		msg.Name, msg.Email, msg.Subject, msg.Message)

	payload, err := json.Marshal(emailRequest{
		From:    c.sender,
		To:      c.recipient,
		Subject: fmt.Sprintf("[Contact Form] %s", msg.Subject),
		Text:    body,
		ReplyTo: msg.Email,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build email request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		util.ContactEmailsFailedTotal.Inc()
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		util.ContactEmailsFailedTotal.Inc()

		var apiErr emailErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Message != "" {
			c.logger.Error("Email API error",
				zap.Int("status", resp.StatusCode),
				zap.String("message", apiErr.Message))
			return fmt.Errorf("%s", apiErr.Message)
		}
		return fmt.Errorf("failed to send email: status %d", resp.StatusCode)
	}

	util.ContactEmailsSentTotal.Inc()
	c.logger.Info("Contact email sent", zap.String("subject", msg.Subject))

	if c.publisher != nil {
		event := &models.ContactMessageSentEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeContactMessageSent,
				Timestamp: time.Now(),
			},
			Email:   msg.Email,
			Subject: msg.Subject,
		}
		if err := c.publisher.PublishContactMessageSent(ctx, event); err != nil {
			c.logger.Error("Failed to publish ContactMessageSent event", zap.Error(err))
		}
	}
	return nil
}
