package mail

import (
	"context"
	"fmt"
	"html"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// EmailSender sends a plain-text message.
type EmailSender interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// SendGridClient implements EmailSender.
type SendGridClient struct {
	apiKey   string
	fromName string
	logger   *zap.Logger
}

func NewSendGridClient(apiKey string, logger *zap.Logger) *SendGridClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SendGridClient{apiKey: apiKey, fromName: "SOLUSD", logger: logger}
}

func (c *SendGridClient) Send(ctx context.Context, from, to, subject, body string) error {
	if c.apiKey == "" {
		return fmt.Errorf("sendgrid api key is empty")
	}
	if from == "" {
		return fmt.Errorf("from address is empty")
	}
	if to == "" {
		return fmt.Errorf("to address is empty")
	}

	message := mail.NewSingleEmail(
		mail.NewEmail(c.fromName, from),
		subject,
		mail.NewEmail("", to),
		body,
		fmt.Sprintf("<pre>%s</pre>", html.EscapeString(body)),
	)

	response, err := sendgrid.NewSendClient(c.apiKey).SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		c.logger.Warn("sendgrid rejected message",
			zap.Int("status", response.StatusCode),
			zap.String("body", response.Body),
		)
		return fmt.Errorf("sendgrid send failed: status=%d", response.StatusCode)
	}

	c.logger.Debug("mail sent",
		zap.Int("status", response.StatusCode),
		zap.String("subject", subject),
	)
	return nil
}
