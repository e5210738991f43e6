// Package notify sends outbound email and WhatsApp messages. When a provider
// is not configured the message is logged instead of sent, so development and
// CI environments need no credentials.
package notify

import (
	"context"
	"fmt"
	"net/url"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Sender delivers notifications through SendGrid (email) and the Twilio
// WhatsApp API.
type Sender struct {
	client       *resty.Client
	logger       *zap.Logger
	fromAddress  string
	fromName     string
	sendGridKey  string
	twilioSID    string
	twilioToken  string
	twilioNumber string
}

// Config holds provider credentials. Empty keys enable the log fallback.
type Config struct {
	FromAddress  string
	FromName     string
	SendGridKey  string
	TwilioSID    string
	TwilioToken  string
	TwilioNumber string
}

// NewSender creates a notification sender.
func NewSender(cfg Config, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{
		client:       resty.New(),
		logger:       logger,
		fromAddress:  cfg.FromAddress,
		fromName:     cfg.FromName,
		sendGridKey:  cfg.SendGridKey,
		twilioSID:    cfg.TwilioSID,
		twilioToken:  cfg.TwilioToken,
		twilioNumber: cfg.TwilioNumber,
	}
}

// SendEmail delivers an HTML email via SendGrid, or logs it when no API key
// is configured.
func (s *Sender) SendEmail(ctx context.Context, to, subject, html string) error {
	if s.sendGridKey == "" {
		s.logger.Info("email fallback (no provider configured)",
			zap.String("to", to), zap.String("subject", subject))
		return nil
	}
	body := map[string]interface{}{
		"personalizations": []map[string]interface{}{
			{"to": []map[string]string{{"email": to}}},
		},
		"from":    map[string]string{"email": s.fromAddress, "name": s.fromName},
		"subject": subject,
		"content": []map[string]string{{"type": "text/html", "value": html}},
	}
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(s.sendGridKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("https://api.sendgrid.com/v3/mail/send")
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("sendgrid responded %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// SendWhatsApp delivers a WhatsApp message via Twilio, or logs it when Twilio
// is not configured.
func (s *Sender) SendWhatsApp(ctx context.Context, to, message string) error {
	if s.twilioSID == "" || s.twilioToken == "" || s.twilioNumber == "" {
		s.logger.Info("whatsapp fallback (no provider configured)",
			zap.String("to", to), zap.String("message", message))
		return nil
	}
	form := url.Values{}
	form.Set("Body", message)
	form.Set("From", "whatsapp:"+s.twilioNumber)
	form.Set("To", "whatsapp:"+to)
	resp, err := s.client.R().
		SetContext(ctx).
		SetBasicAuth(s.twilioSID, s.twilioToken).
		SetFormDataFromValues(form).
		Post(fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", s.twilioSID))
	if err != nil {
		return fmt.Errorf("twilio request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("twilio responded %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
