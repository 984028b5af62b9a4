package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type Message struct {
	To      string
	Name    string
	Subject string
	Body    string
}

type Sender interface {
	Send(ctx context.Context, m Message) error
}

type SendGridSender struct {
	Client *sendgrid.Client
	From   *mail.Email
}

func NewSendGridSender(apiKey, from string) *SendGridSender {
	return &SendGridSender{
		Client: sendgrid.NewSendClient(apiKey),
		From:   mail.NewEmail("Food Market", from),
	}
}

func (s *SendGridSender) Send(ctx context.Context, m Message) error {
	msg := mail.NewSingleEmail(s.From, m.Subject, mail.NewEmail(m.Name, m.To), m.Body, "")
	resp, err := s.Client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	Log *slog.Logger
}

func (s LogSender) Send(_ context.Context, m Message) error {
	s.Log.Info("notification", "to", m.To, "subject", m.Subject, "body", m.Body)
	return nil
}
