package channel

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/lexhub/deadline-api/internal/model"
	apperrors "github.com/lexhub/deadline-api/pkg/errors"
)

type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type emailAdapter struct {
	dialer *gomail.Dialer
	from   string
}

// NewEmailAdapter builds the SMTP-backed email channel.
func NewEmailAdapter(cfg EmailConfig) Adapter {
	return &emailAdapter{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (a *emailAdapter) Name() model.NotificationChannel {
	return model.ChannelEmail
}

// Send delivers the message over SMTP. gomail has no context support,
// so the dial-and-send runs in a goroutine and the context deadline is
// enforced here; a timed-out send counts as a failed attempt.
func (a *emailAdapter) Send(ctx context.Context, msg Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", a.from)
	m.SetHeader("To", msg.Recipient)
	m.SetHeader("Subject", msg.Title)
	m.SetBody("text/plain", msg.Body)

	done := make(chan error, 1)
	go func() {
		done <- a.dialer.DialAndSend(m)
	}()

	select {
	case <-ctx.Done():
		return apperrors.ChannelDelivery("email", ctx.Err())
	case err := <-done:
		if err != nil {
			return apperrors.ChannelDelivery("email", fmt.Errorf("smtp send failed: %w", err))
		}
		return nil
	}
}
