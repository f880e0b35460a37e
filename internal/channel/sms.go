package channel

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/lexhub/deadline-api/internal/model"
	"github.com/lexhub/deadline-api/pkg/circuitbreaker"
	apperrors "github.com/lexhub/deadline-api/pkg/errors"
)

type SMSConfig struct {
	APIURL     string
	APIKey     string
	From       string
	RatePerSec int
}

type smsAdapter struct {
	client  *http.Client
	cb      *circuitbreaker.CircuitBreaker
	limiter *rate.Limiter
	apiURL  string
	apiKey  string
	from    string
}

// NewSMSAdapter builds the HTTP SMS-provider channel. Providers
// throttle aggressively, so outgoing calls are paced by a local rate
// limiter before they ever hit the wire.
func NewSMSAdapter(cfg SMSConfig) Adapter {
	perSec := cfg.RatePerSec
	if perSec <= 0 {
		perSec = 5
	}
	return &smsAdapter{
		client: &http.Client{Timeout: 15 * time.Second},
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "sms-provider",
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		}),
		limiter: rate.NewLimiter(rate.Limit(perSec), perSec),
		apiURL:  cfg.APIURL,
		apiKey:  cfg.APIKey,
		from:    cfg.From,
	}
}

func (a *smsAdapter) Name() model.NotificationChannel {
	return model.ChannelSMS
}

func (a *smsAdapter) Send(ctx context.Context, msg Message) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return apperrors.ChannelDelivery("sms", err)
	}

	form := url.Values{}
	form.Set("From", a.from)
	form.Set("To", msg.Recipient)
	form.Set("Body", fmt.Sprintf("%s: %s", msg.Title, msg.Body))

	err := a.cb.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.apiURL, strings.NewReader(form.Encode()))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Authorization", "Bearer "+a.apiKey)

		resp, err := a.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return fmt.Errorf("sms provider returned %d", resp.StatusCode)
		}
		return nil
	})
	if err != nil {
		return apperrors.ChannelDelivery("sms", err)
	}
	return nil
}
