package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lexhub/deadline-api/internal/model"
	"github.com/lexhub/deadline-api/pkg/circuitbreaker"
	apperrors "github.com/lexhub/deadline-api/pkg/errors"
)

type PushConfig struct {
	APIURL string
	APIKey string
}

type pushAdapter struct {
	client *http.Client
	cb     *circuitbreaker.CircuitBreaker
	apiURL string
	apiKey string
}

// NewPushAdapter builds the HTTP push-provider channel. The recipient
// is the device token registered in the user's preferences.
func NewPushAdapter(cfg PushConfig) Adapter {
	return &pushAdapter{
		client: &http.Client{Timeout: 15 * time.Second},
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "push-provider",
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		}),
		apiURL: cfg.APIURL,
		apiKey: cfg.APIKey,
	}
}

func (a *pushAdapter) Name() model.NotificationChannel {
	return model.ChannelPush
}

func (a *pushAdapter) Send(ctx context.Context, msg Message) error {
	payload := map[string]interface{}{
		"to": msg.Recipient,
		"notification": map[string]string{
			"title": msg.Title,
			"body":  msg.Body,
		},
		"data": msg.Metadata,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal push payload: %w", err)
	}

	err = a.cb.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.apiURL, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+a.apiKey)

		resp, err := a.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return fmt.Errorf("push provider returned %d", resp.StatusCode)
		}
		return nil
	})
	if err != nil {
		return apperrors.ChannelDelivery("push", err)
	}
	return nil
}
