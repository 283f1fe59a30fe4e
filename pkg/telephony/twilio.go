package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// Twilio places calls through the Twilio REST API. The call is pointed at the
// orchestrator's TwiML endpoint, which connects it to the conversation relay.
type Twilio struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	// Domain is the public hostname Twilio calls back on (TwiML + websocket).
	Domain string

	HTTPClient *http.Client
	// BaseURL overrides the Twilio API endpoint in tests.
	BaseURL string
}

type twilioCallResponse struct {
	SID     string `json:"sid"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// PlaceCall creates an outbound call. Transient failures (5xx, network) are
// retried twice with exponential backoff before giving up.
func (t *Twilio) PlaceCall(ctx context.Context, toNumber string) (string, error) {
	client := t.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	base := t.BaseURL
	if base == "" {
		base = twilioAPIBase
	}
	endpoint := fmt.Sprintf("%s/Accounts/%s/Calls.json", base, t.AccountSID)

	form := url.Values{}
	form.Set("To", toNumber)
	form.Set("From", t.FromNumber)
	form.Set("Url", fmt.Sprintf("https://%s/outbound-twiml", t.Domain))
	form.Set("Method", http.MethodPost)

	var sid string
	backoff := retry.WithMaxRetries(2, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.SetBasicAuth(t.AccountSID, t.AuthToken)

		resp, err := client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return retry.RetryableError(err)
		}

		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("twilio returned %d", resp.StatusCode))
		}
		var decoded twilioCallResponse
		if err := json.Unmarshal(body, &decoded); err != nil {
			return fmt.Errorf("decode twilio response (%d): %w", resp.StatusCode, err)
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("twilio rejected call (%d): %s", resp.StatusCode, decoded.Message)
		}
		if decoded.SID == "" {
			return fmt.Errorf("twilio response missing call sid")
		}
		sid = decoded.SID
		return nil
	})
	if err != nil {
		return "", err
	}
	return sid, nil
}
