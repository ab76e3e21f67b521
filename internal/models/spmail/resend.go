package spmail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const resendEndpoint = "https://api.resend.com/emails"

// ResendClient is a minimal client for the Resend transactional email API.
type ResendClient struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

func NewResendClient(apiKey string) *ResendClient {
	return &ResendClient{
		apiKey:   apiKey,
		endpoint: resendEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// SetEndpoint overrides the API URL, used by tests.
func (r *ResendClient) SetEndpoint(url string) {
	r.endpoint = url
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send posts one email. A non-2xx status is returned as an error with the
// response body included for the log.
func (r *ResendClient) Send(ctx context.Context, from string, to, replyTo, subject, html string) error {
	if r.apiKey == "" {
		return fmt.Errorf("resend api key not configured")
	}

	payload, err := json.Marshal(resendRequest{
		From:    from,
		To:      []string{to},
		ReplyTo: replyTo,
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("resend returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
