package phone

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"framing-command-center/internal/apperr"
	"framing-command-center/internal/calls"
)

// APIClient fetches tokens and call history from the command center's own
// /api/telephony endpoints.
type APIClient struct {
	BaseURL string
	// BearerToken is sent when the admin API requires authentication.
	BearerToken string
	HTTP        *http.Client
}

func NewAPIClient(baseURL, bearer string) *APIClient {
	return &APIClient{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		BearerToken: bearer,
		HTTP:        &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *APIClient) AccessToken(ctx context.Context, identity string) (string, error) {
	q := url.Values{}
	q.Set("identity", identity)

	var out struct {
		Token string `json:"token"`
	}
	if err := c.getJSON(ctx, "/api/telephony/access-token?"+q.Encode(), &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", apperr.Wrap(apperr.ErrUnavailable, "phone: access token response missing token")
	}
	return out.Token, nil
}

func (c *APIClient) CallHistory(ctx context.Context) ([]calls.LogEntry, error) {
	var out []calls.LogEntry
	if err := c.getJSON(ctx, "/api/telephony/call-history", &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []calls.LogEntry{}
	}
	return out, nil
}

func (c *APIClient) getJSON(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return errors.Join(apperr.Wrap(apperr.ErrUnavailable, "phone: backend request failed"), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		_ = json.Unmarshal(raw, &body)
		msg := body.Message
		if msg == "" {
			msg = body.Error
		}
		return apperr.Wrap(apperr.ErrUnavailable, fmt.Sprintf("phone: %s returned %d %s", path, resp.StatusCode, msg))
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("phone: decode %s: %w", path, err)
	}
	return nil
}
