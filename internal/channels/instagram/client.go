// Package instagram sends replies through the Instagram/Meta Graph API. Each
// business has its own page access token, so the token is supplied per call.
package instagram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultGraphAPIBase = "https://graph.facebook.com/v19.0"
	defaultHTTPTimeout  = 10 * time.Second
)

// Client sends messages via the Graph API.
type Client struct {
	graphAPIBase string
	httpClient   *http.Client
}

// NewClient creates a Graph API client.
func NewClient() *Client {
	return &Client{
		graphAPIBase: defaultGraphAPIBase,
		httpClient:   &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// SetGraphAPIBase overrides the Graph API base URL, used by tests.
func (c *Client) SetGraphAPIBase(base string) {
	c.graphAPIBase = base
}

// SendText sends a plain text reply to the given Instagram-scoped user ID.
// Replies to inbound messages use the RESPONSE messaging type.
func (c *Client) SendText(ctx context.Context, pageAccessToken, recipientID, text string) (*SendResponse, error) {
	req := SendRequest{
		Recipient:     SendRecipient{ID: recipientID},
		Message:       SendMessage{Text: text},
		MessagingType: "RESPONSE",
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("instagram: marshal send request: %w", err)
	}

	url := fmt.Sprintf("%s/me/messages?access_token=%s", c.graphAPIBase, pageAccessToken)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("instagram: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("instagram: send message: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("instagram: read response: %w", err)
	}

	var sendResp SendResponse
	if err := json.Unmarshal(respBody, &sendResp); err != nil {
		return nil, fmt.Errorf("instagram: unmarshal response: %w", err)
	}

	if sendResp.Error != nil {
		return &sendResp, fmt.Errorf("instagram: API error %d: %s", sendResp.Error.Code, sendResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return &sendResp, fmt.Errorf("instagram: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}
	return &sendResp, nil
}
