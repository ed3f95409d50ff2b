package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/monatur/concierge/internal/conversation"
)

const (
	defaultGraphAPIBase = "https://graph.facebook.com/v21.0"
	defaultHTTPTimeout  = 10 * time.Second
)

// Client sends messages via the WhatsApp Cloud (Meta Graph) API. It
// implements conversation.Messenger: conversation ids are the guest's
// wa_id phone number.
type Client struct {
	accessToken   string
	phoneNumberID string
	graphAPIBase  string
	httpClient    *http.Client
}

var _ conversation.Messenger = (*Client)(nil)

// NewClient creates a new Cloud API client for the given business number.
func NewClient(accessToken, phoneNumberID string) *Client {
	return &Client{
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
		graphAPIBase:  defaultGraphAPIBase,
		httpClient:    &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// SetGraphAPIBase overrides the Graph API base URL (useful for testing).
func (c *Client) SetGraphAPIBase(base string) {
	c.graphAPIBase = base
}

// SendText sends a plain text message to the given recipient.
func (c *Client) SendText(ctx context.Context, recipientID, text string) error {
	_, err := c.send(ctx, SendRequest{
		MessagingProduct: "whatsapp",
		To:               recipientID,
		Type:             "text",
		Text:             &SendText{Body: text},
	})
	return err
}

// SendImage sends an image by public URL with an optional caption.
func (c *Client) SendImage(ctx context.Context, recipientID, url, caption string) error {
	_, err := c.send(ctx, SendRequest{
		MessagingProduct: "whatsapp",
		To:               recipientID,
		Type:             "image",
		Image:            &SendImage{Link: url, Caption: caption},
	})
	return err
}

func (c *Client) send(ctx context.Context, req SendRequest) (*SendResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: marshal send request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.graphAPIBase, c.phoneNumberID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("whatsapp: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: send message: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: read response: %w", err)
	}

	var sendResp SendResponse
	if err := json.Unmarshal(respBody, &sendResp); err != nil {
		return nil, fmt.Errorf("whatsapp: unmarshal response: %w", err)
	}

	if sendResp.Error != nil {
		return &sendResp, fmt.Errorf("whatsapp: API error %d: %s", sendResp.Error.Code, sendResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return &sendResp, fmt.Errorf("whatsapp: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	return &sendResp, nil
}
