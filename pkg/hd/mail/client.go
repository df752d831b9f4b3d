package mail

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/resend/resend-go/v2"
)

var ErrNotConfigured = errors.New("mail client not configured")

// Attachment is a file sent along with a message. The provider infers its type from the
// filename.
type Attachment struct {
	Filename string
	Content  []byte
}

// Message is one outgoing email.
type Message struct {
	From        string
	To          []string
	ReplyTo     string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Client sends email through Resend.
type Client struct {
	apiKey string
	resend *resend.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey: apiKey,
		resend: resend.NewClient(apiKey),
	}
}

// SetEndpoint overrides the API base URL, mostly for tests.
func (c *Client) SetEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid mail endpoint: %w", err)
	}
	c.resend.BaseURL = u
	return nil
}

// Send delivers msg and returns the provider's message id.
func (c *Client) Send(ctx context.Context, msg Message) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}

	resp, err := c.resend.Emails.SendWithContext(ctx, sendRequest(msg))
	if err != nil {
		return "", fmt.Errorf("cannot send mail: %w", err)
	}
	if resp == nil || resp.Id == "" {
		return "", fmt.Errorf("mail API returned no message id")
	}
	return resp.Id, nil
}

func sendRequest(msg Message) *resend.SendEmailRequest {
	req := &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		ReplyTo: msg.ReplyTo,
	}
	for _, a := range msg.Attachments {
		req.Attachments = append(req.Attachments, &resend.Attachment{
			Filename: a.Filename,
			Content:  a.Content,
		})
	}
	return req
}

func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}
