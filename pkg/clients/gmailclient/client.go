package gmailclient

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"sync"
	"time"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// DefaultInterval is the minimum gap between two sends
const DefaultInterval = 3 * time.Second

// Client sends plain text emails through the Gmail API
type Client struct {
	service *gmail.Service
	userID  string
	sender  string

	// Interval throttles sends to respect Gmail rate limits
	Interval time.Duration

	mu       sync.Mutex
	lastSend time.Time
}

// NewClient creates a Gmail client on top of an authorized HTTP client.
// userID defaults to "me"; sender, when set, becomes the From header.
func NewClient(ctx context.Context, httpClient *http.Client, userID, sender string, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	service, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}
	if userID == "" {
		userID = "me"
	}
	return &Client{
		service:  service,
		userID:   userID,
		sender:   sender,
		Interval: DefaultInterval,
	}, nil
}

// BuildMessage renders an RFC 2822 message with a UTF-8 subject
func BuildMessage(from, to, subject, body string) string {
	var b strings.Builder
	if from != "" {
		fmt.Fprintf(&b, "From: %s\r\n", from)
	}
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(body)
	return b.String()
}

// SendEmail sends a plain text email, waiting out the throttle interval first
func (c *Client) SendEmail(ctx context.Context, to, subject, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lastSend.IsZero() {
		if wait := c.Interval - time.Since(c.lastSend); wait > 0 {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	raw := base64.URLEncoding.EncodeToString([]byte(BuildMessage(c.sender, to, subject, body)))
	if _, err := c.service.Users.Messages.Send(c.userID, &gmail.Message{Raw: raw}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	c.lastSend = time.Now()
	return nil
}
