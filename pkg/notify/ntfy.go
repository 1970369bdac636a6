package notify

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/goje-timer/goje-go/pkg/transport"
)

// Sink delivers notifications.
type Sink interface {
	Send(ctx context.Context, n Notification) error
}

// Ntfy posts notifications to an ntfy topic.
type Ntfy struct {
	url    string
	auth   string
	client *http.Client
}

// NewNtfy creates a Sink posting to the topic URL address. auth is
// "user:password" or empty. A nil client uses a new http.Client.
func NewNtfy(address, auth string, client *http.Client) (*Ntfy, error) {
	url, _, err := transport.NormalizeAddress(address)
	if err != nil {
		return nil, fmt.Errorf("ntfy address: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: transport.DefaultRequestTimeout}
	}
	return &Ntfy{url: url, auth: auth, client: client}, nil
}

// URL returns the topic URL.
func (n *Ntfy) URL() string {
	return n.url
}

// Send posts one notification.
func (n *Ntfy) Send(ctx context.Context, note Notification) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, strings.NewReader(note.Message))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain")
	if len(note.Tags) > 0 {
		req.Header.Set("Tags", strings.Join(note.Tags, ","))
	}
	if n.auth != "" {
		req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(n.auth)))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("ntfy: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return transport.NewStatusError(resp)
	}
	return nil
}

var _ Sink = (*Ntfy)(nil)
