package slack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/ghalamif/commsentinel/internal/domain"
	"github.com/ghalamif/commsentinel/internal/ports"
)

const defaultAPIURL = "https://slack.com/api/chat.postMessage"

type Config struct {
	APIURL   string
	Token    string
	Username string
	IconURL  string
}

// Notifier posts messages with the chat.postMessage Web API method.
type Notifier struct {
	cfg    Config
	client *http.Client
}

func NewNotifier(cfg Config, client *http.Client) (*Notifier, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("%w: slack token is empty", domain.ErrConfiguration)
	}
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	return &Notifier{cfg: cfg, client: client}, nil
}

// ReadToken returns the first line of a token file.
func ReadToken(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: read slack token: %v", domain.ErrConfiguration, err)
	}
	token, _, _ := strings.Cut(string(raw), "\n")
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("%w: slack token file %s is empty", domain.ErrConfiguration, path)
	}
	return token, nil
}

func (n *Notifier) Name() string { return "slack" }

type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (n *Notifier) Send(ctx context.Context, channel, text string) error {
	form := url.Values{}
	form.Set("channel", channel)
	form.Set("text", text)
	if n.cfg.Username != "" {
		form.Set("username", n.cfg.Username)
	}
	if n.cfg.IconURL != "" {
		form.Set("icon_url", n.cfg.IconURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.APIURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+n.cfg.Token)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("slack read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack status %d", resp.StatusCode)
	}

	var r apiResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return fmt.Errorf("slack decode: %w", err)
	}
	if !r.OK {
		if r.Error == "" {
			return errors.New("slack: request rejected")
		}
		return fmt.Errorf("slack: %s", r.Error)
	}
	return nil
}

var _ ports.Notifier = (*Notifier)(nil)
