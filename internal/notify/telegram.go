package notify

import (
	"context"
	"fmt"

	"github.com/fd1az/sam-client/internal/httpclient"
)

// TelegramAPIURL is the Bot API base.
const TelegramAPIURL = "https://api.telegram.org"

// TelegramSender posts events with the Bot API sendMessage method.
type TelegramSender struct {
	token  string
	chatID string
	client *httpclient.Client
}

// NewTelegramSender creates a sender. baseURL is normally TelegramAPIURL.
func NewTelegramSender(baseURL, token, chatID string) (*TelegramSender, error) {
	client, err := httpclient.New(
		httpclient.WithProviderName("telegram"),
		httpclient.WithBaseURL(baseURL),
	)
	if err != nil {
		return nil, err
	}
	return &TelegramSender{token: token, chatID: chatID, client: client}, nil
}

func (t *TelegramSender) Send(ctx context.Context, e Event) error {
	payload := map[string]any{
		"chat_id":                  t.chatID,
		"text":                     fmt.Sprintf("*%s*\n%s", e.Title, e.Text()),
		"parse_mode":               "Markdown",
		"disable_web_page_preview": true,
	}
	_, err := t.client.NewRequest().
		SetRoute("/bot/sendMessage").
		SetBody(payload).
		Post(ctx, fmt.Sprintf("/bot%s/sendMessage", t.token))
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	return nil
}

func (t *TelegramSender) Name() string { return "telegram" }
