package notify

import (
	"context"
	"fmt"

	"github.com/fd1az/sam-client/internal/httpclient"
)

// DiscordSender posts events to a webhook.
type DiscordSender struct {
	webhookURL string
	client     *httpclient.Client
}

// NewDiscordSender creates a sender for webhookURL.
func NewDiscordSender(webhookURL string) (*DiscordSender, error) {
	client, err := httpclient.New(httpclient.WithProviderName("discord"))
	if err != nil {
		return nil, err
	}
	return &DiscordSender{webhookURL: webhookURL, client: client}, nil
}

func (d *DiscordSender) Send(ctx context.Context, e Event) error {
	payload := map[string]string{"content": fmt.Sprintf("**%s**\n%s", e.Title, e.Text())}
	if _, err := d.client.NewRequest().SetRoute("discord.webhook").SetBody(payload).Post(ctx, d.webhookURL); err != nil {
		return fmt.Errorf("discord: %w", err)
	}
	return nil
}

func (d *DiscordSender) Name() string { return "discord" }
