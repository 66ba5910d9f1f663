package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/disgo/webhook"
	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/aegis/pkg/utils"
	"go.uber.org/zap"
)

// Embed colors by severity.
const (
	banEmbedColor      = 0xFF0000
	unbanEmbedColor    = 0x00FF00
	warningEmbedColor  = 0xFF8C00
	unwarnedEmbedColor = 0x90EE90
	kickEmbedColor     = 0xFFFF00
)

const embedFooterText = "Aegis moderation"

// maxReasonFieldLength is Discord's cap on embed field values.
const maxReasonFieldLength = 1024

// DefaultWebhookTimeout bounds a single delivery attempt including retries.
const DefaultWebhookTimeout = 30 * time.Second

// Webhook delivers moderation events to a Discord webhook as rich embeds.
type Webhook struct {
	client  webhook.Client
	timeout time.Duration
	logger  *zap.Logger
}

// NewWebhook creates a webhook sink from a Discord webhook URL.
func NewWebhook(webhookURL string, timeout time.Duration, logger *zap.Logger) (*Webhook, error) {
	client, err := webhook.NewWithURL(webhookURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook client: %w", err)
	}

	if timeout <= 0 {
		timeout = DefaultWebhookTimeout
	}

	return &Webhook{
		client:  client,
		timeout: timeout,
		logger:  logger.Named("notifier"),
	}, nil
}

// NewWebhookWithToken creates a webhook sink from a webhook ID and token pair.
func NewWebhookWithToken(id snowflake.ID, token string, timeout time.Duration, logger *zap.Logger) *Webhook {
	if timeout <= 0 {
		timeout = DefaultWebhookTimeout
	}

	return &Webhook{
		client:  webhook.New(id, token),
		timeout: timeout,
		logger:  logger.Named("notifier"),
	}
}

// Notify builds an embed for the event and dispatches it on a goroutine.
// Delivery failures are logged and dropped.
func (w *Webhook) Notify(_ context.Context, event Event) {
	embed := w.buildEmbed(event)

	go func() {
		// Deliveries outlive the triggering request, so they run on
		// their own context rather than the caller's.
		sendCtx, cancel := context.WithTimeout(context.Background(), w.timeout)
		defer cancel()

		_, err := utils.WithRetry(sendCtx, func() (*discord.Message, error) {
			return w.client.CreateEmbeds([]discord.Embed{embed}, rest.WithCtx(sendCtx))
		}, utils.GetWebhookRetryOptions())
		if err != nil {
			w.logger.Error("Failed to deliver webhook notification",
				zap.String("kind", string(event.Kind)),
				zap.String("subjectID", event.Subject.ID.String()),
				zap.Error(err))
			return
		}

		w.logger.Debug("Delivered webhook notification",
			zap.String("kind", string(event.Kind)))
	}()
}

// Close releases the underlying webhook client.
func (w *Webhook) Close(ctx context.Context) {
	w.client.Close(ctx)
}

// buildEmbed renders an event as a Discord embed with severity coloring.
func (w *Webhook) buildEmbed(event Event) discord.Embed {
	embed := discord.NewEmbedBuilder().
		SetTimestamp(event.OccurredAt).
		SetFooter(embedFooterText, "")

	embed.AddField("Subject",
		fmt.Sprintf("%s\n`%s`", event.Subject.Name, event.Subject.ID), false)

	reason := utils.Truncate(event.Reason, maxReasonFieldLength)

	switch event.Kind {
	case EventBanCreated:
		if event.Permanent {
			embed.SetTitle(fmt.Sprintf("🚫 %s was permanently banned", event.Subject.Name))
		} else {
			embed.SetTitle(fmt.Sprintf("⏱️ %s was temporarily banned", event.Subject.Name))
		}

		embed.SetColor(banEmbedColor)
		embed.AddField("Moderator", event.Issuer.Name, false)
		embed.AddField("Reason", reason, false)
		embed.AddField("Active warnings", fmt.Sprintf("%d", event.WarningCount), true)

		if !event.Permanent && event.ExpiresAt != nil {
			embed.AddField("Duration", utils.FormatDuration(event.ExpiresAt.Sub(event.OccurredAt)), true)
			embed.AddField("Expires", utils.FormatExpiry(event.ExpiresAt), true)
		}

	case EventBanRemoved:
		embed.SetTitle(fmt.Sprintf("✅ %s was unbanned", event.Subject.Name))
		embed.SetColor(unbanEmbedColor)
		embed.AddField("Removed by", event.Issuer.Name, false)

		if reason != "" {
			embed.AddField("Reason", reason, false)
		}

	case EventWarningCreated:
		embed.SetTitle(fmt.Sprintf("⚠️ %s was warned", event.Subject.Name))
		embed.SetColor(warningEmbedColor)
		embed.AddField("Moderator", event.Issuer.Name, false)
		embed.AddField("Reason", reason, false)
		embed.AddField("Active warnings", fmt.Sprintf("%d", event.WarningCount), true)

		if event.ExpiresAt != nil {
			embed.AddField("Expires", utils.FormatExpiry(event.ExpiresAt), true)
		}

		embed.AddField("Warning ID", fmt.Sprintf("#%d", event.RecordID), true)

	case EventWarningRemoved:
		embed.SetTitle(fmt.Sprintf("🗑️ Warning removed for %s", event.Subject.Name))
		embed.SetColor(unwarnedEmbedColor)
		embed.AddField("Removed by", event.Issuer.Name, false)
		embed.AddField("Warning ID", fmt.Sprintf("#%d", event.RecordID), true)

		if reason != "" {
			embed.AddField("Reason", reason, false)
		}

	case EventWarningsCleared:
		embed.SetTitle(fmt.Sprintf("🧹 Warnings cleared for %s", event.Subject.Name))
		embed.SetColor(unwarnedEmbedColor)
		embed.AddField("Cleared by", event.Issuer.Name, false)
		embed.AddField("Warnings cleared", fmt.Sprintf("%d", event.WarningCount), true)

	case EventKickCreated:
		embed.SetTitle(fmt.Sprintf("👢 %s was kicked", event.Subject.Name))
		embed.SetColor(kickEmbedColor)
		embed.AddField("Moderator", event.Issuer.Name, false)
		embed.AddField("Reason", reason, false)
		embed.AddField("Active warnings", fmt.Sprintf("%d", event.WarningCount), true)
	}

	return embed.Build()
}
