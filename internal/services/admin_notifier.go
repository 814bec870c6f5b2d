package services

import (
	"context"
	"time"

	"scf-community/governor/internal/common"
	"scf-community/governor/internal/gateway"
	"scf-community/governor/internal/logging"
	"scf-community/governor/internal/metrics"
)

// NotificationQueue is where notifications wait for the notification worker
type NotificationQueue interface {
	Enqueue(ctx context.Context, streamName string, item *common.NotificationItem) error
}

// AdminNotifier tells operators about failures they need to act on. Delivery is
// best effort: a failure to notify is logged and never reaches the caller.
type AdminNotifier struct {
	gw        gateway.Gateway
	channelID string
	queue     NotificationQueue
	metrics   *metrics.MetricsRegistry
}

// NewAdminNotifier sends through queue when it is set, directly otherwise
func NewAdminNotifier(gw gateway.Gateway, channelID string, queue NotificationQueue, metricsReg *metrics.MetricsRegistry) *AdminNotifier {
	return &AdminNotifier{
		gw:        gw,
		channelID: channelID,
		queue:     queue,
		metrics:   metricsReg,
	}
}

func (n *AdminNotifier) Notify(ctx context.Context, guildID, content string) {
	if n == nil || n.channelID == "" {
		logging.Warn("Admin notification dropped, no admin channel configured", "guild_id", guildID, "content", content)
		return
	}

	if n.queue != nil {
		err := n.queue.Enqueue(ctx, common.AdminNotificationStream, &common.NotificationItem{
			GuildID:   guildID,
			Content:   content,
			CreatedAt: time.Now().UTC(),
		})
		if err == nil {
			n.metrics.Notification("queued")
			return
		}
		logging.Warn("Failed to queue admin notification, sending directly", "guild_id", guildID, "error", err.Error())
	}

	n.Deliver(ctx, guildID, content)
}

// Deliver posts content to the admin channel, reporting whether it went out
func (n *AdminNotifier) Deliver(ctx context.Context, guildID, content string) bool {
	if _, err := n.gw.SendMessage(ctx, n.channelID, gateway.Message{Content: content}); err != nil {
		n.metrics.Notification("failed")
		logging.Error("Failed to send admin notification", "guild_id", guildID, "error", err.Error())
		return false
	}
	n.metrics.Notification("sent")
	return true
}
