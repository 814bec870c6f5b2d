package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"scf-community/governor/internal/common"
	"scf-community/governor/internal/logging"

	"github.com/cenkalti/backoff/v4"
)

const (
	notificationGroup   = "admin-notifiers"
	dequeueBlock        = 5 * time.Second
	staleClaimInterval  = 2 * time.Minute
	staleMinIdle        = time.Minute
	maxDeliveryAttempts = 3
)

// NotificationStream is the queue side the worker consumes
type NotificationStream interface {
	Enqueue(ctx context.Context, stream string, item *common.NotificationItem) error
	Dequeue(ctx context.Context, stream, group, consumer string, block time.Duration) (*common.NotificationItem, string, error)
	Ack(ctx context.Context, stream, group, messageID string) error
	CreateConsumerGroup(ctx context.Context, stream, group string) error
	ClaimStale(ctx context.Context, stream, group, consumer string, minIdle time.Duration) ([]*common.NotificationItem, []string, error)
}

type Deliverer interface {
	Deliver(ctx context.Context, guildID, content string) bool
}

// NotificationWorker drains the admin notification stream into the admin channel
type NotificationWorker struct {
	workerID  string
	stream    string
	queue     NotificationStream
	deliverer Deliverer
	// errorBackoff paces retries when the stream itself is failing
	errorBackoff func() backoff.BackOff
}

func NewNotificationWorker(workerID string, queue NotificationStream, deliverer Deliverer) *NotificationWorker {
	return &NotificationWorker{
		workerID:  workerID,
		stream:    common.AdminNotificationStream,
		queue:     queue,
		deliverer: deliverer,
		errorBackoff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff(
				backoff.WithInitialInterval(time.Second),
				backoff.WithMaxInterval(30*time.Second),
				backoff.WithMaxElapsedTime(0),
			)
		},
	}
}

// Start runs numWorkers consumers plus the stale claimer until ctx is done
func (w *NotificationWorker) Start(ctx context.Context, numWorkers int) {
	logging.Info("[NotificationWorker] Starting workers", "count", numWorkers, "worker_id", w.workerID)

	if err := w.queue.CreateConsumerGroup(ctx, w.stream, notificationGroup); err != nil {
		logging.Warn("[NotificationWorker] Failed to create consumer group", "error", err.Error())
	}

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		name := fmt.Sprintf("%s-%d", w.workerID, i)
		go func() {
			defer wg.Done()
			w.processQueue(ctx, name)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.claimStaleMessages(ctx)
	}()

	wg.Wait()
	logging.Info("[NotificationWorker] All workers stopped")
}

func (w *NotificationWorker) processQueue(ctx context.Context, consumer string) {
	sent, failed := 0, 0
	pause := w.errorBackoff()

	for {
		if ctx.Err() != nil {
			logging.Info("[NotificationWorker] Shutting down", "consumer", consumer, "sent", sent, "failed", failed)
			return
		}

		item, messageID, err := w.queue.Dequeue(ctx, w.stream, notificationGroup, consumer, dequeueBlock)
		if err != nil {
			if ctx.Err() == nil {
				logging.Warn("[NotificationWorker] Error dequeuing", "consumer", consumer, "error", err.Error())
			}
			select {
			case <-ctx.Done():
			case <-time.After(pause.NextBackOff()):
			}
			continue
		}
		pause.Reset()
		if item == nil {
			continue
		}

		if w.handle(ctx, item) {
			sent++
		} else {
			failed++
		}
		// always ack; a failed item is requeued as a new entry
		w.ack(ctx, messageID)
	}
}

// handle delivers one item and requeues it on failure until maxDeliveryAttempts
func (w *NotificationWorker) handle(ctx context.Context, item *common.NotificationItem) bool {
	if w.deliverer.Deliver(ctx, item.GuildID, item.Content) {
		return true
	}

	item.Attempts++
	if item.Attempts >= maxDeliveryAttempts {
		logging.Error("[NotificationWorker] Giving up on admin notification",
			"guild_id", item.GuildID, "attempts", item.Attempts, "content", item.Content)
		return false
	}

	if err := w.queue.Enqueue(ctx, w.stream, item); err != nil {
		logging.Error("[NotificationWorker] Failed to requeue notification", "guild_id", item.GuildID, "error", err.Error())
	}
	return false
}

func (w *NotificationWorker) ack(ctx context.Context, messageID string) {
	if err := w.queue.Ack(ctx, w.stream, notificationGroup, messageID); err != nil {
		logging.Warn("[NotificationWorker] Error acknowledging message", "message_id", messageID, "error", err.Error())
	}
}

// claimStaleMessages picks up entries left pending by consumers that died
func (w *NotificationWorker) claimStaleMessages(ctx context.Context) {
	ticker := time.NewTicker(staleClaimInterval)
	defer ticker.Stop()

	consumer := w.workerID + "-claimer"
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.claimOnce(ctx, consumer)
		}
	}
}

func (w *NotificationWorker) claimOnce(ctx context.Context, consumer string) int {
	items, ids, err := w.queue.ClaimStale(ctx, w.stream, notificationGroup, consumer, staleMinIdle)
	if err != nil {
		logging.Warn("[NotificationWorker] Error claiming stale messages", "error", err.Error())
		return 0
	}
	for i, item := range items {
		w.handle(ctx, item)
		w.ack(ctx, ids[i])
	}
	if len(items) > 0 {
		logging.Info("[NotificationWorker] Reclaimed stale notifications", "count", len(items))
	}
	return len(items)
}
