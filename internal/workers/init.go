package workers

import (
	"context"
	"sync"
)

type WorkersContainer struct {
	Notifications *NotificationWorker

	wg sync.WaitGroup
}

// InitWorkers starts the background consumers; they stop with ctx
func InitWorkers(ctx context.Context, queue NotificationStream, deliverer Deliverer, numWorkers int) *WorkersContainer {
	c := &WorkersContainer{
		Notifications: NewNotificationWorker("notifier", queue, deliverer),
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.Notifications.Start(ctx, numWorkers)
	}()

	return c
}

func (c *WorkersContainer) Wait() {
	c.wg.Wait()
}
