// Package worker drains queued notification events into a publisher.
package worker

import (
	"context"
	"log/slog"

	"docutrack/internal/notification/metrics"
	"docutrack/internal/notification/models"
	"docutrack/internal/notification/publisher"
)

const defaultQueueSize = 256

// Queue is a bounded buffer of events waiting for delivery. Enqueue never
// blocks: when the buffer is full the event is dropped.
type Queue struct {
	events  chan models.Event
	metrics *metrics.Metrics
}

func NewQueue(size int, m *metrics.Metrics) *Queue {
	if size <= 0 {
		size = defaultQueueSize
	}
	return &Queue{events: make(chan models.Event, size), metrics: m}
}

// Enqueue reports whether the event was accepted.
func (q *Queue) Enqueue(event models.Event) bool {
	select {
	case q.events <- event:
		q.metrics.SetQueueDepth(len(q.events))
		return true
	default:
		q.metrics.IncrementDropped()
		return false
	}
}

func (q *Queue) Len() int {
	return len(q.events)
}

// Worker consumes events from a queue and publishes them. A failed publish is
// logged and counted; the worker moves on to the next event.
type Worker struct {
	publisher publisher.Publisher
	queue     *Queue
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewWorker(p publisher.Publisher, queue *Queue, logger *slog.Logger, m *metrics.Metrics) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{publisher: p, queue: queue, logger: logger, metrics: m}
}

// Run blocks until ctx is cancelled. Events still queued at that point are
// published with a detached context before Run returns.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain(context.WithoutCancel(ctx))
			return ctx.Err()
		case event := <-w.queue.events:
			w.publish(ctx, event)
		}
	}
}

func (w *Worker) drain(ctx context.Context) {
	for {
		select {
		case event := <-w.queue.events:
			w.publish(ctx, event)
		default:
			return
		}
	}
}

func (w *Worker) publish(ctx context.Context, event models.Event) {
	w.metrics.SetQueueDepth(w.queue.Len())
	if err := w.publisher.Publish(ctx, event); err != nil {
		w.metrics.IncrementPublishFailures()
		w.logger.ErrorContext(ctx, "failed to publish notification event",
			"notification_id", event.NotificationID.String(),
			"user_id", event.UserID.String(),
			"error", err,
		)
		return
	}
	w.metrics.IncrementPublished()
}
