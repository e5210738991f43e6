package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/realtyflow/crm/pkg/notify"
	"github.com/realtyflow/crm/pkg/queue"
)

// Source is the job queue surface the worker consumes.
type Source interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// Worker consumes notification jobs from the queue and delivers them.
type Worker struct {
	queue   Source
	sender  *notify.Sender
	logger  *zap.Logger
	backoff time.Duration
}

// New creates a worker.
func New(q Source, sender *notify.Sender, logger *zap.Logger) *Worker {
	return &Worker{queue: q, sender: sender, logger: logger, backoff: queue.RetryBackoff}
}

// Run blocks processing jobs until ctx is cancelled. Queue failures back off
// before the next attempt so an unreachable Redis does not spin the loop.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("worker started")
	for {
		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
				w.logger.Info("worker stopped")
				return nil
			}
			w.logger.Error("dequeue failed", zap.Error(err))
			if !w.sleep(ctx) {
				w.logger.Info("worker stopped")
				return nil
			}
			continue
		}
		if job == nil {
			continue
		}
		if err := w.process(ctx, job); err != nil {
			w.logger.Warn("job failed",
				zap.String("job_id", job.ID),
				zap.String("type", string(job.Type)),
				zap.Int("attempt", job.Attempt),
				zap.Error(err))
			if err := w.queue.Retry(ctx, job); err != nil {
				w.logger.Error("retry failed", zap.String("job_id", job.ID), zap.Error(err))
			}
		}
	}
}

// sleep waits out the backoff, returning false if ctx is cancelled first.
func (w *Worker) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(w.backoff):
		return true
	}
}

func (w *Worker) process(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeEmail:
		var p queue.EmailPayload
		if err := json.Unmarshal(job.Payload, &p); err != nil {
			return fmt.Errorf("decode email payload: %w", err)
		}
		if err := w.sender.SendEmail(ctx, p.To, p.Subject, p.BodyHTML); err != nil {
			return err
		}
		w.logger.Info("email sent",
			zap.String("job_id", job.ID), zap.String("kind", p.Kind), zap.String("to", p.To))
		return nil
	case queue.JobTypeWhatsApp:
		var p queue.WhatsAppPayload
		if err := json.Unmarshal(job.Payload, &p); err != nil {
			return fmt.Errorf("decode whatsapp payload: %w", err)
		}
		if err := w.sender.SendWhatsApp(ctx, p.To, p.Message); err != nil {
			return err
		}
		w.logger.Info("whatsapp sent", zap.String("job_id", job.ID), zap.String("to", p.To))
		return nil
	default:
		// Unknown type is a poison message; drop it rather than retry forever.
		w.logger.Warn("unknown job type dropped",
			zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		return nil
	}
}
