package email

import (
	"context"

	"examportal/internal/logger"
)

// Dispatcher decouples request handlers from mail delivery: handlers enqueue
// and return immediately, a single worker drains the queue. A delivery
// failure is logged, never surfaced to the request that triggered it.
type Dispatcher struct {
	provider Provider
	queue    chan *Email
}

func NewDispatcher(provider Provider, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Dispatcher{
		provider: provider,
		queue:    make(chan *Email, queueSize),
	}
}

// Enqueue hands a message to the delivery worker. When the queue is full the
// message is dropped with a warning; verification codes are resend-able.
func (d *Dispatcher) Enqueue(email *Email) {
	select {
	case d.queue <- email:
	default:
		logger.Warn("mail queue full, dropping message", "to", email.To, "subject", email.Subject)
	}
}

// Run drains the queue until ctx is cancelled. Intended as a goroutine
// started at application boot.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case email := <-d.queue:
			if err := d.provider.Send(email); err != nil {
				logger.Error("failed to send email", "to", email.To, "subject", email.Subject, "error", err.Error())
				continue
			}
			logger.Info("email sent", "to", email.To, "subject", email.Subject)
		}
	}
}
