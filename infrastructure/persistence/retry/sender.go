package retry

import (
	"context"

	"catalog/application/mediator"

	"go.uber.org/zap"
)

// Sender re-sends commands whose pipeline run failed with a transient store
// error. Each attempt is a fresh Send, so the transaction behavior opens a
// new unit of work and the handler re-reads its data. Queries pass through.
type Sender struct {
	next   mediator.Sender
	config Config
}

// NewSender wraps next
func NewSender(next mediator.Sender, config Config) *Sender {
	return &Sender{next: next, config: config}
}

func (s *Sender) Send(ctx context.Context, req mediator.Request) (any, error) {
	if req == nil || !mediator.IsCommand(req) {
		return s.next.Send(ctx, req)
	}

	attempts := 0
	var out any
	err := ExecuteWithRetry(ctx, s.config, func(ctx context.Context) error {
		attempts++
		var err error
		out, err = s.next.Send(ctx, req)
		return err
	})
	if attempts > 1 && s.config.Logger != nil {
		s.config.Logger.Info("Command retried",
			zap.String("request", mediator.RequestName(req)),
			zap.Int("attempts", attempts),
			zap.Bool("succeeded", err == nil))
	}
	return out, err
}

var _ mediator.Sender = (*Sender)(nil)
