package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Expirer fails emails stuck in "sent" since before cutoff.
type Expirer interface {
	Expire(ctx context.Context, cutoff time.Time) (int, error)
}

// DeliverySweeper periodically fails emails whose delivery task was lost,
// for example when the process died between dispatch and delivery.
type DeliverySweeper struct {
	emails           Expirer
	log              zerolog.Logger
	expirationWindow time.Duration
	tickInterval     time.Duration
	now              func() time.Time
}

func NewDeliverySweeper(emails Expirer, log zerolog.Logger) *DeliverySweeper {
	return &DeliverySweeper{
		emails:           emails,
		log:              log.With().Str("component", "delivery_sweeper").Logger(),
		expirationWindow: 30 * time.Minute,
		tickInterval:     time.Minute,
		now:              time.Now,
	}
}

func (w *DeliverySweeper) Start(ctx context.Context) {
	w.log.Info().Dur("window", w.expirationWindow).Msg("delivery sweeper started")

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("delivery sweeper stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *DeliverySweeper) sweep(ctx context.Context) {
	cutoff := w.now().UTC().Add(-w.expirationWindow)
	n, err := w.emails.Expire(w.log.WithContext(ctx), cutoff)
	if err != nil {
		w.log.Error().Err(err).Msg("sweep stale deliveries")
		return
	}
	if n > 0 {
		w.log.Warn().Int("expired", n).Time("cutoff", cutoff).Msg("stale deliveries marked failed")
	}
}
