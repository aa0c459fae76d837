package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const defaultSweepInterval = 10 * time.Minute

// InviteExpirer persists expiry for pending invites past their deadline.
type InviteExpirer interface {
	ExpireInvites(ctx context.Context) (int64, error)
}

// InviteSweeper periodically reconciles stored invite status with the
// expiry predicate. Reads never depend on it; it only keeps the ledger tidy.
type InviteSweeper struct {
	expirer  InviteExpirer
	interval time.Duration
	log      zerolog.Logger
}

func NewInviteSweeper(expirer InviteExpirer, interval time.Duration, log zerolog.Logger) *InviteSweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &InviteSweeper{expirer: expirer, interval: interval, log: log}
}

// Run sweeps once immediately and then on every tick. It blocks until ctx is
// cancelled, so launch it in its own goroutine.
func (s *InviteSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info().Dur("interval", s.interval).Msg("invite sweeper started")
	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("invite sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *InviteSweeper) sweep(ctx context.Context) {
	n, err := s.expirer.ExpireInvites(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.log.Error().Err(err).Msg("invite sweep failed")
		return
	}
	if n > 0 {
		s.log.Info().Int64("expired", n).Msg("invites expired")
	}
}
