package scheduler

import (
	"context"
	"time"

	"github.com/inkpress/inkpress/internal/config"
	"github.com/inkpress/inkpress/internal/payments/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Cfg        config.Config
	Log        *zap.Logger
	Reconciler domain.CatalogReconciler
}

// Scheduler runs the periodic catalog sweep. Checkout heals drift
// lazily on demand; the sweep closes the gap for settings changes
// that arrive between checkouts, such as a hot-reloaded publication
// title renaming the donation price.
type Scheduler struct {
	log        *zap.Logger
	reconciler domain.CatalogReconciler
	interval   time.Duration
}

func New(p Params) *Scheduler {
	return &Scheduler{
		log:        p.Log.Named("scheduler"),
		reconciler: p.Reconciler,
		interval:   p.Cfg.CatalogSweepInterval,
	}
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	start := time.Now()
	if _, err := s.reconciler.ResolveOrCreateDonationPrice(sweepCtx); err != nil {
		s.log.Warn("donation price sweep failed", zap.Error(err))
		return
	}
	s.log.Debug("catalog sweep complete", zap.Duration("took", time.Since(start)))
}
