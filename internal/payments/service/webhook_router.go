package service

import (
	"context"
	"time"

	"github.com/inkpress/inkpress/internal/observability/logger"
	"github.com/inkpress/inkpress/internal/observability/metrics"
	"github.com/inkpress/inkpress/internal/payments/domain"
	"github.com/inkpress/inkpress/pkg/telemetry/correlation"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type WebhookRouterParams struct {
	fx.In

	Log       *zap.Logger
	Provider  domain.Provider
	Projector domain.Projector
}

// WebhookRouter accepts one delivery at a time: verify the
// signature, parse, project. Once a delivery is accepted the caller
// is acknowledged no matter how projection went; the provider must
// not be invited to retry an event we already acted on.
type WebhookRouter struct {
	log       *zap.Logger
	provider  domain.Provider
	projector domain.Projector
}

func NewWebhookRouter(p WebhookRouterParams) domain.WebhookRouter {
	return &WebhookRouter{
		log:       p.Log.Named("payments.webhooks"),
		provider:  p.Provider,
		projector: p.Projector,
	}
}

func (s *WebhookRouter) Handle(ctx context.Context, payload []byte, signatureHeader string) (domain.Outcome, error) {
	ctx, _ = correlation.EnsureCorrelationID(ctx)
	log := logger.WithContext(ctx, s.log)

	if err := s.provider.VerifySignature(payload, signatureHeader); err != nil {
		metrics.Webhook().IncDelivery(metrics.WebhookOutcomeRejected)
		log.Warn("webhook signature rejected", zap.Error(err))
		return domain.Outcome{}, domain.ErrInvalidSignature
	}

	event, err := s.provider.ParseEvent(payload)
	if err != nil {
		metrics.Webhook().IncDelivery(metrics.WebhookOutcomeUnparsed)
		log.Warn("webhook payload rejected", zap.Error(err))
		return domain.Outcome{}, domain.ErrInvalidPayload
	}

	start := time.Now()
	outcome := s.projector.Project(ctx, event)
	metrics.Webhook().ObserveHandlerDuration(string(event.Type), time.Since(start))

	if outcome.Failed() {
		metrics.Webhook().IncDelivery(metrics.WebhookOutcomeFailed)
		for _, r := range outcome.Results {
			if r.Status != domain.ResultFailed {
				continue
			}
			log.Error("webhook handler step failed",
				zap.String("event_id", outcome.EventID),
				zap.String("event_type", outcome.EventType),
				zap.String("step", r.Step),
				zap.Error(r.Err),
			)
		}
	} else {
		metrics.Webhook().IncDelivery(metrics.WebhookOutcomeHandled)
		log.Info("webhook event processed",
			zap.String("event_id", outcome.EventID),
			zap.String("event_type", outcome.EventType),
		)
	}
	return outcome, nil
}
