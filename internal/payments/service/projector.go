package service

import (
	"context"

	memberdomain "github.com/inkpress/inkpress/internal/member/domain"
	"github.com/inkpress/inkpress/internal/observability/metrics"
	"github.com/inkpress/inkpress/internal/payments/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ProjectorParams struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Repo       domain.Repository
	MemberRepo memberdomain.Repository
	Metrics    *metrics.Metrics
}

// Projector mutates member entitlement state from accepted provider
// events. Every handler writes absolute state, so replays and
// reordering converge on the same row.
type Projector struct {
	db         *gorm.DB
	log        *zap.Logger
	repo       domain.Repository
	memberRepo memberdomain.Repository
	metrics    *metrics.Metrics
}

func NewProjector(p ProjectorParams) domain.Projector {
	return &Projector{
		db:         p.DB,
		log:        p.Log.Named("payments.projector"),
		repo:       p.Repo,
		memberRepo: p.MemberRepo,
		metrics:    p.Metrics,
	}
}

func (s *Projector) Project(ctx context.Context, event *domain.Event) domain.Outcome {
	outcome := domain.Outcome{
		EventID:   event.ID,
		EventType: string(event.Type),
	}
	if event.Type == domain.EventUnknown {
		s.log.Info("unknown webhook event type ignored", zap.String("type", event.RawType))
		outcome.Results = append(outcome.Results, domain.Result{
			Step:   "dispatch",
			Status: domain.ResultSkipped,
			Detail: "unknown event type " + event.RawType,
		})
		return outcome
	}

	member, result := s.resolveMember(ctx, event)
	outcome.Results = append(outcome.Results, result)
	if member == nil {
		return outcome
	}

	switch event.Type {
	case domain.EventPaymentSucceeded, domain.EventPaymentFailed:
		// Payment events carry no entitlement transition of their
		// own; the subscription events drive state.
		outcome.Results = append(outcome.Results, domain.Result{
			Step:   "payment",
			Status: domain.ResultHandled,
		})
	case domain.EventSubscriptionCreated, domain.EventSubscriptionUpdated:
		outcome.Results = append(outcome.Results, s.applySubscription(ctx, member, event))
	case domain.EventSubscriptionCancelled:
		outcome.Results = append(outcome.Results, s.clearEntitlement(ctx, member))
	case domain.EventCustomerCreated:
		outcome.Results = append(outcome.Results, domain.Result{
			Step:   "customer_created",
			Status: domain.ResultHandled,
		})
	case domain.EventCustomerUpdated:
		outcome.Results = append(outcome.Results, s.syncProfile(ctx, member, event))
	}

	for _, r := range outcome.Results {
		s.metrics.RecordWebhookEvent(ctx, string(event.Type), string(r.Status))
		metrics.Webhook().IncHandlerOutcome(string(event.Type), string(r.Status))
	}
	return outcome
}

// resolveMember finds the acting member via CustomerLink, with an
// email fallback for payment events.
func (s *Projector) resolveMember(ctx context.Context, event *domain.Event) (*memberdomain.Member, domain.Result) {
	step := "resolve_member"

	if event.CustomerID != "" {
		link, err := s.repo.FindCustomerLinkByProviderID(ctx, s.db, event.CustomerID)
		if err != nil {
			return nil, domain.Result{Step: step, Status: domain.ResultFailed, Detail: err.Error(), Err: err}
		}
		if link != nil {
			member, err := s.memberRepo.FindByID(ctx, s.db, link.MemberID)
			if err != nil {
				return nil, domain.Result{Step: step, Status: domain.ResultFailed, Detail: err.Error(), Err: err}
			}
			if member != nil {
				return member, domain.Result{Step: step, Status: domain.ResultHandled}
			}
		}
	}

	paymentEvent := event.Type == domain.EventPaymentSucceeded || event.Type == domain.EventPaymentFailed
	if paymentEvent && event.Email != "" {
		member, err := s.memberRepo.FindByEmail(ctx, s.db, event.Email)
		if err != nil {
			return nil, domain.Result{Step: step, Status: domain.ResultFailed, Detail: err.Error(), Err: err}
		}
		if member != nil {
			return member, domain.Result{Step: step, Status: domain.ResultHandled, Detail: "matched by email"}
		}
	}

	s.log.Info("webhook event for unknown customer ignored",
		zap.String("event_type", string(event.Type)),
		zap.String("provider_customer_id", event.CustomerID),
	)
	return nil, domain.Result{Step: step, Status: domain.ResultSkipped, Detail: "unknown customer"}
}

func (s *Projector) applySubscription(ctx context.Context, member *memberdomain.Member, event *domain.Event) domain.Result {
	step := "apply_subscription"

	if !subscriptionActive(event.Status) {
		return s.clearEntitlement(ctx, member)
	}

	tierID := s.resolveTier(ctx, event.PriceID)
	ent := memberdomain.Entitlement{
		Status:     memberdomain.StatusPaid,
		Subscribed: true,
		TierID:     tierID,
	}
	if err := s.memberRepo.UpdateEntitlement(ctx, s.db, member.ID, ent); err != nil {
		return domain.Result{Step: step, Status: domain.ResultFailed, Detail: err.Error(), Err: err}
	}

	s.metrics.RecordMemberSync(ctx, string(memberdomain.StatusPaid))
	return domain.Result{Step: step, Status: domain.ResultHandled}
}

func (s *Projector) clearEntitlement(ctx context.Context, member *memberdomain.Member) domain.Result {
	step := "clear_entitlement"
	ent := memberdomain.Entitlement{
		Status:     memberdomain.StatusFree,
		Subscribed: false,
		TierID:     nil,
	}
	if err := s.memberRepo.UpdateEntitlement(ctx, s.db, member.ID, ent); err != nil {
		return domain.Result{Step: step, Status: domain.ResultFailed, Detail: err.Error(), Err: err}
	}

	s.metrics.RecordMemberSync(ctx, string(memberdomain.StatusFree))
	return domain.Result{Step: step, Status: domain.ResultHandled}
}

func (s *Projector) syncProfile(ctx context.Context, member *memberdomain.Member, event *domain.Event) domain.Result {
	step := "sync_profile"

	email := event.Email
	if email == "" {
		email = member.Email
	}
	name := event.Name
	if name == "" {
		name = member.Name
	}
	if email == member.Email && name == member.Name {
		metrics.Webhook().IncReplayedEvent()
		return domain.Result{Step: step, Status: domain.ResultHandled, Detail: "no change"}
	}

	if err := s.memberRepo.UpdateProfile(ctx, s.db, member.ID, email, name); err != nil {
		return domain.Result{Step: step, Status: domain.ResultFailed, Detail: err.Error(), Err: err}
	}
	return domain.Result{Step: step, Status: domain.ResultHandled}
}

// resolveTier chains price id to product link to tier id. A broken
// chain leaves the tier unset, logged.
func (s *Projector) resolveTier(ctx context.Context, priceID string) *int64 {
	if priceID == "" {
		return nil
	}
	priceLink, err := s.repo.FindPriceLinkByProviderID(ctx, s.db, priceID)
	if err != nil || priceLink == nil {
		s.log.Warn("tier resolution broke at price link", zap.String("provider_price_id", priceID))
		return nil
	}
	if priceLink.TierID != nil {
		return priceLink.TierID
	}
	productLink, err := s.repo.FindProductLinkByProviderID(ctx, s.db, priceLink.ProviderProductID)
	if err != nil || productLink == nil {
		s.log.Warn("tier resolution broke at product link",
			zap.String("provider_product_id", priceLink.ProviderProductID))
		return nil
	}
	return productLink.TierID
}

func subscriptionActive(status string) bool {
	switch status {
	case "active", "trialing":
		return true
	default:
		return false
	}
}
