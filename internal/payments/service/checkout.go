package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/inkpress/inkpress/internal/config"
	"github.com/inkpress/inkpress/internal/observability/metrics"
	offerdomain "github.com/inkpress/inkpress/internal/offer/domain"
	"github.com/inkpress/inkpress/internal/payments/domain"
	tierdomain "github.com/inkpress/inkpress/internal/tier/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CheckoutBuilderParams struct {
	fx.In

	Config     config.Config
	DB         *gorm.DB
	Log        *zap.Logger
	TierRepo   tierdomain.Repository
	OfferRepo  offerdomain.Repository
	Resolver   domain.CustomerResolver
	Reconciler domain.CatalogReconciler
	Provider   domain.Provider
	Metrics    *metrics.Metrics
}

type CheckoutBuilder struct {
	cfg        config.Config
	db         *gorm.DB
	log        *zap.Logger
	tierRepo   tierdomain.Repository
	offerRepo  offerdomain.Repository
	resolver   domain.CustomerResolver
	reconciler domain.CatalogReconciler
	provider   domain.Provider
	metrics    *metrics.Metrics
}

func NewCheckoutBuilder(p CheckoutBuilderParams) domain.CheckoutBuilder {
	return &CheckoutBuilder{
		cfg:        p.Config,
		db:         p.DB,
		log:        p.Log.Named("payments.checkout"),
		tierRepo:   p.TierRepo,
		offerRepo:  p.OfferRepo,
		resolver:   p.Resolver,
		reconciler: p.Reconciler,
		provider:   p.Provider,
		metrics:    p.Metrics,
	}
}

func (s *CheckoutBuilder) BuildTierCheckout(ctx context.Context, req domain.TierCheckoutRequest) (*domain.CheckoutResponse, error) {
	tierID, err := snowflake.ParseString(strings.TrimSpace(req.TierID))
	if err != nil {
		return nil, domain.ErrInvalidRequest
	}
	tier, err := s.tierRepo.FindByID(ctx, s.db, tierID.Int64())
	if err != nil {
		return nil, err
	}
	if tier == nil {
		return nil, domain.ErrTierNotFound
	}

	cadence, ok := tierdomain.ParseCadence(strings.TrimSpace(req.Cadence))
	if !ok {
		return nil, domain.ErrInvalidRequest
	}

	trialDays := tier.TrialDays
	couponID := ""
	if offerRef := strings.TrimSpace(req.OfferID); offerRef != "" {
		offerID, err := snowflake.ParseString(offerRef)
		if err != nil {
			return nil, domain.ErrInvalidRequest
		}
		offer, err := s.offerRepo.FindByID(ctx, s.db, offerID.Int64())
		if err != nil {
			return nil, err
		}
		if offer == nil {
			return nil, domain.ErrOfferNotFound
		}
		if offer.TierID != tier.ID {
			return nil, domain.ErrOfferTierMismatch
		}

		if offer.Kind == offerdomain.KindTrial {
			trialDays = int(offer.Amount)
		} else {
			couponID, err = s.reconciler.ResolveOrCreateCoupon(ctx, offer.ID)
			if err != nil {
				return nil, err
			}
		}
	}

	customerID := ""
	customerEmail := strings.TrimSpace(req.Email)
	if memberRef := strings.TrimSpace(req.MemberID); memberRef != "" {
		memberID, err := snowflake.ParseString(memberRef)
		if err != nil {
			return nil, domain.ErrInvalidRequest
		}
		customer, err := s.resolver.ResolveOrCreateCustomer(ctx, memberID.Int64())
		if err != nil {
			return nil, err
		}
		customerID = customer.ID
		customerEmail = ""
	}

	priceID, err := s.reconciler.ResolveOrCreatePrice(ctx, tier, cadence)
	if err != nil {
		return nil, err
	}

	// Coupon and trial are mutually exclusive on a session; the
	// coupon wins.
	if couponID != "" {
		trialDays = 0
	}

	session, err := s.provider.CreateCheckoutSession(ctx, domain.CheckoutSessionParams{
		PriceID:       priceID,
		CustomerID:    customerID,
		CustomerEmail: customerEmail,
		TrialDays:     trialDays,
		CouponID:      couponID,
		SuccessURL:    s.successURL(req.SuccessURL),
		CancelURL:     s.cancelURL(req.CancelURL),
		Metadata:      req.Metadata,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordCheckoutSession(ctx, "tier", string(cadence))
	s.log.Info("tier checkout session created",
		zap.Int64("tier_id", tier.ID),
		zap.String("cadence", string(cadence)),
		zap.String("session_id", session.ID),
	)
	return &domain.CheckoutResponse{URL: session.URL}, nil
}

func (s *CheckoutBuilder) BuildDonationCheckout(ctx context.Context, req domain.DonationCheckoutRequest) (*domain.CheckoutResponse, error) {
	customerID := ""
	customerEmail := strings.TrimSpace(req.Email)

	// An unauthenticated request never attaches a persisted customer,
	// even when one exists; linking accounts by guessed member id
	// must not be possible.
	if memberRef := strings.TrimSpace(req.MemberID); memberRef != "" && req.Authenticated {
		memberID, err := snowflake.ParseString(memberRef)
		if err != nil {
			return nil, domain.ErrInvalidRequest
		}
		customer, err := s.resolver.ResolveOrCreateCustomer(ctx, memberID.Int64())
		if err != nil {
			return nil, err
		}
		customerID = customer.ID
		customerEmail = ""
	}

	priceID, err := s.reconciler.ResolveOrCreateDonationPrice(ctx)
	if err != nil {
		return nil, err
	}

	session, err := s.provider.CreateDonationCheckoutSession(ctx, domain.DonationSessionParams{
		PriceID:       priceID,
		CustomerID:    customerID,
		CustomerEmail: customerEmail,
		PersonalNote:  strings.TrimSpace(req.PersonalNote),
		SuccessURL:    s.successURL(req.SuccessURL),
		CancelURL:     s.cancelURL(req.CancelURL),
		Metadata:      req.Metadata,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordCheckoutSession(ctx, "donation", "none")
	s.log.Info("donation checkout session created",
		zap.String("session_id", session.ID),
	)
	return &domain.CheckoutResponse{URL: session.URL}, nil
}

func (s *CheckoutBuilder) successURL(override string) string {
	if override = strings.TrimSpace(override); override != "" {
		return override
	}
	return s.cfg.CheckoutSuccessURL
}

func (s *CheckoutBuilder) cancelURL(override string) string {
	if override = strings.TrimSpace(override); override != "" {
		return override
	}
	return s.cfg.CheckoutCancelURL
}
