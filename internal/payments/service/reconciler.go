package service

import (
	"context"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/inkpress/inkpress/internal/locks"
	"github.com/inkpress/inkpress/internal/observability/metrics"
	offerdomain "github.com/inkpress/inkpress/internal/offer/domain"
	"github.com/inkpress/inkpress/internal/payments/domain"
	"github.com/inkpress/inkpress/internal/publication"
	tierdomain "github.com/inkpress/inkpress/internal/tier/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	donationNicknamePrefix = "Support "
	donationNicknameLimit  = 250

	// Amounts below this are treated as "donor chooses amount" and
	// matched as zero.
	donationMinimumChargeAmount = 100
)

type ReconcilerParams struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      domain.Repository
	OfferRepo offerdomain.Repository
	Provider  domain.Provider
	Locker    locks.Locker
	Settings  *publication.Holder
	Metrics   *metrics.Metrics
}

type Reconciler struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      domain.Repository
	offerRepo offerdomain.Repository
	provider  domain.Provider
	locker    locks.Locker
	settings  *publication.Holder
	metrics   *metrics.Metrics
}

func NewReconciler(p ReconcilerParams) domain.CatalogReconciler {
	return &Reconciler{
		db:        p.DB,
		log:       p.Log.Named("payments.reconciler"),
		genID:     p.GenID,
		repo:      p.Repo,
		offerRepo: p.OfferRepo,
		provider:  p.Provider,
		locker:    p.Locker,
		settings:  p.Settings,
		metrics:   p.Metrics,
	}
}

// ResolveOrCreateProduct returns the provider product mirroring the
// tier, creating one when no cached candidate verifies live.
func (s *Reconciler) ResolveOrCreateProduct(ctx context.Context, tier *tierdomain.Tier) (string, error) {
	if tier == nil {
		return "", domain.ErrTierNotFound
	}

	if productID, err := s.verifyProduct(ctx, &tier.ID); err != nil {
		return "", err
	} else if productID != "" {
		return productID, nil
	}

	var resolved string
	lockKey := "inkpress:lock:product:tier:" + strconv.FormatInt(tier.ID, 10)
	err := locks.WithLock(ctx, s.locker, lockKey, creationLockTTL, func(ctx context.Context) error {
		productID, err := s.verifyProduct(ctx, &tier.ID)
		if err != nil {
			return err
		}
		if productID != "" {
			resolved = productID
			return nil
		}

		productID, err = s.createProduct(ctx, &tier.ID, tier.Name)
		if err != nil {
			return err
		}
		resolved = productID
		return nil
	})
	if err != nil {
		return "", err
	}
	return resolved, nil
}

// ResolveOrCreatePrice returns the provider price for the tier and
// cadence. Cached rows the provider disagrees with are deactivated
// rather than deleted, so drifted history stays visible.
func (s *Reconciler) ResolveOrCreatePrice(ctx context.Context, tier *tierdomain.Tier, cadence tierdomain.Cadence) (string, error) {
	if tier == nil {
		return "", domain.ErrTierNotFound
	}

	productID, err := s.ResolveOrCreateProduct(ctx, tier)
	if err != nil {
		return "", err
	}

	currency := tier.Currency
	amount := tier.AmountFor(cadence)
	interval := domain.Interval(cadence)

	if priceID, err := s.verifyPrice(ctx, productID, currency, amount, interval, domain.PriceKindRecurring, ""); err != nil {
		return "", err
	} else if priceID != "" {
		return priceID, nil
	}

	var resolved string
	lockKey := "inkpress:lock:price:tier:" + strconv.FormatInt(tier.ID, 10) + ":" + string(cadence)
	err = locks.WithLock(ctx, s.locker, lockKey, creationLockTTL, func(ctx context.Context) error {
		priceID, err := s.verifyPrice(ctx, productID, currency, amount, interval, domain.PriceKindRecurring, "")
		if err != nil {
			return err
		}
		if priceID != "" {
			resolved = priceID
			return nil
		}

		price, err := s.provider.CreatePrice(ctx, domain.CreatePriceParams{
			ProductID:      productID,
			Currency:       currency,
			Amount:         amount,
			Interval:       string(interval),
			Nickname:       nicknameForCadence(cadence),
			IdempotencyKey: uuid.NewString(),
		})
		if err != nil {
			return err
		}

		tierID := tier.ID
		if err := s.persistPriceLink(ctx, price.ID, productID, &tierID, currency, amount, nicknameForCadence(cadence), interval, domain.PriceKindRecurring); err != nil {
			return err
		}

		s.metrics.RecordCatalogArtifact(ctx, "price", "tier")
		s.log.Info("provider price created",
			zap.Int64("tier_id", tier.ID),
			zap.String("cadence", string(cadence)),
			zap.String("provider_price_id", price.ID),
		)
		resolved = price.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return resolved, nil
}

// ResolveOrCreateDonationPrice maintains the donation price
// singleton. A nickname that drifted from the publication title is
// renamed best-effort; a stale display label must never block a
// checkout.
func (s *Reconciler) ResolveOrCreateDonationPrice(ctx context.Context) (string, error) {
	settings := s.settings.Current()
	nickname := truncate(donationNicknamePrefix+settings.Title, donationNicknameLimit)
	currency := settings.DonationCurrency
	amount := settings.DonationSuggestedAmount
	if amount < donationMinimumChargeAmount {
		amount = 0
	}

	if priceID, err := s.verifyPrice(ctx, "", currency, amount, domain.IntervalNone, domain.PriceKindDonation, nickname); err != nil {
		return "", err
	} else if priceID != "" {
		return priceID, nil
	}

	var resolved string
	err := locks.WithLock(ctx, s.locker, "inkpress:lock:price:donation", creationLockTTL, func(ctx context.Context) error {
		priceID, err := s.verifyPrice(ctx, "", currency, amount, domain.IntervalNone, domain.PriceKindDonation, nickname)
		if err != nil {
			return err
		}
		if priceID != "" {
			resolved = priceID
			return nil
		}

		productID, err := s.createProduct(ctx, nil, nickname)
		if err != nil {
			return err
		}

		price, err := s.provider.CreatePrice(ctx, domain.CreatePriceParams{
			ProductID:      productID,
			Currency:       currency,
			Amount:         amount,
			Nickname:       nickname,
			CustomAmount:   true,
			IdempotencyKey: uuid.NewString(),
		})
		if err != nil {
			return err
		}

		if err := s.persistPriceLink(ctx, price.ID, productID, nil, currency, amount, nickname, domain.IntervalNone, domain.PriceKindDonation); err != nil {
			return err
		}

		s.metrics.RecordCatalogArtifact(ctx, "price", "donation")
		s.log.Info("donation price created",
			zap.String("provider_price_id", price.ID),
			zap.String("currency", currency),
			zap.Int64("amount", amount),
		)
		resolved = price.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return resolved, nil
}

// RenameProducts pushes a tier rename to every linked provider
// product. Best-effort per row.
func (s *Reconciler) RenameProducts(ctx context.Context, tierID int64, name string) error {
	links, err := s.repo.FindProductLinksByTier(ctx, s.db, &tierID)
	if err != nil {
		return err
	}
	for _, link := range links {
		if _, err := s.provider.UpdateProduct(ctx, link.ProviderProductID, domain.UpdateProductParams{Name: name}); err != nil {
			s.log.Warn("product rename failed",
				zap.Int64("tier_id", tierID),
				zap.String("provider_product_id", link.ProviderProductID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// ResolveOrCreateCoupon returns the provider coupon for the offer,
// creating it lazily. Trial offers return an empty id.
func (s *Reconciler) ResolveOrCreateCoupon(ctx context.Context, offerID int64) (string, error) {
	offer, err := s.offerRepo.FindByID(ctx, s.db, offerID)
	if err != nil {
		return "", err
	}
	if offer == nil {
		return "", domain.ErrOfferNotFound
	}
	if !offer.NeedsCoupon() {
		return "", nil
	}
	if offer.CouponID != nil && *offer.CouponID != "" {
		return *offer.CouponID, nil
	}

	lockKey := "inkpress:lock:coupon:offer:" + strconv.FormatInt(offerID, 10)
	err = locks.WithLock(ctx, s.locker, lockKey, creationLockTTL, func(ctx context.Context) error {
		offer, err := s.offerRepo.FindByID(ctx, s.db, offerID)
		if err != nil {
			return err
		}
		if offer == nil {
			return domain.ErrOfferNotFound
		}
		if offer.CouponID != nil && *offer.CouponID != "" {
			return nil
		}

		params := domain.CreateCouponParams{
			Duration:         string(offer.Duration),
			DurationInMonths: offer.DurationInMonths,
			IdempotencyKey:   "offer-coupon-" + strconv.FormatInt(offerID, 10),
		}
		switch offer.Kind {
		case offerdomain.KindPercent:
			params.PercentOff = offer.Amount
		case offerdomain.KindFixed:
			params.AmountOff = offer.Amount
			params.Currency = offer.Currency
		}

		coupon, err := s.provider.CreateCoupon(ctx, params)
		if err != nil {
			return err
		}
		if err := s.offerRepo.UpdateCouponID(ctx, s.db, offerID, coupon.ID); err != nil {
			return err
		}

		s.metrics.RecordCatalogArtifact(ctx, "coupon", "offer")
		s.log.Info("provider coupon created",
			zap.Int64("offer_id", offerID),
			zap.String("provider_coupon_id", coupon.ID),
		)
		return nil
	})
	if err != nil {
		return "", err
	}

	// Read back the stored id so concurrent creators agree on one
	// canonical coupon.
	offer, err = s.offerRepo.FindByID(ctx, s.db, offerID)
	if err != nil {
		return "", err
	}
	if offer == nil || offer.CouponID == nil {
		return "", domain.ErrOfferNotFound
	}
	return *offer.CouponID, nil
}

func (s *Reconciler) verifyProduct(ctx context.Context, tierID *int64) (string, error) {
	links, err := s.repo.FindProductLinksByTier(ctx, s.db, tierID)
	if err != nil {
		return "", err
	}
	for _, link := range links {
		product, err := s.provider.GetProduct(ctx, link.ProviderProductID)
		if err != nil {
			s.log.Warn("product verification failed, skipping candidate",
				zap.String("provider_product_id", link.ProviderProductID),
				zap.Error(err),
			)
			continue
		}
		if product.Active {
			return product.ID, nil
		}
	}
	return "", nil
}

// verifyPrice scans cached candidates, checks each against the
// provider, and flips rows the provider disagrees with to inactive.
// When nickname is non-empty a verified match whose label drifted is
// renamed best-effort.
func (s *Reconciler) verifyPrice(ctx context.Context, productID, currency string, amount int64, interval domain.Interval, kind domain.PriceKind, nickname string) (string, error) {
	filter := domain.PriceLinkFilter{
		ProviderProductID: productID,
		Currency:          currency,
		Amount:            &amount,
		Interval:          interval,
		Kind:              kind,
		ActiveOnly:        true,
	}
	links, err := s.repo.FindPriceLinks(ctx, s.db, filter)
	if err != nil {
		return "", err
	}

	for _, link := range links {
		price, err := s.provider.GetPrice(ctx, link.ProviderPriceID)
		if err != nil {
			s.log.Warn("price verification failed, skipping candidate",
				zap.String("provider_price_id", link.ProviderPriceID),
				zap.Error(err),
			)
			continue
		}

		wantInterval := ""
		if interval != domain.IntervalNone {
			wantInterval = string(interval)
		}
		if !price.Active || price.Currency != currency || price.Amount != amount || price.Interval != wantInterval {
			if err := s.repo.DeactivatePriceLink(ctx, s.db, link.ID); err != nil {
				return "", err
			}
			s.log.Info("stale price link deactivated",
				zap.String("provider_price_id", link.ProviderPriceID),
			)
			continue
		}

		if nickname != "" && price.Nickname != nickname {
			s.renameDonationPrice(ctx, link, nickname)
		}
		return price.ID, nil
	}
	return "", nil
}

// renameDonationPrice refreshes the display label on the provider
// price, its product, and the local row. Failures are logged only.
func (s *Reconciler) renameDonationPrice(ctx context.Context, link domain.PriceLink, nickname string) {
	if _, err := s.provider.UpdatePrice(ctx, link.ProviderPriceID, domain.UpdatePriceParams{Nickname: nickname}); err != nil {
		s.log.Warn("donation price rename failed",
			zap.String("provider_price_id", link.ProviderPriceID),
			zap.Error(err),
		)
		return
	}
	if _, err := s.provider.UpdateProduct(ctx, link.ProviderProductID, domain.UpdateProductParams{Name: nickname}); err != nil {
		s.log.Warn("donation product rename failed",
			zap.String("provider_product_id", link.ProviderProductID),
			zap.Error(err),
		)
	}
	if err := s.repo.UpdatePriceLinkNickname(ctx, s.db, link.ID, nickname); err != nil {
		s.log.Warn("donation nickname update failed",
			zap.Int64("price_link_id", link.ID),
			zap.Error(err),
		)
	}
}

func (s *Reconciler) createProduct(ctx context.Context, tierID *int64, name string) (string, error) {
	product, err := s.provider.CreateProduct(ctx, domain.CreateProductParams{
		Name:           name,
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	link := &domain.ProductLink{
		ID:                s.genID.Generate().Int64(),
		TierID:            tierID,
		ProviderProductID: product.ID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.CreateProductLink(ctx, s.db, link); err != nil {
		return "", err
	}

	origin := "donation"
	if tierID != nil {
		origin = "tier"
	}
	s.metrics.RecordCatalogArtifact(ctx, "product", origin)
	s.log.Info("provider product created",
		zap.String("provider_product_id", product.ID),
		zap.String("name", name),
	)
	return product.ID, nil
}

func (s *Reconciler) persistPriceLink(ctx context.Context, priceID, productID string, tierID *int64, currency string, amount int64, nickname string, interval domain.Interval, kind domain.PriceKind) error {
	now := time.Now().UTC()
	link := &domain.PriceLink{
		ID:                s.genID.Generate().Int64(),
		ProviderProductID: productID,
		ProviderPriceID:   priceID,
		TierID:            tierID,
		Currency:          currency,
		Amount:            amount,
		Interval:          interval,
		Kind:              kind,
		Active:            true,
		Nickname:          nickname,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	return s.repo.CreatePriceLink(ctx, s.db, link)
}

func nicknameForCadence(cadence tierdomain.Cadence) string {
	if cadence == tierdomain.CadenceYear {
		return "Yearly"
	}
	return "Monthly"
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit]
}
