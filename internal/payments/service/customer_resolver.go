package service

import (
	"context"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/inkpress/inkpress/internal/locks"
	memberdomain "github.com/inkpress/inkpress/internal/member/domain"
	"github.com/inkpress/inkpress/internal/observability/metrics"
	"github.com/inkpress/inkpress/internal/payments/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const creationLockTTL = 30 * time.Second

type CustomerResolverParams struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       domain.Repository
	MemberRepo memberdomain.Repository
	Provider   domain.Provider
	Locker     locks.Locker
	Metrics    *metrics.Metrics
}

type CustomerResolver struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       domain.Repository
	memberRepo memberdomain.Repository
	provider   domain.Provider
	locker     locks.Locker
	metrics    *metrics.Metrics
}

func NewCustomerResolver(p CustomerResolverParams) domain.CustomerResolver {
	return &CustomerResolver{
		db:         p.DB,
		log:        p.Log.Named("payments.customers"),
		genID:      p.GenID,
		repo:       p.Repo,
		memberRepo: p.MemberRepo,
		provider:   p.Provider,
		locker:     p.Locker,
		metrics:    p.Metrics,
	}
}

// ResolveOrCreateCustomer walks the member's customer links until a
// live provider customer verifies, creating one when none do.
func (s *CustomerResolver) ResolveOrCreateCustomer(ctx context.Context, memberID int64) (*domain.Customer, error) {
	member, err := s.memberRepo.FindByID(ctx, s.db, memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, domain.ErrMemberNotFound
	}

	if customer, err := s.verifyExisting(ctx, memberID); err != nil {
		return nil, err
	} else if customer != nil {
		return customer, nil
	}

	var created *domain.Customer
	lockKey := "inkpress:lock:customer:" + strconv.FormatInt(memberID, 10)
	err = locks.WithLock(ctx, s.locker, lockKey, creationLockTTL, func(ctx context.Context) error {
		// A competing request may have created the customer while we
		// waited on the lock.
		customer, err := s.verifyExisting(ctx, memberID)
		if err != nil {
			return err
		}
		if customer != nil {
			created = customer
			return nil
		}

		customer, err = s.provider.CreateCustomer(ctx, member.Email, member.Name)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		link := &domain.CustomerLink{
			ID:                 s.genID.Generate().Int64(),
			MemberID:           memberID,
			ProviderCustomerID: customer.ID,
			Email:              customer.Email,
			Name:               customer.Name,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := s.repo.CreateCustomerLink(ctx, s.db, link); err != nil {
			return err
		}

		s.metrics.RecordCatalogArtifact(ctx, "customer", "resolver")
		s.log.Info("provider customer created",
			zap.Int64("member_id", memberID),
			zap.String("provider_customer_id", customer.ID),
		)
		created = customer
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *CustomerResolver) verifyExisting(ctx context.Context, memberID int64) (*domain.Customer, error) {
	links, err := s.repo.FindCustomerLinksByMember(ctx, s.db, memberID)
	if err != nil {
		return nil, err
	}
	for _, link := range links {
		customer, err := s.provider.GetCustomer(ctx, link.ProviderCustomerID)
		if err != nil {
			s.log.Warn("customer verification failed, skipping candidate",
				zap.String("provider_customer_id", link.ProviderCustomerID),
				zap.Error(err),
			)
			continue
		}
		if customer.Deleted {
			continue
		}
		return customer, nil
	}
	return nil, nil
}
