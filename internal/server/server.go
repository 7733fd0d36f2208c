package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/inkpress/inkpress/internal/config"
	"github.com/inkpress/inkpress/internal/events"
	"github.com/inkpress/inkpress/internal/locks"
	"github.com/inkpress/inkpress/internal/member"
	memberdomain "github.com/inkpress/inkpress/internal/member/domain"
	"github.com/inkpress/inkpress/internal/observability"
	obsmiddleware "github.com/inkpress/inkpress/internal/observability/logger"
	obsmetrics "github.com/inkpress/inkpress/internal/observability/metrics"
	obstracing "github.com/inkpress/inkpress/internal/observability/tracing"
	"github.com/inkpress/inkpress/internal/offer"
	offerdomain "github.com/inkpress/inkpress/internal/offer/domain"
	"github.com/inkpress/inkpress/internal/payments"
	paymentsdomain "github.com/inkpress/inkpress/internal/payments/domain"
	"github.com/inkpress/inkpress/internal/publication"
	"github.com/inkpress/inkpress/internal/ratelimit"
	"github.com/inkpress/inkpress/internal/scheduler"
	"github.com/inkpress/inkpress/internal/tier"
	tierdomain "github.com/inkpress/inkpress/internal/tier/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	events.Module,
	locks.Module,
	ratelimit.Module,
	publication.Module,
	tier.Module,
	offer.Module,
	member.Module,
	payments.Module,
	scheduler.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware())
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine) {
	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	genID           *snowflake.Node
	tierSvc         tierdomain.Service
	offerSvc        offerdomain.Service
	memberRepo      memberdomain.Repository
	checkoutSvc     paymentsdomain.CheckoutBuilder
	webhookSvc      paymentsdomain.WebhookRouter
	checkoutLimiter ratelimit.Limiter
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	GenID           *snowflake.Node
	TierSvc         tierdomain.Service
	OfferSvc        offerdomain.Service
	MemberRepo      memberdomain.Repository
	CheckoutSvc     paymentsdomain.CheckoutBuilder
	WebhookSvc      paymentsdomain.WebhookRouter
	CheckoutLimiter ratelimit.Limiter
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		genID:           p.GenID,
		tierSvc:         p.TierSvc,
		offerSvc:        p.OfferSvc,
		memberRepo:      p.MemberRepo,
		checkoutSvc:     p.CheckoutSvc,
		webhookSvc:      p.WebhookSvc,
		checkoutLimiter: p.CheckoutLimiter,
	}

	svc.registerAPIRoutes()
	svc.registerCheckoutRoutes()
	svc.registerWebhookRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	tiers := api.Group("/tiers")
	tiers.POST("", s.CreateTier)
	tiers.GET("", s.ListTiers)
	tiers.GET("/:id", s.GetTierByID)
	tiers.PATCH("/:id/name", s.RenameTier)
	tiers.PATCH("/:id/price", s.ChangeTierPrice)

	offers := api.Group("/offers")
	offers.POST("", s.CreateOffer)
	offers.GET("", s.ListOffers)
	offers.GET("/:id", s.GetOfferByID)

	members := api.Group("/members")
	members.POST("", s.CreateMember)
	members.GET("/:id", s.GetMemberByID)
}

func (s *Server) registerCheckoutRoutes() {
	checkout := s.engine.Group("/api/checkout")

	checkout.POST("/tier", s.CreateTierCheckout)
	checkout.POST("/donation", s.CreateDonationCheckout)
}

func (s *Server) registerWebhookRoutes() {
	s.engine.POST("/webhooks/stripe", s.HandleProviderWebhook)
}
