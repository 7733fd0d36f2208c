package payments

import (
	"github.com/inkpress/inkpress/internal/events"
	"github.com/inkpress/inkpress/internal/payments/repository"
	"github.com/inkpress/inkpress/internal/payments/service"
	"github.com/inkpress/inkpress/internal/payments/stripe"
	"go.uber.org/fx"
)

var Module = fx.Module("payments",
	fx.Provide(repository.Provide),
	fx.Provide(stripe.New),
	fx.Provide(
		service.NewCustomerResolver,
		service.NewReconciler,
		service.NewCheckoutBuilder,
		service.NewProjector,
		service.NewWebhookRouter,
		service.NewHub,
	),
	fx.Invoke(registerHub),
)

func registerHub(hub *service.Hub, bus *events.Bus) {
	hub.Register(bus)
}
