package offer

import (
	"github.com/inkpress/inkpress/internal/offer/repository"
	"github.com/inkpress/inkpress/internal/offer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("offer.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
