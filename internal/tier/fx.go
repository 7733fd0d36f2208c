package tier

import (
	"github.com/inkpress/inkpress/internal/tier/repository"
	"github.com/inkpress/inkpress/internal/tier/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tier.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
