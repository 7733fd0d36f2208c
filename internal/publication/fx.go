package publication

import (
	"github.com/inkpress/inkpress/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("publication",
	fx.Provide(func(cfg config.Config, log *zap.Logger) (*Holder, error) {
		return NewHolder(cfg.PublicationConfigPaths, log.Named("publication"))
	}),
)
