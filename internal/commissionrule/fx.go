package commissionrule

import (
	"github.com/redeviva/redeviva/internal/commissionrule/repository"
	"github.com/redeviva/redeviva/internal/commissionrule/service"
	"go.uber.org/fx"
)

var Module = fx.Module("commissionrule.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
