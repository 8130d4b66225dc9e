package withdrawal

import (
	"github.com/redeviva/redeviva/internal/withdrawal/repository"
	"github.com/redeviva/redeviva/internal/withdrawal/service"
	"go.uber.org/fx"
)

var Module = fx.Module("withdrawal.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
