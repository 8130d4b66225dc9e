package consortium

import (
	"github.com/redeviva/redeviva/internal/consortium/repository"
	"github.com/redeviva/redeviva/internal/consortium/service"
	"go.uber.org/fx"
)

var Module = fx.Module("consortium.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
