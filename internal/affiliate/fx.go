package affiliate

import (
	"github.com/redeviva/redeviva/internal/affiliate/repository"
	"github.com/redeviva/redeviva/internal/affiliate/service"
	"go.uber.org/fx"
)

var Module = fx.Module("affiliate.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
