package ledger

import (
	"github.com/redeviva/redeviva/internal/ledger/repository"
	"github.com/redeviva/redeviva/internal/ledger/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ledger.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
