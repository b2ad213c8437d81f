package organisation

import (
	"github.com/flagforgelabs/flagforge/internal/organisation/repository"
	"github.com/flagforgelabs/flagforge/internal/organisation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("organisation.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
