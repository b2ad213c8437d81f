package environment

import (
	"github.com/flagforgelabs/flagforge/internal/environment/repository"
	"github.com/flagforgelabs/flagforge/internal/environment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("environment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
