package feature

import (
	"github.com/flagforgelabs/flagforge/internal/feature/repository"
	"github.com/flagforgelabs/flagforge/internal/feature/service"
	"go.uber.org/fx"
)

var Module = fx.Module("feature.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
