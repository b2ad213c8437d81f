package project

import (
	"github.com/flagforgelabs/flagforge/internal/project/repository"
	"github.com/flagforgelabs/flagforge/internal/project/service"
	"go.uber.org/fx"
)

var Module = fx.Module("project.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
