package segment

import (
	"github.com/flagforgelabs/flagforge/internal/segment/repository"
	"github.com/flagforgelabs/flagforge/internal/segment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("segment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
