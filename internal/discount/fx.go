package discount

import (
	"github.com/subforge/renewals/internal/discount/repository"
	"github.com/subforge/renewals/internal/discount/service"
	"go.uber.org/fx"
)

var Module = fx.Module("discount.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
