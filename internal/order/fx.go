package order

import (
	"github.com/subforge/renewals/internal/order/repository"
	"github.com/subforge/renewals/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
