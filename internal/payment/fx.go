package payment

import (
	"github.com/subforge/renewals/internal/payment/repository"
	"github.com/subforge/renewals/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
