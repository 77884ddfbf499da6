package subscription

import (
	"github.com/subforge/renewals/internal/subscription/repository"
	"github.com/subforge/renewals/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
