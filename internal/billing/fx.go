package billing

import (
	"github.com/villageboard/villageboard/internal/billing/repository"
	"github.com/villageboard/villageboard/internal/billing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billing.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
