//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"metasearch-gateway/internal/infrastructure"
	"metasearch-gateway/internal/infrastructure/config"
	"metasearch-gateway/internal/interfaces"
)

func CreateApplication(ctx context.Context, cfg *config.Config) (*Application, error) {
	wire.Build(
		infrastructure.InfrastructureProvider,
		interfaces.InterfacesProvider,
		wire.Struct(new(Application), "*"),
	)
	return nil, nil
}
