//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"FVGBacktest/internal/app"
)

// InitializeApp builds the App from the config file via Wire.
// Caller must call the returned cleanup when done.
func InitializeApp(ctx context.Context, path app.ConfigPath) (*app.App, func(), error) {
	wire.Build(app.ProviderSet)
	return nil, nil, nil
}
