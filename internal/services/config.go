package services

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"apexearn/internal/datastore"
	"apexearn/internal/models"
	"apexearn/internal/pkg/caching"

	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServiceConfig struct {
	postgresDB *bun.DB
	cache      caching.Cache
}

func NewServiceConfig(container *do.Injector) (*ServiceConfig, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	return &ServiceConfig{postgresDB, cache}, nil
}

func (service *ServiceConfig) GetConfig(ctx context.Context, key string) (*models.Config, error) {
	callback := func() (*models.Config, error) {
		return datastore.GetConfigByKey(ctx, service.postgresDB, key)
	}

	return caching.UseCache(ctx, service.cache, DBKeyConfig(key), CACHE_TTL_1_MIN, callback)
}

// GetConfigFloat falls back to def when the row is missing or malformed.
func (service *ServiceConfig) GetConfigFloat(ctx context.Context, key string, def float64) float64 {
	config, err := service.GetConfig(ctx, key)
	if err != nil || config == nil {
		return def
	}

	v, err := strconv.ParseFloat(config.Value, 64)
	if err != nil {
		return def
	}

	return v
}

func (service *ServiceConfig) GetConfigString(ctx context.Context, key string) (string, error) {
	config, err := service.GetConfig(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	return config.Value, nil
}

func (service *ServiceConfig) SetConfig(ctx context.Context, key, value string) error {
	err := datastore.UpsertConfig(ctx, service.postgresDB, &models.Config{Key: key, Value: value})
	if err != nil {
		return err
	}

	return service.cache.Delete(ctx, DBKeyConfig(key))
}
