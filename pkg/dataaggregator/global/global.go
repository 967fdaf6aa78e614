package global

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/travigo/livetreinen/pkg/config"
	"github.com/travigo/livetreinen/pkg/dataaggregator"
	"github.com/travigo/livetreinen/pkg/dataaggregator/source/cachedresults"
	"github.com/travigo/livetreinen/pkg/dataaggregator/source/ns"
	"github.com/travigo/livetreinen/pkg/dataaggregator/source/trainhistory"
	"github.com/travigo/livetreinen/pkg/nsapi"
	"github.com/travigo/livetreinen/pkg/redis_client"
)

func Setup(ctx context.Context, cfg *config.Config) error {
	cache, err := setupCache(ctx, cfg)
	if err != nil {
		return err
	}

	dataaggregator.GlobalAggregator = NewAggregator(cfg, cache)

	return nil
}

func NewAggregator(cfg *config.Config, cache *cachedresults.Cache) dataaggregator.Aggregator {
	aggregator := dataaggregator.Aggregator{}

	nsSource := ns.Source{
		Client:    nsapi.NewClient(cfg.NSAPI, cache, cfg.CacheTTL.ConfigSettings),
		Cache:     cache,
		Endpoints: cfg.NSAPI,
		TTL:       cfg.CacheTTL,
	}

	historySource := trainhistory.Source{
		Cache:     cache,
		TTL:       cfg.CacheTTL.TrainStats,
		MaxPoints: cfg.Stats.MaxHistoryPoints,
		Workers:   cfg.Stats.Workers,

		Background: cfg.Stats.Background,
	}

	if cfg.Stats.Enabled {
		nsSource.History = historySource
	}

	aggregator.RegisterSource(nsSource)
	aggregator.RegisterSource(historySource)

	return aggregator
}

func setupCache(ctx context.Context, cfg *config.Config) (*cachedresults.Cache, error) {
	if cfg.Redis.Address == "" {
		log.Info().Msg("No Redis address configured, caching in memory")
		return cachedresults.NewMemoryCache(cfg.CacheTTL.Default), nil
	}

	if err := redis_client.Connect(ctx, cfg.Redis); err != nil {
		return nil, err
	}

	log.Info().Str("address", cfg.Redis.Address).Msg("Caching in Redis")

	return cachedresults.NewRedisCache(redis_client.Client, cfg.CacheTTL.Default), nil
}
