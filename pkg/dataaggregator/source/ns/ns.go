package ns

import (
	"context"
	"reflect"

	"github.com/rs/zerolog/log"
	"github.com/travigo/livetreinen/pkg/config"
	"github.com/travigo/livetreinen/pkg/ctdf"
	"github.com/travigo/livetreinen/pkg/dataaggregator/query"
	"github.com/travigo/livetreinen/pkg/dataaggregator/source"
	"github.com/travigo/livetreinen/pkg/dataaggregator/source/cachedresults"
	"github.com/travigo/livetreinen/pkg/nsapi"
	"github.com/travigo/livetreinen/pkg/util"
)

// PositionRecorder receives every freshly fetched list of train positions
type PositionRecorder interface {
	RecordAll(ctx context.Context, trains []*ctdf.TrainPosition)
}

type Source struct {
	Client    *nsapi.Client
	Cache     *cachedresults.Cache
	Endpoints config.NSAPIConfig
	TTL       config.CacheTTLConfig

	History PositionRecorder
}

func (s Source) GetName() string {
	return "NS API"
}

func (s Source) Supports() []reflect.Type {
	return []reflect.Type{
		reflect.TypeOf([]*ctdf.TrainPosition{}),
		reflect.TypeOf(ctdf.JourneyDetail{}),
		reflect.TypeOf([]*ctdf.Station{}),
		reflect.TypeOf(ctdf.CacheRefresh{}),
		reflect.TypeOf(ctdf.CacheStatus{}),
		reflect.TypeOf(cachedresults.StatsSnapshot{}),
	}
}

func (s Source) Lookup(ctx context.Context, q any) (interface{}, error) {
	switch q.(type) {
	case query.TrainPositions:
		return s.TrainPositions(ctx, q.(query.TrainPositions))
	case query.JourneyDetails:
		return s.JourneyDetails(ctx, q.(query.JourneyDetails).TrainNumber)
	case query.Stations:
		return s.Stations(ctx, q.(query.Stations).StationCode)
	case query.RefreshTrain:
		return s.RefreshTrain(ctx, q.(query.RefreshTrain).TrainNumber), nil
	case query.CacheStatus:
		return s.HasFreshCache(ctx, q.(query.CacheStatus).TrainNumber), nil
	case query.CacheStats:
		if q.(query.CacheStats).Reset {
			previous := s.Cache.Stats().Reset()
			log.Info().Int64("hits", previous.Hits).Int64("misses", previous.Misses).Msg("Cache statistics reset")

			return &previous, nil
		}

		snapshot := s.Cache.Stats().Snapshot()
		return &snapshot, nil
	default:
		return nil, source.UnsupportedSourceError
	}
}

// apiKey reads the subscription key through the cache without counting towards the
// hit and miss statistics, those only describe the NS data itself
func (s Source) apiKey(ctx context.Context) (string, error) {
	key := cachedresults.BuildKey(cachedresults.PrefixConfig, "ns_api_key")

	if apiKey, ok := s.Cache.Get(ctx, key); ok && apiKey != "" {
		return apiKey, nil
	}

	apiKey := util.GetEnvironmentVariables()[config.APIKeyVariable]
	if apiKey == "" {
		apiErr := nsapi.NewError(nsapi.ErrorCodeAuth, "NS API key is missing, set "+config.APIKeyVariable)
		apiErr.Log()

		return "", apiErr
	}

	if err := s.Cache.Put(ctx, key, apiKey, s.TTL.ConfigSettings); err != nil {
		log.Warn().Err(err).Msg("Failed to cache NS API key")
	}

	return apiKey, nil
}

func (s Source) request(ctx context.Context, url string, resourceName string) ([]byte, error) {
	apiKey, err := s.apiKey(ctx)
	if err != nil {
		return nil, err
	}

	return s.Client.Request(ctx, url, map[string]string{
		nsapi.SubscriptionKeyHeader: apiKey,
	}, resourceName)
}
