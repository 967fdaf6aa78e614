package ns

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/travigo/livetreinen/pkg/ctdf"
)

// RefreshTrain drops the cached journey for the train together with the shared
// positions list so the next request goes upstream
func (s Source) RefreshTrain(ctx context.Context, trainNumber string) *ctdf.CacheRefresh {
	if trainNumber == "" {
		return &ctdf.CacheRefresh{Success: false, Message: "No train number given"}
	}

	keys := []string{positionsKey, journeyKey(trainNumber)}

	if err := s.Cache.RemoveAll(ctx, keys); err != nil {
		log.Error().Err(err).Str("train", trainNumber).Msg("Failed to refresh cache")
		return &ctdf.CacheRefresh{Success: false, Message: fmt.Sprintf("Refresh failed: %s", err)}
	}

	log.Info().Str("train", trainNumber).Msg("Cache refreshed for train")

	return &ctdf.CacheRefresh{
		Success:     true,
		Message:     fmt.Sprintf("Cache refreshed for train %s", trainNumber),
		ClearedKeys: keys,
	}
}

func (s Source) HasFreshCache(ctx context.Context, trainNumber string) *ctdf.CacheStatus {
	_, cached := s.Cache.Get(ctx, journeyKey(trainNumber))

	return &ctdf.CacheStatus{
		TrainNumber:   trainNumber,
		HasFreshCache: cached,
	}
}
