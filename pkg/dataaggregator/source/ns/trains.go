package ns

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rs/zerolog/log"
	"github.com/travigo/livetreinen/pkg/ctdf"
	"github.com/travigo/livetreinen/pkg/dataaggregator/query"
	"github.com/travigo/livetreinen/pkg/dataaggregator/source/cachedresults"
	"github.com/travigo/livetreinen/pkg/nsapi"
	"github.com/travigo/livetreinen/pkg/util"
)

var positionsKey = cachedresults.BuildKey(cachedresults.PrefixTrain, "positions")

// TrainPositions serves every train from one shared cache entry holding the unfiltered
// list, the train and expression filters run on each request.
func (s Source) TrainPositions(ctx context.Context, q query.TrainPositions) ([]*ctdf.TrainPosition, error) {
	trains, err := cachedresults.GetOrFetch(ctx, s.Cache, positionsKey, s.TTL.TrainPositions, s.fetchTrainPositions)
	if err != nil {
		return nil, err
	}

	if q.TrainID != "" {
		trains = util.Filter(trains, func(train *ctdf.TrainPosition) bool {
			return train.RitID == q.TrainID
		})
		log.Debug().Str("train", q.TrainID).Int("count", len(trains)).Msg("Filtered train positions")
	}

	if q.Filter != nil {
		trains = util.Filter(trains, func(train *ctdf.TrainPosition) bool {
			return matchesFilter(q.Filter, train)
		})
	}

	return trains, nil
}

func (s Source) fetchTrainPositions(ctx context.Context) ([]*ctdf.TrainPosition, error) {
	data, err := s.request(ctx, s.Endpoints.TrainPositionsURL, "train positions")
	if err != nil {
		return nil, err
	}

	trains, err := decodeTrainPositions(data)
	if err != nil {
		apiErr := nsapi.NewError(nsapi.ErrorCodeData, fmt.Sprintf("Failed to decode train positions: %s", err))
		apiErr.Log()

		return nil, apiErr
	}

	log.Info().Int("count", len(trains)).Msg("Received train positions")

	if s.History != nil {
		s.History.RecordAll(ctx, trains)
	}

	return trains, nil
}

func decodeTrainPositions(data []byte) ([]*ctdf.TrainPosition, error) {
	var response struct {
		Payload struct {
			Treinen json.RawMessage `json:"treinen"`
		} `json:"payload"`
	}

	trains := []*ctdf.TrainPosition{}

	if err := json.Unmarshal(data, &response); err != nil || isNull(response.Payload.Treinen) {
		log.Warn().Msg("No train data in API response or unexpected response structure")
		return trains, nil
	}

	if err := json.Unmarshal(response.Payload.Treinen, &trains); err != nil {
		return nil, err
	}

	return util.Filter(trains, func(train *ctdf.TrainPosition) bool {
		return train != nil
	}), nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func CompileFilter(expression string) (*vm.Program, error) {
	return expr.Compile(expression, expr.AsBool(), expr.AllowUndefinedVariables())
}

func matchesFilter(program *vm.Program, train *ctdf.TrainPosition) bool {
	attributes, err := train.Attributes()
	if err != nil {
		return false
	}

	result, err := expr.Run(program, attributes)
	if err != nil {
		log.Debug().Err(err).Str("train", train.RitID).Msg("Filter could not be evaluated for train")
		return false
	}

	matches, _ := result.(bool)
	return matches
}
