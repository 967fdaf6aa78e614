package trainhistory

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"time"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/travigo/livetreinen/pkg/ctdf"
	"github.com/travigo/livetreinen/pkg/dataaggregator/query"
	"github.com/travigo/livetreinen/pkg/dataaggregator/source"
	"github.com/travigo/livetreinen/pkg/dataaggregator/source/cachedresults"
	"github.com/travigo/livetreinen/pkg/metrics"
)

var InvalidTrainError = errors.New("train has no ritId")

// Source keeps a short rolling position history per train in the cache
type Source struct {
	Cache     *cachedresults.Cache
	TTL       time.Duration
	MaxPoints int
	Workers   int

	// Background makes RecordAll return straight away and record after the caller moves on
	Background bool

	now func() time.Time
}

func (s Source) GetName() string {
	return "Train History"
}

func (s Source) Supports() []reflect.Type {
	return []reflect.Type{
		reflect.TypeOf(ctdf.TrainStats{}),
	}
}

func (s Source) Lookup(ctx context.Context, q any) (interface{}, error) {
	switch q.(type) {
	case query.TrainStats:
		return s.Stats(ctx, q.(query.TrainStats).TrainID), nil
	default:
		return nil, source.UnsupportedSourceError
	}
}

func historyKey(trainID string) string {
	return cachedresults.BuildKey(cachedresults.PrefixStats, "train", trainID)
}

func (s Source) Record(ctx context.Context, train *ctdf.TrainPosition) error {
	if train == nil || train.RitID == "" {
		return InvalidTrainError
	}

	var point ctdf.StatPoint
	if err := copier.Copy(&point, train); err != nil {
		return err
	}
	point.Timestamp = s.timestamp()

	key := historyKey(train.RitID)
	history := s.history(ctx, key)

	history = append(history, point)
	if s.MaxPoints > 0 && len(history) > s.MaxPoints {
		history = history[len(history)-s.MaxPoints:]
	}

	encoded, err := json.Marshal(history)
	if err != nil {
		return err
	}

	if err := s.Cache.Put(ctx, key, string(encoded), s.TTL); err != nil {
		return err
	}

	metrics.RecordedPositions.Inc()

	return nil
}

// RecordAll records every train concurrently on a bounded pool. Unless Background is
// set it waits for the pool to finish.
func (s Source) RecordAll(ctx context.Context, trains []*ctdf.TrainPosition) {
	if s.Background {
		go s.recordAll(context.WithoutCancel(ctx), trains)
		return
	}

	s.recordAll(ctx, trains)
}

func (s Source) recordAll(ctx context.Context, trains []*ctdf.TrainPosition) {
	workers := s.Workers
	if workers <= 0 {
		workers = 1
	}

	p := pool.New().WithMaxGoroutines(workers)

	for _, train := range trains {
		train := train
		p.Go(func() {
			if err := s.Record(ctx, train); err != nil {
				log.Debug().Err(err).Str("train", train.RitID).Msg("Failed to record train position")
			}
		})
	}

	p.Wait()
}

// Stats summarises the recorded history for a train, an unknown train gives empty stats
func (s Source) Stats(ctx context.Context, trainID string) *ctdf.TrainStats {
	return ctdf.NewTrainStats(s.history(ctx, historyKey(trainID)))
}

func (s Source) history(ctx context.Context, key string) []ctdf.StatPoint {
	value, ok := s.Cache.Get(ctx, key)
	if !ok {
		return []ctdf.StatPoint{}
	}

	var history []ctdf.StatPoint
	if err := json.Unmarshal([]byte(value), &history); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Discarding unreadable train history")
		return []ctdf.StatPoint{}
	}

	return history
}

func (s Source) timestamp() time.Time {
	if s.now != nil {
		return s.now()
	}

	return time.Now().UTC()
}
