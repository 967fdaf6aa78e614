package dataaggregator

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/rs/zerolog/log"
	"github.com/travigo/livetreinen/pkg/dataaggregator/source"
)

type Aggregator struct {
	Sources []DataSource
}

var GlobalAggregator Aggregator

func (a *Aggregator) RegisterSource(source DataSource) {
	a.Sources = append(a.Sources, source)

	log.Debug().Str("name", source.GetName()).Msg("Registering new Data Source")
}

// Lookup asks the registered sources that produce T to answer query, in registration order.
// A source answering UnsupportedSourceError hands the query on to the next one.
func Lookup[T any](ctx context.Context, query any) (T, error) {
	return LookupFrom[T](ctx, &GlobalAggregator, query)
}

func LookupFrom[T any](ctx context.Context, aggregator *Aggregator, query any) (T, error) {
	var empty T

	lookupType := reflect.TypeOf(*new(T))
	if lookupType.Kind() == reflect.Pointer {
		lookupType = lookupType.Elem()
	}

	for _, dataSource := range aggregator.Sources {
		matches := false

		for _, supportedType := range dataSource.Supports() {
			if lookupType == supportedType {
				matches = true
				break
			}
		}

		if !matches {
			continue
		}

		returnValue, returnError := dataSource.Lookup(ctx, query)

		if errors.Is(returnError, source.UnsupportedSourceError) {
			continue
		}

		if returnValue == nil {
			return empty, returnError
		}

		value, ok := returnValue.(T)
		if !ok {
			return empty, fmt.Errorf("data source %s returned %T, expected %s", dataSource.GetName(), returnValue, lookupType)
		}

		return value, returnError
	}

	return empty, fmt.Errorf("failed to find a matching Data Source for %s", lookupType)
}
