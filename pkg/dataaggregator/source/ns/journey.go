package ns

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/livetreinen/pkg/ctdf"
	"github.com/travigo/livetreinen/pkg/dataaggregator/source/cachedresults"
	"github.com/travigo/livetreinen/pkg/nsapi"
)

// journeyStop reads each field of an upstream stop on its own, a field with an
// unexpected shape is left at its zero value without losing the others
type journeyStop map[string]json.RawMessage

func (stop journeyStop) text(key string) string {
	var value string
	decodeField(stop, key, &value)
	return value
}

func (stop journeyStop) stopName() string {
	var nested map[string]json.RawMessage
	decodeField(stop, "stop", &nested)
	return journeyStop(nested).text("name")
}

// delay reads delayInSeconds from the first entry of the departures or arrivals list.
// Numeric strings are accepted, anything else unreadable counts as no delay.
func (stop journeyStop) delay(key string) (int, bool) {
	var events []map[string]json.RawMessage
	decodeField(stop, key, &events)
	if len(events) == 0 {
		return 0, false
	}

	var seconds float64
	decodeField(events[0], "delayInSeconds", &seconds)

	var text string
	decodeField(events[0], "delayInSeconds", &text)
	if parsed, err := strconv.ParseFloat(text, 64); err == nil {
		seconds = parsed
	}

	return int(math.Round(seconds)), true
}

func decodeField[T any](fields map[string]json.RawMessage, key string, target *T) {
	raw, ok := fields[key]
	if !ok {
		return
	}

	var value T
	if err := json.Unmarshal(raw, &value); err == nil {
		*target = value
	}
}

func journeyKey(trainNumber string) string {
	return cachedresults.BuildKey(cachedresults.PrefixJourney, trainNumber)
}

func (s Source) JourneyDetails(ctx context.Context, trainNumber string) (*ctdf.JourneyDetail, error) {
	if trainNumber == "" {
		apiErr := nsapi.NewError(nsapi.ErrorCodeData, "No train number given for journey details")
		apiErr.Log()

		return nil, apiErr
	}

	return cachedresults.GetOrFetch(ctx, s.Cache, journeyKey(trainNumber), s.TTL.JourneyDetails, func(ctx context.Context) (*ctdf.JourneyDetail, error) {
		journeyURL := fmt.Sprintf("%s?train=%s&omitCrowdForecast=false", s.Endpoints.JourneyURL, url.QueryEscape(trainNumber))

		data, err := s.request(ctx, journeyURL, fmt.Sprintf("journey details (train %s)", trainNumber))
		if err != nil {
			return nil, err
		}

		return extractJourneyDetail(trainNumber, data), nil
	})
}

// extractJourneyDetail never fails, anything it cannot read is left at its zero value
func extractJourneyDetail(trainNumber string, data []byte) *ctdf.JourneyDetail {
	detail := &ctdf.JourneyDetail{
		LastUpdated: time.Now().UTC(),
	}

	var response struct {
		Payload map[string]json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &response); err != nil || response.Payload == nil {
		log.Warn().Str("train", trainNumber).Msg("Unexpected journey data structure: no payload")
		return detail
	}

	var plannedDuration float64
	if err := json.Unmarshal(response.Payload["plannedDurationInMinutes"], &plannedDuration); err == nil && plannedDuration != 0 {
		minutes := int(math.Round(plannedDuration))
		detail.PlannedDurationInMinutes = &minutes
	}

	var stops []json.RawMessage
	if raw, ok := response.Payload["stops"]; ok {
		if err := json.Unmarshal(raw, &stops); err != nil {
			log.Warn().Err(err).Str("train", trainNumber).Msg("Failed to read journey stops")
			return detail
		}
	}

	switch {
	case len(stops) > 1:
		var nextStop journeyStop
		if err := json.Unmarshal(stops[1], &nextStop); err != nil {
			log.Warn().Err(err).Str("train", trainNumber).Msg("Failed to extract next stop from journey")
			return detail
		}

		detail.NextStopDestination = firstNonEmpty(nextStop.text("destination"), nextStop.text("name"), nextStop.stopName())

		if delay, ok := nextStop.delay("departures"); ok {
			detail.DelayInSeconds = delay
		} else if delay, ok := nextStop.delay("arrivals"); ok {
			detail.DelayInSeconds = delay
		}
	case len(stops) == 1:
		var lastStop journeyStop
		if err := json.Unmarshal(stops[0], &lastStop); err != nil {
			log.Warn().Err(err).Str("train", trainNumber).Msg("Failed to extract last stop from journey")
			return detail
		}

		detail.NextStopDestination = firstNonEmpty(lastStop.text("name"), lastStop.stopName())
		detail.IsLastStop = true

		if delay, ok := lastStop.delay("arrivals"); ok {
			detail.DelayInSeconds = delay
		}
	default:
		log.Warn().Str("train", trainNumber).Msg("Unexpected journey data structure: no stops")
	}

	return detail
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}

	return ""
}
