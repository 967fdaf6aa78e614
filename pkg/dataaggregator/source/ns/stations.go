package ns

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/travigo/livetreinen/pkg/ctdf"
	"github.com/travigo/livetreinen/pkg/dataaggregator/source/cachedresults"
	"github.com/travigo/livetreinen/pkg/nsapi"
	"github.com/travigo/livetreinen/pkg/util"
)

var stationsKey = cachedresults.BuildKey(cachedresults.PrefixStations, "all")

func (s Source) Stations(ctx context.Context, stationCode string) ([]*ctdf.Station, error) {
	stations, err := cachedresults.GetOrFetch(ctx, s.Cache, stationsKey, s.TTL.Stations, s.fetchStations)
	if err != nil {
		return nil, err
	}

	if stationCode != "" {
		stations = util.Filter(stations, func(station *ctdf.Station) bool {
			return strings.EqualFold(station.Code, stationCode)
		})
	}

	return stations, nil
}

func (s Source) fetchStations(ctx context.Context) ([]*ctdf.Station, error) {
	data, err := s.request(ctx, s.Endpoints.StationsURL, "stations")
	if err != nil {
		return nil, err
	}

	stations, err := decodeStations(data)
	if err != nil {
		apiErr := nsapi.NewError(nsapi.ErrorCodeData, fmt.Sprintf("Failed to decode stations: %s", err))
		apiErr.Log()

		return nil, apiErr
	}

	log.Info().Int("count", len(stations)).Msg("Received stations")

	return stations, nil
}

// decodeStations accepts a payload that is either the station list itself or an
// object holding it under "stations"
func decodeStations(data []byte) ([]*ctdf.Station, error) {
	var response struct {
		Payload json.RawMessage `json:"payload"`
	}

	stations := []*ctdf.Station{}

	if err := json.Unmarshal(data, &response); err != nil || isNull(response.Payload) {
		log.Warn().Msg("No station data in API response or unexpected response structure")
		return stations, nil
	}

	list := response.Payload
	if strings.HasPrefix(strings.TrimSpace(string(list)), "{") {
		var wrapped struct {
			Stations json.RawMessage `json:"stations"`
		}
		if err := json.Unmarshal(list, &wrapped); err != nil {
			return nil, err
		}
		if isNull(wrapped.Stations) {
			log.Warn().Msg("No station data in API response or unexpected response structure")
			return stations, nil
		}
		list = wrapped.Stations
	}

	if err := json.Unmarshal(list, &stations); err != nil {
		return nil, err
	}

	return util.Filter(stations, func(station *ctdf.Station) bool {
		return station != nil
	}), nil
}
