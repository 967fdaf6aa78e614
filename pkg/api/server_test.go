package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/travigo/livetreinen/pkg/config"
	"github.com/travigo/livetreinen/pkg/ctdf"
	"github.com/travigo/livetreinen/pkg/dataaggregator"
	"github.com/travigo/livetreinen/pkg/dataaggregator/global"
	"github.com/travigo/livetreinen/pkg/dataaggregator/source/cachedresults"
)

const positionsBody = `{"payload":{"treinen":[
	{"ritId":"123","lat":52.09,"lng":5.11,"snelheid":130},
	{"ritId":456,"lat":52.37,"lng":4.89,"snelheid":40}
]}}`

const journeyBody = `{"payload":{"stops":[{"name":"Utrecht Centraal"},{"destination":"Amsterdam Centraal","departures":[{"delayInSeconds":60}]}]}}`

func setupUpstream(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	t.Setenv(config.APIKeyVariable, "test-key")

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.NSAPI.TrainPositionsURL = server.URL + "/vehicle"
	cfg.NSAPI.JourneyURL = server.URL + "/journey"
	cfg.NSAPI.StationsURL = server.URL + "/stations"
	cfg.NSAPI.MaxRetries = 0
	cfg.Stats.Background = false

	dataaggregator.GlobalAggregator = global.NewAggregator(cfg, cachedresults.NewMemoryCache(cfg.CacheTTL.Default))
}

func healthyUpstream(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/vehicle":
		w.Write([]byte(positionsBody))
	case "/journey":
		w.Write([]byte(journeyBody))
	case "/stations":
		w.Write([]byte(`{"payload":[{"code":"UT","namen":{"lang":"Utrecht Centraal"}}]}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func get(t *testing.T, target string) (*http.Response, []byte) {
	t.Helper()

	resp, err := NewApp().Test(httptest.NewRequest(http.MethodGet, target, nil), -1)
	if err != nil {
		t.Fatalf("Test(%s) err=%v", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}

	return resp, body
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()

	var value T
	if err := json.Unmarshal(body, &value); err != nil {
		t.Fatalf("Unmarshal(%s) err=%v", body, err)
	}
	return value
}

type errorBody struct {
	Error      bool   `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

func TestRouter_DefaultServesPage(t *testing.T) {
	setupUpstream(t, healthyUpstream)

	for _, target := range []string{"/", "/?action=unknown"} {
		resp, body := get(t, target)

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s status=%d", target, resp.StatusCode)
		}
		if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
			t.Fatalf("%s Content-Type=%q", target, resp.Header.Get("Content-Type"))
		}
		if !strings.Contains(string(body), "Live Treinposities") {
			t.Fatalf("%s did not serve the page", target)
		}
	}
}

func TestRouter_GetData(t *testing.T) {
	setupUpstream(t, healthyUpstream)

	resp, body := get(t, "/?action=getData")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.StatusCode, body)
	}
	if trains := decode[[]map[string]any](t, body); len(trains) != 2 {
		t.Fatalf("trains=%v", trains)
	}

	_, body = get(t, "/?action=getData&trainId=456")
	trains := decode[[]map[string]any](t, body)
	if len(trains) != 1 || trains[0]["ritId"] != float64(456) {
		t.Fatalf("trains=%v", trains)
	}
}

func TestRouter_GetDataFilter(t *testing.T) {
	setupUpstream(t, healthyUpstream)

	_, body := get(t, "/?action=getData&filter=snelheid%20%3E%20100")
	trains := decode[[]map[string]any](t, body)
	if len(trains) != 1 || trains[0]["ritId"] != "123" {
		t.Fatalf("trains=%v", trains)
	}

	resp, body := get(t, "/?action=getData&filter=snelheid%20%3E")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", resp.StatusCode)
	}
	if e := decode[errorBody](t, body); !e.Error || e.StatusCode != 400 || e.Message == "" {
		t.Fatalf("body=%s", body)
	}
}

func TestRouter_UpstreamErrorIsJSONWith200(t *testing.T) {
	setupUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	resp, body := get(t, "/?action=getData")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d, want 200", resp.StatusCode)
	}

	apiErr := decode[map[string]any](t, body)
	if apiErr["error"] != "AUTH_ERROR" || apiErr["message"] == "" || apiErr["details"] == "" || apiErr["timestamp"] == "" {
		t.Fatalf("body=%s", body)
	}
}

func TestRouter_MissingParametersAre400(t *testing.T) {
	setupUpstream(t, healthyUpstream)

	for _, action := range []string{"getJourney", "getTrainStats", "refreshTrainData", "checkCache"} {
		resp, body := get(t, "/?action="+action)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s status=%d, want 400", action, resp.StatusCode)
		}

		e := decode[errorBody](t, body)
		if !e.Error || e.StatusCode != http.StatusBadRequest || e.Message == "" {
			t.Fatalf("%s body=%s", action, body)
		}
	}
}

func TestRouter_GetJourney(t *testing.T) {
	setupUpstream(t, healthyUpstream)

	resp, body := get(t, "/?action=getJourney&train=1234")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}

	journey := decode[ctdf.JourneyDetail](t, body)
	if journey.NextStopDestination != "Amsterdam Centraal" || journey.DelayInSeconds != 60 {
		t.Fatalf("journey=%+v", journey)
	}
}

func TestRouter_GetStations(t *testing.T) {
	setupUpstream(t, healthyUpstream)

	_, body := get(t, "/?action=getStations&stationCode=ut")
	stations := decode[[]ctdf.Station](t, body)
	if len(stations) != 1 || stations[0].Code != "UT" {
		t.Fatalf("stations=%+v", stations)
	}
}

func TestRouter_GetTrainStats(t *testing.T) {
	setupUpstream(t, healthyUpstream)

	get(t, "/?action=getData")

	_, body := get(t, "/?action=getTrainStats&trainId=123")
	stats := decode[ctdf.TrainStats](t, body)
	if len(stats.History) != 1 || stats.AverageSpeed != 130 {
		t.Fatalf("stats=%+v", stats)
	}
}

func TestRouter_CacheActions(t *testing.T) {
	setupUpstream(t, healthyUpstream)

	get(t, "/?action=getJourney&train=1234")

	_, body := get(t, "/?action=checkCache&train=1234")
	if status := decode[ctdf.CacheStatus](t, body); !status.HasFreshCache || status.TrainNumber != "1234" {
		t.Fatalf("checkCache=%s", body)
	}

	_, body = get(t, "/?action=getCacheStats")
	if stats := decode[cachedresults.StatsSnapshot](t, body); stats.Misses == 0 {
		t.Fatalf("getCacheStats=%s", body)
	}

	_, body = get(t, "/?action=refreshTrainData&train=1234")
	if refresh := decode[ctdf.CacheRefresh](t, body); !refresh.Success || len(refresh.ClearedKeys) != 2 {
		t.Fatalf("refreshTrainData=%s", body)
	}

	_, body = get(t, "/?action=checkCache&train=1234")
	if status := decode[ctdf.CacheStatus](t, body); status.HasFreshCache {
		t.Fatalf("checkCache after refresh=%s", body)
	}

	_, body = get(t, "/?action=resetCacheStats")
	reset := decode[map[string]any](t, body)
	if reset["success"] != true || reset["previous"] == nil {
		t.Fatalf("resetCacheStats=%s", body)
	}

	_, body = get(t, "/?action=getCacheStats")
	if stats := decode[cachedresults.StatsSnapshot](t, body); stats.Total != 0 {
		t.Fatalf("getCacheStats after reset=%s", body)
	}
}

type panickingSource struct{}

func (panickingSource) GetName() string { return "panics" }

func (panickingSource) Supports() []reflect.Type {
	return []reflect.Type{reflect.TypeOf([]*ctdf.TrainPosition{})}
}

func (panickingSource) Lookup(context.Context, any) (interface{}, error) {
	panic("unexpected upstream shape")
}

func TestRouter_PanicIs500(t *testing.T) {
	dataaggregator.GlobalAggregator = dataaggregator.Aggregator{}
	dataaggregator.GlobalAggregator.RegisterSource(panickingSource{})

	resp, body := get(t, "/?action=getData")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status=%d, want 500", resp.StatusCode)
	}
	if e := decode[errorBody](t, body); !e.Error || e.StatusCode != 500 {
		t.Fatalf("body=%s", body)
	}
}

func TestRouter_MissingSourceIs500(t *testing.T) {
	dataaggregator.GlobalAggregator = dataaggregator.Aggregator{}

	resp, _ := get(t, "/?action=getJourney&train=1")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status=%d, want 500", resp.StatusCode)
	}
}

func TestRouter_VersionAndMetrics(t *testing.T) {
	setupUpstream(t, healthyUpstream)

	resp, body := get(t, "/version")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "version") {
		t.Fatalf("/version status=%d body=%s", resp.StatusCode, body)
	}

	get(t, "/?action=getData")

	resp, body = get(t, "/metrics")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "livetreinen_cache_lookups_total") {
		t.Fatalf("/metrics status=%d", resp.StatusCode)
	}
}
