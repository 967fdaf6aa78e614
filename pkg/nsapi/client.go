package nsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"github.com/travigo/livetreinen/pkg/config"
	"github.com/travigo/livetreinen/pkg/dataaggregator/source/cachedresults"
	"github.com/travigo/livetreinen/pkg/metrics"
)

const SubscriptionKeyHeader = "Ocp-Apim-Subscription-Key"

type Client struct {
	HTTPClient *http.Client
	MaxRetries int

	// Validators enables conditional requests when set
	Validators    *cachedresults.Cache
	ValidatorsTTL time.Duration

	newTimer func() backoff.Timer
}

func NewClient(cfg config.NSAPIConfig, cache *cachedresults.Cache, validatorsTTL time.Duration) *Client {
	client := &Client{
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		MaxRetries: cfg.MaxRetries,
	}

	if cfg.ConditionalRequests {
		client.Validators = cache
		client.ValidatorsTTL = validatorsTTL
	}

	return client
}

// Request performs a GET against url with bounded retries and returns the raw JSON body.
// Every failure is returned as an *APIError.
func (c *Client) Request(ctx context.Context, url string, headers map[string]string, resourceName string) (json.RawMessage, error) {
	policy := &retryPolicy{}
	retries := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.MaxRetries)), ctx)

	var timer backoff.Timer
	if c.newTimer != nil {
		timer = c.newTimer()
	}

	var data json.RawMessage
	attempt := 0

	operation := func() error {
		attempt++
		log.Debug().Str("resource", resourceName).Int("attempt", attempt).Msg("Requesting NS API")

		body, apiErr, retryable := c.attempt(ctx, url, headers, resourceName)
		if apiErr == nil {
			data = body
			return nil
		}

		if !retryable {
			return backoff.Permanent(apiErr)
		}

		policy.lastCode = apiErr.Code
		return apiErr
	}

	notify := func(err error, next time.Duration) {
		event := log.Error()
		if policy.lastCode == ErrorCodeRate || policy.lastCode == ErrorCodeTimeout {
			event = log.Warn()
		}
		event.Err(err).Str("resource", resourceName).Int("attempt", attempt).Str("retry_in", next.String()).Msg("NS API request failed, retrying")
	}

	err := backoff.RetryNotifyWithTimer(operation, retries, notify, timer)
	if err == nil {
		return data, nil
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		apiErr = ClassifyTransportError(err, resourceName)
	}

	apiErr.Log()
	metrics.UpstreamErrors.WithLabelValues(string(apiErr.Code)).Inc()

	return nil, apiErr
}

func (c *Client) attempt(ctx context.Context, url string, headers map[string]string, resourceName string) (json.RawMessage, *APIError, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, NewError(ErrorCodeNetwork, fmt.Sprintf("Invalid request for %s: %s", resourceName, err)), false
	}

	for name, value := range headers {
		req.Header.Set(name, value)
	}

	stored := c.applyValidators(ctx, req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		apiErr := ClassifyTransportError(err, resourceName)
		metrics.UpstreamRequests.WithLabelValues(outcomeLabel(apiErr.Code)).Inc()

		return nil, apiErr, true
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		apiErr := ClassifyTransportError(err, resourceName)
		metrics.UpstreamRequests.WithLabelValues(outcomeLabel(apiErr.Code)).Inc()

		return nil, apiErr, true
	}

	metrics.UpstreamRequests.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode == http.StatusNotModified && stored != nil {
		log.Debug().Str("resource", resourceName).Msg("NS API data not modified, using stored response")
		return stored.Body, nil, false
	}

	if resp.StatusCode != http.StatusOK {
		apiErr, retryable := ClassifyStatus(resp.StatusCode, resourceName)
		if apiErr.Code == ErrorCodeRate {
			log.Warn().Str("resource", resourceName).Int("status", resp.StatusCode).Msg("NS API rate limit exceeded")
		}

		return nil, apiErr, retryable
	}

	if !json.Valid(body) {
		return nil, NewError(ErrorCodeData, fmt.Sprintf("Failed to parse API response for %s", resourceName)), false
	}

	c.storeValidators(ctx, req.URL.String(), resp.Header, body)

	return body, nil, false
}

func outcomeLabel(code ErrorCode) string {
	if code == ErrorCodeTimeout {
		return "timeout"
	}

	return "network"
}

// retryPolicy waits according to the kind of the last failure. Rate limiting backs off
// two seconds per retry, server errors wait one second, transport failures retry at once.
type retryPolicy struct {
	retries  int
	lastCode ErrorCode
}

func (p *retryPolicy) NextBackOff() time.Duration {
	p.retries++

	switch p.lastCode {
	case ErrorCodeRate:
		return time.Duration(p.retries*2) * time.Second
	case ErrorCodeAPI:
		return time.Second
	default:
		return 0
	}
}

func (p *retryPolicy) Reset() {
	p.retries = 0
}
