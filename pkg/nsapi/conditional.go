package nsapi

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/travigo/livetreinen/pkg/dataaggregator/source/cachedresults"
)

type storedResponse struct {
	ETag         string          `json:"etag,omitempty"`
	LastModified string          `json:"lastModified,omitempty"`
	Body         json.RawMessage `json:"body"`
}

func validatorsKey(url string) string {
	hash := sha1.Sum([]byte(url))

	return cachedresults.BuildKey(cachedresults.PrefixConfig, "api_headers", hex.EncodeToString(hash[:]))
}

func (c *Client) applyValidators(ctx context.Context, req *http.Request) *storedResponse {
	if c.Validators == nil {
		return nil
	}

	value, ok := c.Validators.Get(ctx, validatorsKey(req.URL.String()))
	if !ok {
		return nil
	}

	var stored storedResponse
	if err := json.Unmarshal([]byte(value), &stored); err != nil {
		log.Warn().Err(err).Msg("Failed to read stored validators for conditional request")
		return nil
	}

	if stored.ETag != "" {
		req.Header.Set("If-None-Match", stored.ETag)
	}
	if stored.LastModified != "" {
		req.Header.Set("If-Modified-Since", stored.LastModified)
	}

	return &stored
}

func (c *Client) storeValidators(ctx context.Context, url string, header http.Header, body []byte) {
	if c.Validators == nil {
		return
	}

	stored := storedResponse{
		ETag:         header.Get("ETag"),
		LastModified: header.Get("Last-Modified"),
		Body:         body,
	}
	if stored.ETag == "" && stored.LastModified == "" {
		return
	}

	encoded, err := json.Marshal(stored)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to encode validators")
		return
	}

	if err := c.Validators.Put(ctx, validatorsKey(url), string(encoded), c.ValidatorsTTL); err != nil {
		log.Warn().Err(err).Msg("Failed to store validators")
	}
}
