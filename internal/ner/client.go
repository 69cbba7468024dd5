package ner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/i474232898/vocal-weather/internal/logger"
)

// Entity groups emitted by the camembert-ner-with-dates model.
const (
	GroupLocation = "LOC"
	GroupGPE      = "GPE"
	GroupDate     = "DATE"
)

// Entity is one aggregated span returned by the token-classification endpoint.
type Entity struct {
	Group string  `json:"entity_group"`
	Word  string  `json:"word"`
	Score float64 `json:"score"`
	Start int     `json:"start"`
	End   int     `json:"end"`
}

// ErrUpstreamStatus is returned when the inference endpoint answers with a non-200 status.
var ErrUpstreamStatus = errors.New("inference endpoint returned non-200 status")

// Client calls a hosted NER inference endpoint. It never retries.
type Client struct {
	url   string
	token string
	http  *http.Client
	log   *zap.Logger
}

func NewClient(url, token string, httpClient *http.Client, log *zap.Logger) *Client {
	return &Client{
		url:   url,
		token: token,
		http:  httpClient,
		log:   logger.OrNop(log),
	}
}

// Entities runs the model over text. The returned status code is 0 when no
// response was received.
func (c *Client) Entities(ctx context.Context, text string) ([]Entity, int, error) {
	body, err := json.Marshal(map[string]string{"inputs": text})
	if err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("build inference request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("inference request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, resp.StatusCode, fmt.Errorf("%w: %d %s", ErrUpstreamStatus, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var entities []Entity
	if err := json.NewDecoder(resp.Body).Decode(&entities); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("decode inference response: %w", err)
	}

	c.log.Debug("entities extracted", zap.Int("count", len(entities)))
	return entities, resp.StatusCode, nil
}

// first returns the first entity whose group is one of groups.
func first(entities []Entity, groups ...string) (Entity, bool) {
	for _, e := range entities {
		for _, g := range groups {
			if strings.EqualFold(e.Group, g) {
				return e, true
			}
		}
	}
	return Entity{}, false
}
